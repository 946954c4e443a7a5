package analytics

import (
	"sort"
	"time"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/utils"
)

const topLocationsLimit = 3

type Options struct {
	// Location is the timezone used for time-of-day buckets.
	Location *time.Location
	// RecencyFallback substitutes an estimate for recency buckets that have
	// submissions but no ratings. Kept for compatibility with older dashboards.
	RecencyFallback bool
	Ease            EaseTable
}

// Build assembles the full bundle from one snapshot.
func Build(snap *Snapshot, opts Options) models.AggregateBundle {
	ratings := snap.SubmissionRatings
	userTypes := Aggregate(snap.Submissions, ByUserType, ratings)

	return models.AggregateBundle{
		Overview: buildOverview(snap),
		Demographics: models.Demographics{
			UserTypes:    Breakdown(snap.Submissions, ByUserType, ratings, models.UserTypes),
			PatientTypes: Breakdown(snap.Submissions, ByPatientType, ratings, keysOf(models.PatientTypes)),
		},
		TimeOfDay:           Breakdown(snap.Submissions, ByDayPart(opts.Location), ratings, DayParts),
		Recency:             buildRecency(snap, opts.RecencyFallback),
		ImprovementAreas:    Rank(LocationAggregates(snap), opts.Ease),
		VisitPurposes:       buildComparison(snap, ByVisitPurpose, keysOf(models.VisitPurposes)),
		PatientTypes:        buildComparison(snap, ByPatientType, keysOf(models.PatientTypes)),
		UserTypes:           distribution(userTypes, models.UserTypes),
		GeneralObservations: buildObservations(snap.Observations),
	}
}

func buildOverview(snap *Snapshot) models.Overview {
	all := Aggregate(snap.Submissions, Everything, snap.SubmissionRatings)[""]
	purposes := Aggregate(snap.Submissions, ByVisitPurpose, nil)

	overview := models.Overview{
		TotalResponses:    all.Count,
		RecommendRate:     all.RecommendRate,
		AvgSatisfaction:   all.AvgSatisfaction,
		MostCommonPurpose: models.NoData,
	}
	best := 0
	for _, k := range OrderedKeys(purposes, keysOf(models.VisitPurposes)) {
		count := purposes[k].Count
		overview.PurposeDistribution = append(overview.PurposeDistribution, models.PurposeShare{
			Name:       k,
			Count:      count,
			Percentage: utils.Percent(count, all.Count),
		})
		if count > best {
			best = count
			overview.MostCommonPurpose = k
		}
	}
	return overview
}

func buildRecency(snap *Snapshot, fallback bool) []models.RecencyMetrics {
	groups := Aggregate(snap.Submissions, ByRecency, snap.SubmissionRatings)
	keys := OrderedKeys(groups, keysOf(models.RecencyBuckets))
	out := make([]models.RecencyMetrics, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		m := models.RecencyMetrics{GroupMetrics: toMetrics(k, g)}
		if fallback && g.Count > 0 && g.Rated == 0 {
			m.Satisfaction = RecencyFallbackSatisfaction(g.RecommendRate)
			m.FallbackApplied = true
		}
		out = append(out, m)
	}
	return out
}

type locationTally struct {
	id    string
	name  string
	sum   float64
	count int
}

func (t locationTally) avg() float64 {
	if t.count == 0 {
		return 0
	}
	return utils.RoundHalfUp1(t.sum / float64(t.count))
}

func buildComparison(snap *Snapshot, key KeyFunc, fixed []string) []models.ComparisonGroup {
	groups := Aggregate(snap.Submissions, key, snap.SubmissionRatings)

	departments := map[string]map[string]*locationTally{}
	for _, r := range snap.Ratings {
		if snap.locationType(r.LocationID, r.LocationType) != models.LocationDepartment {
			continue
		}
		sub, ok := snap.submission(r.SubmissionID)
		if !ok {
			continue
		}
		values := NormalizeAll(r.Values, models.RatingCategories)
		if len(values) == 0 {
			continue
		}
		t := tally(departments, key(sub), r.LocationID, snap.locationName(r.LocationID, r.LocationName))
		t.sum += mean(values)
		t.count++
	}

	visited := map[string]map[string]*locationTally{}
	for _, v := range snap.Visits {
		sub, ok := snap.submission(v.SubmissionID)
		if !ok {
			continue
		}
		t := tally(visited, key(sub), v.LocationID, snap.locationName(v.LocationID, v.LocationName))
		t.count++
	}

	keys := OrderedKeys(groups, fixed)
	out := make([]models.ComparisonGroup, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		top, bottom := topAndBottom(departments[k])
		out = append(out, models.ComparisonGroup{
			Name:             k,
			Count:            g.Count,
			Satisfaction:     g.AvgSatisfaction,
			RecommendRate:    g.RecommendRate,
			TopDepartment:    top,
			BottomDepartment: bottom,
			TopLocations:     mostVisited(visited[k], topLocationsLimit),
		})
	}
	return out
}

func tally(m map[string]map[string]*locationTally, group, id, name string) *locationTally {
	byLocation, ok := m[group]
	if !ok {
		byLocation = map[string]*locationTally{}
		m[group] = byLocation
	}
	t, ok := byLocation[id]
	if !ok {
		t = &locationTally{id: id, name: name}
		byLocation[id] = t
	}
	return t
}

// topAndBottom picks the best and worst rated departments; equal averages go
// to the lower location id.
func topAndBottom(byLocation map[string]*locationTally) (string, string) {
	if len(byLocation) == 0 {
		return models.NoData, models.NoData
	}
	ids := make([]string, 0, len(byLocation))
	for id := range byLocation {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	top, bottom := byLocation[ids[0]], byLocation[ids[0]]
	for _, id := range ids[1:] {
		t := byLocation[id]
		if t.avg() > top.avg() {
			top = t
		}
		if t.avg() < bottom.avg() {
			bottom = t
		}
	}
	return top.name, bottom.name
}

func mostVisited(byLocation map[string]*locationTally, limit int) []models.NameCount {
	list := make([]*locationTally, 0, len(byLocation))
	for _, t := range byLocation {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count == list[j].count {
			return list[i].id < list[j].id
		}
		return list[i].count > list[j].count
	})
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.NameCount, 0, len(list))
	for _, t := range list {
		out = append(out, models.NameCount{Name: t.name, Count: t.count})
	}
	return out
}

func distribution(groups map[string]GroupStats, fixed []string) []models.NameCount {
	keys := OrderedKeys(groups, fixed)
	out := make([]models.NameCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.NameCount{Name: k, Count: groups[k].Count})
	}
	return out
}

func buildObservations(observations []models.Observation) []models.ObservationAverage {
	sums := map[models.ObservationCategory]int{}
	counts := map[models.ObservationCategory]int{}
	for _, o := range observations {
		for _, c := range models.ObservationCategories {
			if score, ok := Normalize(o.Values[c]); ok {
				sums[c] += score
				counts[c]++
			}
		}
	}
	out := make([]models.ObservationAverage, 0, len(models.ObservationCategories))
	for _, c := range models.ObservationCategories {
		avg := 0.0
		if counts[c] > 0 {
			avg = utils.RoundHalfUp1(float64(sums[c]) / float64(counts[c]))
		}
		out = append(out, models.ObservationAverage{Category: string(c), Average: avg, Count: counts[c]})
	}
	return out
}
