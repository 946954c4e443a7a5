package analytics

import (
	"sort"
	"time"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/utils"
)

type KeyFunc func(models.Submission) string

// RatingExtractor returns every normalized rating that belongs to a
// submission, possibly across several categories and locations.
type RatingExtractor func(models.Submission) []int

type GroupStats struct {
	Count           int     `json:"count"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	RecommendRate   int     `json:"recommend_rate"`
	// Rated counts submissions that had at least one rating.
	Rated int `json:"-"`
}

type accumulator struct {
	count        int
	rated        int
	recommended  int
	satisfaction float64
}

func (a *accumulator) add(s models.Submission, ratings []int) {
	a.count++
	if WouldRecommend(s) {
		a.recommended++
	}
	if len(ratings) > 0 {
		a.rated++
		a.satisfaction += mean(ratings)
	}
}

func (a accumulator) stats() GroupStats {
	out := GroupStats{
		Count:         a.count,
		RecommendRate: utils.Percent(a.recommended, a.count),
		Rated:         a.rated,
	}
	if a.rated > 0 {
		out.AvgSatisfaction = utils.RoundHalfUp1(a.satisfaction / float64(a.rated))
	}
	return out
}

// Aggregate groups records by key in a single pass. A submission's
// satisfaction is the mean of everything the extractor returns for it, and a
// group's satisfaction is the mean over its rated submissions.
func Aggregate(records []models.Submission, key KeyFunc, ratings RatingExtractor) map[string]GroupStats {
	acc := map[string]*accumulator{}
	for _, r := range records {
		k := key(r)
		a, ok := acc[k]
		if !ok {
			a = &accumulator{}
			acc[k] = a
		}
		var values []int
		if ratings != nil {
			values = ratings(r)
		}
		a.add(r, values)
	}
	out := make(map[string]GroupStats, len(acc))
	for k, a := range acc {
		out[k] = a.stats()
	}
	return out
}

// OrderedKeys lists the fixed keys first, in their given order, followed by
// any other keys found in groups sorted by name.
func OrderedKeys(groups map[string]GroupStats, fixed []string) []string {
	seen := make(map[string]struct{}, len(fixed))
	out := make([]string, 0, len(fixed)+len(groups))
	for _, k := range fixed {
		seen[k] = struct{}{}
		out = append(out, k)
	}
	var extra []string
	for k := range groups {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Breakdown aggregates and flattens into metrics, zero-filling fixed keys.
func Breakdown(records []models.Submission, key KeyFunc, ratings RatingExtractor, fixed []string) []models.GroupMetrics {
	groups := Aggregate(records, key, ratings)
	keys := OrderedKeys(groups, fixed)
	out := make([]models.GroupMetrics, 0, len(keys))
	for _, k := range keys {
		out = append(out, toMetrics(k, groups[k]))
	}
	return out
}

func toMetrics(name string, g GroupStats) models.GroupMetrics {
	return models.GroupMetrics{
		Name:          name,
		Count:         g.Count,
		Satisfaction:  g.AvgSatisfaction,
		RecommendRate: g.RecommendRate,
	}
}

const (
	Morning   = "Morning"
	Afternoon = "Afternoon"
	Evening   = "Evening"
)

var DayParts = []string{Morning, Afternoon, Evening}

// DayPart buckets by local hour: [8,12) morning, [12,17) afternoon, rest evening.
func DayPart(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	h := t.In(loc).Hour()
	switch {
	case h >= 8 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	default:
		return Evening
	}
}

// RecencyFallbackSatisfaction estimates satisfaction for a recency bucket
// that has submissions but no ratings, from its recommend rate.
func RecencyFallbackSatisfaction(recommendRate int) float64 {
	switch {
	case recommendRate >= 70:
		return 3.5
	case recommendRate >= 50:
		return 3.0
	default:
		return 2.5
	}
}

func ByVisitPurpose(s models.Submission) string { return string(s.VisitPurpose) }
func ByRecency(s models.Submission) string      { return string(s.Recency) }
func ByUserType(s models.Submission) string     { return s.UserType }
func ByPatientType(s models.Submission) string  { return string(s.PatientType) }
func Everything(models.Submission) string       { return "" }

func ByDayPart(loc *time.Location) KeyFunc {
	return func(s models.Submission) string {
		return DayPart(s.SubmittedAt, loc)
	}
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func keysOf[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
