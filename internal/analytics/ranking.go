package analytics

import (
	"sort"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/utils"
)

const (
	CriticalSatisfaction = 2.5
	CriticalVisits       = 5
	QuickWinEase         = 4
	QuickWinImpact       = 2.5
	DefaultEase          = 3
)

const (
	RecommendUrgent   = "Urgent review needed: satisfaction is well below target. Investigate the root causes with staff and act immediately."
	RecommendTargeted = "Targeted improvement: address the most frequent concerns raised about this area."
	RecommendMaintain = "Performing well: maintain current standards and share best practice with other areas."
)

type LocationStats struct {
	LocationID      string
	Name            string
	Type            models.LocationType
	AvgSatisfaction float64
	RatingCount     int
	VisitCount      int
}

// EaseTable holds how easy each location is to fix, 1 (hard) to 5 (easy).
type EaseTable struct {
	Default    int
	ByLocation map[string]int
}

func (e EaseTable) For(locationID string) int {
	if v, ok := e.ByLocation[locationID]; ok && v >= MinRating && v <= MaxRating {
		return v
	}
	if e.Default >= MinRating && e.Default <= MaxRating {
		return e.Default
	}
	return DefaultEase
}

// LocationAggregates computes per-location satisfaction from rating records
// and visit counts from visit links. Locations nobody rated are skipped.
// The result is ordered by location id.
func LocationAggregates(snap *Snapshot) []LocationStats {
	type acc struct {
		stats LocationStats
		sum   float64
	}
	byID := map[string]*acc{}
	for _, r := range snap.Ratings {
		values := NormalizeAll(r.Values, models.RatingCategories)
		if len(values) == 0 {
			continue
		}
		a, ok := byID[r.LocationID]
		if !ok {
			a = &acc{stats: LocationStats{
				LocationID: r.LocationID,
				Name:       snap.locationName(r.LocationID, r.LocationName),
				Type:       snap.locationType(r.LocationID, r.LocationType),
			}}
			byID[r.LocationID] = a
		}
		a.sum += mean(values)
		a.stats.RatingCount++
	}
	for _, v := range snap.Visits {
		if a, ok := byID[v.LocationID]; ok {
			a.stats.VisitCount++
		}
	}

	out := make([]LocationStats, 0, len(byID))
	for _, a := range byID {
		a.stats.AvgSatisfaction = utils.RoundHalfUp1(a.sum / float64(a.stats.RatingCount))
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

// Rank orders locations worst first. Equal satisfaction falls back to
// location id so the order does not depend on how the rows were fetched.
func Rank(stats []LocationStats, ease EaseTable) []models.ImprovementArea {
	sorted := make([]LocationStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AvgSatisfaction == sorted[j].AvgSatisfaction {
			return sorted[i].LocationID < sorted[j].LocationID
		}
		return sorted[i].AvgSatisfaction < sorted[j].AvgSatisfaction
	})

	out := make([]models.ImprovementArea, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, improvementArea(s, ease.For(s.LocationID)))
	}
	return out
}

func improvementArea(s LocationStats, ease int) models.ImprovementArea {
	impact := utils.RoundHalfUp1(MaxRating - utils.Clamp(s.AvgSatisfaction, 0, MaxRating))
	return models.ImprovementArea{
		LocationID:     s.LocationID,
		Area:           s.Name,
		Satisfaction:   s.AvgSatisfaction,
		VisitCount:     s.VisitCount,
		Impact:         impact,
		IsQuickWin:     ease >= QuickWinEase && impact >= QuickWinImpact,
		IsCritical:     s.AvgSatisfaction <= CriticalSatisfaction && s.VisitCount >= CriticalVisits,
		Recommendation: recommendationFor(s.AvgSatisfaction),
	}
}

func recommendationFor(satisfaction float64) string {
	switch {
	case satisfaction < 3:
		return RecommendUrgent
	case satisfaction < 4:
		return RecommendTargeted
	default:
		return RecommendMaintain
	}
}
