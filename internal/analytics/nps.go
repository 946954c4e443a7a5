package analytics

import (
	"math"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/utils"
)

const (
	PromoterThreshold = 9
	PassiveThreshold  = 7
)

// NPS classifies 0..10 scores and returns the score rescaled onto 0..100:
// round(((%promoters - %detractors) + 100) / 2). Empty input is all zeros.
func NPS(scores []int) models.NPSResult {
	var res models.NPSResult
	for _, s := range scores {
		switch {
		case s >= PromoterThreshold:
			res.Promoters++
		case s >= PassiveThreshold:
			res.Passives++
		default:
			res.Detractors++
		}
	}
	res.Total = len(scores)
	if res.Total == 0 {
		return res
	}
	total := float64(res.Total)
	net := 100*float64(res.Promoters)/total - 100*float64(res.Detractors)/total
	res.Score = int(utils.Clamp(math.Floor((net+100)/2+0.5), 0, 100))
	return res
}

// LoyaltyScores collects numeric recommendation answers that fall on the
// 0..10 scale; text answers and out-of-range numbers are not scores.
func LoyaltyScores(submissions []models.Submission) []int {
	out := make([]int, 0, len(submissions))
	for _, s := range submissions {
		if s.Recommendation.Kind != models.RawNumber {
			continue
		}
		v := math.Floor(s.Recommendation.Number + 0.5)
		if v < 0 || v > 10 {
			continue
		}
		out = append(out, int(v))
	}
	return out
}
