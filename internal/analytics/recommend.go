package analytics

import (
	"strings"

	"github.com/survey_insights/backend/internal/models"
)

// RecommendThreshold is below PromoterThreshold: a 7 or 8 counts as "would
// recommend" here while NPS treats it as passive.
const RecommendThreshold = 7

// WouldRecommend checks the recommendation fields in priority order and
// stops at the first one that is present.
func WouldRecommend(s models.Submission) bool {
	if s.WouldRecommend != nil {
		return *s.WouldRecommend
	}
	if s.WouldRecommendText != nil {
		return strings.EqualFold(strings.TrimSpace(*s.WouldRecommendText), "true")
	}
	switch s.Recommendation.Kind {
	case models.RawNumber:
		return s.Recommendation.Number >= RecommendThreshold
	case models.RawText:
		v := strings.ToLower(strings.TrimSpace(s.Recommendation.Text))
		return v == "yes" || v == "true"
	}
	return false
}
