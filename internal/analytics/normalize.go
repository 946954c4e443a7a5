// Package analytics turns survey records into dashboard statistics. Every
// function here is pure: it reads an immutable snapshot and returns new values.
package analytics

import (
	"math"
	"strings"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/utils"
)

const (
	MinRating = 1
	MaxRating = 5
	// MiddleGrade is what an unrecognised grade string counts as. This hides
	// malformed answers instead of rejecting them.
	MiddleGrade = 3
)

var gradeScores = map[string]int{
	"excellent": 5,
	"very good": 4,
	"good":      3,
	"fair":      2,
	"poor":      1,
}

// Normalize maps a raw rating onto the 1..5 scale. The bool is false when the
// value is absent; absent ratings must be left out of averages.
func Normalize(v models.RawValue) (int, bool) {
	switch v.Kind {
	case models.RawText:
		return NormalizeGrade(v.Text), true
	case models.RawNumber:
		return NormalizeNumber(v.Number), true
	default:
		return 0, false
	}
}

func NormalizeGrade(s string) int {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if score, ok := gradeScores[key]; ok {
		return score
	}
	return MiddleGrade
}

func NormalizeNumber(f float64) int {
	if math.IsNaN(f) {
		return MiddleGrade
	}
	return int(utils.Clamp(math.Floor(f+0.5), MinRating, MaxRating))
}

// NormalizeAll flattens the present values of a record, in category order.
func NormalizeAll[K ~string](values map[K]models.RawValue, categories []K) []int {
	out := make([]int, 0, len(categories))
	for _, c := range categories {
		if score, ok := Normalize(values[c]); ok {
			out = append(out, score)
		}
	}
	return out
}
