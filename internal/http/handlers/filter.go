package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/survey_insights/backend/internal/models"
)

const dateLayout = "2006-01-02"

func (h *Handler) filter(c *gin.Context) (models.Filter, bool) {
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	f, err := parseFilter(c.Query("from"), c.Query("to"), loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_FILTER", "Invalid date range", err.Error())
		return models.Filter{}, false
	}
	return f, true
}

// parseFilter accepts RFC3339 timestamps or plain dates. A plain "to" date
// includes that whole day.
func parseFilter(from, to string, loc *time.Location) (models.Filter, error) {
	var f models.Filter
	if from != "" {
		t, _, err := parseBound(from, loc)
		if err != nil {
			return models.Filter{}, fmt.Errorf("from: %w", err)
		}
		f.From = &t
	}
	if to != "" {
		t, dateOnly, err := parseBound(to, loc)
		if err != nil {
			return models.Filter{}, fmt.Errorf("to: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return models.Filter{}, fmt.Errorf("from must be before to")
	}
	return f, nil
}

func parseBound(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t, false, nil
}
