package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/survey_insights/backend/internal/models"
)

type RatingRequest struct {
	LocationID string                     `json:"location_id" validate:"required,max=64"`
	Values     map[string]models.RawValue `json:"values" validate:"required,min=1"`
}

type SubmissionRequest struct {
	VisitPurpose       string                     `json:"visit_purpose" validate:"required,oneof='General Practice' 'Occupational Health'"`
	Recency            string                     `json:"recency" validate:"required,oneof='Less than a month' '1-6 months' '6-12 months' 'Over a year'"`
	UserType           string                     `json:"user_type" validate:"required,oneof=Patient 'Family Member' Caregiver Visitor Staff"`
	PatientType        string                     `json:"patient_type" validate:"required,oneof=New Returning"`
	WouldRecommend     *bool                      `json:"would_recommend"`
	Recommendation     *float64                   `json:"recommendation" validate:"omitempty,min=0,max=10"`
	Locations          []string                   `json:"locations" validate:"omitempty,dive,required,max=64"`
	Ratings            []RatingRequest            `json:"ratings" validate:"omitempty,dive"`
	GeneralObservation map[string]models.RawValue `json:"general_observation"`
}

type SubmissionResponse struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// @Summary Submit a survey
// @Description Stores one completed survey in a single transaction and drops cached analytics.
// @Tags submissions
// @Accept json
// @Produce json
// @Param body body SubmissionRequest true "survey answers"
// @Success 201 {object} SubmissionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/submissions [post]
func (h *Handler) SubmitSurvey(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	known, err := h.Store.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load locations", err.Error())
		return
	}
	in, problems := buildSurveyInput(req, known, h.now())
	if len(problems) > 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", problems)
		return
	}

	if err := h.Store.InsertSubmission(c.Request.Context(), in); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save submission", err.Error())
		return
	}
	h.Insights.Invalidate()
	h.Logger.Info().
		Str("submission_id", in.Submission.ID).
		Int("ratings", len(in.Ratings)).
		Int("locations", len(in.VisitedLocations)).
		Msg("survey submitted")
	c.JSON(http.StatusCreated, SubmissionResponse{ID: in.Submission.ID, SubmittedAt: in.Submission.SubmittedAt})
}

var (
	ratingCategorySet      = categorySet(models.RatingCategories)
	observationCategorySet = categorySet(models.ObservationCategories)
)

func categorySet[K ~string](categories []K) map[string]K {
	out := make(map[string]K, len(categories))
	for _, c := range categories {
		out[string(c)] = c
	}
	return out
}

// buildSurveyInput maps the request onto stored records. Every rated location
// also counts as visited.
func buildSurveyInput(req SubmissionRequest, known []models.Location, now time.Time) (models.SurveyInput, []string) {
	locations := make(map[string]bool, len(known))
	for _, l := range known {
		locations[l.ID] = true
	}

	var problems []string
	sub := models.Submission{
		ID:             uuid.NewString(),
		SubmittedAt:    now.UTC(),
		VisitPurpose:   models.VisitPurpose(req.VisitPurpose),
		Recency:        models.RecencyBucket(req.Recency),
		UserType:       req.UserType,
		PatientType:    models.PatientType(req.PatientType),
		WouldRecommend: req.WouldRecommend,
	}
	if req.Recommendation != nil {
		sub.Recommendation = models.NumberValue(*req.Recommendation)
	}

	visited := map[string]bool{}
	for _, id := range req.Locations {
		if !locations[id] {
			problems = append(problems, fmt.Sprintf("unknown location %q", id))
			continue
		}
		visited[id] = true
	}

	in := models.SurveyInput{Submission: sub}
	for _, r := range req.Ratings {
		if !locations[r.LocationID] {
			problems = append(problems, fmt.Sprintf("unknown location %q", r.LocationID))
			continue
		}
		values := map[models.RatingCategory]models.RawValue{}
		for name, v := range r.Values {
			c, ok := ratingCategorySet[name]
			if !ok {
				problems = append(problems, fmt.Sprintf("unknown rating category %q", name))
				continue
			}
			if v.Present() {
				values[c] = v
			}
		}
		visited[r.LocationID] = true
		in.Ratings = append(in.Ratings, models.Rating{
			ID:         uuid.NewString(),
			LocationID: r.LocationID,
			Values:     values,
		})
	}

	if len(req.GeneralObservation) > 0 {
		values := map[models.ObservationCategory]models.RawValue{}
		for name, v := range req.GeneralObservation {
			c, ok := observationCategorySet[name]
			if !ok {
				problems = append(problems, fmt.Sprintf("unknown observation category %q", name))
				continue
			}
			if v.Present() {
				values[c] = v
			}
		}
		in.Observation = &models.Observation{ID: uuid.NewString(), Values: values}
	}

	for id := range visited {
		in.VisitedLocations = append(in.VisitedLocations, id)
	}
	sort.Strings(in.VisitedLocations)
	sort.Strings(problems)
	return in, problems
}
