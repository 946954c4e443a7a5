package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/service"
)

// SurveyStore is the part of db.Store the handlers write through.
type SurveyStore interface {
	Ping(ctx context.Context) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	UpsertLocations(ctx context.Context, locations []models.Location) error
	InsertSubmission(ctx context.Context, in models.SurveyInput) error
}

type Handler struct {
	Store     SurveyStore
	Insights  *service.InsightsService
	Validator *validator.Validate
	Logger    zerolog.Logger
	// Location interprets date-only filter bounds.
	Location *time.Location
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Dashboard analytics
// @Description Aggregate statistics over all submissions in the optional date range. Results are cached per range.
// @Tags analytics
// @Produce json
// @Param from query string false "inclusive lower bound, RFC3339 or YYYY-MM-DD"
// @Param to query string false "upper bound, RFC3339 (exclusive) or YYYY-MM-DD (inclusive day)"
// @Success 200 {object} models.AggregateBundle
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/analytics [get]
func (h *Handler) Analytics(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	bundle, err := h.Insights.Bundle(c.Request.Context(), f)
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// @Summary Net promoter score
// @Description NPS over numeric 0-10 recommendation answers, rescaled onto 0..100.
// @Tags analytics
// @Produce json
// @Param from query string false "inclusive lower bound, RFC3339 or YYYY-MM-DD"
// @Param to query string false "upper bound, RFC3339 (exclusive) or YYYY-MM-DD (inclusive day)"
// @Success 200 {object} models.NPSResult
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/analytics/nps [get]
func (h *Handler) AnalyticsNPS(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	res, err := h.Insights.NPS(c.Request.Context(), f)
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Drop cached analytics
// @Tags analytics
// @Produce json
// @Param X-Admin-Key header string false "admin key"
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /api/analytics/invalidate [post]
func (h *Handler) InvalidateAnalytics(c *gin.Context) {
	h.Insights.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) analyticsError(c *gin.Context, err error) {
	h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("analytics request failed")
	switch {
	case errors.Is(err, service.ErrFetch), errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusServiceUnavailable, "ANALYTICS_UNAVAILABLE", "Analytics are temporarily unavailable", nil)
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute analytics", nil)
	}
}

// @Summary List locations
// @Tags locations
// @Produce json
// @Success 200 {object} LocationsResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/locations [get]
func (h *Handler) LocationsList(c *gin.Context) {
	items, err := h.Store.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locations", err.Error())
		return
	}
	if items == nil {
		items = []models.Location{}
	}
	c.JSON(http.StatusOK, LocationsResponse{Items: items})
}

type LocationsResponse struct {
	Items []models.Location `json:"items"`
}

type LocationRequest struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"type" validate:"required,oneof=department ward canteen occupational_health"`
}

type LocationsRequest struct {
	Items []LocationRequest `json:"items" validate:"required,min=1,dive"`
}

// @Summary Create or update locations
// @Tags locations
// @Accept json
// @Produce json
// @Param X-Admin-Key header string false "admin key"
// @Param body body LocationsRequest true "locations"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/locations [put]
func (h *Handler) UpsertLocations(c *gin.Context) {
	var req LocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	locations := make([]models.Location, 0, len(req.Items))
	for _, l := range req.Items {
		locations = append(locations, models.Location{ID: l.ID, Name: l.Name, Type: models.LocationType(l.Type)})
	}
	if err := h.Store.UpsertLocations(c.Request.Context(), locations); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save locations", err.Error())
		return
	}
	h.Insights.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(locations)})
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
