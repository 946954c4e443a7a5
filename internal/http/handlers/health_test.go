package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/survey_insights/backend/internal/analytics"
	"github.com/survey_insights/backend/internal/db"
	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/service"
)

// TestStoreBackedRoutesIntegration runs healthz and an analytics read against
// a migrated database. The range lies far in the future so the bundle must be
// the zero-filled one whatever rows the database already holds.
func TestStoreBackedRoutesIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := db.Connect(ctx, url, 5*time.Second)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	h := &Handler{
		Store:     store,
		Insights:  service.NewInsightsService(store, analytics.Options{Location: time.UTC, RecencyFallback: true}, time.Minute, 5*time.Second, nil, zerolog.Nop()),
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
		Location:  time.UTC,
	}
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/api/analytics", h.Analytics)
	r.GET("/api/analytics/nps", h.AnalyticsNPS)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics?from=2990-01-01&to=2990-12-31", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("analytics: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var bundle models.AggregateBundle
	if err := json.Unmarshal(w.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Overview.TotalResponses != 0 || bundle.Overview.MostCommonPurpose != models.NoData {
		t.Fatalf("expected empty overview, got %+v", bundle.Overview)
	}
	if len(bundle.Recency) != len(models.RecencyBuckets) || len(bundle.TimeOfDay) != len(analytics.DayParts) {
		t.Fatalf("expected zero-filled buckets, got recency=%d time_of_day=%d", len(bundle.Recency), len(bundle.TimeOfDay))
	}
	if len(bundle.Demographics.UserTypes) != len(models.UserTypes) {
		t.Fatalf("expected every user type listed, got %d", len(bundle.Demographics.UserTypes))
	}
	for _, b := range bundle.Recency {
		if b.Count != 0 || b.FallbackApplied {
			t.Fatalf("empty bucket should stay at zero, got %+v", b)
		}
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/nps?from=2990-01-01", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("nps: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var nps models.NPSResult
	if err := json.Unmarshal(w.Body.Bytes(), &nps); err != nil {
		t.Fatalf("decode nps: %v", err)
	}
	if nps != (models.NPSResult{}) {
		t.Fatalf("expected empty nps, got %+v", nps)
	}
}
