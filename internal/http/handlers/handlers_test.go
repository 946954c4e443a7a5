package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/survey_insights/backend/internal/analytics"
	"github.com/survey_insights/backend/internal/models"
	"github.com/survey_insights/backend/internal/service"
)

type memStore struct {
	locations []models.Location
	inserted  []models.SurveyInput
	failPing  bool
	failFetch bool
}

func (m *memStore) Ping(context.Context) error {
	if m.failPing {
		return errors.New("down")
	}
	return nil
}

func (m *memStore) ListLocations(context.Context) ([]models.Location, error) {
	if m.failFetch {
		return nil, errors.New("down")
	}
	return m.locations, nil
}

func (m *memStore) UpsertLocations(_ context.Context, locations []models.Location) error {
	m.locations = append(m.locations, locations...)
	return nil
}

func (m *memStore) InsertSubmission(_ context.Context, in models.SurveyInput) error {
	m.inserted = append(m.inserted, in)
	return nil
}

func (m *memStore) ListSubmissions(_ context.Context, f models.Filter) ([]models.Submission, error) {
	if m.failFetch {
		return nil, errors.New("down")
	}
	var out []models.Submission
	for _, in := range m.inserted {
		at := in.Submission.SubmittedAt
		if (f.From == nil || !at.Before(*f.From)) && (f.To == nil || at.Before(*f.To)) {
			out = append(out, in.Submission)
		}
	}
	return out, nil
}

func (m *memStore) ListRatings(_ context.Context, _ models.Filter) ([]models.Rating, error) {
	var out []models.Rating
	for _, in := range m.inserted {
		for _, r := range in.Ratings {
			r.SubmissionID = in.Submission.ID
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListVisits(_ context.Context, _ models.Filter) ([]models.Visit, error) {
	var out []models.Visit
	for _, in := range m.inserted {
		for _, id := range in.VisitedLocations {
			out = append(out, models.Visit{SubmissionID: in.Submission.ID, LocationID: id})
		}
	}
	return out, nil
}

func (m *memStore) ListObservations(context.Context, models.Filter) ([]models.Observation, error) {
	return nil, nil
}

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	insights := service.NewInsightsService(store, analytics.Options{Location: time.UTC}, time.Minute, time.Second, nil, zerolog.Nop())
	h := &Handler{
		Store:     store,
		Insights:  insights,
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
		Location:  time.UTC,
		Now:       func() time.Time { return fixedNow },
	}
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/api/analytics", h.Analytics)
	r.GET("/api/analytics/nps", h.AnalyticsNPS)
	r.GET("/api/locations", h.LocationsList)
	r.PUT("/api/locations", h.UpsertLocations)
	r.POST("/api/submissions", h.SubmitSurvey)
	r.POST("/api/analytics/invalidate", h.InvalidateAnalytics)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return resp.Error.Code
}

func sampleStore() *memStore {
	return &memStore{locations: []models.Location{
		{ID: "cardio", Name: "Cardiology", Type: models.LocationDepartment},
		{ID: "canteen", Name: "Canteen", Type: models.LocationCanteen},
	}}
}

const validSubmission = `{
	"visit_purpose": "General Practice",
	"recency": "Less than a month",
	"user_type": "Patient",
	"patient_type": "New",
	"recommendation": 9,
	"locations": ["canteen"],
	"ratings": [{"location_id": "cardio", "values": {"overall": "Very Good", "reception": 5, "discharge": null}}],
	"general_observation": {"cleanliness": "Excellent"}
}`

func TestSubmitThenAnalytics(t *testing.T) {
	store := sampleStore()
	r := newTestRouter(store)

	before := do(r, http.MethodGet, "/api/analytics", "")
	if before.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", before.Code, before.Body.String())
	}

	w := do(r, http.MethodPost, "/api/submissions", validSubmission)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one stored submission")
	}
	in := store.inserted[0]
	if !in.Submission.SubmittedAt.Equal(fixedNow) {
		t.Fatalf("unexpected submitted_at %s", in.Submission.SubmittedAt)
	}
	if len(in.Ratings) != 1 || len(in.Ratings[0].Values) != 2 {
		t.Fatalf("expected null rating to be dropped, got %+v", in.Ratings)
	}
	if got := strings.Join(in.VisitedLocations, ","); got != "canteen,cardio" {
		t.Fatalf("rated locations should count as visited, got %s", got)
	}
	if in.Observation == nil || in.Observation.Values[models.ObservationCleanliness] != models.TextValue("Excellent") {
		t.Fatalf("unexpected observation %+v", in.Observation)
	}

	w = do(r, http.MethodGet, "/api/analytics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var bundle models.AggregateBundle
	if err := json.Unmarshal(w.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Overview.TotalResponses != 1 {
		t.Fatalf("submission should invalidate the cached bundle, got %d responses", bundle.Overview.TotalResponses)
	}
	if bundle.Overview.AvgSatisfaction != 4.5 || bundle.Overview.RecommendRate != 100 {
		t.Fatalf("unexpected overview %+v", bundle.Overview)
	}

	w = do(r, http.MethodGet, "/api/analytics/nps", "")
	var nps models.NPSResult
	if err := json.Unmarshal(w.Body.Bytes(), &nps); err != nil {
		t.Fatalf("decode nps: %v", err)
	}
	if nps.Score != 100 || nps.Promoters != 1 {
		t.Fatalf("unexpected nps %+v", nps)
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := map[string]string{
		"bad purpose":         `{"visit_purpose":"Dentist","recency":"Over a year","user_type":"Patient","patient_type":"New"}`,
		"recommend too high":  `{"visit_purpose":"General Practice","recency":"Over a year","user_type":"Patient","patient_type":"New","recommendation":11}`,
		"unknown location":    `{"visit_purpose":"General Practice","recency":"Over a year","user_type":"Patient","patient_type":"New","locations":["mars"]}`,
		"unknown category":    `{"visit_purpose":"General Practice","recency":"Over a year","user_type":"Patient","patient_type":"New","ratings":[{"location_id":"cardio","values":{"taste":5}}]}`,
		"missing rating vals": `{"visit_purpose":"General Practice","recency":"Over a year","user_type":"Patient","patient_type":"New","ratings":[{"location_id":"cardio"}]}`,
	}
	for name, body := range cases {
		store := sampleStore()
		w := do(newTestRouter(store), http.MethodPost, "/api/submissions", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, w.Code, w.Body.String())
		}
		if code := errorCode(t, w); code != "VALIDATION_ERROR" {
			t.Fatalf("%s: expected VALIDATION_ERROR, got %s", name, code)
		}
		if len(store.inserted) != 0 {
			t.Fatalf("%s: nothing should be stored", name)
		}
	}

	w := do(newTestRouter(sampleStore()), http.MethodPost, "/api/submissions", `{"visit_purpose":`)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_REQUEST" {
		t.Fatalf("expected INVALID_REQUEST, got %d %s", w.Code, w.Body.String())
	}
}

func TestAnalyticsFilter(t *testing.T) {
	r := newTestRouter(sampleStore())

	w := do(r, http.MethodGet, "/api/analytics?from=yesterday", "")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_FILTER" {
		t.Fatalf("expected INVALID_FILTER, got %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/analytics?from=2024-06-05&to=2024-06-01", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/analytics?from=2024-06-01&to=2024-06-03", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("2024-06-01", "2024-06-03", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.From.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %s", f.From)
	}
	if !f.To.Equal(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only to should include the whole day, got %s", f.To)
	}

	f, err = parseFilter("", "2024-06-03T12:00:00Z", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.From != nil || !f.To.Equal(time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected filter %+v", f)
	}

	if f, err := parseFilter("", "", time.UTC); err != nil || f.From != nil || f.To != nil {
		t.Fatalf("empty filter expected, got %+v %v", f, err)
	}
}

func TestAnalyticsUnavailable(t *testing.T) {
	store := sampleStore()
	store.failFetch = true
	r := newTestRouter(store)

	for _, path := range []string{"/api/analytics", "/api/analytics/nps"} {
		w := do(r, http.MethodGet, path, "")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, w.Code)
		}
		if code := errorCode(t, w); code != "ANALYTICS_UNAVAILABLE" {
			t.Fatalf("%s: unexpected code %s", path, code)
		}
		if strings.Contains(w.Body.String(), "down") {
			t.Fatalf("%s: internal error leaked: %s", path, w.Body.String())
		}
	}
}

func TestLocations(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(store)

	w := do(r, http.MethodGet, "/api/locations", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty list, got %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPut, "/api/locations", `{"items":[{"id":"w1","name":"Ward 1","type":"ward"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPut, "/api/locations", `{"items":[{"id":"x","name":"X","type":"garage"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad type, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/locations", "")
	var resp LocationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Type != models.LocationWard {
		t.Fatalf("unexpected locations %+v", resp.Items)
	}
}

func TestHealthz(t *testing.T) {
	store := sampleStore()
	r := newTestRouter(store)
	if w := do(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	store.failPing = true
	w := do(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable || errorCode(t, w) != "DB_UNAVAILABLE" {
		t.Fatalf("expected DB_UNAVAILABLE, got %d %s", w.Code, w.Body.String())
	}
}

func TestInvalidateAnalytics(t *testing.T) {
	store := sampleStore()
	r := newTestRouter(store)
	do(r, http.MethodGet, "/api/analytics", "")

	store.inserted = append(store.inserted, models.SurveyInput{Submission: models.Submission{ID: "direct", SubmittedAt: fixedNow}})
	w := do(r, http.MethodGet, "/api/analytics", "")
	var bundle models.AggregateBundle
	_ = json.Unmarshal(w.Body.Bytes(), &bundle)
	if bundle.Overview.TotalResponses != 0 {
		t.Fatalf("expected the cached bundle before invalidation")
	}

	if w := do(r, http.MethodPost, "/api/analytics/invalidate", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/api/analytics", "")
	_ = json.Unmarshal(w.Body.Bytes(), &bundle)
	if bundle.Overview.TotalResponses != 1 {
		t.Fatalf("expected fresh bundle after invalidation, got %d", bundle.Overview.TotalResponses)
	}
}
