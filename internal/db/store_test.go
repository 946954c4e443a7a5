package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/survey_insights/backend/internal/models"
)

func TestFilterClause(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	where, args := filterClause(models.Filter{}, "s", nil)
	if where != "" || len(args) != 0 {
		t.Fatalf("expected no clause, got %q %v", where, args)
	}

	where, args = filterClause(models.Filter{From: &from, To: &to}, "s", nil)
	if where != " WHERE s.submitted_at >= $1 AND s.submitted_at < $2" {
		t.Fatalf("unexpected clause %q", where)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}

	where, args = filterClause(models.Filter{To: &to}, "x", []any{"keep"})
	if where != " WHERE x.submitted_at < $2" || len(args) != 2 {
		t.Fatalf("unexpected clause %q %v", where, args)
	}
}

func TestRatingColumns(t *testing.T) {
	cols := strings.Split(ratingColumns("r"), ", ")
	if len(cols) != len(models.RatingCategories) {
		t.Fatalf("expected %d columns, got %d", len(models.RatingCategories), len(cols))
	}
	if cols[0] != "r.reception" || cols[len(cols)-1] != "r.discharge" {
		t.Fatalf("unexpected columns %v", cols)
	}
	if strings.Contains(ratingColumns(""), ".") {
		t.Fatalf("bare columns must not carry an alias")
	}
}

func TestStoreRoundTripIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := Connect(ctx, url, 5*time.Second)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	locID := "test-" + uuid.NewString()
	if err := store.UpsertLocations(ctx, []models.Location{{ID: locID, Name: "Test Clinic", Type: models.LocationDepartment}}); err != nil {
		t.Fatalf("upsert locations: %v", err)
	}

	submittedAt := time.Now().UTC().Truncate(time.Second).Add(24 * 365 * time.Hour)
	yes := true
	in := models.SurveyInput{
		Submission: models.Submission{
			ID:             uuid.NewString(),
			SubmittedAt:    submittedAt,
			VisitPurpose:   models.PurposeGeneralPractice,
			Recency:        models.RecencyUnderMonth,
			UserType:       "Patient",
			PatientType:    models.PatientNew,
			WouldRecommend: &yes,
			Recommendation: models.NumberValue(9),
		},
		Ratings: []models.Rating{{
			ID:         uuid.NewString(),
			LocationID: locID,
			Values: map[models.RatingCategory]models.RawValue{
				models.RatingOverall:   models.TextValue("Excellent"),
				models.RatingReception: models.NumberValue(4),
			},
		}},
		VisitedLocations: []string{locID},
		Observation: &models.Observation{
			ID:     uuid.NewString(),
			Values: map[models.ObservationCategory]models.RawValue{models.ObservationCleanliness: models.TextValue("Good")},
		},
	}
	if err := store.InsertSubmission(ctx, in); err != nil {
		t.Fatalf("insert submission: %v", err)
	}

	from := submittedAt.Add(-time.Minute)
	to := submittedAt.Add(time.Minute)
	f := models.Filter{From: &from, To: &to}

	subs, err := store.ListSubmissions(ctx, f)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 1 || subs[0].Recommendation != models.NumberValue(9) {
		t.Fatalf("unexpected submissions %+v", subs)
	}

	ratings, err := store.ListRatings(ctx, f)
	if err != nil {
		t.Fatalf("list ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].LocationName != "Test Clinic" || len(ratings[0].Values) != 2 {
		t.Fatalf("unexpected ratings %+v", ratings)
	}

	visits, err := store.ListVisits(ctx, f)
	if err != nil {
		t.Fatalf("list visits: %v", err)
	}
	if len(visits) != 1 || visits[0].LocationType != models.LocationDepartment {
		t.Fatalf("unexpected visits %+v", visits)
	}

	obs, err := store.ListObservations(ctx, f)
	if err != nil {
		t.Fatalf("list observations: %v", err)
	}
	if len(obs) != 1 || obs[0].Values[models.ObservationCleanliness] != models.TextValue("Good") {
		t.Fatalf("unexpected observations %+v", obs)
	}
}
