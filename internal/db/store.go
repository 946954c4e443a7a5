package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/survey_insights/backend/internal/models"
)

//go:embed schema.sql
var schema string

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

// Connect opens the pool and pings it with exponential backoff until the
// database answers or maxWait elapses.
func Connect(ctx context.Context, databaseURL string, maxWait time.Duration) (*Store, error) {
	store, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxWait
	var lastErr error
	op := func() error {
		lastErr = store.Ping(ctx)
		return lastErr
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		store.Close()
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("database not reachable: %w", lastErr)
	}
	return store, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// filterClause renders the submitted_at range for the given table alias.
func filterClause(f models.Filter, alias string, args []any) (string, []any) {
	var wheres []string
	if f.From != nil {
		args = append(args, *f.From)
		wheres = append(wheres, fmt.Sprintf("%s.submitted_at >= $%d", alias, len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		wheres = append(wheres, fmt.Sprintf("%s.submitted_at < $%d", alias, len(args)))
	}
	if len(wheres) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(wheres, " AND "), args
}

func (s *Store) ListSubmissions(ctx context.Context, f models.Filter) ([]models.Submission, error) {
	query := `SELECT s.id, s.submitted_at, s.visit_purpose, s.recency, s.user_type, s.patient_type,
		s.would_recommend, s.would_recommend_text, s.recommendation
		FROM submissions s`
	where, args := filterClause(f, "s", nil)
	query += where + " ORDER BY s.submitted_at ASC, s.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var (
			sub            models.Submission
			recommendation *string
		)
		if err := rows.Scan(&sub.ID, &sub.SubmittedAt, &sub.VisitPurpose, &sub.Recency, &sub.UserType, &sub.PatientType,
			&sub.WouldRecommend, &sub.WouldRecommendText, &recommendation); err != nil {
			return nil, err
		}
		sub.Recommendation = models.ParseRawValue(recommendation)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ratingColumns lists the category columns in RatingCategories order.
func ratingColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, 0, len(models.RatingCategories))
	for _, c := range models.RatingCategories {
		cols = append(cols, prefix+string(c))
	}
	return strings.Join(cols, ", ")
}

func (s *Store) ListRatings(ctx context.Context, f models.Filter) ([]models.Rating, error) {
	query := `SELECT r.id, r.submission_id, r.location_id, l.name, l.type, ` + ratingColumns("r") + `
		FROM ratings r
		JOIN submissions s ON s.id = r.submission_id
		JOIN locations l ON l.id = r.location_id`
	where, args := filterClause(f, "s", nil)
	query += where + " ORDER BY r.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Rating
	for rows.Next() {
		var r models.Rating
		raw := make([]*string, len(models.RatingCategories))
		dest := []any{&r.ID, &r.SubmissionID, &r.LocationID, &r.LocationName, &r.LocationType}
		for i := range raw {
			dest = append(dest, &raw[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.Values = make(map[models.RatingCategory]models.RawValue, len(raw))
		for i, c := range models.RatingCategories {
			if v := models.ParseRawValue(raw[i]); v.Present() {
				r.Values[c] = v
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListVisits(ctx context.Context, f models.Filter) ([]models.Visit, error) {
	query := `SELECT sl.submission_id, sl.location_id, l.name, l.type
		FROM submission_locations sl
		JOIN submissions s ON s.id = sl.submission_id
		JOIN locations l ON l.id = sl.location_id`
	where, args := filterClause(f, "s", nil)
	query += where + " ORDER BY sl.submission_id ASC, sl.location_id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Visit
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.SubmissionID, &v.LocationID, &v.LocationName, &v.LocationType); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListObservations(ctx context.Context, f models.Filter) ([]models.Observation, error) {
	query := `SELECT o.id, o.submission_id, o.cleanliness, o.facilities, o.security, o.overall
		FROM general_observations o
		JOIN submissions s ON s.id = o.submission_id`
	where, args := filterClause(f, "s", nil)
	query += where + " ORDER BY o.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			o                                          models.Observation
			cleanliness, facilities, security, overall *string
		)
		if err := rows.Scan(&o.ID, &o.SubmissionID, &cleanliness, &facilities, &security, &overall); err != nil {
			return nil, err
		}
		o.Values = map[models.ObservationCategory]models.RawValue{}
		for c, raw := range map[models.ObservationCategory]*string{
			models.ObservationCleanliness: cleanliness,
			models.ObservationFacilities:  facilities,
			models.ObservationSecurity:    security,
			models.ObservationOverall:     overall,
		} {
			if v := models.ParseRawValue(raw); v.Present() {
				o.Values[c] = v
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, type FROM locations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Type); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// InsertSubmission stores one completed survey and everything attached to it.
func (s *Store) InsertSubmission(ctx context.Context, in models.SurveyInput) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		sub := in.Submission
		_, err := tx.Exec(ctx, `
			INSERT INTO submissions (id, submitted_at, visit_purpose, recency, user_type, patient_type, would_recommend, would_recommend_text, recommendation)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, sub.ID, sub.SubmittedAt, sub.VisitPurpose, sub.Recency, sub.UserType, sub.PatientType, sub.WouldRecommend, sub.WouldRecommendText, sub.Recommendation.DBValue())
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		for _, r := range in.Ratings {
			args := []any{r.ID, sub.ID, r.LocationID}
			for _, c := range models.RatingCategories {
				args = append(args, r.Values[c].DBValue())
			}
			placeholders := make([]string, len(args))
			for i := range args {
				placeholders[i] = fmt.Sprintf("$%d", i+1)
			}
			query := `INSERT INTO ratings (id, submission_id, location_id, ` + ratingColumns("") + `) VALUES (` + strings.Join(placeholders, ",") + `)`
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("insert rating for %s: %w", r.LocationID, err)
			}
		}

		for _, locationID := range in.VisitedLocations {
			if _, err := tx.Exec(ctx, `
				INSERT INTO submission_locations (submission_id, location_id) VALUES ($1,$2)
				ON CONFLICT DO NOTHING
			`, sub.ID, locationID); err != nil {
				return fmt.Errorf("insert visit for %s: %w", locationID, err)
			}
		}

		if o := in.Observation; o != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO general_observations (id, submission_id, cleanliness, facilities, security, overall)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, o.ID, sub.ID,
				o.Values[models.ObservationCleanliness].DBValue(),
				o.Values[models.ObservationFacilities].DBValue(),
				o.Values[models.ObservationSecurity].DBValue(),
				o.Values[models.ObservationOverall].DBValue())
			if err != nil {
				return fmt.Errorf("insert observation: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) UpsertLocations(ctx context.Context, locations []models.Location) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, l := range locations {
			_, err := tx.Exec(ctx, `
				INSERT INTO locations (id, name, type) VALUES ($1,$2,$3)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					type = EXCLUDED.type
			`, l.ID, l.Name, l.Type)
			if err != nil {
				return fmt.Errorf("upsert location %s: %w", l.ID, err)
			}
		}
		return nil
	})
}
