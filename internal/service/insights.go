package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/survey_insights/backend/internal/analytics"
	"github.com/survey_insights/backend/internal/cache"
	"github.com/survey_insights/backend/internal/models"
)

// ErrFetch wraps every failed sub-fetch.
var ErrFetch = errors.New("analytics fetch failed")

const defaultFetchTimeout = 20 * time.Second

// Source is the read side of the survey store.
type Source interface {
	ListSubmissions(ctx context.Context, f models.Filter) ([]models.Submission, error)
	ListRatings(ctx context.Context, f models.Filter) ([]models.Rating, error)
	ListVisits(ctx context.Context, f models.Filter) ([]models.Visit, error)
	ListObservations(ctx context.Context, f models.Filter) ([]models.Observation, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
}

type InsightsService struct {
	Source       Source
	Bundles      *cache.Cache[models.AggregateBundle]
	Scores       *cache.Cache[models.NPSResult]
	Options      analytics.Options
	TTL          time.Duration
	FetchTimeout time.Duration
	Logger       zerolog.Logger
}

func NewInsightsService(src Source, opts analytics.Options, ttl, fetchTimeout time.Duration, clock cache.Clock, logger zerolog.Logger) *InsightsService {
	return &InsightsService{
		Source:       src,
		Bundles:      cache.New[models.AggregateBundle](ttl, clock),
		Scores:       cache.New[models.NPSResult](ttl, clock),
		Options:      opts,
		TTL:          ttl,
		FetchTimeout: fetchTimeout,
		Logger:       logger,
	}
}

// Bundle returns the aggregate bundle for f, computing it on a cache miss.
func (s *InsightsService) Bundle(ctx context.Context, f models.Filter) (models.AggregateBundle, error) {
	key := f.Key()
	b, hit, err := s.Bundles.GetOrCompute(ctx, key, s.TTL, func(ctx context.Context) (models.AggregateBundle, error) {
		start := time.Now()
		snap, err := s.fetchSnapshot(ctx, f)
		if err != nil {
			return models.AggregateBundle{}, err
		}
		bundle := analytics.Build(snap, s.Options)
		s.Logger.Info().
			Str("key", key).
			Int("submissions", len(snap.Submissions)).
			Int("ratings", len(snap.Ratings)).
			Dur("duration", time.Since(start)).
			Msg("analytics bundle computed")
		return bundle, nil
	})
	if err != nil {
		return models.AggregateBundle{}, err
	}
	if hit {
		s.Logger.Debug().Str("key", key).Msg("analytics bundle cache hit")
	}
	return b, nil
}

// NPS only needs the submissions, so it is cached apart from the bundle.
func (s *InsightsService) NPS(ctx context.Context, f models.Filter) (models.NPSResult, error) {
	key := f.Key()
	res, _, err := s.Scores.GetOrCompute(ctx, key, s.TTL, func(ctx context.Context) (models.NPSResult, error) {
		ctx, cancel := s.detach(ctx)
		defer cancel()
		subs, err := s.Source.ListSubmissions(ctx, f)
		if err != nil {
			s.Logger.Error().Err(err).Str("fetch", "submissions").Msg("nps fetch failed")
			return models.NPSResult{}, fmt.Errorf("%w: submissions: %w", ErrFetch, err)
		}
		return analytics.NPS(analytics.LoyaltyScores(subs)), nil
	})
	return res, err
}

// Invalidate drops every cached result. Computations already running are
// not stored when they finish.
func (s *InsightsService) Invalidate() {
	s.Bundles.InvalidateAll()
	s.Scores.InvalidateAll()
	s.Logger.Info().Msg("analytics cache invalidated")
}

// detach keeps the computation alive when the caller that started it goes
// away; other callers may be waiting on the same result.
func (s *InsightsService) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// fetchSnapshot runs the sub-fetches concurrently. The first failure cancels
// the rest and nothing partial is returned.
func (s *InsightsService) fetchSnapshot(ctx context.Context, f models.Filter) (*analytics.Snapshot, error) {
	ctx, cancel := s.detach(ctx)
	defer cancel()

	var (
		subs      []models.Submission
		ratings   []models.Rating
		visits    []models.Visit
		obs       []models.Observation
		locations []models.Location
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				s.Logger.Error().Err(err).Str("fetch", name).Msg("analytics sub-fetch failed")
				return fmt.Errorf("%w: %s: %w", ErrFetch, name, err)
			}
			return nil
		})
	}
	fetch("submissions", func(ctx context.Context) (err error) {
		subs, err = s.Source.ListSubmissions(ctx, f)
		return err
	})
	fetch("ratings", func(ctx context.Context) (err error) {
		ratings, err = s.Source.ListRatings(ctx, f)
		return err
	})
	fetch("visits", func(ctx context.Context) (err error) {
		visits, err = s.Source.ListVisits(ctx, f)
		return err
	})
	fetch("observations", func(ctx context.Context) (err error) {
		obs, err = s.Source.ListObservations(ctx, f)
		return err
	})
	fetch("locations", func(ctx context.Context) (err error) {
		locations, err = s.Source.ListLocations(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return analytics.NewSnapshot(subs, ratings, visits, obs, locations), nil
}
