package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/survey_insights/backend/internal/analytics"
	"github.com/survey_insights/backend/internal/cache"
	"github.com/survey_insights/backend/internal/config"
	"github.com/survey_insights/backend/internal/db"
	httpapi "github.com/survey_insights/backend/internal/http"
	"github.com/survey_insights/backend/internal/service"
)

// @title Survey Insights API
// @version 1.0
// @description Patient and visitor survey collection and dashboard analytics.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "survey-insights").Logger()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}
	ease, err := config.LoadEase(cfg.EaseFile, cfg.DefaultEase)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid implementation ease table")
	}

	ctx := context.Background()
	store, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply schema")
		}
	}

	opts := analytics.Options{
		Location:        loc,
		RecencyFallback: cfg.RecencyFallback,
		Ease:            ease,
	}
	insights := service.NewInsightsService(store, opts, cfg.CacheTTL, cfg.FetchTimeout, cache.SystemClock{}, logger)
	logger.Info().
		Dur("cache_ttl", cfg.CacheTTL).
		Str("timezone", loc.String()).
		Bool("recency_fallback", cfg.RecencyFallback).
		Int("ease_overrides", len(ease.ByLocation)).
		Msg("analytics configured")

	router := httpapi.Router(cfg, store, insights, loc, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
