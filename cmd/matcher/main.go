package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/cris-mate/guardian-optix-sub004/internal/adapter/http"
	kafkaadapter "github.com/cris-mate/guardian-optix-sub004/internal/adapter/kafka"
	"github.com/cris-mate/guardian-optix-sub004/internal/adapter/nominatim"
	"github.com/cris-mate/guardian-optix-sub004/internal/config"
	"github.com/cris-mate/guardian-optix-sub004/internal/domain"
	"github.com/cris-mate/guardian-optix-sub004/internal/geocode"
	"github.com/cris-mate/guardian-optix-sub004/internal/match"
	"github.com/cris-mate/guardian-optix-sub004/internal/observability"
	"github.com/cris-mate/guardian-optix-sub004/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoding stack: Nominatim client behind the shared rate limiter and
	// TTL cache. The resolver doubles as the scorer's postcode locator and
	// the matcher's site geocoder.
	client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.NominatimTimeout, logger)
	cache := geocode.NewCache(cfg.GeocodeCacheSize, cfg.GeocodeCacheTTL, nil)
	limiter := geocode.NewLimiter(cfg.GeocodeMinInterval, nil)
	resolver := geocode.NewResolver(client, cache, limiter, cfg.NominatimTimeout, logger, metrics)
	logger.Info("geocoding enabled",
		"base_url", cfg.NominatimBaseURL,
		"cache_size", cfg.GeocodeCacheSize,
		"cache_ttl", cfg.GeocodeCacheTTL,
		"min_interval", cfg.GeocodeMinInterval,
	)

	scorer, err := domain.NewScorer(resolver, domain.DefaultWeights(), logger)
	if err != nil {
		logger.Error("failed to build scorer", "error", err)
		os.Exit(1)
	}
	matcher := match.NewMatcher(scorer, resolver, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(matcher, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start match pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
