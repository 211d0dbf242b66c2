package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hail-retrieval-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hail-retrieval-service/internal/adapter/kafka"
	"github.com/couchcryptid/hail-retrieval-service/internal/adapter/sounding"
	"github.com/couchcryptid/hail-retrieval-service/internal/config"
	"github.com/couchcryptid/hail-retrieval-service/internal/observability"
	"github.com/couchcryptid/hail-retrieval-service/internal/pipeline"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hsda"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/mesh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	classifier, err := buildClassifier(cfg)
	if err != nil {
		logger.Error("failed to build hsda classifier", "error", err)
		os.Exit(1)
	}
	logger.Info("hsda classifier ready",
		"band", classifier.Config().Band,
		"classes", len(classifier.Config().Classes),
		"override", cfg.HSDATablePath != "",
	)

	meshOpts := mesh.Options{
		Method:       mesh.Method(cfg.MESHMethod),
		MinRangeKM:   cfg.MinRangeKM,
		MaxRangeKM:   cfg.MaxRangeKM,
		CorrectCBand: cfg.CorrectCBand,
	}

	// Sounding enrichment is feature-flagged via SOUNDING_URL.
	var provider radar.SoundingProvider
	if cfg.SoundingEnabled() {
		client := sounding.NewClient(cfg.SoundingURL, cfg.SoundingTimeout, logger, metrics)
		provider = sounding.NewCachedProvider(client, cfg.SoundingCacheSize, metrics)
		metrics.SoundingEnabled.Set(1)
		logger.Info("sounding enrichment enabled", "url", cfg.SoundingURL, "cache_size", cfg.SoundingCacheSize)
	} else {
		logger.Info("sounding enrichment disabled; volumes must carry their own levels")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(classifier, meshOpts, provider, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start retrieval pipeline.
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

// buildClassifier selects the membership table: a JSON override from disk
// when configured, otherwise the built-in calibration for the radar band.
func buildClassifier(cfg *config.Config) (*hsda.Classifier, error) {
	if cfg.HSDATablePath != "" {
		table, err := hsda.LoadConfig(cfg.HSDATablePath)
		if err != nil {
			return nil, err
		}
		return hsda.NewClassifier(table)
	}
	return hsda.NewClassifier(hsda.DefaultConfig(cfg.RadarBand))
}
