package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/thermal-risk-etl/internal/adapter/comfortapi"
	httpadapter "github.com/couchcryptid/thermal-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/thermal-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/thermal-risk-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/thermal-risk-etl/internal/comfort"
	"github.com/couchcryptid/thermal-risk-etl/internal/config"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
	"github.com/couchcryptid/thermal-risk-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	policy, err := config.LoadAnalysisConfig(cfg.AnalysisConfigPath)
	if err != nil {
		logger.Error("failed to load analysis config", "error", err)
		os.Exit(1)
	}

	// SET is computed in-process unless COMFORT_API_URL points at a remote model.
	var model overheating.ComfortModel
	if cfg.RemoteComfortModel() {
		client := comfortapi.NewClient(cfg.ComfortAPIURL, cfg.ComfortAPITimeout, logger, metrics)
		model = comfortapi.NewCachedModel(client, cfg.ComfortCacheSize, metrics)
		metrics.RemoteComfortModel.Set(1)
		logger.Info("remote comfort model enabled", "url", cfg.ComfortAPIURL, "cache_size", cfg.ComfortCacheSize, "timeout", cfg.ComfortAPITimeout)
	} else {
		model = comfort.NewModel(comfort.Options{LimitInputs: cfg.ComfortLimitInputs})
		logger.Info("in-process comfort model enabled", "limit_inputs", cfg.ComfortLimitInputs)
	}

	analyzer, err := overheating.NewAnalyzer(policy, model)
	if err != nil {
		logger.Error("invalid analysis config", "error", err)
		os.Exit(1)
	}

	// Claim-check payloads are rejected when no object store is configured.
	var store pipeline.MatrixFetcher
	if cfg.ObjectStoreEnabled() {
		s, err := objectstore.New(cfg, logger, metrics)
		if err != nil {
			logger.Error("failed to create object store client", "error", err)
			os.Exit(1)
		}
		store = s
		logger.Info("object store enabled", "endpoint", cfg.ObjectStoreEndpoint, "bucket", cfg.ObjectStoreBucket)
	} else {
		logger.Info("object store disabled, matrix_ref payloads will be skipped")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(analyzer, store, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize,
		pipeline.WithConcurrency(cfg.AnalysisConcurrency))

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
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
