package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	firmsadapter "github.com/couchcryptid/wildfire-spread-etl/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/wildfire-spread-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildfire-spread-etl/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-spread-etl/internal/config"
	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
	"github.com/couchcryptid/wildfire-spread-etl/internal/pipeline"
	"github.com/couchcryptid/wildfire-spread-etl/internal/predictor"
	"github.com/couchcryptid/wildfire-spread-etl/internal/realloc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Remote spread model (feature-flagged via PREDICTOR_ENABLED / PREDICTOR_URL).
	var spreadModel domain.SpreadPredictor
	if cfg.PredictorEnabled {
		spreadModel = predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout, metrics, logger)
		metrics.PredictorEnabled.Set(1)
		logger.Info("spread predictor enabled", "url", cfg.PredictorURL, "timeout", cfg.PredictorTimeout)
	} else {
		logger.Info("spread predictor disabled")
	}

	// NASA FIRMS active-fire feed (feature-flagged via FIRMS_ENABLED / FIRMS_MAP_KEY).
	var fires domain.FireSource
	if cfg.FirmsEnabled {
		client := firmsadapter.NewClient(cfg.FirmsMapKey, cfg.FirmsTimeout, metrics, logger)
		fires = firmsadapter.NewCachedSource(client, cfg.FirmsCacheSize, metrics)
		logger.Info("firms feed enabled", "cache_size", cfg.FirmsCacheSize, "timeout", cfg.FirmsTimeout)
	} else {
		logger.Info("firms feed disabled")
	}

	// Transfer-plan sink (feature-flagged via KAFKA_ENABLED).
	var sink httpadapter.PlanSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("transfer-plan sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	zones := &realloc.FileZoneSource{Path: cfg.ZoneTablePath}
	engine := realloc.New(logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:     zones,
		Predictor: spreadModel,
		Zones:     zones,
		Planner:   engine,
		Sink:      sink,
		Fires:     fires,
	}, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go verifyShards(ctx, cfg, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// verifyShards reads one full epoch over the configured tile shards so
// malformed shard data surfaces in the logs at startup rather than when
// training pulls the data. Deployments that only serve the reallocation and
// prediction endpoints carry no shards; that is not an error.
func verifyShards(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) {
	matches, err := filepath.Glob(cfg.ShardPattern)
	if err != nil || len(matches) == 0 {
		logger.Info("no tile shards present, skipping verification", "pattern", cfg.ShardPattern)
		return
	}

	ds, err := pipeline.NewDataset(cfg.ShardPattern, pipeline.OptionsFromConfig(cfg), logger, metrics)
	if err != nil {
		logger.Error("tile pipeline configuration invalid", "error", err)
		return
	}

	epoch, err := ds.Start(ctx)
	if err != nil {
		logger.Error("tile shard verification failed to start", "error", err)
		return
	}

	var batches, samples int
	for batch := range epoch.Batches() {
		batches++
		samples += batch.Size
	}
	if err := epoch.Err(); err != nil {
		logger.Error("tile shard verification failed", "error", err)
		return
	}
	logger.Info("tile shards verified",
		"shards", len(matches),
		"batches", batches,
		"samples", samples,
	)
}
