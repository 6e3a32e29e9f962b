package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/terrain-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/terrain-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/terrain-risk-service/internal/adapter/sqlitestore"
	"github.com/couchcryptid/terrain-risk-service/internal/config"
	"github.com/couchcryptid/terrain-risk-service/internal/forecast"
	"github.com/couchcryptid/terrain-risk-service/internal/history"
	"github.com/couchcryptid/terrain-risk-service/internal/ingest"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
	"github.com/couchcryptid/terrain-risk-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Observation source: real weather feed when an API key is configured,
	// synthetic fallback always available.
	var fetcher ingest.Fetcher
	if cfg.WeatherEnabled {
		fetcher = ingest.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherLat, cfg.WeatherLon, cfg.WeatherTimeout, logger)
		logger.Info("weather feed enabled", "lat", cfg.WeatherLat, "lon", cfg.WeatherLon)
	} else {
		logger.Info("weather feed disabled, running synthetic-only")
	}
	generator := ingest.NewSyntheticGenerator(cfg.SyntheticSeed, nil)
	source := ingest.NewIngestor(fetcher, generator, logger, metrics)

	// Forecast engine over the retained history window.
	window := history.New(cfg.HistoryRetention, nil)
	engine := forecast.NewEngine(forecast.Config{
		SequenceLength:  cfg.SequenceLength,
		TrainFloor:      cfg.TrainFloor,
		RetrainStride:   cfg.RetrainStride,
		ConfidenceSlope: cfg.ConfidenceSlope,
	}, window, logger, metrics, nil)

	// Optional snapshot sinks.
	var sinks []pipeline.SnapshotSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSnapshotTopic, logger, metrics)
		sinks = append(sinks, publisher)
		logger.Info("kafka snapshot sink enabled", "topic", cfg.KafkaSnapshotTopic)
	}
	var store *sqlitestore.Store
	if cfg.SQLiteEnabled() {
		store, err = sqlitestore.Open(cfg.SQLitePath, logger, metrics)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("sqlite snapshot sink enabled", "path", cfg.SQLitePath)
	}

	agg := pipeline.NewAggregator(engine, sinks, logger, metrics)
	runner := pipeline.NewRunner(source, agg, cfg.TickInterval, nil, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, agg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if store != nil {
		go store.RunRetention(ctx, sqlitestore.DefaultPruneInterval, cfg.HistoryRetention, nil)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := runner.Start(ctx); err != nil {
		logger.Error("failed to start pipeline runner", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	runner.Stop()
	engine.WaitForTraining()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
