package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/adapter/httpapi"
	kafkaadapter "github.com/floodwatch-sg/flood-alert-ingest/internal/adapter/kafka"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/config"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/ingest"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/sink"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var alertSink sink.Sink
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		alertSink, err = sink.NewSQLiteSink(cfg.SQLiteDSN, logger)
		if err != nil {
			logger.Error("failed to open sqlite sink", "dsn", cfg.SQLiteDSN, "error", err)
			os.Exit(1)
		}
		logger.Info("sqlite sink enabled", "dsn", cfg.SQLiteDSN)
	case config.BackendFile:
		alertSink, err = sink.NewFileSink(cfg.AlertsFilePath, logger)
		if err != nil {
			logger.Error("failed to open file sink", "path", cfg.AlertsFilePath, "error", err)
			os.Exit(1)
		}
		logger.Info("file sink enabled", "path", cfg.AlertsFilePath)
	}

	// Kafka fan-out is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher ingest.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka fan-out enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka fan-out disabled")
	}

	service := ingest.New(alertSink, publisher, logger, metrics)
	srv := httpapi.NewServer(cfg.HTTPAddr, service, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := alertSink.Close(); err != nil {
		logger.Error("sink close error", "error", err)
	}

	logger.Info("shutdown complete")
}
