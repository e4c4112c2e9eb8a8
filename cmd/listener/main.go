package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/floodwatch-sg/flood-alert-ingest/internal/adapter/channel"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/adapter/relay"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/config"
	"github.com/floodwatch-sg/flood-alert-ingest/internal/observability"
)

func main() {
	mode := flag.String("mode", "live", "listener mode: live (stream new messages) or backfill (relay channel history once)")
	flag.Parse()

	cfg, err := config.LoadListener()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	client := channel.NewClient(cfg, logger)
	relayer := relay.NewClient(cfg.IngestURL, cfg.RelayTimeout, logger)
	listener := channel.NewListener(client, relayer, cfg.QueueSize, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "backfill":
		logger.Info("backfill starting", "channel", cfg.ChannelName, "limit", cfg.BackfillLimit)
		if err := listener.RunBackfill(ctx, client, cfg.BackfillLimit); err != nil {
			logger.Error("backfill failed", "error", err)
			os.Exit(1)
		}
	case "live":
		if err := client.Connect(ctx); err != nil {
			logger.Error("failed to connect to channel stream", "error", err)
			os.Exit(1)
		}
		if err := listener.Run(ctx); err != nil {
			logger.Error("listener failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	logger.Info("listener exited")
}
