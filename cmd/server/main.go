package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/inamate/inamate/diagram-go/internal/config"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open snapshot store", "backend", cfg.SnapshotBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		logger.Error("create server", "error", err)
		os.Exit(1)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
