package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"moviesearch/internal/app"
	"moviesearch/internal/config"
	"moviesearch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("moviesearch-worker", cfg.LogLevel)
	log.Info("starting indexing worker",
		slog.String("environment", cfg.Environment),
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaGroupID),
		slog.Bool("observe_only", cfg.ObserveOnly),
	)

	worker, err := app.NewWorker(cfg, log)
	if err != nil {
		log.Error("failed to initialize worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := worker.Run(ctx); err != nil {
		log.Error("worker error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("indexing worker stopped")
}
