package app

import (
	"context"
	"fmt"
	"log/slog"

	"moviesearch/internal/config"
	"moviesearch/internal/event"
	pkgkafka "moviesearch/pkg/kafka"
)

// Worker consumes movie upsert notifications from Kafka and indexes them.
type Worker struct {
	cfg      *config.Config
	logger   *slog.Logger
	consumer *pkgkafka.Consumer
}

// NewWorker creates the indexing worker, initializing the search engine and
// the Kafka consumer.
func NewWorker(cfg *config.Config, logger *slog.Logger) (*Worker, error) {
	eng, _, err := newEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	pipeline := event.NewPipeline(eng, cfg.ObserveOnly, logger)
	if cfg.ObserveOnly {
		logger.Info("observe-only mode enabled, messages will not be indexed")
	}

	consumerCfg := pkgkafka.ConsumerConfig{
		Brokers:      cfg.KafkaBrokers,
		GroupID:      cfg.KafkaGroupID,
		Topic:        cfg.KafkaTopic,
		MinBytes:     1,
		MaxBytes:     10e6, // 10 MB
		TLSEnabled:   cfg.KafkaTLSEnabled,
		SASLUsername: cfg.KafkaSASLUsername,
		SASLPassword: cfg.KafkaSASLPassword,
	}
	consumer := pkgkafka.NewConsumer(consumerCfg, pipeline.Handle, logger)
	logger.Info("kafka consumer initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaGroupID),
	)

	return &Worker{
		cfg:      cfg,
		logger:   logger,
		consumer: consumer,
	}, nil
}

// Run starts the consumer, blocking until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.consumer.Start(ctx); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	return nil
}

// Shutdown stops the consumer.
func (w *Worker) Shutdown() error {
	return w.consumer.Close()
}
