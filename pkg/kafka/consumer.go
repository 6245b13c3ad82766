// Package kafka wraps segmentio/kafka-go with the consumer and producer
// plumbing shared by the API and the indexing worker.
package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// MessageHandler processes a single fetched message. Errors are the handler's
// responsibility to log; the consumer never retries or re-delivers.
type MessageHandler func(ctx context.Context, key, value []byte) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MinBytes     int
	MaxBytes     int
	TLSEnabled   bool
	SASLUsername string
	SASLPassword string
}

// Consumer wraps the kafka-go reader. Offsets are committed immediately after
// fetch, before the handler runs, so a crash mid-handling never causes a
// redelivery. Each message is indexed at most once.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   MessageHandler
	closeOnce sync.Once
}

// NewConsumer creates a new Kafka consumer for a specific topic and group.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *slog.Logger) *Consumer {
	readerCfg := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	}

	if dialer := newDialer(cfg.TLSEnabled, cfg.SASLUsername, cfg.SASLPassword); dialer != nil {
		readerCfg.Dialer = dialer
	}

	return &Consumer{
		reader:  kafka.NewReader(readerCfg),
		logger:  logger,
		handler: handler,
	}
}

// Start begins consuming messages. It blocks until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", slog.String("topic", c.reader.Config().Topic))
			return c.Close()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
				continue
			}

			ConsumerMessagesReceived.WithLabelValues(msg.Topic, c.reader.Config().GroupID).Inc()

			// Commit before handling. The handler's outcome never affects
			// the offset, so a failed or skipped message is not redelivered.
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("failed to commit message",
					slog.String("error", err.Error()),
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}

			start := time.Now()
			if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
				ConsumerMessagesFailed.WithLabelValues(msg.Topic, c.reader.Config().GroupID).Inc()
				c.logger.Error("handler failed, message skipped",
					slog.String("error", err.Error()),
					slog.String("topic", msg.Topic),
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
			ConsumerMessagesProcessed.WithLabelValues(msg.Topic, c.reader.Config().GroupID).Inc()
			ConsumerProcessingDuration.WithLabelValues(msg.Topic, c.reader.Config().GroupID).
				Observe(time.Since(start).Seconds())
		}
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// newDialer builds a dialer with optional TLS and SASL/PLAIN auth.
// Returns nil when neither is configured so the reader uses its default.
func newDialer(tlsEnabled bool, username, password string) *kafka.Dialer {
	if !tlsEnabled && username == "" {
		return nil
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if tlsEnabled {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if username != "" {
		dialer.SASLMechanism = plain.Mechanism{Username: username, Password: password}
	}
	return dialer
}

// PingBrokers dials the given Kafka brokers and returns nil if at least one
// broker is reachable. Used as a readiness probe.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}
