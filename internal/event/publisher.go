package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"moviesearch/internal/domain"
)

// MessageWriter is the producer boundary the publisher writes through.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher emits movie upsert notifications on a topic. Keys are random,
// so consumer partition order carries no meaning for a given movie.
type Publisher struct {
	writer MessageWriter
	topic  string
}

// NewPublisher creates an upsert notification publisher.
func NewPublisher(writer MessageWriter, topic string) *Publisher {
	return &Publisher{
		writer: writer,
		topic:  topic,
	}
}

// PublishUpsert wraps the movie in the notification envelope and publishes it.
func (p *Publisher) PublishUpsert(ctx context.Context, movie *domain.Movie) error {
	payload, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("marshal movie: %w", err)
	}
	value, err := json.Marshal(envelope{Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return p.writer.Publish(ctx, p.topic, []byte(uuid.New().String()), value)
}
