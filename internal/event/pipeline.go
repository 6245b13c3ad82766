// Package event implements the movie upsert notification stream: the
// publisher that emits envelopes and the pipeline that consumes them into
// the search engine.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"moviesearch/internal/domain"
	"moviesearch/internal/engine"
)

// envelope is the wire format of an upsert notification. The movie rides
// under a payload key so the envelope can grow metadata without breaking
// consumers.
type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

// Result classifies the outcome of processing one notification.
type Result int

const (
	// ResultIndexed means the movie was written to the search engine.
	ResultIndexed Result = iota
	// ResultObserved means observe-only mode logged the movie without indexing.
	ResultObserved
	// ResultSkippedMalformed means the message could not be decoded and was dropped.
	ResultSkippedMalformed
	// ResultSkippedError means the engine rejected the write and the message was dropped.
	ResultSkippedError
)

// Pipeline consumes upsert notifications and applies them to the engine.
// Malformed messages and engine failures are logged and skipped; the pipeline
// never stalls the stream on a bad message.
type Pipeline struct {
	engine      engine.SearchEngine
	logger      *slog.Logger
	observeOnly bool
}

// NewPipeline creates an ingestion pipeline. With observeOnly set, raw
// messages are logged without being decoded or indexed.
func NewPipeline(eng engine.SearchEngine, observeOnly bool, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		engine:      eng,
		logger:      logger,
		observeOnly: observeOnly,
	}
}

// Handle adapts Process to the consumer's message handler signature.
// Engine failures surface as errors so the consumer can count them; malformed
// messages are already logged here and resolve to nil.
func (p *Pipeline) Handle(ctx context.Context, _, value []byte) error {
	_, err := p.Process(ctx, value)
	return err
}

// Process decodes one notification and applies it. The returned Result says
// what happened; the error is non-nil only for engine write failures.
func (p *Pipeline) Process(ctx context.Context, value []byte) (Result, error) {
	// Observe-only mode logs the raw message before any decoding so that
	// malformed stream traffic can be inspected as-is.
	if p.observeOnly {
		p.logger.InfoContext(ctx, "observed message",
			slog.String("value", string(value)),
		)
		return ResultObserved, nil
	}

	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		p.logger.WarnContext(ctx, "skipping malformed message",
			slog.String("error", err.Error()),
		)
		return ResultSkippedMalformed, nil
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		p.logger.WarnContext(ctx, "skipping message without payload")
		return ResultSkippedMalformed, nil
	}

	var movie domain.Movie
	if err := json.Unmarshal(env.Payload, &movie); err != nil {
		p.logger.WarnContext(ctx, "skipping undecodable payload",
			slog.String("error", err.Error()),
		)
		return ResultSkippedMalformed, nil
	}
	if strings.TrimSpace(movie.ID) == "" {
		p.logger.WarnContext(ctx, "skipping movie without id",
			slog.String("title", movie.Title),
		)
		return ResultSkippedMalformed, nil
	}

	if err := p.engine.Upsert(ctx, &movie); err != nil {
		p.logger.ErrorContext(ctx, "indexing failed, message skipped",
			slog.String("movie_id", movie.ID),
			slog.String("error", err.Error()),
		)
		return ResultSkippedError, err
	}

	p.logger.InfoContext(ctx, "movie indexed",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title),
	)
	return ResultIndexed, nil
}
