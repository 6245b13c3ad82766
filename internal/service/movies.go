// Package service contains the movie search business logic, sitting between
// the HTTP handlers and the search engine.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"moviesearch/internal/cache"
	"moviesearch/internal/domain"
	"moviesearch/internal/engine"
	apperrors "moviesearch/pkg/errors"
)

const (
	defaultPage        = 1
	defaultPageSize    = 10
	maxPageSize        = 100
	defaultSuggestSize = 5
	maxSuggestSize     = 20
)

// MovieCache is the read-through cache used for get-by-ID lookups.
type MovieCache interface {
	GetMovie(ctx context.Context, id string) (*domain.Movie, error)
	SetMovie(ctx context.Context, movie *domain.Movie) error
	DeleteMovie(ctx context.Context, id string) error
}

// UpsertPublisher emits upsert notifications to the message stream.
type UpsertPublisher interface {
	PublishUpsert(ctx context.Context, movie *domain.Movie) error
}

// Movies implements the movie search use cases over a SearchEngine.
// Cache and publisher are optional; nil disables the concern.
type Movies struct {
	engine    engine.SearchEngine
	cache     MovieCache
	publisher UpsertPublisher
	logger    *slog.Logger
}

// NewMovies creates the movie service.
func NewMovies(eng engine.SearchEngine, c MovieCache, pub UpsertPublisher, logger *slog.Logger) *Movies {
	return &Movies{
		engine:    eng,
		cache:     c,
		publisher: pub,
		logger:    logger,
	}
}

// Upsert validates and indexes a movie, replacing any existing document with
// the same ID. The cached copy is invalidated so reads see the new version.
func (s *Movies) Upsert(ctx context.Context, movie *domain.Movie) error {
	if err := validateMovie(movie); err != nil {
		return err
	}

	if err := s.engine.Upsert(ctx, movie); err != nil {
		return err
	}
	s.invalidate(ctx, movie.ID)
	return nil
}

// Get fetches a movie by ID, reading through the cache when one is configured.
func (s *Movies) Get(ctx context.Context, id string) (*domain.Movie, error) {
	if s.cache != nil {
		if movie, err := s.cache.GetMovie(ctx, id); err == nil {
			return movie, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			// Degrade to the engine on cache errors rather than failing the read.
			s.logger.WarnContext(ctx, "cache read failed",
				slog.String("movie_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	movie, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetMovie(ctx, movie); err != nil {
			s.logger.WarnContext(ctx, "cache backfill failed",
				slog.String("movie_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return movie, nil
}

// Delete removes a movie from the index and invalidates its cached copy.
func (s *Movies) Delete(ctx context.Context, id string) error {
	if err := s.engine.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// PartialUpdate merges the given fields into an existing movie. The ID field
// is never patchable.
func (s *Movies) PartialUpdate(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return apperrors.InvalidInput("no fields to update")
	}
	delete(fields, "id")

	if err := s.engine.PartialUpdate(ctx, id, fields); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Search runs a full-text search, applying page and size defaults.
func (s *Movies) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	if query.Page < defaultPage {
		query.Page = defaultPage
	}
	if query.PageSize <= 0 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}

	return s.engine.Search(ctx, query)
}

// Suggest returns autocomplete suggestions for a title prefix.
func (s *Movies) Suggest(ctx context.Context, prefix string, size int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" {
		return []string{}, nil
	}
	if size <= 0 {
		size = defaultSuggestSize
	}
	if size > maxSuggestSize {
		size = maxSuggestSize
	}

	suggestions, err := s.engine.Suggest(ctx, prefix, size)
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}

// Seed bulk-indexes the built-in sample catalog and returns how many movies
// were written.
func (s *Movies) Seed(ctx context.Context) (int, error) {
	movies := SeedMovies()
	if err := s.engine.BulkUpsert(ctx, movies); err != nil {
		return 0, err
	}
	for i := range movies {
		s.invalidate(ctx, movies[i].ID)
	}
	return len(movies), nil
}

// PublishUpsert validates a movie and emits it as an upsert notification for
// the indexing worker to consume.
func (s *Movies) PublishUpsert(ctx context.Context, movie *domain.Movie) error {
	if s.publisher == nil {
		return apperrors.InvalidInput("publishing is not configured")
	}
	if err := validateMovie(movie); err != nil {
		return err
	}
	return s.publisher.PublishUpsert(ctx, movie)
}

func (s *Movies) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteMovie(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed",
			slog.String("movie_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func validateMovie(movie *domain.Movie) error {
	if movie == nil {
		return apperrors.InvalidInput("movie is required")
	}
	if strings.TrimSpace(movie.ID) == "" {
		return apperrors.InvalidInput("movie id is required")
	}
	if strings.TrimSpace(movie.Title) == "" {
		return apperrors.InvalidInput("movie title is required")
	}
	return nil
}

// SeedMovies returns the built-in sample catalog.
func SeedMovies() []domain.Movie {
	return []domain.Movie{
		{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi", Description: "A thief who steals corporate secrets through dream-sharing.", Cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt"}},
		{ID: "2", Title: "Interstellar", Year: 2014, Genre: "sci-fi", Description: "Explorers travel through a wormhole in space.", Cast: []string{"Matthew McConaughey", "Anne Hathaway"}},
		{ID: "3", Title: "The Dark Knight", Year: 2008, Genre: "action", Description: "Batman faces the Joker.", Cast: []string{"Christian Bale", "Heath Ledger"}},
		{ID: "4", Title: "Whiplash", Year: 2014, Genre: "drama", Description: "A young drummer and an abusive instructor.", Cast: []string{"Miles Teller", "J.K. Simmons"}},
		{ID: "5", Title: "La La Land", Year: 2016, Genre: "romance", Description: "A jazz musician and an actress fall in love.", Cast: []string{"Ryan Gosling", "Emma Stone"}},
		{ID: "6", Title: "The Matrix", Year: 1999, Genre: "sci-fi", Description: "A hacker discovers the truth about his reality.", Cast: []string{"Keanu Reeves", "Carrie-Anne Moss"}},
		{ID: "7", Title: "Mad Max: Fury Road", Year: 2015, Genre: "action", Description: "A post-apocalyptic chase.", Cast: []string{"Tom Hardy", "Charlize Theron"}},
		{ID: "8", Title: "Parasite", Year: 2019, Genre: "thriller", Description: "A poor family schemes to become employed by a wealthy family.", Cast: []string{"Song Kang-ho", "Cho Yeo-jeong"}},
	}
}
