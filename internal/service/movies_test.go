package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesearch/internal/cache"
	"moviesearch/internal/domain"
	"moviesearch/internal/engine/memory"
	apperrors "moviesearch/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCache is an in-memory MovieCache that records its interactions.
type fakeCache struct {
	mu      sync.Mutex
	movies  map[string]*domain.Movie
	gets    int
	hits    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{movies: make(map[string]*domain.Movie)}
}

func (f *fakeCache) GetMovie(_ context.Context, id string) (*domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if m, ok := f.movies[id]; ok {
		f.hits++
		return m, nil
	}
	return nil, cache.ErrNotFound
}

func (f *fakeCache) SetMovie(_ context.Context, movie *domain.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[movie.ID] = movie
	return nil
}

func (f *fakeCache) DeleteMovie(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.movies, id)
	return nil
}

// fakePublisher records published movies.
type fakePublisher struct {
	published []*domain.Movie
	err       error
}

func (f *fakePublisher) PublishUpsert(_ context.Context, movie *domain.Movie) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, movie)
	return nil
}

func TestMovies_Upsert_Validation(t *testing.T) {
	svc := NewMovies(memory.New(), nil, nil, discardLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Upsert(ctx, nil), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.Upsert(ctx, &domain.Movie{Title: "No ID"}), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.Upsert(ctx, &domain.Movie{ID: "1", Title: "  "}), apperrors.ErrInvalidInput)

	require.NoError(t, svc.Upsert(ctx, &domain.Movie{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi"}))
}

func TestMovies_SearchDefaults(t *testing.T) {
	eng := memory.New()
	svc := NewMovies(eng, nil, nil, discardLogger())
	ctx := context.Background()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi"}))

	result, err := svc.Search(ctx, &domain.SearchQuery{Q: ""})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 10, result.PageSize)

	result, err = svc.Search(ctx, &domain.SearchQuery{Q: "", PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, result.PageSize)
}

func TestMovies_SearchRelevance(t *testing.T) {
	eng := memory.New()
	svc := NewMovies(eng, nil, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.Seed(ctx)
	require.NoError(t, err)

	result, err := svc.Search(ctx, &domain.SearchQuery{Q: "inception"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Inception", result.Hits[0].Movie.Title)

	result, err = svc.Search(ctx, &domain.SearchQuery{Q: "matrix"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "The Matrix", result.Hits[0].Movie.Title)
}

func TestMovies_Seed(t *testing.T) {
	eng := memory.New()
	svc := NewMovies(eng, nil, nil, discardLogger())

	count, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	result, err := svc.Search(context.Background(), &domain.SearchQuery{Q: ""})
	require.NoError(t, err)
	assert.Equal(t, 8, result.Total)
}

func TestMovies_Suggest(t *testing.T) {
	eng := memory.New()
	svc := NewMovies(eng, nil, nil, discardLogger())
	ctx := context.Background()
	_, err := svc.Seed(ctx)
	require.NoError(t, err)

	suggestions, err := svc.Suggest(ctx, "in", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inception", "Interstellar"}, suggestions)

	// Blank prefix short-circuits to an empty, non-nil slice.
	suggestions, err = svc.Suggest(ctx, "   ", 5)
	require.NoError(t, err)
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}

func TestMovies_Get_ReadThroughCache(t *testing.T) {
	eng := memory.New()
	c := newFakeCache()
	svc := NewMovies(eng, c, nil, discardLogger())
	ctx := context.Background()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi"}))

	// First read misses the cache and back-fills it.
	movie, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Inception", movie.Title)
	assert.Equal(t, 0, c.hits)

	// Second read hits the cache.
	_, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.hits)
}

func TestMovies_Get_Missing(t *testing.T) {
	svc := NewMovies(memory.New(), nil, nil, discardLogger())

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMovies_WritesInvalidateCache(t *testing.T) {
	eng := memory.New()
	c := newFakeCache()
	svc := NewMovies(eng, c, nil, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, &domain.Movie{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi"}))

	_, err := svc.Get(ctx, "1")
	require.NoError(t, err)

	require.NoError(t, svc.PartialUpdate(ctx, "1", map[string]any{"year": 2011}))

	movie, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2011, movie.Year)

	require.NoError(t, svc.Delete(ctx, "1"))
	assert.GreaterOrEqual(t, c.deletes, 3)
}

func TestMovies_PartialUpdate_Validation(t *testing.T) {
	eng := memory.New()
	svc := NewMovies(eng, nil, nil, discardLogger())
	ctx := context.Background()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi"}))

	assert.ErrorIs(t, svc.PartialUpdate(ctx, "1", map[string]any{}), apperrors.ErrInvalidInput)

	// The ID field is silently dropped from the patch.
	require.NoError(t, svc.PartialUpdate(ctx, "1", map[string]any{"id": "999", "year": 2011}))
	movie, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", movie.ID)
	assert.Equal(t, 2011, movie.Year)
}

func TestMovies_PublishUpsert(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewMovies(memory.New(), nil, pub, discardLogger())
	ctx := context.Background()

	movie := &domain.Movie{ID: "9", Title: "Dune", Year: 2021, Genre: "sci-fi"}
	require.NoError(t, svc.PublishUpsert(ctx, movie))
	require.Len(t, pub.published, 1)
	assert.Equal(t, "Dune", pub.published[0].Title)

	assert.ErrorIs(t, svc.PublishUpsert(ctx, &domain.Movie{Title: "No ID"}), apperrors.ErrInvalidInput)
}

func TestMovies_PublishUpsert_Unconfigured(t *testing.T) {
	svc := NewMovies(memory.New(), nil, nil, discardLogger())

	err := svc.PublishUpsert(context.Background(), &domain.Movie{ID: "9", Title: "Dune"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMovies_PublishUpsert_WriterError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	svc := NewMovies(memory.New(), nil, pub, discardLogger())

	err := svc.PublishUpsert(context.Background(), &domain.Movie{ID: "9", Title: "Dune"})
	assert.Error(t, err)
}
