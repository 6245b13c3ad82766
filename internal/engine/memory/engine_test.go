package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviesearch/internal/domain"
	apperrors "moviesearch/pkg/errors"
)

func intPtr(v int) *int { return &v }

func seedCatalog(t *testing.T, eng *Engine) {
	t.Helper()
	ctx := context.Background()
	movies := []domain.Movie{
		{ID: "1", Title: "Inception", Year: 2010, Genre: "sci-fi", Description: "A thief who steals corporate secrets through dream-sharing.", Cast: []string{"Leonardo DiCaprio"}},
		{ID: "2", Title: "Interstellar", Year: 2014, Genre: "sci-fi", Description: "Explorers travel through a wormhole in space.", Cast: []string{"Matthew McConaughey"}},
		{ID: "3", Title: "The Dark Knight", Year: 2008, Genre: "action", Description: "Batman faces the Joker.", Cast: []string{"Christian Bale"}},
		{ID: "6", Title: "The Matrix", Year: 1999, Genre: "sci-fi", Description: "A hacker discovers the truth about his reality.", Cast: []string{"Keanu Reeves"}},
		{ID: "8", Title: "Parasite", Year: 2019, Genre: "thriller", Description: "A poor family schemes to become employed by a wealthy family.", Cast: []string{"Song Kang-ho"}},
	}
	require.NoError(t, eng.BulkUpsert(ctx, movies))
}

func TestEngine_Search_TitleMatch(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "inception", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "1", result.Hits[0].Movie.ID)
}

func TestEngine_Search_TitleOutranksDescription(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "a", Title: "The Matrix", Year: 1999, Genre: "sci-fi"}))
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "b", Title: "Simulation", Year: 2005, Genre: "sci-fi", Description: "Inside the matrix of a machine world."}))

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "matrix", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	assert.Equal(t, "a", result.Hits[0].Movie.ID)
	assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
}

func TestEngine_Search_CastMatch(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "keanu", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "The Matrix", result.Hits[0].Movie.Title)
}

func TestEngine_Search_BlankQueryMatchesAll(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "  ", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
}

func TestEngine_Search_GenreFilterDoesNotScore(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Genre: "sci-fi", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	for _, h := range result.Hits {
		assert.Equal(t, "sci-fi", h.Movie.Genre)
		assert.Zero(t, h.Score)
	}
}

func TestEngine_Search_YearRange(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "", YearFrom: intPtr(2008), YearTo: intPtr(2014), Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)

	result, err = eng.Search(ctx, &domain.SearchQuery{Q: "", YearFrom: intPtr(2015), Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Parasite", result.Hits[0].Movie.Title)
}

func TestEngine_Search_SortByYear(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Sort: "year:asc", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 5, result.Total)
	assert.Equal(t, 1999, result.Hits[0].Movie.Year)
	assert.Equal(t, 2019, result.Hits[4].Movie.Year)

	result, err = eng.Search(ctx, &domain.SearchQuery{Q: "", Sort: "year:desc", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2019, result.Hits[0].Movie.Year)
}

func TestEngine_Search_MalformedSortFallsBackToScore(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "a", Title: "The Matrix", Year: 1999, Genre: "sci-fi"}))
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "b", Title: "Revolutions", Year: 2003, Genre: "sci-fi", Description: "The matrix concludes."}))

	for _, sortToken := range []string{"gibberish", "year:bogus", "year:"} {
		result, err := eng.Search(ctx, &domain.SearchQuery{Q: "matrix", Sort: sortToken, Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Equal(t, 2, result.Total)
		assert.Equal(t, "a", result.Hits[0].Movie.ID, "sort token %q should fall back to score", sortToken)
	}
}

func TestEngine_Search_Pagination(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	page1, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Sort: "year:asc", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page1.Total)
	assert.Len(t, page1.Hits, 2)

	page3, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Sort: "year:asc", Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page3.Hits, 1)
	assert.Equal(t, "Parasite", page3.Hits[0].Movie.Title)

	beyond, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Page: 10, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Hits)
	assert.Equal(t, 5, beyond.Total)
}

func TestEngine_Search_Facets(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "", Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.NotEmpty(t, result.Facets.Genres)
	assert.Equal(t, domain.GenreCount{Genre: "sci-fi", Count: 3}, result.Facets.Genres[0])

	// 1999 buckets at 1995, 2008/2010 at 2005/2010, 2014 at 2010, 2019 at 2015.
	assert.Contains(t, result.Facets.Years, domain.YearBucket{Year: 1995, Count: 1})
	assert.Contains(t, result.Facets.Years, domain.YearBucket{Year: 2010, Count: 2})
}

func TestEngine_Search_Highlights(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "matrix", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, []string{"The <em>Matrix</em>"}, result.Hits[0].Highlights["title"])
}

func TestEngine_Suggest(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	suggestions, err := eng.Suggest(ctx, "in", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inception", "Interstellar"}, suggestions)

	suggestions, err = eng.Suggest(ctx, "IN", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inception"}, suggestions)

	suggestions, err = eng.Suggest(ctx, "zzz", 5)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestEngine_Upsert_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "9", Title: "Dune", Year: 2020, Genre: "sci-fi"}))
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "9", Title: "Dune", Year: 2021, Genre: "sci-fi"}))

	movie, err := eng.Get(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, 2021, movie.Year)

	result, err := eng.Search(ctx, &domain.SearchQuery{Q: "dune", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestEngine_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Upsert(ctx, &domain.Movie{ID: "9", Title: "Dune", Year: 2020, Genre: "sci-fi", Description: "Spice."}))

	require.NoError(t, eng.PartialUpdate(ctx, "9", map[string]any{"year": 2021}))

	movie, err := eng.Get(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, 2021, movie.Year)
	assert.Equal(t, "Dune", movie.Title)
	assert.Equal(t, "Spice.", movie.Description)
}

func TestEngine_PartialUpdate_MissingMovie(t *testing.T) {
	eng := New()

	err := eng.PartialUpdate(context.Background(), "nope", map[string]any{"year": 2021})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEngine_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	eng := New()
	seedCatalog(t, eng)

	movie, err := eng.Get(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)

	require.NoError(t, eng.Delete(ctx, "6"))

	_, err = eng.Get(ctx, "6")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, eng.Delete(ctx, "6"), apperrors.ErrNotFound)
}
