// Package memory provides an in-memory implementation of the SearchEngine
// interface with the same observable semantics as the Elasticsearch engine:
// weighted text scoring, non-scoring genre/year filters, field sorts, genre
// and year facets, and prefix suggestions. It backs unit tests and
// engine-less local runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"moviesearch/internal/domain"
	apperrors "moviesearch/pkg/errors"
)

// Field weights mirror the relevance boosts of the full-text search clause.
const (
	titleWeight       = 3.0
	castWeight        = 2.0
	descriptionWeight = 1.0
)

// yearBucketWidth matches the year histogram interval of the facet query.
const yearBucketWidth = 5

// Engine is an in-memory implementation of the SearchEngine interface.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu     sync.RWMutex
	movies map[string]domain.Movie
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		movies: make(map[string]domain.Movie),
	}
}

// Upsert creates or fully replaces a movie keyed by its ID.
func (e *Engine) Upsert(_ context.Context, movie *domain.Movie) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.movies[movie.ID] = *movie
	return nil
}

// BulkUpsert creates or replaces multiple movies.
func (e *Engine) BulkUpsert(_ context.Context, movies []domain.Movie) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range movies {
		e.movies[movies[i].ID] = movies[i]
	}
	return nil
}

// PartialUpdate merges the supplied fields into an existing movie. The movie
// must already exist; a missing ID is an error, not an implicit create.
func (e *Engine) PartialUpdate(_ context.Context, id string, fields map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.movies[id]
	if !ok {
		return apperrors.NotFound("movie", id)
	}

	// Merge via a JSON round-trip: only keys present in fields are applied,
	// everything else keeps its stored value.
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("memory partial update: marshal fields: %w", err)
	}
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("memory partial update: merge fields: %w", err)
	}
	current.ID = id

	e.movies[id] = current
	return nil
}

// Get fetches a movie by its ID.
func (e *Engine) Get(_ context.Context, id string) (*domain.Movie, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	movie, ok := e.movies[id]
	if !ok {
		return nil, apperrors.NotFound("movie", id)
	}
	return &movie, nil
}

// Delete removes a movie from the index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.movies[id]; !ok {
		return apperrors.NotFound("movie", id)
	}
	delete(e.movies, id)
	return nil
}

// Search executes a search query against the in-memory index.
func (e *Engine) Search(_ context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(query.Q))

	hits := make([]domain.Hit, 0)
	for _, m := range e.movies {
		if !passesFilters(m, query) {
			continue
		}

		score, highlights := scoreMovie(m, term)
		if term != "" && score == 0 {
			continue
		}
		hits = append(hits, domain.Hit{
			Movie:      m,
			Score:      score,
			Highlights: highlights,
		})
	}
	sortHits(hits, query.Sort)

	// Facets are computed over the filtered set, like the engine's
	// aggregations, before pagination.
	facets := buildFacets(hits)

	total := len(hits)
	offset := query.Offset()
	if offset > total {
		offset = total
	}
	end := offset + query.PageSize
	if end > total {
		end = total
	}

	return &domain.SearchResult{
		Hits:     hits[offset:end],
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Facets:   facets,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// Suggest returns movie titles starting with the given prefix,
// case-insensitively, deduplicated and alphabetically ordered.
func (e *Engine) Suggest(_ context.Context, prefix string, size int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	prefixLower := strings.ToLower(prefix)
	seen := make(map[string]struct{})
	var titles []string

	for _, m := range e.movies {
		if !strings.HasPrefix(strings.ToLower(m.Title), prefixLower) {
			continue
		}
		if _, ok := seen[m.Title]; ok {
			continue
		}
		seen[m.Title] = struct{}{}
		titles = append(titles, m.Title)
	}

	sort.Strings(titles)
	if len(titles) > size {
		titles = titles[:size]
	}
	return titles, nil
}

// passesFilters applies the non-scoring genre and year filters.
func passesFilters(m domain.Movie, query *domain.SearchQuery) bool {
	if query.Genre != "" && m.Genre != query.Genre {
		return false
	}
	if query.YearFrom != nil && m.Year < *query.YearFrom {
		return false
	}
	if query.YearTo != nil && m.Year > *query.YearTo {
		return false
	}
	return true
}

// scoreMovie computes a weighted relevance score for the term and collects
// highlighted snippets for title and description matches. A blank term
// matches everything with score zero.
func scoreMovie(m domain.Movie, term string) (float64, map[string][]string) {
	if term == "" {
		return 0, nil
	}

	var score float64
	highlights := make(map[string][]string)

	if snippet, ok := highlight(m.Title, term); ok {
		score += titleWeight
		highlights["title"] = []string{snippet}
	}
	for _, member := range m.Cast {
		if strings.Contains(strings.ToLower(member), term) {
			score += castWeight
		}
	}
	if snippet, ok := highlight(m.Description, term); ok {
		score += descriptionWeight
		highlights["description"] = []string{snippet}
	}

	if len(highlights) == 0 {
		highlights = nil
	}
	return score, highlights
}

// highlight wraps the first case-insensitive occurrence of term in <em> tags.
func highlight(text, term string) (string, bool) {
	idx := strings.Index(strings.ToLower(text), term)
	if idx < 0 {
		return "", false
	}
	end := idx + len(term)
	return text[:idx] + "<em>" + text[idx:end] + "</em>" + text[end:], true
}

// sortHits orders hits by the requested "field:direction" token, falling
// back to score-descending (ties broken by ID for determinism).
func sortHits(hits []domain.Hit, sortToken string) {
	field, direction, ok := parseSort(sortToken)
	if !ok {
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].Movie.ID < hits[j].Movie.ID
		})
		return
	}

	asc := direction != domain.SortDesc
	sort.SliceStable(hits, func(i, j int) bool {
		var less bool
		switch field {
		case "year":
			less = hits[i].Movie.Year < hits[j].Movie.Year
		case "title", "title.keyword":
			less = hits[i].Movie.Title < hits[j].Movie.Title
		case "genre":
			less = hits[i].Movie.Genre < hits[j].Movie.Genre
		default:
			less = hits[i].Movie.ID < hits[j].Movie.ID
		}
		if asc {
			return less
		}
		return !less
	})
}

func parseSort(sortToken string) (field, direction string, ok bool) {
	field, direction, found := strings.Cut(sortToken, ":")
	if !found {
		return "", "", false
	}
	field = strings.TrimSpace(field)
	direction = strings.TrimSpace(direction)
	if field == "" || (direction != domain.SortAsc && direction != domain.SortDesc) {
		return "", "", false
	}
	return field, direction, true
}

// buildFacets computes genre term counts (descending by count, capped at 20)
// and the five-year histogram over the matched set.
func buildFacets(hits []domain.Hit) domain.Facets {
	genreCounts := make(map[string]int)
	yearCounts := make(map[int]int)

	for _, h := range hits {
		if h.Movie.Genre != "" {
			genreCounts[h.Movie.Genre]++
		}
		bucket := h.Movie.Year - (h.Movie.Year % yearBucketWidth)
		yearCounts[bucket]++
	}

	facets := domain.Facets{
		Genres: make([]domain.GenreCount, 0, len(genreCounts)),
		Years:  make([]domain.YearBucket, 0, len(yearCounts)),
	}
	for genre, count := range genreCounts {
		facets.Genres = append(facets.Genres, domain.GenreCount{Genre: genre, Count: count})
	}
	sort.Slice(facets.Genres, func(i, j int) bool {
		if facets.Genres[i].Count != facets.Genres[j].Count {
			return facets.Genres[i].Count > facets.Genres[j].Count
		}
		return facets.Genres[i].Genre < facets.Genres[j].Genre
	})
	if len(facets.Genres) > 20 {
		facets.Genres = facets.Genres[:20]
	}

	for year, count := range yearCounts {
		facets.Years = append(facets.Years, domain.YearBucket{Year: year, Count: count})
	}
	sort.Slice(facets.Years, func(i, j int) bool {
		return facets.Years[i].Year < facets.Years[j].Year
	})

	return facets
}
