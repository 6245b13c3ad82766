package engine

import (
	"context"

	"moviesearch/internal/domain"
)

// SearchEngine defines the interface for indexing and searching movies.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type SearchEngine interface {
	// Upsert creates or fully replaces a single movie document keyed by its ID.
	Upsert(ctx context.Context, movie *domain.Movie) error

	// BulkUpsert creates or replaces multiple movie documents in one request.
	BulkUpsert(ctx context.Context, movies []domain.Movie) error

	// PartialUpdate merges only the supplied fields into an existing document.
	// The document must already exist: a missing ID is an error, not an
	// implicit create.
	PartialUpdate(ctx context.Context, id string, fields map[string]any) error

	// Get fetches a movie document by its ID.
	Get(ctx context.Context, id string) (*domain.Movie, error)

	// Delete removes a movie document from the search index by its ID.
	Delete(ctx context.Context, id string) error

	// Search executes a search query and returns matching movies together
	// with facets and highlighted snippets.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)

	// Suggest returns autocomplete title suggestions for the given prefix.
	Suggest(ctx context.Context, prefix string, size int) ([]string, error)
}
