package domain

// Movie is the unit of storage and search. ID is the sole identity: two
// writes with the same ID are the same logical document and the last write
// wins. There is no version or optimistic-concurrency check.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Genre       string   `json:"genre"`
	Description string   `json:"description,omitempty"`
	Cast        []string `json:"cast,omitempty"`
}

// Sort directions accepted in a "field:direction" sort token.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchQuery holds all parameters for a search request.
// Zero values mean "not supplied" for the optional filters.
type SearchQuery struct {
	Q        string `json:"q"`
	Genre    string `json:"genre,omitempty"`
	YearFrom *int   `json:"yearFrom,omitempty"`
	YearTo   *int   `json:"yearTo,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort,omitempty"`
}

// Offset returns the result offset for the query's page and page size,
// clamped at zero.
func (q *SearchQuery) Offset() int {
	off := (q.Page - 1) * q.PageSize
	if off < 0 {
		return 0
	}
	return off
}

// Hit is a single search result with its relevance score and any
// highlighted snippets keyed by field name.
type Hit struct {
	Movie      Movie               `json:"movie"`
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// GenreCount is one bucket of the genre facet.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// YearBucket is one bucket of the year histogram facet (bucket width 5).
type YearBucket struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Facets carries the aggregations returned with every search, used to
// populate the search-facet UI regardless of whether the caller asked.
type Facets struct {
	Genres []GenreCount `json:"genres"`
	Years  []YearBucket `json:"years"`
}

// SearchResult holds the paginated search response.
type SearchResult struct {
	Hits     []Hit  `json:"hits"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Facets   Facets `json:"facets"`
	TookMs   int64  `json:"took_ms"`
}
