package elasticsearch

import (
	"strings"

	"moviesearch/internal/domain"
)

// Relevance boosts for the full-text clause. Title matches dominate,
// cast matches outrank description matches.
var searchFields = []string{"title^3", "description", "cast^2"}

// BuildSearchQuery constructs the Elasticsearch query DSL for a movie search.
// It is a pure transform: no I/O, deterministic for a given input.
//
// The text clause is a scoring "must" condition; genre and year are
// non-scoring "filter" conditions, so filters exclude documents but never
// influence ranking. Both aggregations and the highlight block are requested
// on every search so the facet UI can always be populated.
func BuildSearchQuery(q *domain.SearchQuery) map[string]any {
	var must any
	if strings.TrimSpace(q.Q) != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":     q.Q,
				"fields":    searchFields,
				"fuzziness": "AUTO",
			},
		}
	} else {
		must = map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{
		"must": []any{must},
	}
	if filters := buildFilters(q); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]any{
		"from": q.Offset(),
		"size": q.PageSize,
		"sort": buildSort(q.Sort),
		"query": map[string]any{
			"bool": boolQuery,
		},
		"aggs": map[string]any{
			"genres": map[string]any{
				"terms": map[string]any{"field": "genre", "size": 20},
			},
			"years": map[string]any{
				"histogram": map[string]any{"field": "year", "interval": 5},
			},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"title":       map[string]any{},
				"description": map[string]any{},
			},
		},
	}
}

// buildFilters constructs the exact, non-scoring filter clauses.
func buildFilters(q *domain.SearchQuery) []any {
	var filters []any

	if strings.TrimSpace(q.Genre) != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"genre": q.Genre},
		})
	}

	if q.YearFrom != nil || q.YearTo != nil {
		yearRange := map[string]any{}
		if q.YearFrom != nil {
			yearRange["gte"] = *q.YearFrom
		}
		if q.YearTo != nil {
			yearRange["lte"] = *q.YearTo
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"year": yearRange},
		})
	}

	return filters
}

// buildSort parses a "field:direction" token into a sort clause. Anything
// malformed (empty string, missing colon, blank field, direction other than
// asc/desc) falls back to relevance-score descending. The field is not validated;
// an unknown field is an engine-level error surfaced unchanged.
func buildSort(sort string) []any {
	field, direction, ok := parseSort(sort)
	if !ok {
		return []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
		}
	}
	return []any{
		map[string]any{field: map[string]any{"order": direction}},
	}
}

// parseSort splits a sort token into its field and direction parts. The
// direction must be asc or desc; anything else invalidates the token.
func parseSort(sort string) (field, direction string, ok bool) {
	field, direction, found := strings.Cut(sort, ":")
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

// BuildSuggestQuery constructs a completion-suggester request against the
// title_suggest field with duplicate suppression enabled.
func BuildSuggestQuery(prefix string, size int) map[string]any {
	return map[string]any{
		"suggest": map[string]any{
			"title_suggest": map[string]any{
				"prefix": prefix,
				"completion": map[string]any{
					"field":           "title_suggest",
					"size":            size,
					"skip_duplicates": true,
				},
			},
		},
	}
}
