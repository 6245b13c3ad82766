package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"moviesearch/internal/domain"
	apperrors "moviesearch/pkg/errors"
)

// Engine is an Elasticsearch-backed implementation of the SearchEngine
// interface. All operations, including index creation and NDJSON bulk
// loading, go through the public client API.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// movieDocument is the engine-side document shape: the movie fields plus
// the precomputed completion-suggester input seeded from the title.
type movieDocument struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Year         int          `json:"year"`
	Genre        string       `json:"genre"`
	Description  string       `json:"description,omitempty"`
	Cast         []string     `json:"cast,omitempty"`
	TitleSuggest suggestInput `json:"title_suggest"`
}

type suggestInput struct {
	Input []string `json:"input"`
}

func newMovieDocument(m *domain.Movie) movieDocument {
	return movieDocument{
		ID:           m.ID,
		Title:        m.Title,
		Year:         m.Year,
		Genre:        m.Genre,
		Description:  m.Description,
		Cast:         m.Cast,
		TitleSuggest: suggestInput{Input: []string{m.Title}},
	}
}

func (d movieDocument) movie() domain.Movie {
	return domain.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Year:        d.Year,
		Genre:       d.Genre,
		Description: d.Description,
		Cast:        d.Cast,
	}
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score     float64             `json:"_score"`
			Source    movieDocument       `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Genres struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"genres"`
		Years struct {
			Buckets []struct {
				Key      float64 `json:"key"`
				DocCount int     `json:"doc_count"`
			} `json:"buckets"`
		} `json:"years"`
	} `json:"aggregations"`
}

// esSuggestResponse is the structure used to decode completion-suggester responses.
type esSuggestResponse struct {
	Suggest struct {
		TitleSuggest []struct {
			Options []struct {
				Text string `json:"text"`
			} `json:"options"`
		} `json:"title_suggest"`
	} `json:"suggest"`
}

// esGetResponse is the structure used to decode get-by-id responses.
type esGetResponse struct {
	Found  bool          `json:"found"`
	Source movieDocument `json:"_source"`
}

// New creates an Elasticsearch engine connected to the given URL and ensures
// the movies index exists with the required analyzer and mappings. Index
// creation failure is fatal: the constructor errors and the caller must not
// serve traffic or consume events.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}

	if err := e.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}

	return e, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ClusterHealth returns the raw cluster-health response body, proxied
// unchanged for the health passthrough endpoint.
func (e *Engine) ClusterHealth(ctx context.Context) (json.RawMessage, error) {
	res, err := e.client.Cluster.Health(e.client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch cluster health: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, engineError("cluster health", res)
	}
	return io.ReadAll(res.Body)
}

// ensureIndex probes for the movies index and creates it if absent.
// Re-running against an existing index is a no-op.
func (e *Engine) ensureIndex() error {
	res, err := e.client.Indices.Exists([]string{e.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return engineError("create index", res)
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Upsert creates or fully replaces the movie document keyed by its ID,
// synthesizing title_suggest from the title. Re-issuing the same upsert
// leaves the index unchanged.
func (e *Engine) Upsert(ctx context.Context, movie *domain.Movie) error {
	data, err := json.Marshal(newMovieDocument(movie))
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: marshal movie: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(movie.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch upsert: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return engineError("upsert", res)
	}

	e.logger.Debug("upserted movie", "id", movie.ID, "title", movie.Title)
	return nil
}

// BulkUpsert writes multiple movie documents via the bulk NDJSON API with
// an immediate refresh, so seeded documents are searchable right away.
func (e *Engine) BulkUpsert(ctx context.Context, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i := range movies {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    movies[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk upsert: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(newMovieDocument(&movies[i])); err != nil {
			return fmt.Errorf("elasticsearch bulk upsert: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk upsert: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return engineError("bulk upsert", res)
	}

	e.logger.Info("bulk upserted movies", "count", len(movies))
	return nil
}

// PartialUpdate merges only the supplied fields into the stored document.
// A missing document surfaces the engine's not-found, never an implicit create.
func (e *Engine) PartialUpdate(ctx context.Context, id string, fields map[string]any) error {
	body, err := json.Marshal(map[string]any{"doc": fields})
	if err != nil {
		return fmt.Errorf("elasticsearch partial update: marshal fields: %w", err)
	}

	res, err := e.client.Update(
		e.indexName,
		id,
		bytes.NewReader(body),
		e.client.Update.WithRefresh("true"),
		e.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch partial update: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("movie", id)
	}
	if res.IsError() {
		return engineError("partial update", res)
	}

	e.logger.Debug("partially updated movie", "id", id)
	return nil
}

// Get fetches a movie document by its ID.
func (e *Engine) Get(ctx context.Context, id string) (*domain.Movie, error) {
	res, err := e.client.Get(
		e.indexName,
		id,
		e.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("movie", id)
	}
	if res.IsError() {
		return nil, engineError("get", res)
	}

	var getResp esGetResponse
	if err := json.NewDecoder(res.Body).Decode(&getResp); err != nil {
		return nil, fmt.Errorf("elasticsearch get: decode response: %w", err)
	}
	if !getResp.Found {
		return nil, apperrors.NotFound("movie", id)
	}

	movie := getResp.Source.movie()
	return &movie, nil
}

// Delete removes a movie document from the index. Deletion is immediate and
// irreversible from the index's perspective; a missing document is not-found.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("movie", id)
	}
	if res.IsError() {
		return engineError("delete", res)
	}

	e.logger.Debug("deleted movie", "id", id)
	return nil
}

// Search executes a movie search and decodes hits, highlights, and the
// genre/year facets.
func (e *Engine) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	data, err := json.Marshal(BuildSearchQuery(query))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithTrackTotalHits(true),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, engineError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]domain.Hit, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		hits = append(hits, domain.Hit{
			Movie:      h.Source.movie(),
			Score:      h.Score,
			Highlights: h.Highlight,
		})
	}

	facets := domain.Facets{
		Genres: make([]domain.GenreCount, 0, len(esResp.Aggregations.Genres.Buckets)),
		Years:  make([]domain.YearBucket, 0, len(esResp.Aggregations.Years.Buckets)),
	}
	for _, b := range esResp.Aggregations.Genres.Buckets {
		facets.Genres = append(facets.Genres, domain.GenreCount{Genre: b.Key, Count: b.DocCount})
	}
	for _, b := range esResp.Aggregations.Years.Buckets {
		facets.Years = append(facets.Years, domain.YearBucket{Year: int(b.Key), Count: b.DocCount})
	}

	return &domain.SearchResult{
		Hits:     hits,
		Total:    esResp.Hits.Total.Value,
		Page:     query.Page,
		PageSize: query.PageSize,
		Facets:   facets,
		TookMs:   int64(esResp.Took),
	}, nil
}

// Suggest runs the completion suggester against title_suggest and returns
// the suggested titles in engine order.
func (e *Engine) Suggest(ctx context.Context, prefix string, size int) ([]string, error) {
	data, err := json.Marshal(BuildSuggestQuery(prefix, size))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, engineError("suggest", res)
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	var titles []string
	for _, s := range esResp.Suggest.TitleSuggest {
		for _, opt := range s.Options {
			titles = append(titles, opt.Text)
		}
	}
	return titles, nil
}

// DeleteIndex removes the entire index. Intended for tests and
// administrative operations only; 404 is treated as success.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return engineError("delete index", res)
	}

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}

// engineError converts a non-success engine response into an AppError that
// preserves the engine's status code and response body verbatim, so the
// request-serving path can surface the failure without reinterpretation.
func engineError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return &apperrors.AppError{
		Code:    "ENGINE_ERROR",
		Message: fmt.Sprintf("elasticsearch %s [%s]: %s", op, res.Status(), body),
		Status:  res.StatusCode,
		Err:     apperrors.ErrEngine,
	}
}
