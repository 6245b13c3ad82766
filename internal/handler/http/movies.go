// Package http exposes the movie search API over chi.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"moviesearch/internal/domain"
	"moviesearch/internal/service"
	"moviesearch/pkg/httputil"
	"moviesearch/pkg/validator"
)

// MovieHandler handles HTTP requests for movie endpoints.
type MovieHandler struct {
	service *service.Movies
	cluster ClusterHealthChecker
	logger  *slog.Logger
}

// ClusterHealthChecker reports the backing search cluster's health document.
// Nil when the configured engine has no cluster (in-memory).
type ClusterHealthChecker interface {
	ClusterHealth(ctx context.Context) (json.RawMessage, error)
}

// NewMovieHandler creates a new movie HTTP handler.
func NewMovieHandler(svc *service.Movies, cluster ClusterHealthChecker, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{
		service: svc,
		cluster: cluster,
		logger:  logger,
	}
}

// --- Request DTOs ---

// MovieRequest is the JSON request body for creating or publishing a movie.
type MovieRequest struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required,min=1"`
	Year        int      `json:"year" validate:"omitempty,gte=1870,lte=2100"`
	Genre       string   `json:"genre"`
	Description string   `json:"description"`
	Cast        []string `json:"cast"`
}

func (r MovieRequest) movie() *domain.Movie {
	return &domain.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Year:        r.Year,
		Genre:       r.Genre,
		Description: r.Description,
		Cast:        r.Cast,
	}
}

// SearchRequest is the JSON request body for searching movies.
type SearchRequest struct {
	Q        string `json:"q"`
	Genre    string `json:"genre"`
	YearFrom *int   `json:"yearFrom"`
	YearTo   *int   `json:"yearTo"`
	Page     int    `json:"page" validate:"omitempty,gte=1"`
	PageSize int    `json:"pageSize" validate:"omitempty,gte=1,lte=100"`
	Sort     string `json:"sort"`
}

// --- Handlers ---

// Create handles POST /api/v1/movies
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req MovieRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.Upsert(r.Context(), req.movie()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID, "status": "indexed"}})
}

// Search handles POST /api/v1/movies/search
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.YearFrom != nil && req.YearTo != nil && *req.YearFrom > *req.YearTo {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "yearFrom must not exceed yearTo"},
		})
		return
	}

	query := &domain.SearchQuery{
		Q:        req.Q,
		Genre:    req.Genre,
		YearFrom: req.YearFrom,
		YearTo:   req.YearTo,
		Page:     req.Page,
		PageSize: req.PageSize,
		Sort:     req.Sort,
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Suggest handles GET /api/v1/movies/suggest
func (h *MovieHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			size = s
		}
	}

	suggestions, err := h.service.Suggest(r.Context(), prefix, size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Get handles GET /api/v1/movies/{id}
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movie, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: movie})
}

// Delete handles DELETE /api/v1/movies/{id}
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}

// PartialUpdate handles PATCH /api/v1/movies/{id}
func (h *MovieHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := h.service.PartialUpdate(r.Context(), id, fields); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "updated"}})
}

// Seed handles POST /api/v1/movies/seed
func (h *MovieHandler) Seed(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Seed(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"seeded": count, "status": "ok"}})
}

// Publish handles POST /api/v1/movies/publish
func (h *MovieHandler) Publish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req MovieRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.PublishUpsert(r.Context(), req.movie()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"id": req.ID, "status": "published"}})
}

// ClusterHealth handles GET /api/v1/health. It passes the engine's cluster
// health document through untouched. Engines without a cluster report a
// static healthy status.
func (h *MovieHandler) ClusterHealth(w http.ResponseWriter, r *http.Request) {
	if h.cluster == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "ok"}})
		return
	}

	doc, err := h.cluster.ClusterHealth(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: doc})
}
