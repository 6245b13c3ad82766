package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moviesearch/internal/service"
	"moviesearch/pkg/health"
	"moviesearch/pkg/middleware"
)

// NewRouter creates a chi router with all movie API routes registered.
func NewRouter(
	movieService *service.Movies,
	cluster ClusterHealthChecker,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("moviesearch"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	movieHandler := NewMovieHandler(movieService, cluster, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", movieHandler.ClusterHealth)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/suggest", movieHandler.Suggest)
			r.Get("/{id}", movieHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/", movieHandler.Create)
				r.Post("/search", movieHandler.Search)
				r.Post("/seed", movieHandler.Seed)
				r.Post("/publish", movieHandler.Publish)
				r.Patch("/{id}", movieHandler.PartialUpdate)
				r.Delete("/{id}", movieHandler.Delete)
			})
		})
	})

	return r
}
