// Package app wires together the API server and the indexing worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"moviesearch/internal/cache"
	"moviesearch/internal/config"
	"moviesearch/internal/engine"
	esengine "moviesearch/internal/engine/elasticsearch"
	"moviesearch/internal/engine/memory"
	"moviesearch/internal/event"
	handler "moviesearch/internal/handler/http"
	"moviesearch/internal/service"
	"moviesearch/pkg/health"
	pkgkafka "moviesearch/pkg/kafka"
)

// App wires together all dependencies and runs the movie search API.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	producer   *pkgkafka.Producer
	movieCache *cache.Client
}

// NewApp creates a new API application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	eng, esEng, err := newEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Optional Redis read-through cache for get-by-ID.
	var movieCache *cache.Client
	var svcCache service.MovieCache
	if cfg.RedisAddr != "" {
		movieCache, err = cache.New(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		svcCache = movieCache
		logger.Info("redis cache initialized", slog.String("addr", cfg.RedisAddr))
	}

	// Optional Kafka producer behind the publish endpoint.
	var producer *pkgkafka.Producer
	var publisher service.UpsertPublisher
	if cfg.PublishEnabled {
		producerCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producerCfg.TLSEnabled = cfg.KafkaTLSEnabled
		producerCfg.SASLUsername = cfg.KafkaSASLUsername
		producerCfg.SASLPassword = cfg.KafkaSASLPassword
		producer = pkgkafka.NewProducer(producerCfg, logger)
		publisher = event.NewPublisher(producer, cfg.KafkaTopic)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}

	movieService := service.NewMovies(eng, svcCache, publisher, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	var cluster handler.ClusterHealthChecker
	if esEng != nil {
		cluster = esEng
	}
	router := handler.NewRouter(movieService, cluster, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		producer:   producer,
		movieCache: movieCache,
	}, nil
}

// Run starts the HTTP server, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.movieCache != nil {
		if err := a.movieCache.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// newEngine initializes the configured search engine. The second return value
// is non-nil only for the Elasticsearch engine, which carries extra
// cluster-level operations.
func newEngine(cfg *config.Config, logger *slog.Logger) (engine.SearchEngine, *esengine.Engine, error) {
	switch cfg.SearchEngine {
	case "elasticsearch":
		esEng, err := esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return esEng, esEng, nil
	default:
		logger.Info("in-memory search engine initialized")
		return memory.New(), nil, nil
	}
}
