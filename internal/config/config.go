// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "moviesearch/pkg/config"
)

// Config holds all configuration for the movie search API and worker.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8010"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"movies"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Kafka
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic        string   `env:"KAFKA_TOPIC" envDefault:"movies.upserted"`
	KafkaGroupID      string   `env:"KAFKA_GROUP_ID" envDefault:"movies-indexer"`
	KafkaTLSEnabled   bool     `env:"KAFKA_TLS_ENABLED" envDefault:"false"`
	KafkaSASLUsername string   `env:"KAFKA_SASL_USERNAME"`
	KafkaSASLPassword string   `env:"KAFKA_SASL_PASSWORD"`

	// PublishEnabled controls whether the API exposes the publish endpoint
	// backed by a Kafka producer.
	PublishEnabled bool `env:"PUBLISH_ENABLED" envDefault:"true"`

	// ObserveOnly makes the worker log notifications without indexing them.
	ObserveOnly bool `env:"OBSERVE_ONLY" envDefault:"false"`

	// Redis get-by-ID cache. Empty address disables caching.
	RedisAddr string        `env:"REDIS_ADDR"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != "elasticsearch" && c.SearchEngine != "memory" {
		return fmt.Errorf("invalid search engine: %q", c.SearchEngine)
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("invalid cache TTL: %s", c.CacheTTL)
	}
	return nil
}
