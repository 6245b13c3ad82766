// Package cache provides a Redis-backed read-through cache for Movie objects.
//
// On a get-by-ID, Redis is checked first (cache HIT). On a miss, the caller
// falls back to the search engine and back-fills the cache for subsequent
// requests. Writes and deletes invalidate the cached entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"moviesearch/internal/domain"
)

const movieKeyPrefix = "movie:"

// ErrNotFound is returned when a key does not exist in the cache.
var ErrNotFound = errors.New("cache: key not found")

// Client wraps the Redis client and exposes domain-level operations.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Redis client and verifies the connection with a PING.
func New(addr string, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close shuts down the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetMovie serialises a Movie and stores it in Redis with the configured TTL.
func (c *Client) SetMovie(ctx context.Context, movie *domain.Movie) error {
	data, err := json.Marshal(movie)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, movieKeyPrefix+movie.ID, data, c.ttl).Err()
}

// GetMovie fetches a Movie by ID from Redis.
// Returns ErrNotFound when the key does not exist or has expired.
func (c *Client) GetMovie(ctx context.Context, id string) (*domain.Movie, error) {
	data, err := c.rdb.Get(ctx, movieKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var movie domain.Movie
	if err := json.Unmarshal(data, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// DeleteMovie removes a cached Movie. Missing keys are not an error.
func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, movieKeyPrefix+id).Err()
}
