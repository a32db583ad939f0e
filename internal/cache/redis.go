// Package cache provides the Redis layer shared by the API: cached
// auth contexts, the token revocation set and rate-limit buckets.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool defaults sized for a single API instance. Deployments override
// them through REDIS_POOL_SIZE and REDIS_MIN_IDLE_CONNS.
const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	poolTimeout         = 4 * time.Second
	connMaxIdleTime     = 5 * time.Minute
)

// Cache wraps a Redis client with the application's access methods.
type Cache struct {
	client *redis.Client
}

// Option adjusts the connection settings before dialing.
type Option func(*redis.Options)

// WithPoolSize sets the connection pool size. Non-positive values keep
// the default.
func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// WithMinIdleConns sets how many idle connections are kept warm.
func WithMinIdleConns(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.MinIdleConns = n
		}
	}
}

// New dials Redis, applies pool settings and verifies the connection
// before returning.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = defaultPoolSize
	opt.MinIdleConns = defaultMinIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime
	for _, apply := range opts {
		apply(opt)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping reports Redis connectivity. Used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client for the activity stream and tests.
func (c *Cache) Client() *redis.Client {
	return c.client
}
