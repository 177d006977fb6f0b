package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zombar/citeaudit/internal/models"
)

// DefaultRedisTimeout bounds each cache round trip
const DefaultRedisTimeout = 250 * time.Millisecond

// Redis stores metrics as JSON so that several service instances share
// one cache. Failures are logged and treated as misses.
type Redis struct {
	client  redis.UniversalClient
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedis connects to addr and verifies the connection
func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisWithClient(client, DefaultRedisTimeout), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client redis.UniversalClient, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	return &Redis{client: client, timeout: timeout, logger: slog.Default()}
}

// Get loads and decodes the entry stored under key
func (r *Redis) Get(key string) (models.AggregateMetrics, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("metrics cache get failed", "key", key, "error", err)
		}
		return models.AggregateMetrics{}, false
	}

	var m models.AggregateMetrics
	if err := json.Unmarshal(b, &m); err != nil {
		r.logger.Warn("metrics cache entry corrupt", "key", key, "error", err)
		return models.AggregateMetrics{}, false
	}
	return m, true
}

// Set encodes value and stores it with the given TTL
func (r *Redis) Set(key string, value models.AggregateMetrics, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("failed to encode metrics for cache", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.logger.Warn("metrics cache set failed", "key", key, "error", err)
	}
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}
