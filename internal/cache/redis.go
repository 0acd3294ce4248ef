// Package cache implements the intermediate metadata cache on Redis.
// Discovery stages each raw item under meta:{platform}:{url} with a fixed
// expiry so detail parsing can replay it; the cache is never the system of
// record.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
)

// Redis wraps a shared go-redis client. Construct it once at process startup
// and pass it to whoever needs it; connection failure at construction is
// fatal, a per-key miss at read time is not.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// New parses redisURL, verifies connectivity and returns the cache client.
func New(ctx context.Context, redisURL string, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}, nil
}

// Key builds the namespaced metadata key for a platform/url pair.
func Key(platform crawler.Platform, url string) string {
	return fmt.Sprintf("meta:%s:%s", platform, url)
}

// Get returns the staged item for url, or nil on a cache miss.
func (r *Redis) Get(ctx context.Context, platform crawler.Platform, url string) (crawler.Item, error) {
	raw, err := r.client.Get(ctx, Key(platform, url)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var item crawler.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode cached item: %w", err)
	}
	return item, nil
}

// SetBatch stages every item through one pipelined round trip.
func (r *Redis) SetBatch(ctx context.Context, platform crawler.Platform, items map[string]crawler.Item, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for url, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item for %s: %w", url, err)
		}
		pipe.Set(ctx, Key(platform, url), payload, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline exec: %w", err)
	}
	r.logger.Debug("staged discovery metadata", zap.Int("count", len(items)))
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
