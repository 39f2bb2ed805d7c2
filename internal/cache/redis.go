// Package cache holds the Redis tier of the search result cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

const (
	defaultKeyPrefix = "medlit"
	defaultTTL       = time.Hour
)

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// SearchCache stores search result windows in Redis under
// "<prefix>:search:<cache key>" with a fixed TTL.
type SearchCache struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSearchCache wraps a Redis client. Empty prefix and non-positive ttl fall
// back to "medlit" and one hour.
func NewSearchCache(rdb goredis.Cmdable, prefix string, ttl time.Duration, logger zerolog.Logger) *SearchCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SearchCache{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Key returns the Redis key for a search cache key.
func (c *SearchCache) Key(cacheKey string) string {
	return c.prefix + ":search:" + cacheKey
}

// Get returns the cached entry. A miss is reported as (nil, false, nil).
func (c *SearchCache) Get(ctx context.Context, cacheKey string) (*domain.CachedSearch, bool, error) {
	raw, err := c.rdb.Get(ctx, c.Key(cacheKey)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var entry domain.CachedSearch
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt value is dropped so the next write can replace it.
		c.logger.Warn().Err(err).Str("cache_key", cacheKey).Msg("discarding undecodable cache entry")
		_ = c.rdb.Del(ctx, c.Key(cacheKey)).Err()
		return nil, false, nil
	}
	return &entry, true, nil
}

// Set stores the entry under its cache key.
func (c *SearchCache) Set(ctx context.Context, entry *domain.CachedSearch) error {
	if entry == nil || entry.CacheKey == "" {
		return domain.NewValidationError("cache_key", "cache key is required")
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.Key(entry.CacheKey), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete evicts one entry.
func (c *SearchCache) Delete(ctx context.Context, cacheKey string) error {
	if err := c.rdb.Del(ctx, c.Key(cacheKey)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
