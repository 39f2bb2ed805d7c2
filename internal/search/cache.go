package search

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/repository"
)

// Cache tiers, used as metric labels.
const (
	TierRedis    = "redis"
	TierPostgres = "postgres"
)

// HotCache is the fast tier in front of Postgres, implemented by
// cache.SearchCache.
type HotCache interface {
	Get(ctx context.Context, key string) (*domain.CachedSearch, bool, error)
	Set(ctx context.Context, entry *domain.CachedSearch) error
}

// TieredCache reads Redis, then Postgres, and writes through to both. Cache
// failures are logged and treated as misses; they never fail a search.
type TieredCache struct {
	hot    HotCache
	store  repository.SearchCacheRepository
	maxAge time.Duration
	logger zerolog.Logger
}

// NewTieredCache builds the cache. hot and store may each be nil to disable
// that tier.
func NewTieredCache(hot HotCache, store repository.SearchCacheRepository, maxAge time.Duration, logger zerolog.Logger) *TieredCache {
	return &TieredCache{
		hot:    hot,
		store:  store,
		maxAge: maxAge,
		logger: logger.With().Str("component", "search_cache").Logger(),
	}
}

// Get returns the entry and the tier that served it.
func (c *TieredCache) Get(ctx context.Context, key string) (*domain.CachedSearch, string, bool) {
	if c == nil {
		return nil, "", false
	}
	logger := observability.LoggerFromContext(ctx, c.logger)

	if c.hot != nil {
		entry, ok, err := c.hot.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn().Err(err).Str("cache_key", key).Msg("redis cache read failed")
		case ok:
			return entry, TierRedis, true
		}
	}

	if c.store == nil {
		return nil, "", false
	}
	entry, err := c.store.Get(ctx, key, c.maxAge)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Err(err).Str("cache_key", key).Msg("postgres cache read failed")
		}
		return nil, "", false
	}

	if c.hot != nil {
		if err := c.hot.Set(ctx, entry); err != nil {
			logger.Warn().Err(err).Str("cache_key", key).Msg("redis cache backfill failed")
		}
	}
	return entry, TierPostgres, true
}

// Put writes the entry to every configured tier.
func (c *TieredCache) Put(ctx context.Context, entry *domain.CachedSearch) {
	if c == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx, c.logger)

	if c.store != nil {
		if err := c.store.Put(ctx, entry); err != nil {
			logger.Warn().Err(err).Str("cache_key", entry.CacheKey).Msg("postgres cache write failed")
		}
	}
	if c.hot != nil {
		if err := c.hot.Set(ctx, entry); err != nil {
			logger.Warn().Err(err).Str("cache_key", entry.CacheKey).Msg("redis cache write failed")
		}
	}
}

// Purge deletes Postgres entries older than the max age. Redis entries expire
// on their own TTL.
func (c *TieredCache) Purge(ctx context.Context) (int64, error) {
	if c == nil || c.store == nil || c.maxAge <= 0 {
		return 0, nil
	}
	return c.store.DeleteOlderThan(ctx, time.Now().UTC().Add(-c.maxAge))
}
