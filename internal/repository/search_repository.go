package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// SearchCacheRepository stores search result windows keyed by the serialized
// search parameters.
type SearchCacheRepository interface {
	// Get returns the cached entry for key if it is younger than maxAge.
	// A zero maxAge accepts entries of any age.
	// Returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key string, maxAge time.Duration) (*domain.CachedSearch, error)

	// Put writes the entry, replacing any previous entry with the same key.
	Put(ctx context.Context, entry *domain.CachedSearch) error

	// DeleteOlderThan removes entries created before cutoff and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchHistoryRepository records searches submitted by authenticated users.
type SearchHistoryRepository interface {
	// Record inserts a history entry.
	Record(ctx context.Context, entry *domain.SearchHistoryEntry) error

	// ListRecent returns the user's most recent entries, newest first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error)

	// Delete removes one entry.
	// Returns domain.ErrNotFound if the entry does not exist or belongs to another user.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
