package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Compile-time interface verification.
var (
	_ SearchCacheRepository   = (*PgSearchCacheRepository)(nil)
	_ SearchHistoryRepository = (*PgSearchHistoryRepository)(nil)
)

// PgSearchCacheRepository is a PostgreSQL implementation of SearchCacheRepository.
// Results are stored as an opaque JSONB array of papers.
type PgSearchCacheRepository struct {
	db  DBTX
	now func() time.Time
}

// NewPgSearchCacheRepository creates a new PostgreSQL search cache repository.
func NewPgSearchCacheRepository(db DBTX) *PgSearchCacheRepository {
	return &PgSearchCacheRepository{db: db, now: time.Now}
}

// Get returns the cached entry for key.
func (r *PgSearchCacheRepository) Get(ctx context.Context, key string, maxAge time.Duration) (*domain.CachedSearch, error) {
	if key == "" {
		return nil, domain.NewValidationError("cache_key", "cache key is required")
	}

	query := `SELECT cache_key, results, total, created_at FROM search_cache WHERE cache_key = $1`
	args := []interface{}{key}
	if maxAge > 0 {
		query += ` AND created_at >= $2`
		args = append(args, r.now().UTC().Add(-maxAge))
	}

	var entry domain.CachedSearch
	var results []byte
	err := r.db.QueryRow(ctx, query, args...).Scan(&entry.CacheKey, &results, &entry.Total, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("search_cache", key)
		}
		return nil, fmt.Errorf("failed to get cached search: %w", err)
	}
	if err := json.Unmarshal(results, &entry.Papers); err != nil {
		return nil, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return &entry, nil
}

// Put writes the entry.
func (r *PgSearchCacheRepository) Put(ctx context.Context, entry *domain.CachedSearch) error {
	if entry.CacheKey == "" {
		return domain.NewValidationError("cache_key", "cache key is required")
	}
	papers := entry.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}
	results, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("failed to encode cached results: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	query := `
		INSERT INTO search_cache (cache_key, results, total, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			results = EXCLUDED.results,
			total = EXCLUDED.total,
			created_at = EXCLUDED.created_at`

	if _, err := r.db.Exec(ctx, query, entry.CacheKey, results, entry.Total, createdAt); err != nil {
		return fmt.Errorf("failed to write cached search: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries created before cutoff.
func (r *PgSearchCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge search cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PgSearchHistoryRepository is a PostgreSQL implementation of SearchHistoryRepository.
type PgSearchHistoryRepository struct {
	db DBTX
}

// NewPgSearchHistoryRepository creates a new PostgreSQL search history repository.
func NewPgSearchHistoryRepository(db DBTX) *PgSearchHistoryRepository {
	return &PgSearchHistoryRepository{db: db}
}

// Record inserts a history entry.
func (r *PgSearchHistoryRepository) Record(ctx context.Context, e *domain.SearchHistoryEntry) error {
	query := `
		INSERT INTO search_history (id, user_id, medicine, condition, working_mechanism, population,
			trial_type, patient_count, total_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.UserID, e.Medicine, e.Condition, e.WorkingMechanism, e.Population,
		e.TrialType, e.PatientCount, e.TotalResults, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record search history: %w", err)
	}
	return nil
}

// ListRecent returns the user's most recent entries.
func (r *PgSearchHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error) {
	offset := 0
	applyPaginationDefaults(&limit, &offset)

	query := `
		SELECT id, user_id, medicine, condition, working_mechanism, population,
			trial_type, patient_count, total_results, created_at
		FROM search_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.SearchHistoryEntry, 0)
	for rows.Next() {
		var e domain.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Medicine, &e.Condition, &e.WorkingMechanism, &e.Population,
			&e.TrialType, &e.PatientCount, &e.TotalResults, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search history: %w", err)
	}
	return entries, nil
}

// Delete removes one entry.
func (r *PgSearchHistoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete search history entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("search_history", id.String())
	}
	return nil
}
