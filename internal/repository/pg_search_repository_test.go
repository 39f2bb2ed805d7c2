package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

func TestPgSearchCacheRepository_Get(t *testing.T) {
	fixed := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh entry decodes papers", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchCacheRepository(mock)
		repo.now = func() time.Time { return fixed }

		mock.ExpectQuery(`FROM search_cache WHERE cache_key = \$1 AND created_at >= \$2`).
			WithArgs("k1", fixed.Add(-time.Hour)).
			WillReturnRows(pgxmock.NewRows([]string{"cache_key", "results", "total", "created_at"}).
				AddRow("k1", []byte(`[{"id":"123","title":"Metformin","journal":"BMJ","year":2024}]`), 41, fixed))

		entry, err := repo.Get(context.Background(), "k1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 41, entry.Total)
		require.Len(t, entry.Papers, 1)
		assert.Equal(t, "Metformin", entry.Papers[0].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM search_cache`).
			WithArgs("k2").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewPgSearchCacheRepository(mock).Get(context.Background(), "k2", 0)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewPgSearchCacheRepository(mock).Get(context.Background(), "", 0)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgSearchCacheRepository_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fixed := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	repo := NewPgSearchCacheRepository(mock)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO search_cache`).
		WithArgs("k1", []byte(`[]`), 0, fixed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Put(context.Background(), &domain.CachedSearch{CacheKey: "k1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSearchCacheRepository_DeleteOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectExec(`DELETE FROM search_cache WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 9))

	n, err := NewPgSearchCacheRepository(mock).DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
}

func TestPgSearchHistoryRepository(t *testing.T) {
	columns := []string{"id", "user_id", "medicine", "condition", "working_mechanism", "population",
		"trial_type", "patient_count", "total_results", "created_at"}

	t.Run("record", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		minPatients := 100
		e := domain.NewSearchHistoryEntry(uuid.New(), domain.SearchCriteria{Medicine: "metformin", PatientCountMin: &minPatients}, 12)
		mock.ExpectExec(`INSERT INTO search_history`).
			WithArgs(e.ID, e.UserID, "metformin", "", "", "", "", e.PatientCount, 12, e.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewPgSearchHistoryRepository(mock).Record(context.Background(), e))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list recent applies default limit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		userID := uuid.New()
		mock.ExpectQuery(`FROM search_history`).
			WithArgs(userID, defaultFilterLimit).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(uuid.New(), userID, "aspirin", "stroke", "", "", "rct", nil, 5, time.Now().UTC()))

		entries, err := NewPgSearchHistoryRepository(mock).ListRecent(context.Background(), userID, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "aspirin", entries[0].Medicine)
		assert.Nil(t, entries[0].PatientCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete of someone else's entry is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM search_history`).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = NewPgSearchHistoryRepository(mock).Delete(context.Background(), uuid.New(), uuid.New())
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
