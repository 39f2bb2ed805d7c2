package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Compile-time interface verification.
var _ ListRepository = (*PgListRepository)(nil)

// PgListRepository is a PostgreSQL implementation of ListRepository.
type PgListRepository struct {
	db DBTX
}

// NewPgListRepository creates a new PostgreSQL list repository.
func NewPgListRepository(db DBTX) *PgListRepository {
	return &PgListRepository{db: db}
}

// Create inserts a new list.
func (r *PgListRepository) Create(ctx context.Context, list *domain.List) error {
	query := `
		INSERT INTO lists (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, list.ID, list.UserID, list.Name, list.CreatedAt); err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.NewAlreadyExistsError("list", list.Name)
		}
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// Get retrieves a list with its paper count.
func (r *PgListRepository) Get(ctx context.Context, userID, id uuid.UUID) (*domain.List, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.created_at,
			(SELECT COUNT(*) FROM saved_papers sp WHERE sp.list_id = l.id) AS paper_count
		FROM lists l
		WHERE l.id = $1 AND l.user_id = $2`

	list, err := scanList(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("list", id.String())
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// ListByUser returns all lists of a user.
func (r *PgListRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.List, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.created_at, COUNT(sp.id) AS paper_count
		FROM lists l
		LEFT JOIN saved_papers sp ON sp.list_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY l.created_at DESC, l.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := make([]*domain.List, 0)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lists: %w", err)
	}
	return lists, nil
}

// Rename changes a list's name.
func (r *PgListRepository) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error) {
	query := `
		UPDATE lists SET name = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, created_at,
			(SELECT COUNT(*) FROM saved_papers sp WHERE sp.list_id = lists.id)`

	list, err := scanList(r.db.QueryRow(ctx, query, id, userID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("list", id.String())
		}
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("list", name)
		}
		return nil, fmt.Errorf("failed to rename list: %w", err)
	}
	return list, nil
}

// Delete removes the list. The saved_papers.list_id foreign key is ON DELETE
// SET NULL, so the list's papers are unlinked by the same statement; the
// count is read from the snapshot taken before the delete.
func (r *PgListRepository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	query := `
		WITH deleted AS (
			DELETE FROM lists WHERE id = $1 AND user_id = $2
			RETURNING id
		)
		SELECT
			(SELECT COUNT(*) FROM deleted),
			(SELECT COUNT(*) FROM saved_papers WHERE list_id = $1 AND user_id = $2)`

	var deleted, unlinked int64
	if err := r.db.QueryRow(ctx, query, id, userID).Scan(&deleted, &unlinked); err != nil {
		return 0, fmt.Errorf("failed to delete list: %w", err)
	}
	if deleted == 0 {
		return 0, domain.NewNotFoundError("list", id.String())
	}
	return unlinked, nil
}

func scanList(row pgx.Row) (*domain.List, error) {
	var l domain.List
	var count int64
	if err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt, &count); err != nil {
		return nil, err
	}
	l.PaperCount = int(count)
	return &l, nil
}
