package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Compile-time interface verification.
var _ SavedPaperRepository = (*PgSavedPaperRepository)(nil)

const savedPaperColumns = `id, user_id, paper_id, title, abstract, authors, journal, year,
	citations, pdf_url, is_liked, list_id, created_at`

// PgSavedPaperRepository is a PostgreSQL implementation of SavedPaperRepository.
type PgSavedPaperRepository struct {
	db DBTX
}

// NewPgSavedPaperRepository creates a new PostgreSQL saved paper repository.
func NewPgSavedPaperRepository(db DBTX) *PgSavedPaperRepository {
	return &PgSavedPaperRepository{db: db}
}

// Upsert inserts the paper or refreshes an existing save of the same paper id.
func (r *PgSavedPaperRepository) Upsert(ctx context.Context, p *domain.SavedPaper) (*domain.SavedPaper, error) {
	if p.PaperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper id is required")
	}
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}

	query := `
		INSERT INTO saved_papers (id, user_id, paper_id, title, abstract, authors, journal, year,
			citations, pdf_url, is_liked, list_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, paper_id) DO UPDATE SET
			title = EXCLUDED.title,
			abstract = EXCLUDED.abstract,
			authors = EXCLUDED.authors,
			journal = EXCLUDED.journal,
			year = EXCLUDED.year,
			citations = COALESCE(EXCLUDED.citations, saved_papers.citations),
			pdf_url = EXCLUDED.pdf_url,
			list_id = COALESCE(EXCLUDED.list_id, saved_papers.list_id)
		RETURNING ` + savedPaperColumns

	row := r.db.QueryRow(ctx, query,
		p.ID, p.UserID, p.PaperID, p.Title, p.Abstract, authors, p.Journal, p.Year,
		p.Citations, p.PDFURL, p.IsLiked, p.ListID, p.CreatedAt)
	saved, err := scanSavedPaper(row)
	if err != nil {
		listID := ""
		if p.ListID != nil {
			listID = p.ListID.String()
		}
		if mapped := mapConstraintError(err, "saved_paper", p.PaperID, "list", listID); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to save paper: %w", err)
	}
	return saved, nil
}

// Get retrieves a saved paper by ID.
func (r *PgSavedPaperRepository) Get(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error) {
	query := `SELECT ` + savedPaperColumns + ` FROM saved_papers WHERE id = $1 AND user_id = $2`

	saved, err := scanSavedPaper(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("saved_paper", id.String())
		}
		return nil, fmt.Errorf("failed to get saved paper: %w", err)
	}
	return saved, nil
}

// List retrieves saved papers matching the filter.
func (r *PgSavedPaperRepository) List(ctx context.Context, filter domain.SavedPaperFilter) ([]*domain.SavedPaper, int64, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	argIndex := 2

	if filter.LikedOnly {
		conditions = append(conditions, "is_liked")
	}
	switch {
	case filter.ListID != nil:
		conditions = append(conditions, fmt.Sprintf("list_id = $%d", argIndex))
		args = append(args, *filter.ListID)
		argIndex++
	case filter.Unassigned:
		conditions = append(conditions, "list_id IS NULL")
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM saved_papers WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count saved papers: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM saved_papers
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		savedPaperColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list saved papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.SavedPaper, 0, min(filter.Limit, int(total)))
	for rows.Next() {
		p, err := scanSavedPaper(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saved paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating saved papers: %w", err)
	}

	return papers, total, nil
}

// SetLiked sets the like flag.
func (r *PgSavedPaperRepository) SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error) {
	query := `
		UPDATE saved_papers SET is_liked = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + savedPaperColumns

	saved, err := scanSavedPaper(r.db.QueryRow(ctx, query, id, userID, liked))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("saved_paper", id.String())
		}
		return nil, fmt.Errorf("failed to update like flag: %w", err)
	}
	return saved, nil
}

// AssignList moves the paper into a list or clears its list.
func (r *PgSavedPaperRepository) AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error) {
	query := `
		UPDATE saved_papers SET list_id = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + savedPaperColumns

	saved, err := scanSavedPaper(r.db.QueryRow(ctx, query, id, userID, listID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("saved_paper", id.String())
		}
		if pgErrorCode(err) == pgForeignKeyViolation && listID != nil {
			return nil, domain.NewNotFoundError("list", listID.String())
		}
		return nil, fmt.Errorf("failed to assign list: %w", err)
	}
	return saved, nil
}

// Delete removes a saved paper.
func (r *PgSavedPaperRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saved_papers WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete saved paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("saved_paper", id.String())
	}
	return nil
}

func scanSavedPaper(row pgx.Row) (*domain.SavedPaper, error) {
	var p domain.SavedPaper
	err := row.Scan(
		&p.ID, &p.UserID, &p.PaperID, &p.Title, &p.Abstract, &p.Authors, &p.Journal, &p.Year,
		&p.Citations, &p.PDFURL, &p.IsLiked, &p.ListID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
