package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// SavedPaperRepository persists papers saved by users. Every method is scoped
// to a user; rows owned by someone else behave as if they do not exist.
type SavedPaperRepository interface {
	// Upsert saves the paper, or refreshes the stored snapshot when the user
	// already saved the same paper id. The stored like flag is preserved and an
	// existing list assignment is only replaced by a non-nil ListID.
	// Returns domain.ErrNotFound if ListID references a missing list.
	Upsert(ctx context.Context, paper *domain.SavedPaper) (*domain.SavedPaper, error)

	// Get retrieves a saved paper by ID.
	// Returns domain.ErrNotFound if no matching paper exists.
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error)

	// List retrieves saved papers matching the filter, newest first, with the
	// total count before pagination.
	List(ctx context.Context, filter domain.SavedPaperFilter) ([]*domain.SavedPaper, int64, error)

	// SetLiked sets the like flag and returns the updated paper.
	SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error)

	// AssignList moves the paper into listID, or out of any list when listID is nil.
	AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error)

	// Delete removes a saved paper.
	// Returns domain.ErrNotFound if no matching paper exists.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
