package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// ListRepository persists user-owned lists of saved papers.
type ListRepository interface {
	// Create inserts a new list.
	// Returns domain.ErrAlreadyExists if the user already has a list with that name.
	Create(ctx context.Context, list *domain.List) error

	// Get retrieves a list with its paper count.
	// Returns domain.ErrNotFound if the list does not exist or belongs to another user.
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.List, error)

	// ListByUser returns all lists of a user, newest first, with paper counts.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.List, error)

	// Rename changes a list's name.
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error)

	// Delete removes a list after unlinking its papers. Papers are never deleted.
	// Returns the number of papers that were unlinked.
	Delete(ctx context.Context, userID, id uuid.UUID) (int64, error)
}
