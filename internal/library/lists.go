package library

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
)

// CreateList creates a list. When first is given, the paper is saved into
// the new list in the same transaction.
func (s *Service) CreateList(ctx context.Context, userID uuid.UUID, name string, first *domain.Paper) (*domain.List, *domain.SavedPaper, error) {
	name, err := domain.ValidateListName(name)
	if err != nil {
		return nil, nil, err
	}
	if first != nil && first.ID == "" {
		return nil, nil, domain.NewValidationError("paper.id", "paper id is required")
	}

	list := &domain.List{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	var saved *domain.SavedPaper

	err = s.inTx(ctx, func(r Repos) error {
		if err := r.Lists.Create(ctx, list); err != nil {
			return err
		}
		if first == nil {
			return nil
		}
		sp := domain.NewSavedPaper(userID, *first)
		sp.ListID = &list.ID
		// Upsert moves an already saved paper into the new list.
		var err error
		if saved, err = r.Papers.Upsert(ctx, sp); err != nil {
			return fmt.Errorf("save first paper: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if saved != nil {
		list.PaperCount = 1
	}

	s.metrics.RecordLibraryOperation(OpCreateList)
	s.emitter.Emit(ctx, events.TypeListCreated, userID, events.ListChanged{ListID: list.ID, Name: list.Name})
	return list, saved, nil
}

// RenameList changes a list's name.
func (s *Service) RenameList(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error) {
	name, err := domain.ValidateListName(name)
	if err != nil {
		return nil, err
	}
	list, err := s.lists.Rename(ctx, userID, id, name)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLibraryOperation(OpRenameList)
	s.emitter.Emit(ctx, events.TypeListRenamed, userID, events.ListChanged{ListID: list.ID, Name: list.Name})
	return list, nil
}

// DeleteList deletes a list. Its papers stay saved and become unassigned;
// the number of unlinked papers is returned.
func (s *Service) DeleteList(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	unlinked, err := s.lists.Delete(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordLibraryOperation(OpDeleteList)
	s.emitter.Emit(ctx, events.TypeListDeleted, userID, events.ListChanged{ListID: id, Unlinked: unlinked})
	return unlinked, nil
}

// GetList returns one of the user's lists.
func (s *Service) GetList(ctx context.Context, userID, id uuid.UUID) (*domain.List, error) {
	return s.lists.Get(ctx, userID, id)
}

// Lists returns all of the user's lists, newest first.
func (s *Service) Lists(ctx context.Context, userID uuid.UUID) ([]*domain.List, error) {
	return s.lists.ListByUser(ctx, userID)
}

// ExportList returns the list and its summary rows in saved order.
func (s *Service) ExportList(ctx context.Context, userID, id uuid.UUID) (*domain.List, []domain.ListSummaryItem, error) {
	list, err := s.lists.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	var all []*domain.SavedPaper
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.papers.List(ctx, domain.SavedPaperFilter{
			UserID: userID,
			ListID: &id,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("export list: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize || int64(len(all)) >= total {
			break
		}
	}

	s.metrics.RecordLibraryOperation(OpExportList)
	return list, domain.BuildListSummary(all), nil
}
