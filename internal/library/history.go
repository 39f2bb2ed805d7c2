package library

import (
	"context"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
)

// History returns the user's most recent searches.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error) {
	return s.history.ListRecent(ctx, userID, limit)
}

// DeleteHistory removes one search history entry.
func (s *Service) DeleteHistory(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.history.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.metrics.RecordLibraryOperation(OpDeleteHistory)
	s.emitter.Emit(ctx, events.TypeHistoryDeleted, userID, events.HistoryDeleted{EntryID: id})
	return nil
}
