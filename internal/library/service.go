// Package library manages what a signed-in user keeps: saved papers, the
// lists they are organised into and the user's search history.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/repository"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/search"
)

// Library operations, used as metric labels.
const (
	OpSavePaper     = "save_paper"
	OpLikePaper     = "like_paper"
	OpMovePaper     = "move_paper"
	OpDeletePaper   = "delete_paper"
	OpCreateList    = "create_list"
	OpRenameList    = "rename_list"
	OpDeleteList    = "delete_list"
	OpExportList    = "export_list"
	OpDeleteHistory = "delete_history"
)

// exportPageSize is the page size used to walk a list for export.
const exportPageSize = 500

// Repos are the repositories bound to one transaction.
type Repos struct {
	Lists  repository.ListRepository
	Papers repository.SavedPaperRepository
}

// TxRunner runs fn with repositories that share a transaction.
type TxRunner func(ctx context.Context, fn func(Repos) error) error

// PgTxRunner runs fn inside a database transaction.
func PgTxRunner(db *database.DB) TxRunner {
	return func(ctx context.Context, fn func(Repos) error) error {
		return db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return fn(Repos{
				Lists:  repository.NewPgListRepository(tx),
				Papers: repository.NewPgSavedPaperRepository(tx),
			})
		})
	}
}

// Service implements the library operations. Every method is scoped to the
// given user: rows of other users behave as if they did not exist.
type Service struct {
	lists   repository.ListRepository
	papers  repository.SavedPaperRepository
	history repository.SearchHistoryRepository
	inTx    TxRunner
	emitter *events.Emitter
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates the library service. A nil inTx runs multi-step
// operations on the plain repositories without a transaction.
func NewService(
	lists repository.ListRepository,
	papers repository.SavedPaperRepository,
	history repository.SearchHistoryRepository,
	inTx TxRunner,
	emitter *events.Emitter,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	s := &Service{
		lists:   lists,
		papers:  papers,
		history: history,
		inTx:    inTx,
		emitter: emitter,
		logger:  logger.With().Str("component", "library").Logger(),
		metrics: metrics,
	}
	if s.inTx == nil {
		s.inTx = func(ctx context.Context, fn func(Repos) error) error {
			return fn(Repos{Lists: s.lists, Papers: s.papers})
		}
	}
	return s
}

// SavePaper stores a snapshot of the paper for the user, optionally inside
// one of the user's lists. Saving the same paper again refreshes the snapshot
// and keeps the like flag.
func (s *Service) SavePaper(ctx context.Context, userID uuid.UUID, paper domain.Paper, listID *uuid.UUID) (*domain.SavedPaper, error) {
	if strings.TrimSpace(paper.ID) == "" {
		return nil, domain.NewValidationError("paper.id", "paper id is required")
	}
	if listID != nil {
		if _, err := s.lists.Get(ctx, userID, *listID); err != nil {
			return nil, err
		}
	}

	sp := domain.NewSavedPaper(userID, paper)
	sp.ListID = listID
	saved, err := s.papers.Upsert(ctx, sp)
	if err != nil {
		return nil, fmt.Errorf("save paper: %w", err)
	}

	s.metrics.RecordLibraryOperation(OpSavePaper)
	s.emitter.Emit(ctx, events.TypePaperSaved, userID, events.PaperChanged{
		SavedPaperID: saved.ID,
		PaperID:      saved.PaperID,
		ListID:       saved.ListID,
	})
	return saved, nil
}

// SetLiked sets the like flag of a saved paper.
func (s *Service) SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error) {
	saved, err := s.papers.SetLiked(ctx, userID, id, liked)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLibraryOperation(OpLikePaper)
	s.emitter.Emit(ctx, events.TypePaperLiked, userID, events.PaperChanged{
		SavedPaperID: saved.ID,
		PaperID:      saved.PaperID,
		Liked:        &saved.IsLiked,
	})
	return saved, nil
}

// ToggleLike flips the like flag of a saved paper.
func (s *Service) ToggleLike(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error) {
	current, err := s.papers.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.SetLiked(ctx, userID, id, !current.IsLiked)
}

// AssignList moves a saved paper into one of the user's lists, or out of any
// list when listID is nil.
func (s *Service) AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error) {
	if listID != nil {
		if _, err := s.lists.Get(ctx, userID, *listID); err != nil {
			return nil, err
		}
	}
	saved, err := s.papers.AssignList(ctx, userID, id, listID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLibraryOperation(OpMovePaper)
	s.emitter.Emit(ctx, events.TypePaperMoved, userID, events.PaperChanged{
		SavedPaperID: saved.ID,
		PaperID:      saved.PaperID,
		ListID:       saved.ListID,
	})
	return saved, nil
}

// DeletePaper removes a saved paper.
func (s *Service) DeletePaper(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.papers.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.metrics.RecordLibraryOperation(OpDeletePaper)
	s.emitter.Emit(ctx, events.TypePaperDeleted, userID, events.PaperChanged{SavedPaperID: id})
	return nil
}

// ListPapers returns one page of the user's saved papers and the total
// matching the filter. The page is ordered by sortOpts when given, otherwise
// newest first.
func (s *Service) ListPapers(ctx context.Context, filter domain.SavedPaperFilter, sortOpts *domain.SortOptions) ([]*domain.SavedPaper, int64, error) {
	if filter.ListID != nil && filter.Unassigned {
		return nil, 0, domain.NewValidationError("list_id", "list and unassigned filters are exclusive")
	}
	var opts domain.SortOptions
	if sortOpts != nil {
		var err error
		if opts, err = search.NormalizeSort(*sortOpts); err != nil {
			return nil, 0, err
		}
	}
	if filter.ListID != nil {
		if _, err := s.lists.Get(ctx, filter.UserID, *filter.ListID); err != nil {
			return nil, 0, err
		}
	}

	papers, total, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if sortOpts != nil {
		papers = sortSaved(papers, opts)
	}
	return papers, total, nil
}

// sortSaved orders saved papers with the search result ordering.
func sortSaved(saved []*domain.SavedPaper, opts domain.SortOptions) []*domain.SavedPaper {
	byPaperID := make(map[string]*domain.SavedPaper, len(saved))
	papers := make([]domain.Paper, 0, len(saved))
	for _, sp := range saved {
		byPaperID[sp.PaperID] = sp
		papers = append(papers, sp.Paper())
	}
	out := make([]*domain.SavedPaper, 0, len(saved))
	for _, p := range search.Sort(papers, opts) {
		out = append(out, byPaperID[p.ID])
	}
	return out
}
