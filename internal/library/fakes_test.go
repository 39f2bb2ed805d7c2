package library

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// memoryLibrary is an in-memory stand-in for the list, saved paper and
// history repositories.
type memoryLibrary struct {
	lists     map[uuid.UUID]*domain.List
	papers    map[uuid.UUID]*domain.SavedPaper
	history   map[uuid.UUID]*domain.SearchHistoryEntry
	upsertErr error
}

func newMemoryLibrary() *memoryLibrary {
	return &memoryLibrary{
		lists:   map[uuid.UUID]*domain.List{},
		papers:  map[uuid.UUID]*domain.SavedPaper{},
		history: map[uuid.UUID]*domain.SearchHistoryEntry{},
	}
}

type listRepo struct{ *memoryLibrary }
type paperRepo struct{ *memoryLibrary }
type historyRepo struct{ *memoryLibrary }

func (m listRepo) Create(_ context.Context, l *domain.List) error {
	for _, existing := range m.lists {
		if existing.UserID == l.UserID && existing.Name == l.Name {
			return domain.NewAlreadyExistsError("list", l.Name)
		}
	}
	c := *l
	m.lists[l.ID] = &c
	return nil
}

func (m listRepo) Get(_ context.Context, userID, id uuid.UUID) (*domain.List, error) {
	l, ok := m.lists[id]
	if !ok || l.UserID != userID {
		return nil, domain.NewNotFoundError("list", id.String())
	}
	c := *l
	for _, p := range m.papers {
		if p.ListID != nil && *p.ListID == id {
			c.PaperCount++
		}
	}
	return &c, nil
}

func (m listRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.List, error) {
	out := []*domain.List{}
	for id, l := range m.lists {
		if l.UserID == userID {
			c, _ := m.Get(ctx, userID, id)
			out = append(out, c)
		}
	}
	return out, nil
}

func (m listRepo) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error) {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	m.lists[id].Name = name
	return m.Get(ctx, userID, id)
}

func (m listRepo) Delete(_ context.Context, userID, id uuid.UUID) (int64, error) {
	l, ok := m.lists[id]
	if !ok || l.UserID != userID {
		return 0, domain.NewNotFoundError("list", id.String())
	}
	delete(m.lists, id)
	var unlinked int64
	for _, p := range m.papers {
		if p.ListID != nil && *p.ListID == id {
			p.ListID = nil
			unlinked++
		}
	}
	return unlinked, nil
}

func (m paperRepo) Upsert(_ context.Context, sp *domain.SavedPaper) (*domain.SavedPaper, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	for _, existing := range m.papers {
		if existing.UserID == sp.UserID && existing.PaperID == sp.PaperID {
			existing.Title = sp.Title
			if sp.ListID != nil {
				existing.ListID = sp.ListID
			}
			c := *existing
			return &c, nil
		}
	}
	c := *sp
	m.papers[sp.ID] = &c
	out := c
	return &out, nil
}

func (m paperRepo) Get(_ context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error) {
	p, ok := m.papers[id]
	if !ok || p.UserID != userID {
		return nil, domain.NewNotFoundError("saved_paper", id.String())
	}
	c := *p
	return &c, nil
}

func (m paperRepo) List(_ context.Context, f domain.SavedPaperFilter) ([]*domain.SavedPaper, int64, error) {
	var matched []*domain.SavedPaper
	for _, p := range m.papers {
		if p.UserID != f.UserID {
			continue
		}
		if f.LikedOnly && !p.IsLiked {
			continue
		}
		if f.ListID != nil && (p.ListID == nil || *p.ListID != *f.ListID) {
			continue
		}
		if f.Unassigned && p.ListID != nil {
			continue
		}
		c := *p
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PaperID < matched[j].PaperID })

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []*domain.SavedPaper{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (m paperRepo) SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error) {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	m.papers[id].IsLiked = liked
	return m.Get(ctx, userID, id)
}

func (m paperRepo) AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error) {
	if _, err := m.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	m.papers[id].ListID = listID
	return m.Get(ctx, userID, id)
}

func (m paperRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	p, ok := m.papers[id]
	if !ok || p.UserID != userID {
		return domain.NewNotFoundError("saved_paper", id.String())
	}
	delete(m.papers, id)
	return nil
}

func (m historyRepo) Record(_ context.Context, e *domain.SearchHistoryEntry) error {
	m.history[e.ID] = e
	return nil
}

func (m historyRepo) ListRecent(_ context.Context, userID uuid.UUID, _ int) ([]*domain.SearchHistoryEntry, error) {
	out := []*domain.SearchHistoryEntry{}
	for _, e := range m.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m historyRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	e, ok := m.history[id]
	if !ok || e.UserID != userID {
		return domain.NewNotFoundError("search_history", id.String())
	}
	delete(m.history, id)
	return nil
}
