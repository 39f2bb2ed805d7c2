package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/pubmed"
)

type fakeFetcher struct {
	mu      sync.Mutex
	result  *pubmed.SearchResult
	err     error
	queries []string
	pages   []pubmed.Page
}

func (f *fakeFetcher) Search(_ context.Context, query string, page pubmed.Page) (*pubmed.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.pages = append(f.pages, page)
	if f.err != nil {
		return nil, f.err
	}
	// Hand out a copy so scoring does not leak between calls.
	res := *f.result
	res.Papers = append([]domain.Paper(nil), f.result.Papers...)
	return &res, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type memoryHotCache struct {
	entries map[string]*domain.CachedSearch
	getErr  error
	setErr  error
	sets    int
}

func newMemoryHotCache() *memoryHotCache {
	return &memoryHotCache{entries: map[string]*domain.CachedSearch{}}
}

func (c *memoryHotCache) Get(_ context.Context, key string) (*domain.CachedSearch, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *memoryHotCache) Set(_ context.Context, entry *domain.CachedSearch) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[entry.CacheKey] = entry
	return nil
}

type memoryStore struct {
	entries map[string]*domain.CachedSearch
	putErr  error
	purged  time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*domain.CachedSearch{}}
}

func (s *memoryStore) Get(_ context.Context, key string, _ time.Duration) (*domain.CachedSearch, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, domain.NewNotFoundError("search_cache", key)
	}
	return e, nil
}

func (s *memoryStore) Put(_ context.Context, entry *domain.CachedSearch) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[entry.CacheKey] = entry
	return nil
}

func (s *memoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.purged = cutoff
	return int64(len(s.entries)), nil
}

type memoryHistory struct {
	entries []*domain.SearchHistoryEntry
	err     error
}

func (h *memoryHistory) Record(_ context.Context, e *domain.SearchHistoryEntry) error {
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, e)
	return nil
}

func (h *memoryHistory) ListRecent(context.Context, uuid.UUID, int) ([]*domain.SearchHistoryEntry, error) {
	return h.entries, nil
}

func (h *memoryHistory) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return errors.New("not implemented")
}
