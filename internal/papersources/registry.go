package papersources

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// SourceCount holds one source's answer for a citation lookup.
type SourceCount struct {
	// Source is the Name of the source that answered.
	Source string

	// Count is the citation count, 0 when Error is set.
	Count int

	// Error is the lookup failure, if any.
	Error error

	// Duration is how long the source took to answer.
	Duration time.Duration
}

// Registry manages citation sources and coordinates concurrent lookups.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]CitationSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]CitationSource),
	}
}

// Register adds a source, replacing any source with the same name.
func (r *Registry) Register(source CitationSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.Name()] = source
}

// Get returns a source by name, or nil if not found.
func (r *Registry) Get(name string) CitationSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[name]
}

// EnabledSources returns a name-ordered snapshot of the enabled sources.
func (r *Registry) EnabledSources() []CitationSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]CitationSource, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name() < sources[j].Name() })
	return sources
}

// LookupAll queries every enabled source concurrently. Failed sources are
// reported with Count 0 and their error. Results are ordered by source name.
func (r *Registry) LookupAll(ctx context.Context, q domain.CitationQuery) []SourceCount {
	sources := r.EnabledSources()
	if len(sources) == 0 {
		return nil
	}

	resultChan := make(chan SourceCount, len(sources))
	var wg sync.WaitGroup

	for _, source := range sources {
		wg.Add(1)
		go func(s CitationSource) {
			defer wg.Done()

			start := time.Now()
			count, err := s.CitationCount(ctx, q)
			if err != nil || count < 0 {
				count = 0
			}
			resultChan <- SourceCount{Source: s.Name(), Count: count, Error: err, Duration: time.Since(start)}
		}(source)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]SourceCount, 0, len(sources))
	for result := range resultChan {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	return results
}

// MaxCitations returns the highest count reported by any enabled source,
// along with every individual answer. Counts are never summed.
func (r *Registry) MaxCitations(ctx context.Context, q domain.CitationQuery) (int, []SourceCount) {
	results := r.LookupAll(ctx, q)
	best := 0
	for _, res := range results {
		best = max(best, res.Count)
	}
	return best, results
}
