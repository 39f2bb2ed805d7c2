// Package citations enriches papers with citation counts gathered from every
// enabled citation source.
package citations

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources"
)

const (
	// DefaultBatchSize bounds how many papers are looked up concurrently.
	DefaultBatchSize = 5

	// DefaultLookupTimeout bounds one paper's fan-out across all sources.
	DefaultLookupTimeout = 10 * time.Second

	metricsEndpoint = "citations"
)

// Config configures the Enricher.
type Config struct {
	BatchSize     int
	LookupTimeout time.Duration
}

// Enricher looks up citation counts for papers in sequential fixed-size
// batches. Papers inside a batch are looked up concurrently.
type Enricher struct {
	registry *papersources.Registry
	config   Config
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// New creates an Enricher. metrics may be nil.
func New(registry *papersources.Registry, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	return &Enricher{
		registry: registry,
		config:   cfg,
		logger:   logger.With().Str("component", "citations").Logger(),
		metrics:  metrics,
	}
}

// Lookup returns the highest citation count any source reports for q.
// Source failures count as zero and are logged, never returned.
func (e *Enricher) Lookup(ctx context.Context, q domain.CitationQuery) (int, error) {
	if q.IsEmpty() {
		return 0, domain.NewValidationError("paper", "title or identifier is required")
	}
	return e.lookup(ctx, q), nil
}

func (e *Enricher) lookup(ctx context.Context, q domain.CitationQuery) int {
	ctx, cancel := context.WithTimeout(ctx, e.config.LookupTimeout)
	defer cancel()

	best, results := e.registry.MaxCitations(ctx, q)
	log := observability.WithPaperContext(observability.LoggerFromContext(ctx, e.logger), q.PMID, q.Title)
	for _, r := range results {
		if e.metrics != nil {
			e.metrics.RecordSourceRequest(r.Source, metricsEndpoint, r.Duration.Seconds())
		}
		if r.Error == nil {
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordSourceRequestFailed(r.Source, metricsEndpoint, r.Error)
		}
		srcLog := observability.WithSourceContext(log, r.Source)
		srcLog.Warn().Err(r.Error).Msg("citation lookup failed")
	}
	return best
}

// Enrich returns a copy of papers with citation counts filled in. Batches run
// in input order and results are written back by index, so the output order
// always equals the input order. Papers that already carry a count are left
// untouched. The only error returned is ctx's, in which case the papers
// enriched so far are returned with it.
func (e *Enricher) Enrich(ctx context.Context, papers []domain.Paper) ([]domain.Paper, error) {
	out := make([]domain.Paper, len(papers))
	copy(out, papers)

	for start := 0; start < len(out); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := min(start+e.config.BatchSize, len(out))
		e.enrichBatch(ctx, out[start:end])
	}
	return out, nil
}

func (e *Enricher) enrichBatch(ctx context.Context, batch []domain.Paper) {
	counts := make([]int, len(batch))
	pending := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i := range batch {
		if batch[i].HasCitations() {
			continue
		}
		pending[i] = true
		q := batch[i].CitationQuery()
		g.Go(func() error {
			counts[i] = e.lookup(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	enriched := 0
	for i := range batch {
		if !pending[i] {
			continue
		}
		batch[i].SetCitations(counts[i])
		if counts[i] > 0 {
			enriched++
		}
	}
	if e.metrics != nil {
		e.metrics.RecordEnrichmentBatch(enriched)
	}
}
