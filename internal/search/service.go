// Package search runs literature searches: it validates criteria, serves
// repeated searches from the result cache, queries PubMed, scores and sorts
// the results and records the search for signed-in users.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/auth"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/pubmed"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/repository"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/scoring"
)

// Search modes, used as metric and log labels.
const (
	ModeStructured = "structured"
	ModeFreeText   = "free_text"
)

// Fetcher retrieves one result window for a built query.
type Fetcher interface {
	Search(ctx context.Context, query string, page pubmed.Page) (*pubmed.SearchResult, error)
}

// Config holds the search defaults.
type Config struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultSort      string
	HistoryEnabled   bool
	JournalWeighting bool
}

// Service runs searches.
type Service struct {
	fetcher Fetcher
	cache   *TieredCache
	history repository.SearchHistoryRepository
	emitter *events.Emitter
	config  Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates the search service. cache, history, emitter and metrics
// are optional.
func NewService(
	fetcher Fetcher,
	cache *TieredCache,
	history repository.SearchHistoryRepository,
	emitter *events.Emitter,
	cfg Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = pubmed.DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.DefaultSort == "" {
		cfg.DefaultSort = domain.SortByRelevance
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		history: history,
		emitter: emitter,
		config:  cfg,
		logger:  logger.With().Str("component", "search").Logger(),
		metrics: metrics,
		now:     time.Now,
	}
}

// Search validates the request and returns the requested result window.
// Validation failures are returned as *domain.ValidationError. Upstream,
// protocol and timeout failures keep their domain types so the transport can
// map them to one generic message.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := s.now()
	mode := ModeStructured
	if strings.TrimSpace(req.Criteria.Query) != "" {
		mode = ModeFreeText
	}

	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}
	offset, limit := s.window(req.Offset, req.Limit)
	sortOpts, err := s.sortOptions(req.Sort)
	if err != nil {
		return nil, err
	}

	key := CacheKey(req.Criteria, offset, limit, s.config.JournalWeighting)
	logger := observability.WithSearchContext(observability.LoggerFromContext(ctx, s.logger), key, mode)
	s.metrics.RecordSearchStarted(mode)

	var (
		papers  []domain.Paper
		total   int
		skipped int
	)
	entry, tier, cached := s.cache.Get(ctx, key)
	if cached {
		s.metrics.RecordCacheHit(tier)
		papers, total = entry.Papers, entry.Total
		logger.Debug().Str("tier", tier).Msg("search served from cache")
	} else {
		s.metrics.RecordCacheMiss()
		result, err := s.fetch(ctx, req.Criteria, offset, limit)
		if err != nil {
			s.metrics.RecordSearchFailed(mode, err, s.since(start))
			logger.Error().Err(err).Str("error_type", observability.ErrorType(err)).Msg("search failed")
			return nil, err
		}
		for _, pe := range result.Skipped {
			logger.Warn().Int("record_index", pe.Index).Str("pmid", pe.PMID).Err(pe.Cause).Msg("skipped unparseable record")
		}
		skipped = len(result.Skipped)
		s.metrics.RecordRecordsSkipped(skipped)

		papers, total = s.score(result.Papers, req.Criteria), result.Total
		s.cache.Put(ctx, &domain.CachedSearch{
			CacheKey:  key,
			Papers:    papers,
			Total:     total,
			CreatedAt: s.now().UTC(),
		})
	}

	if papers == nil {
		papers = []domain.Paper{}
	}
	papers = Sort(papers, sortOpts)

	session, signedIn := auth.SessionFromContext(ctx)
	if signedIn {
		s.recordHistory(ctx, logger, session, req.Criteria, total)
	}

	s.emitter.Emit(ctx, events.TypeSearchCompleted, session.UserID, events.SearchCompleted{
		CacheKey: key,
		Total:    total,
		Returned: len(papers),
		Skipped:  skipped,
		Cached:   cached,
		Mode:     mode,
	})

	s.metrics.RecordSearchCompleted(mode, len(papers), s.since(start))
	logger.Info().
		Int("total", total).
		Int("returned", len(papers)).
		Int("skipped", skipped).
		Bool("cached", cached).
		Msg("search completed")

	return &domain.SearchResponse{
		Papers: papers,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}, nil
}

func (s *Service) fetch(ctx context.Context, c domain.SearchCriteria, offset, limit int) (*pubmed.SearchResult, error) {
	query, err := pubmed.BuildQuery(c, s.now())
	if err != nil {
		return nil, err
	}
	result, err := s.fetcher.Search(ctx, query, pubmed.Page{Offset: offset, Limit: limit, Sort: "relevance"})
	if err != nil {
		return nil, fmt.Errorf("search pubmed: %w", err)
	}
	return result, nil
}

func (s *Service) score(papers []domain.Paper, c domain.SearchCriteria) []domain.Paper {
	for i := range papers {
		papers[i].SetRelevanceScore(scoring.Relevance(papers[i], c, s.config.JournalWeighting))
	}
	return papers
}

func (s *Service) recordHistory(ctx context.Context, logger zerolog.Logger, session domain.Session, c domain.SearchCriteria, total int) {
	if !s.config.HistoryEnabled || s.history == nil {
		return
	}
	if err := s.history.Record(ctx, domain.NewSearchHistoryEntry(session.UserID, c, total)); err != nil {
		logger.Warn().Err(err).Msg("failed to record search history")
	}
}

// window clamps the requested offset and limit.
func (s *Service) window(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	return offset, limit
}

// sortOptions resolves the requested order. Without one, results are ordered
// by the configured key, descending.
func (s *Service) sortOptions(opts *domain.SortOptions) (domain.SortOptions, error) {
	if opts == nil {
		return NormalizeSort(domain.SortOptions{By: s.config.DefaultSort, Direction: domain.SortDesc})
	}
	return NormalizeSort(*opts)
}

func (s *Service) since(start time.Time) float64 {
	return s.now().Sub(start).Seconds()
}
