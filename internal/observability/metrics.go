package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Metrics contains all Prometheus metrics for the literature service.
// Metrics are organized by subsystem: searches, cache, parsing, citation sources,
// library and events. All counters and histograms are registered via promauto
// with the default Prometheus registry. The Record methods are no-ops on a
// nil *Metrics.
type Metrics struct {
	// SearchesStarted counts searches initiated, labeled by mode (structured, free_text).
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by mode.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by mode and error type.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes end-to-end search duration in seconds, labeled by mode.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes the number of papers returned per search.
	PapersPerSearch prometheus.Histogram

	// CacheHits counts search cache hits, labeled by tier (redis, postgres).
	CacheHits *prometheus.CounterVec

	// CacheMisses counts searches that missed every cache tier.
	CacheMisses prometheus.Counter

	// RecordsSkipped counts article records that failed to parse.
	RecordsSkipped prometheus.Counter

	// SourceRequestsTotal counts requests to literature and citation APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed requests, labeled by source, endpoint and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes request duration in seconds, labeled by source and endpoint.
	SourceRequestDuration *prometheus.HistogramVec

	// PapersEnriched counts papers that received a citation count.
	PapersEnriched prometheus.Counter

	// EnrichmentBatches counts citation batches processed.
	EnrichmentBatches prometheus.Counter

	// LibraryOperations counts saved-paper and list mutations, labeled by operation.
	LibraryOperations *prometheus.CounterVec

	// EventsPublished counts domain events published, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts events that could not be published, labeled by event type.
	EventsFailed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of literature searches started by mode",
		}, []string{"mode"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of literature searches completed by mode",
		}, []string{"mode"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of literature searches that failed by mode and error type",
		}, []string{"mode", "error_type"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of literature searches in seconds by mode",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"mode"}),
		PapersPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_hits_total",
			Help:      "Total number of search cache hits by tier",
		}, []string{"tier"}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_misses_total",
			Help:      "Total number of searches that missed every cache tier",
		}),

		// Parsing
		RecordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_records_skipped_total",
			Help:      "Total number of article records skipped because they failed to parse",
		}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to literature and citation sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to literature and citation sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to literature and citation sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),

		// Citations
		PapersEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_enriched_total",
			Help:      "Total number of papers that received a citation count",
		}),
		EnrichmentBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citation_batches_total",
			Help:      "Total number of citation enrichment batches processed",
		}),

		// Library
		LibraryOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "library_operations_total",
			Help:      "Total number of saved paper and list mutations by operation",
		}, []string{"operation"}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events published by type",
		}, []string{"type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of domain events that failed to publish by type",
		}, []string{"type"}),
	}
}

// ErrorType classifies err into a low-cardinality metric label.
func ErrorType(err error) string {
	var pe *domain.ProtocolError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.As(err, &pe):
		return "protocol"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	default:
		return "internal"
	}
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(mode string) {
	if m == nil {
		return
	}
	m.SearchesStarted.WithLabelValues(mode).Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(mode string, paperCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesCompleted.WithLabelValues(mode).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(durationSeconds)
	m.PapersPerSearch.Observe(float64(paperCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(mode string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesFailed.WithLabelValues(mode, ErrorType(err)).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordCacheHit records a hit in the given cache tier.
func (m *Metrics) RecordCacheHit(tier string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss records a search that no tier could answer.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// RecordRecordsSkipped records article records dropped by the parser.
func (m *Metrics) RecordRecordsSkipped(count int) {
	if m == nil {
		return
	}
	m.RecordsSkipped.Add(float64(count))
}

// RecordSourceRequest records a request to a source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint string, err error) {
	if m == nil {
		return
	}
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, ErrorType(err)).Inc()
}

// RecordEnrichmentBatch records a processed citation batch and how many of
// its papers received a count.
func (m *Metrics) RecordEnrichmentBatch(enriched int) {
	if m == nil {
		return
	}
	m.EnrichmentBatches.Inc()
	m.PapersEnriched.Add(float64(enriched))
}

// RecordLibraryOperation records a saved-paper or list mutation.
func (m *Metrics) RecordLibraryOperation(operation string) {
	if m == nil {
		return
	}
	m.LibraryOperations.WithLabelValues(operation).Inc()
}

// RecordEventPublished records a published event.
func (m *Metrics) RecordEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed records an event that could not be published.
func (m *Metrics) RecordEventFailed(eventType string) {
	if m == nil {
		return
	}
	m.EventsFailed.WithLabelValues(eventType).Inc()
}
