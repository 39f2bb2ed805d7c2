// Package observability provides logging, metrics, and request context
// support for the literature service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, cache tiers, citation sources and the library
//   - Context helpers for propagating request-scoped values
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("component", "search").Msg("search started")
//
// Attach request values carried in the context:
//
//	log := observability.LoggerFromContext(ctx, logger)
//
// # Metrics
//
//	metrics := observability.NewMetrics("medlit")
//	metrics.RecordSearchStarted("structured")
//	metrics.RecordSourceRequestFailed("crossref", "citations", err)
//
// # Standard Fields
//
//   - request_id: chi request identifier
//   - correlation_id: caller-supplied X-Correlation-ID
//   - user_id: authenticated user
//   - component: emitting package
//   - source: literature or citation source (pubmed, crossref, openalex, semanticscholar)
//   - cache_key: normalized search cache key
//   - paper_id: PubMed identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
