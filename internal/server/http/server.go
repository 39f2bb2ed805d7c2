// Package httpserver provides the JSON/HTTP API of the literature search service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
)

// Searcher runs literature searches.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// CitationEnricher looks up citation counts.
type CitationEnricher interface {
	Lookup(ctx context.Context, q domain.CitationQuery) (int, error)
	Enrich(ctx context.Context, papers []domain.Paper) ([]domain.Paper, error)
}

// Library manages a user's saved papers, lists and search history.
type Library interface {
	SavePaper(ctx context.Context, userID uuid.UUID, paper domain.Paper, listID *uuid.UUID) (*domain.SavedPaper, error)
	SetLiked(ctx context.Context, userID, id uuid.UUID, liked bool) (*domain.SavedPaper, error)
	ToggleLike(ctx context.Context, userID, id uuid.UUID) (*domain.SavedPaper, error)
	AssignList(ctx context.Context, userID, id uuid.UUID, listID *uuid.UUID) (*domain.SavedPaper, error)
	DeletePaper(ctx context.Context, userID, id uuid.UUID) error
	ListPapers(ctx context.Context, filter domain.SavedPaperFilter, sortOpts *domain.SortOptions) ([]*domain.SavedPaper, int64, error)

	CreateList(ctx context.Context, userID uuid.UUID, name string, first *domain.Paper) (*domain.List, *domain.SavedPaper, error)
	RenameList(ctx context.Context, userID, id uuid.UUID, name string) (*domain.List, error)
	DeleteList(ctx context.Context, userID, id uuid.UUID) (int64, error)
	GetList(ctx context.Context, userID, id uuid.UUID) (*domain.List, error)
	Lists(ctx context.Context, userID uuid.UUID) ([]*domain.List, error)
	ExportList(ctx context.Context, userID, id uuid.UUID) (*domain.List, []domain.ListSummaryItem, error)

	History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SearchHistoryEntry, error)
	DeleteHistory(ctx context.Context, userID, id uuid.UUID) error
}

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	Verify(token string) (domain.Session, error)
}

// HealthChecker reports database health.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Dependencies are the services the HTTP handlers call. Emitter may be nil.
type Dependencies struct {
	Search    Searcher
	Citations CitationEnricher
	Library   Library
	Verifier  TokenVerifier
	Health    HealthChecker
	Emitter   *events.Emitter
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxEnrichPapers caps the papers accepted by one enrichment request.
	MaxEnrichPapers int
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	deps       Dependencies
	config     Config
	logger     zerolog.Logger
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Dependencies, logger zerolog.Logger) *Server {
	if cfg.MaxEnrichPapers <= 0 {
		cfg.MaxEnrichPapers = defaultMaxEnrichPapers
	}
	s := &Server{
		deps:   deps,
		config: cfg,
		logger: logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/journals", s.listJournals)
		r.Get("/article-types", s.listArticleTypes)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware(false))
			r.Post("/search", s.search)
			r.Post("/citations", s.lookupCitations)
			r.Post("/citations/enrich", s.enrichCitations)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware(true))

			r.Get("/saved-papers", s.listSavedPapers)
			r.Post("/saved-papers", s.savePaper)
			r.Patch("/saved-papers/{paperID}/like", s.likePaper)
			r.Patch("/saved-papers/{paperID}/list", s.assignPaperList)
			r.Delete("/saved-papers/{paperID}", s.deleteSavedPaper)

			r.Get("/lists", s.listLists)
			r.Post("/lists", s.createList)
			r.Patch("/lists/{listID}", s.renameList)
			r.Delete("/lists/{listID}", s.deleteList)
			r.Get("/lists/{listID}/papers", s.listListPapers)
			r.Get("/lists/{listID}/export", s.exportList)

			r.Get("/search-history", s.listSearchHistory)
			r.Delete("/search-history/{entryID}", s.deleteSearchHistory)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports whether the database is reachable.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	health := s.deps.Health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
