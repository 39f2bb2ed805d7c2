// Package main provides the entry point for the medical literature search API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/auth"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/cache"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/citations"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/events"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/library"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/crossref"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/openalex"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/pubmed"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/papersources/semanticscholar"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/repository"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/search"
	httpserver "github.com/Tjibson/medicluster-summaries-sub000/internal/server/http"
)

// cachePurgeInterval is how often expired search cache rows are deleted.
const cachePurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("medlit server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		if err := database.MigrateUp(db, cfg.Database.MigrationPath, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	listRepo := repository.NewPgListRepository(db)
	paperRepo := repository.NewPgSavedPaperRepository(db)
	cacheRepo := repository.NewPgSearchCacheRepository(db)
	historyRepo := repository.NewPgSearchHistoryRepository(db)

	// Redis hot tier, optional.
	var hot search.HotCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer closeRedis(rdb, logger)
		hot = cache.NewSearchCache(rdb, cfg.Redis.KeyPrefix, cfg.Redis.TTL, logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache enabled")
	}
	searchCache := search.NewTieredCache(hot, cacheRepo, cfg.Search.CacheMaxAge, logger)

	// Event publisher, optional.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka publisher: %w", err)
		}
		publisher = kp
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka events enabled")
	}
	emitter := events.NewEmitter(publisher, logger, metrics)
	defer func() {
		if err := emitter.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Literature and citation sources.
	pubmedClient := pubmed.New(pubmed.Config{
		BaseURL:          cfg.PaperSources.PubMed.BaseURL,
		APIKey:           cfg.PaperSources.PubMed.APIKey,
		Tool:             cfg.PaperSources.PubMed.Tool,
		Email:            cfg.PaperSources.PubMed.Email,
		Timeout:          cfg.PaperSources.PubMed.Timeout,
		RateLimit:        cfg.PaperSources.PubMed.RateLimit,
		CitationsEnabled: cfg.PaperSources.PubMed.CitationsEnabled,
	})
	registry := newRegistry(cfg.PaperSources, pubmedClient)
	enricher := citations.New(registry, citations.Config{
		BatchSize:     cfg.Citations.BatchSize,
		LookupTimeout: cfg.Citations.LookupTimeout,
	}, logger, metrics)

	// Services.
	searchSvc := search.NewService(pubmedClient, searchCache, historyRepo, emitter, search.Config{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		DefaultSort:      cfg.Search.DefaultSort,
		HistoryEnabled:   cfg.Search.HistoryEnabled,
		JournalWeighting: cfg.Search.JournalWeighting,
	}, logger, metrics)
	librarySvc := library.NewService(listRepo, paperRepo, historyRepo, library.PgTxRunner(db), emitter, logger, metrics)

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxEnrichPapers: cfg.Citations.MaxPapers,
	}
	httpSrv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Search:    searchSvc,
		Citations: enricher,
		Library:   librarySvc,
		Verifier:  verifier,
		Health:    db,
		Emitter:   emitter,
	}, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	go purgeSearchCache(ctx, searchCache, logger)

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Strs("citation_sources", sourceNames(registry))
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("medlit server is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down medlit server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("medlit server shutdown complete")
	return nil
}

// newRegistry registers every citation source. Disabled sources stay
// registered and are skipped by the registry.
func newRegistry(cfg config.PaperSourcesConfig, pubmedClient *pubmed.Client) *papersources.Registry {
	registry := papersources.NewRegistry()
	registry.Register(pubmedClient)
	registry.Register(crossref.New(crossref.Config{
		BaseURL:   cfg.Crossref.BaseURL,
		Mailto:    cfg.Crossref.Mailto,
		Timeout:   cfg.Crossref.Timeout,
		RateLimit: cfg.Crossref.RateLimit,
		Enabled:   cfg.Crossref.Enabled,
	}))
	registry.Register(openalex.New(openalex.Config{
		BaseURL:   cfg.OpenAlex.BaseURL,
		Email:     cfg.OpenAlex.Mailto,
		Timeout:   cfg.OpenAlex.Timeout,
		RateLimit: cfg.OpenAlex.RateLimit,
		Enabled:   cfg.OpenAlex.Enabled,
	}))
	registry.Register(semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:   cfg.SemanticScholar.BaseURL,
		APIKey:    cfg.SemanticScholar.APIKey,
		Timeout:   cfg.SemanticScholar.Timeout,
		RateLimit: cfg.SemanticScholar.RateLimit,
		Enabled:   cfg.SemanticScholar.Enabled,
	}, nil))
	return registry
}

func sourceNames(registry *papersources.Registry) []string {
	sources := registry.EnabledSources()
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	return names
}

// purgeSearchCache deletes expired search cache rows until ctx is done.
func purgeSearchCache(ctx context.Context, c *search.TieredCache, logger zerolog.Logger) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("search cache purge failed")
				continue
			}
			if n > 0 {
				logger.Info().Int64("deleted", n).Msg("expired search cache entries purged")
			}
		}
	}
}

func closeRedis(rdb *redis.Client, logger zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close redis client")
	}
}
