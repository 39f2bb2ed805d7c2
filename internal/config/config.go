// Package config provides configuration management for the medical literature search service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "MEDLIT"

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Redis contains the hot search cache settings.
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka contains domain event publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Auth contains bearer token verification settings.
	Auth AuthConfig `mapstructure:"auth"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// PaperSources contains literature and citation API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Search contains search pipeline settings.
	Search SearchConfig `mapstructure:"search"`
	// Citations contains citation enrichment settings.
	Citations CitationsConfig `mapstructure:"citations"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (loaded from MEDLIT_DATABASE_PASSWORD).
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
}

// RedisConfig holds the Redis cache tier configuration.
type RedisConfig struct {
	// Enabled puts Redis in front of the Postgres search cache.
	Enabled bool `mapstructure:"enabled"`
	// Addr is the host:port of the Redis server.
	Addr string `mapstructure:"addr"`
	// Password is loaded from MEDLIT_REDIS_PASSWORD.
	Password string `mapstructure:"-"`
	// DB is the Redis logical database.
	DB int `mapstructure:"db"`
	// KeyPrefix namespaces every cache key.
	KeyPrefix string `mapstructure:"key_prefix"`
	// TTL is how long a search window stays in Redis.
	TTL time.Duration `mapstructure:"ttl"`
	// DialTimeout bounds connection setup.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// KafkaConfig holds Kafka publisher settings for domain events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic events are published to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	// JWTSecret is the HS256 signing secret (loaded from MEDLIT_AUTH_JWT_SECRET).
	JWTSecret string `mapstructure:"-"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `mapstructure:"issuer"`
	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration `mapstructure:"leeway"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// PaperSourcesConfig holds configuration for the literature and citation APIs.
type PaperSourcesConfig struct {
	// PubMed contains E-utilities settings. It is both the search backend
	// and the cited-by citation source.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// Crossref contains Crossref citation index settings.
	Crossref PaperSourceConfig `mapstructure:"crossref"`
	// OpenAlex contains OpenAlex citation index settings.
	OpenAlex PaperSourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar citation index settings.
	SemanticScholar PaperSourceConfig `mapstructure:"semantic_scholar"`
}

// PaperSourceConfig holds configuration for a single citation source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable only).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Mailto is the contact address for polite API pools.
	Mailto string `mapstructure:"mailto"`
}

// PubMedConfig holds E-utilities configuration.
type PubMedConfig struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is loaded from MEDLIT_PUBMED_API_KEY.
	APIKey string `mapstructure:"-"`
	// Tool and Email identify the caller to NCBI.
	Tool  string `mapstructure:"tool"`
	Email string `mapstructure:"email"`
	// Timeout bounds each esearch/efetch/elink call.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// CitationsEnabled uses the elink cited-by index as a citation source.
	CitationsEnabled bool `mapstructure:"citations_enabled"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	// DefaultLimit is the page size used when a request gives none.
	DefaultLimit int `mapstructure:"default_limit"`
	// MaxLimit caps the requested page size.
	MaxLimit int `mapstructure:"max_limit"`
	// DefaultSort is the sort key applied when a request gives none.
	DefaultSort string `mapstructure:"default_sort"`
	// CacheMaxAge is the oldest Postgres cache entry a search will reuse.
	// Zero accepts entries of any age.
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`
	// HistoryEnabled records searches of authenticated users.
	HistoryEnabled bool `mapstructure:"history_enabled"`
	// JournalWeighting adds the journal tier bonus to structured relevance scores.
	JournalWeighting bool `mapstructure:"journal_weighting"`
}

// CitationsConfig holds citation enrichment settings.
type CitationsConfig struct {
	// BatchSize is how many papers are looked up concurrently.
	BatchSize int `mapstructure:"batch_size"`
	// LookupTimeout bounds one paper's lookup across all sources.
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	// MaxPapers caps the papers accepted by one enrichment request.
	MaxPapers int `mapstructure:"max_papers"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from defaults, an optional config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medlit")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" so they never come from a config file.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")
	cfg.Redis.Password = os.Getenv(EnvPrefix + "_REDIS_PASSWORD")
	cfg.Auth.JWTSecret = os.Getenv(EnvPrefix + "_AUTH_JWT_SECRET")
	cfg.PaperSources.PubMed.APIKey = os.Getenv(EnvPrefix + "_PUBMED_API_KEY")
	cfg.PaperSources.SemanticScholar.APIKey = os.Getenv(EnvPrefix + "_SEMANTIC_SCHOLAR_API_KEY")
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "medlit")
	v.SetDefault("database.name", "medlit")
	// Use MEDLIT_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)
	v.SetDefault("database.statement_cache_capacity", 512)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "medlit")
	v.SetDefault("redis.ttl", "1h")
	v.SetDefault("redis.dial_timeout", "5s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.medlit")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Auth defaults
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.leeway", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "medlit")

	// PubMed: NCBI allows 3 req/s without an API key.
	v.SetDefault("paper_sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("paper_sources.pubmed.tool", "medlit")
	v.SetDefault("paper_sources.pubmed.email", "")
	v.SetDefault("paper_sources.pubmed.timeout", "5s")
	v.SetDefault("paper_sources.pubmed.rate_limit", 3.0)
	v.SetDefault("paper_sources.pubmed.citations_enabled", true)

	v.SetDefault("paper_sources.crossref.enabled", true)
	v.SetDefault("paper_sources.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("paper_sources.crossref.timeout", "5s")
	v.SetDefault("paper_sources.crossref.rate_limit", 5.0)
	v.SetDefault("paper_sources.crossref.mailto", "")

	v.SetDefault("paper_sources.openalex.enabled", false)
	v.SetDefault("paper_sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("paper_sources.openalex.timeout", "5s")
	v.SetDefault("paper_sources.openalex.rate_limit", 10.0)
	v.SetDefault("paper_sources.openalex.mailto", "")

	v.SetDefault("paper_sources.semantic_scholar.enabled", false)
	v.SetDefault("paper_sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("paper_sources.semantic_scholar.timeout", "5s")
	v.SetDefault("paper_sources.semantic_scholar.rate_limit", 1.0)

	// Search defaults
	v.SetDefault("search.default_limit", 25)
	v.SetDefault("search.max_limit", 200)
	v.SetDefault("search.default_sort", "relevance")
	v.SetDefault("search.cache_max_age", "24h")
	v.SetDefault("search.history_enabled", true)
	v.SetDefault("search.journal_weighting", true)

	// Citation defaults
	v.SetDefault("citations.batch_size", 5)
	v.SetDefault("citations.lookup_timeout", "10s")
	v.SetDefault("citations.max_papers", 200)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka brokers and topic are required when kafka is enabled")
	}

	if c.PaperSources.PubMed.Timeout <= 0 {
		return fmt.Errorf("pubmed timeout must be positive")
	}

	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search default_limit must be positive")
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search max_limit (%d) must be >= default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	switch c.Search.DefaultSort {
	case "", "citations", "date", "relevance", "title":
	default:
		return fmt.Errorf("invalid search default_sort: %s", c.Search.DefaultSort)
	}

	if c.Citations.BatchSize <= 0 {
		return fmt.Errorf("citations batch_size must be positive")
	}

	return nil
}
