// Package config provides configuration management for the OLASIS service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

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

// Session backend names.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Environment variables read outside the OLASIS_ prefix.
const (
	EnvSecretKey      = "SECRET_KEY"
	EnvGoogleAPIKey   = "GOOGLE_API_KEY"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvOpenAlexMailto = "OPENALEX_MAILTO"
)

// Config holds all configuration for the OLASIS service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Sources contains upstream API settings.
	Sources SourcesConfig `mapstructure:"sources"`
	// Search contains pagination aggregator settings.
	Search SearchConfig `mapstructure:"search"`
	// Assistant contains conversational assistant settings.
	Assistant AssistantConfig `mapstructure:"assistant"`
	// Suggestions contains suggestion generator settings.
	Suggestions SuggestionsConfig `mapstructure:"suggestions"`
	// Stats contains live statistics settings.
	Stats StatsConfig `mapstructure:"stats"`
	// Session contains chat session storage settings.
	Session SessionConfig `mapstructure:"session"`
	// Database contains PostgreSQL connection settings for the postgres session backend.
	Database DatabaseConfig `mapstructure:"database"`
	// Events contains activity event publishing settings.
	Events EventsConfig `mapstructure:"events"`

	// DotenvLoaded reports whether a .env file was found and loaded.
	DotenvLoaded bool `mapstructure:"-"`
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
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Environment is the deployment environment (development, staging, production).
	// OLASIS_ENV and ENVIRONMENT override it.
	Environment string `mapstructure:"environment"`
	// SecretKey signs session cookies. Loaded from SECRET_KEY only.
	SecretKey string `mapstructure:"-"`
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
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

// SourcesConfig holds settings shared by the upstream adapters.
type SourcesConfig struct {
	// Timeout bounds every upstream call (default: 10s).
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the per-source request rate in requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the number of retries on 429/5xx (default: 0, no retries).
	MaxRetries int `mapstructure:"max_retries"`
	// UserAgent is sent with every upstream request.
	UserAgent string `mapstructure:"user_agent"`
	// OpenAlex contains article index settings.
	OpenAlex OpenAlexConfig `mapstructure:"openalex"`
	// ORCID contains researcher registry settings.
	ORCID ORCIDConfig `mapstructure:"orcid"`
}

// OpenAlexConfig holds OpenAlex settings.
type OpenAlexConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Mailto is the contact email for the polite pool. OPENALEX_MAILTO is honored.
	Mailto string `mapstructure:"mailto"`
}

// ORCIDConfig holds ORCID settings.
type ORCIDConfig struct {
	// BaseURL is the public API base URL.
	BaseURL string `mapstructure:"base_url"`
	// DetailLimit caps per-record detail fetches per search.
	DetailLimit int `mapstructure:"detail_limit"`
	// FallbackLabel prefixes the identifier when a record has no name.
	FallbackLabel string `mapstructure:"fallback_label"`
}

// SearchConfig holds pagination aggregator settings.
type SearchConfig struct {
	// PerPage is the page size (default: 6).
	PerPage int `mapstructure:"per_page"`
	// BatchSize is the number of records fetched from each source (default: 50).
	BatchSize int `mapstructure:"batch_size"`
}

// AssistantConfig holds conversational assistant settings.
type AssistantConfig struct {
	// Provider is the generative backend (gemini, openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// TopP is the nucleus sampling parameter.
	TopP float64 `mapstructure:"top_p"`
	// MaxOutputTokens caps the generated response length.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
	// HistoryCap is the number of conversation log entries kept per session.
	HistoryCap int `mapstructure:"history_cap"`
	// DefaultLanguage is used when no hint is given and detection fails.
	DefaultLanguage string `mapstructure:"default_language"`
	// Timeout bounds a single generation call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Gemini contains Google Gemini settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
	// OpenAI contains OpenAI settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic settings.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	// Model is the Gemini model name.
	Model string `mapstructure:"model"`
	// APIKey is loaded from GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
	APIKey string `mapstructure:"-"`
	// APIKeySource names the environment variable the key came from.
	APIKeySource string `mapstructure:"-"`
}

// OpenAIConfig holds OpenAI settings.
type OpenAIConfig struct {
	// Model is the chat completion model name.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is loaded from OLASIS_ASSISTANT_OPENAI_API_KEY only.
	APIKey string `mapstructure:"-"`
}

// AnthropicConfig holds Anthropic settings.
type AnthropicConfig struct {
	// Model is the messages API model name.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is loaded from OLASIS_ASSISTANT_ANTHROPIC_API_KEY only.
	APIKey string `mapstructure:"-"`
}

// SuggestionsConfig holds suggestion generator settings.
type SuggestionsConfig struct {
	// CatalogPath overrides the embedded catalog with a YAML file.
	CatalogPath string `mapstructure:"catalog_path"`
	// Seed seeds the shuffle source; 0 seeds from the clock.
	Seed int64 `mapstructure:"seed"`
	// MaxCount is the largest accepted count parameter (default: 10).
	MaxCount int `mapstructure:"max_count"`
	// DefaultCount is used when no count is given (default: 4).
	DefaultCount int `mapstructure:"default_count"`
}

// StatsConfig holds live statistics settings.
type StatsConfig struct {
	// CacheTTL is how long a snapshot is reused; 0 disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// ArticlesFallback is reported when the article count cannot be fetched.
	ArticlesFallback int64 `mapstructure:"articles_fallback"`
	// SpecialistsFallback is reported when the researcher count cannot be fetched.
	SpecialistsFallback int64 `mapstructure:"specialists_fallback"`
}

// SessionConfig holds chat session storage settings.
type SessionConfig struct {
	// Backend selects the store (memory, redis, postgres).
	Backend string `mapstructure:"backend"`
	// TTL is the idle lifetime of a session.
	TTL time.Duration `mapstructure:"ttl"`
	// CleanupInterval is how often expired in-memory or postgres sessions are purged.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// CookieName is the name of the signed session cookie.
	CookieName string `mapstructure:"cookie_name"`
	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool `mapstructure:"cookie_secure"`
	// Redis contains Redis settings for the redis backend.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `mapstructure:"addr"`
	// DB is the Redis database index.
	DB int `mapstructure:"db"`
	// KeyPrefix namespaces session keys.
	KeyPrefix string `mapstructure:"key_prefix"`
	// Password is loaded from OLASIS_SESSION_REDIS_PASSWORD only.
	Password string `mapstructure:"-"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is loaded from OLASIS_DATABASE_PASSWORD only.
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
	// MigrationAutoRun applies embedded migrations on startup.
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// EventsConfig holds activity event publishing settings.
type EventsConfig struct {
	// Enabled turns on the Kafka publisher.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic receives activity events.
	Topic string `mapstructure:"topic"`
	// BatchTimeout is the writer flush interval.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
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

// IsProduction reports whether the environment is production or staging.
func (c *ServerConfig) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "production", "prod", "staging":
		return true
	default:
		return false
	}
}

// Load loads configuration from .env, environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading the given config file instead
// of searching the default locations when path is non-empty.
func LoadFile(path string) (*Config, error) {
	dotenvLoaded, err := loadDotenv()
	if err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("OLASIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/olasis")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found is OK, we'll use env vars and defaults
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DotenvLoaded = dotenvLoaded

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)
	applyLegacyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotenv loads .env from the working directory without overriding
// variables already set. A missing file is not an error.
func loadDotenv() (bool, error) {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load .env: %w", err)
	}
	return true, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Server.SecretKey = os.Getenv(EnvSecretKey)

	cfg.Assistant.Gemini.APIKey, cfg.Assistant.Gemini.APIKeySource = firstEnv(
		"OLASIS_ASSISTANT_GEMINI_API_KEY", EnvGoogleAPIKey, EnvGeminiAPIKey,
	)
	cfg.Assistant.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OLASIS_ASSISTANT_OPENAI_API_KEY"))
	cfg.Assistant.Anthropic.APIKey = strings.TrimSpace(os.Getenv("OLASIS_ASSISTANT_ANTHROPIC_API_KEY"))

	cfg.Session.Redis.Password = os.Getenv("OLASIS_SESSION_REDIS_PASSWORD")
	cfg.Database.Password = os.Getenv("OLASIS_DATABASE_PASSWORD")
}

// applyLegacyEnv honors the unprefixed variables earlier deployments used.
func applyLegacyEnv(cfg *Config) {
	if cfg.Sources.OpenAlex.Mailto == "" {
		cfg.Sources.OpenAlex.Mailto = strings.TrimSpace(os.Getenv(EnvOpenAlexMailto))
	}
	if env, _ := firstEnv("OLASIS_ENV", "ENVIRONMENT"); env != "" {
		cfg.Server.Environment = env
	}
}

// firstEnv returns the first non-blank value among the named variables and
// the name it came from.
func firstEnv(names ...string) (value, name string) {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v, n
		}
	}
	return "", ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "olasis")

	// Upstream source defaults
	v.SetDefault("sources.timeout", "10s")
	v.SetDefault("sources.rate_limit", 10.0)
	v.SetDefault("sources.max_retries", 0)
	v.SetDefault("sources.user_agent", "OLASIS/4.0 (+https://olasis.app)")
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.mailto", "")
	v.SetDefault("sources.orcid.base_url", "https://pub.orcid.org/v3.0")
	v.SetDefault("sources.orcid.detail_limit", 5)
	v.SetDefault("sources.orcid.fallback_label", "Especialista ORCID")

	// Search defaults
	v.SetDefault("search.per_page", 6)
	v.SetDefault("search.batch_size", 50)

	// Assistant defaults
	v.SetDefault("assistant.provider", "gemini")
	v.SetDefault("assistant.temperature", 0.6)
	v.SetDefault("assistant.top_p", 0.9)
	v.SetDefault("assistant.max_output_tokens", 2000)
	v.SetDefault("assistant.history_cap", 10)
	v.SetDefault("assistant.default_language", "es")
	v.SetDefault("assistant.timeout", "30s")
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("assistant.gemini.model", "gemini-2.5-flash")
	v.SetDefault("assistant.openai.model", "gpt-4o-mini")
	v.SetDefault("assistant.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("assistant.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("assistant.anthropic.base_url", "https://api.anthropic.com")

	// Suggestions defaults
	v.SetDefault("suggestions.catalog_path", "")
	v.SetDefault("suggestions.seed", 0)
	v.SetDefault("suggestions.max_count", 10)
	v.SetDefault("suggestions.default_count", 4)

	// Stats defaults
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("stats.articles_fallback", 200000000)
	v.SetDefault("stats.specialists_fallback", 20005117)

	// Session defaults
	v.SetDefault("session.backend", SessionBackendMemory)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cleanup_interval", "10m")
	v.SetDefault("session.cookie_name", "olasis_session")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key_prefix", "olasis:session:")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "olasis")
	v.SetDefault("database.name", "olasis")
	// Default to "require" for production security. Use OLASIS_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_auto_run", false)

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "olasis.activity")
	v.SetDefault("events.batch_timeout", "50ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Server.IsProduction() && c.Server.SecretKey == "" {
		return fmt.Errorf("%s environment variable must be configured in production", EnvSecretKey)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate upstream sources
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources timeout must be positive")
	}
	if c.Sources.MaxRetries < 0 {
		return fmt.Errorf("sources max_retries must not be negative")
	}
	if c.Sources.ORCID.DetailLimit < 0 {
		return fmt.Errorf("orcid detail_limit must not be negative")
	}

	// Validate search pagination
	if c.Search.PerPage <= 0 {
		return fmt.Errorf("search per_page must be positive")
	}
	if c.Search.BatchSize < c.Search.PerPage || c.Search.BatchSize > 200 {
		return fmt.Errorf("search batch_size (%d) must be between per_page (%d) and 200", c.Search.BatchSize, c.Search.PerPage)
	}

	// Validate assistant config
	switch strings.ToLower(c.Assistant.Provider) {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown assistant provider: %s", c.Assistant.Provider)
	}
	if c.Assistant.HistoryCap <= 0 {
		return fmt.Errorf("assistant history_cap must be positive")
	}
	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		return fmt.Errorf("assistant temperature must be between 0 and 2")
	}
	if c.Assistant.TopP <= 0 || c.Assistant.TopP > 1 {
		return fmt.Errorf("assistant top_p must be in (0, 1]")
	}
	if c.Assistant.MaxOutputTokens <= 0 {
		return fmt.Errorf("assistant max_output_tokens must be positive")
	}
	switch strings.ToLower(c.Assistant.DefaultLanguage) {
	case "en", "es", "pt":
	default:
		return fmt.Errorf("unsupported assistant default_language: %s", c.Assistant.DefaultLanguage)
	}

	// Validate suggestions config
	if c.Suggestions.MaxCount <= 0 {
		return fmt.Errorf("suggestions max_count must be positive")
	}
	if c.Suggestions.DefaultCount <= 0 || c.Suggestions.DefaultCount > c.Suggestions.MaxCount {
		return fmt.Errorf("suggestions default_count must be between 1 and max_count")
	}

	// Validate session config
	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("session redis addr is required for the redis backend")
		}
	case SessionBackendPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database host and name are required for the postgres backend")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("unknown session backend: %s", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	// Validate events config
	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("events brokers are required when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events topic is required when events are enabled")
		}
	}

	return nil
}
