// Package main provides the entry point for the OLASIS HTTP service.
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

	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/assistant"
	"github.com/olasis/olasis-service/internal/config"
	"github.com/olasis/olasis-service/internal/database"
	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
	"github.com/olasis/olasis-service/internal/llm"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/search"
	httpserver "github.com/olasis/olasis-service/internal/server/http"
	"github.com/olasis/olasis-service/internal/session"
	"github.com/olasis/olasis-service/internal/sources/openalex"
	"github.com/olasis/olasis-service/internal/sources/orcid"
	"github.com/olasis/olasis-service/internal/stats"
	"github.com/olasis/olasis-service/internal/suggestions"
)

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
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Bool("dotenv_loaded", cfg.DotenvLoaded).
		Msg("olasis-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	secretKey := []byte(cfg.Server.SecretKey)
	if len(secretKey) == 0 {
		secretKey = securecookie.GenerateRandomKey(32)
		logger.Warn().Msgf("%s not set; using an ephemeral key, sessions will not survive a restart", config.EnvSecretKey)
	}

	// Activity events.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			BatchTimeout: cfg.Events.BatchTimeout,
		}, logger, metrics)
		logger.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("activity events enabled")
	}
	emitter := events.NewEmitter(publisher, logger, metrics)
	defer func() {
		if err := emitter.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Upstream sources.
	articles := openalex.New(openalex.Config{
		BaseURL:    cfg.Sources.OpenAlex.BaseURL,
		Mailto:     cfg.Sources.OpenAlex.Mailto,
		Timeout:    cfg.Sources.Timeout,
		RateLimit:  cfg.Sources.RateLimit,
		MaxRetries: cfg.Sources.MaxRetries,
		UserAgent:  cfg.Sources.UserAgent,
	}, logger, metrics)
	researchers := orcid.New(orcid.Config{
		BaseURL:       cfg.Sources.ORCID.BaseURL,
		DetailLimit:   cfg.Sources.ORCID.DetailLimit,
		FallbackLabel: cfg.Sources.ORCID.FallbackLabel,
		Timeout:       cfg.Sources.Timeout,
		RateLimit:     cfg.Sources.RateLimit,
		MaxRetries:    cfg.Sources.MaxRetries,
		UserAgent:     cfg.Sources.UserAgent,
	}, logger, metrics)

	aggregator := search.NewAggregator(articles, researchers, search.Config{
		PerPage:   cfg.Search.PerPage,
		BatchSize: cfg.Search.BatchSize,
	}, emitter, metrics, logger)

	statsService := stats.NewService(articles, researchers, stats.Config{
		CacheTTL:            cfg.Stats.CacheTTL,
		ArticlesFallback:    cfg.Stats.ArticlesFallback,
		SpecialistsFallback: cfg.Stats.SpecialistsFallback,
	}, metrics, logger)

	// Suggestions.
	catalog, err := suggestions.LoadCatalog(cfg.Suggestions.CatalogPath)
	if err != nil {
		return fmt.Errorf("load suggestion catalog: %w", err)
	}
	suggester := suggestions.NewGenerator(catalog, cfg.Suggestions.Seed)

	// Session store.
	store, db, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if expirer, ok := store.(session.Expirer); ok {
		go session.RunJanitor(ctx, expirer, cfg.Session.CleanupInterval, logger, func(remaining int) {
			if remaining >= 0 {
				metrics.SetActiveSessions(remaining)
			}
		})
	}

	// Conversational assistant.
	backend := assistant.NewBackend(ctx, llm.FactoryConfig{
		Provider:   cfg.Assistant.Provider,
		Timeout:    cfg.Assistant.Timeout,
		MaxRetries: cfg.Sources.MaxRetries,
		Gemini: llm.GeminiConfig{
			APIKey: cfg.Assistant.Gemini.APIKey,
			Model:  cfg.Assistant.Gemini.Model,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.Assistant.OpenAI.APIKey,
			Model:   cfg.Assistant.OpenAI.Model,
			BaseURL: cfg.Assistant.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.Assistant.Anthropic.APIKey,
			Model:   cfg.Assistant.Anthropic.Model,
			BaseURL: cfg.Assistant.Anthropic.BaseURL,
		},
	}, logger)
	if cfg.Assistant.Gemini.APIKeySource != "" {
		logger.Debug().Str("source", cfg.Assistant.Gemini.APIKeySource).Msg("gemini API key loaded")
	}

	defaultLang, ok := domain.ParseLanguage(cfg.Assistant.DefaultLanguage)
	if !ok {
		defaultLang = domain.Spanish
	}
	bot := assistant.New(backend, store, assistant.NewWhatlangDetector(), assistant.Config{
		Temperature:     cfg.Assistant.Temperature,
		TopP:            cfg.Assistant.TopP,
		MaxOutputTokens: cfg.Assistant.MaxOutputTokens,
		HistoryCap:      cfg.Assistant.HistoryCap,
		DefaultLanguage: defaultLang,
		Timeout:         cfg.Assistant.Timeout,
	}, emitter, metrics, logger)

	// HTTP API server.
	httpCfg := httpserver.Config{
		Address:                cfg.Server.HTTPAddress(),
		ReadTimeout:            cfg.Server.ReadTimeout,
		WriteTimeout:           cfg.Server.WriteTimeout,
		IdleTimeout:            2 * time.Minute,
		ShutdownTimeout:        cfg.Server.ShutdownTimeout,
		SecretKey:              secretKey,
		CookieName:             cfg.Session.CookieName,
		CookieSecure:           cfg.Session.CookieSecure,
		CookieMaxAge:           cfg.Session.TTL,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		SuggestionDefaultCount: cfg.Suggestions.DefaultCount,
		SuggestionMaxCount:     cfg.Suggestions.MaxCount,
	}
	deps := httpserver.Dependencies{
		Search:      aggregator,
		Assistant:   bot,
		Suggestions: suggester,
		Stats:       statsService,
		Emitter:     emitter,
		Metrics:     metrics,
	}
	if db != nil {
		deps.Database = db
	}
	httpSrv := httpserver.NewServer(httpCfg, deps, logger)

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

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

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

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Str("session_backend", cfg.Session.Backend).
		Bool("assistant_available", bot.Available())
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("olasis-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down olasis-service")

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

	logger.Info().Msg("olasis-service shutdown complete")
	return nil
}

// openSessionStore builds the configured session store. db is non-nil only
// for the postgres backend. The returned close function is always safe to call.
func openSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, *database.DB, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Session.Redis.Addr).Msg("redis session store connected")
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}
		return session.NewRedisStore(rdb, cfg.Session.Redis.KeyPrefix, cfg.Session.TTL), nil, closeFn, nil

	case config.SessionBackendPostgres:
		db, err := database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info().Msg("database connection established")

		if cfg.Database.MigrationAutoRun {
			if err := migrateUp(db, logger); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		return session.NewPgStore(db, cfg.Session.TTL), db, db.Close, nil

	default:
		return session.NewMemoryStore(cfg.Session.TTL), nil, func() {}, nil
	}
}

func migrateUp(db *database.DB, logger zerolog.Logger) error {
	migrator, err := database.NewMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
