// Package httpserver provides the OLASIS HTTP API: search, the OLABOT chat
// (HTTP and websocket), suggestions and live stats.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/assistant"
	"github.com/olasis/olasis-service/internal/database"
	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/search"
	"github.com/olasis/olasis-service/internal/stats"
	"github.com/olasis/olasis-service/internal/suggestions"
)

// Searcher runs a paginated article and specialist search.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*search.Result, error)
}

// ChatAssistant answers chat turns and manages per-session state.
type ChatAssistant interface {
	Ask(ctx context.Context, sessionID string, req assistant.Request) (assistant.Reply, error)
	Reset(ctx context.Context, sessionID string) error
	Stats(ctx context.Context, sessionID string) (assistant.SessionStats, error)
	ModelInfo() assistant.ModelInfo
}

// SuggestionSource picks chat suggestions.
type SuggestionSource interface {
	ByContext(lang domain.Language, tag string, limit int) suggestions.Selection
	ByField(lang domain.Language, field string, limit int) suggestions.Selection
	Adaptive(lang domain.Language, history []string, limit int) suggestions.Selection
	Fallback(lang domain.Language) suggestions.Selection
}

// StatsSource reports live totals.
type StatsSource interface {
	Snapshot(ctx context.Context) stats.Snapshot
}

// HealthChecker reports the health of a backing store.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// SecretKey signs the session cookie.
	SecretKey []byte
	// CookieName defaults to DefaultCookieName.
	CookieName   string
	CookieSecure bool
	// CookieMaxAge is the session cookie lifetime.
	CookieMaxAge time.Duration
	// AllowedOrigins restricts websocket origins. Empty allows all.
	AllowedOrigins []string

	// SuggestionDefaultCount is used when no count is given (default: 4).
	SuggestionDefaultCount int
	// SuggestionMaxCount is the largest accepted count (default: 10).
	SuggestionMaxCount int
}

// Dependencies are the services the handlers call. Database may be nil.
type Dependencies struct {
	Search      Searcher
	Assistant   ChatAssistant
	Suggestions SuggestionSource
	Stats       StatsSource
	Database    HealthChecker
	Emitter     *events.Emitter
	Metrics     *observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	router         chi.Router
	httpServer     *http.Server
	deps           Dependencies
	sessions       *sessionResolver
	validate       *validator.Validate
	origins        map[string]bool
	suggestDefault int
	suggestMax     int
	logger         zerolog.Logger
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Dependencies, logger zerolog.Logger) *Server {
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = true
	}

	if cfg.SuggestionMaxCount <= 0 {
		cfg.SuggestionMaxCount = maxSuggestionCount
	}
	if cfg.SuggestionDefaultCount <= 0 || cfg.SuggestionDefaultCount > cfg.SuggestionMaxCount {
		cfg.SuggestionDefaultCount = min(defaultSuggestionCount, cfg.SuggestionMaxCount)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
	s := &Server{
		deps:           deps,
		sessions:       newSessionResolver(validate, cfg.SecretKey, cfg.CookieName, cfg.CookieSecure, cfg.CookieMaxAge),
		validate:       validate,
		origins:        origins,
		suggestDefault: cfg.SuggestionDefaultCount,
		suggestMax:     cfg.SuggestionMaxCount,
		logger:         logger.With().Str("component", "http-server").Logger(),
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

// jsonFieldName reports validation failures by JSON field name.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContextMiddleware)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.searchHandler)
		r.Get("/stats", s.statsHandler)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", s.chatHandler)
			r.Get("/suggestions", s.suggestionsHandler)
			r.Get("/session", s.sessionStatsHandler)
			r.Delete("/session", s.sessionResetHandler)
			r.Get("/info", s.modelInfoHandler)
			r.Get("/ws", s.websocketHandler)
		})
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
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
	if s.deps.Database == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	health := s.deps.Database.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports readiness. An unavailable assistant backend is
// reported but does not make the service unready.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ready", "assistant": "unavailable"}
	if s.deps.Assistant != nil && s.deps.Assistant.ModelInfo().Available {
		resp["assistant"] = "available"
	}

	if s.deps.Database != nil {
		health := s.deps.Database.Health(r.Context())
		resp["database"] = health.Status
		if health.Status != "healthy" {
			resp["status"] = "not_ready"
			resp["error"] = health.Error
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
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
