// Package assistant implements OLABOT, the conversational research assistant.
//
// Each session moves through two turn kinds. The first reply opens with the
// language's greeting sentence; every later reply is stripped of greetings.
// Session state lives in a session.Store and is loaded, mutated and saved
// under a per-session lock for every turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/events"
	"github.com/olasis/olasis-service/internal/llm"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/session"
)

// Reply status values.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

// Default generation settings.
const (
	DefaultTemperature     = 0.6
	DefaultTopP            = 0.9
	DefaultMaxOutputTokens = 2000
	DefaultTimeout         = 30 * time.Second
)

// Config holds assistant settings.
type Config struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
	// HistoryCap is the number of log turns kept and sent as context.
	HistoryCap int
	// DefaultLanguage is used when no hint, detection or preference applies.
	DefaultLanguage domain.Language
	// Timeout bounds one generation call.
	Timeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
		HistoryCap:      session.DefaultHistoryCap,
		DefaultLanguage: domain.Spanish,
		Timeout:         DefaultTimeout,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = session.DefaultHistoryCap
	}
	if !c.DefaultLanguage.Valid() {
		c.DefaultLanguage = domain.Spanish
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Request is one chat turn.
type Request struct {
	Message string
	// Lang is an optional language hint ("en", "es", "pt").
	Lang  string
	Reset bool
}

// Reply is the outcome of a chat turn.
type Reply struct {
	Text   string
	Lang   domain.Language
	Status string
}

// SessionStats summarizes a session for introspection.
type SessionStats struct {
	TotalQueries        int     `json:"total_queries"`
	SuccessfulResponses int     `json:"successful_responses"`
	ErrorCount          int     `json:"error_count"`
	SuccessRate         float64 `json:"success_rate"`
	DurationMinutes     float64 `json:"session_duration_minutes"`
	LastQuestion        string  `json:"last_question,omitempty"`
	Language            string  `json:"language,omitempty"`
	FirstTurn           bool    `json:"first_turn"`
	HistoryLength       int     `json:"history_length"`
}

// ModelInfo describes the configured backend.
type ModelInfo struct {
	Provider        string  `json:"provider,omitempty"`
	Model           string  `json:"model,omitempty"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	Available       bool    `json:"available"`
	Reason          string  `json:"reason,omitempty"`
}

// Assistant answers chat turns.
type Assistant struct {
	backend  Backend
	store    session.Store
	detector Detector
	emitter  *events.Emitter
	metrics  *observability.Metrics
	logger   zerolog.Logger
	config   Config
	locks    stripedLock
	now      func() time.Time
}

// New creates an Assistant. detector, emitter and metrics may be nil.
func New(backend Backend, store session.Store, detector Detector, cfg Config, emitter *events.Emitter, metrics *observability.Metrics, logger zerolog.Logger) *Assistant {
	cfg.applyDefaults()
	if backend == nil {
		backend = Unavailable{Reason: "no backend configured"}
	}
	if detector == nil {
		detector = DetectorFunc(func(string) (domain.Language, bool) { return 0, false })
	}
	return &Assistant{
		backend:  backend,
		store:    store,
		detector: detector,
		emitter:  emitter,
		metrics:  metrics,
		logger:   logger.With().Str("component", "assistant").Logger(),
		config:   cfg,
		now:      time.Now,
	}
}

// Ask answers one chat turn for sessionID. Generation failures are reported
// through Reply.Status, never as an error; errors are returned only for
// invalid input and session store failures.
func (a *Assistant) Ask(ctx context.Context, sessionID string, req Request) (Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Reply{}, domain.ErrEmptyMessage
	}
	if sessionID == "" {
		return Reply{}, domain.NewValidationError("session_id", "session ID is required")
	}

	unlock := a.locks.lock(sessionID)
	defer unlock()

	start := a.now()
	logger := observability.LoggerFromContext(ctx, a.logger)

	sess, err := a.loadOrCreate(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	if req.Reset {
		sess.Reset(start)
		a.metrics.RecordChatReset()
		a.emitter.Emit(ctx, domain.EventTypeChatReset, sessionID, struct{}{})
	}

	sess.RecordQuestion(message)
	sess.Stats.TotalQueries++
	lang := a.resolveLanguage(sess, message, req.Lang)
	pack := PackFor(lang)
	kind := FollowUp
	if sess.FirstTurn {
		kind = FirstTurn
	}

	reply := Reply{Lang: lang}
	switch b := a.backend.(type) {
	case Ready:
		text, genErr := a.generate(ctx, b.Generator, sess, message, kind, pack)
		switch {
		case genErr != nil:
			logger.Error().
				Err(genErr).
				Str("lang", lang.String()).
				Str("turn", kind.String()).
				Msg("assistant generation failed")
			reply.Text, reply.Status = pack.Failure, StatusError
			sess.Stats.ErrorCount++
		default:
			reply.Text, reply.Status = text, StatusOK
			sess.AppendExchange(message, text, lang, a.config.HistoryCap)
			sess.FirstTurn = false
			sess.Stats.SuccessfulResponses++
		}
	default:
		reply.Text, reply.Status = pack.Unavailable, StatusUnavailable
	}

	sess.UpdatedAt = a.now()
	if err := a.store.Save(ctx, sess); err != nil {
		return Reply{}, fmt.Errorf("saving session: %w", err)
	}

	elapsed := a.now().Sub(start)
	a.metrics.RecordChatTurn(lang.String(), kind.String(), reply.Status, elapsed.Seconds())
	a.emitter.Emit(ctx, domain.EventTypeChatAnswered, sessionID, domain.ChatAnsweredPayload{
		Lang:          lang.String(),
		FirstTurn:     kind == FirstTurn,
		Status:        reply.Status,
		MessageLength: len([]rune(message)),
	})

	logger.Info().
		Str("lang", lang.String()).
		Str("turn", kind.String()).
		Str("status", reply.Status).
		Dur("duration", elapsed).
		Msg("chat turn answered")

	return reply, nil
}

// generate builds the prompt, calls the generator under the configured
// timeout and post-processes the output.
func (a *Assistant) generate(ctx context.Context, gen llm.Generator, sess *session.Session, message string, kind TurnKind, pack *Pack) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	raw, err := gen.Generate(ctx, llm.Prompt{
		Text:            BuildPrompt(pack, kind, sess.Window(a.config.HistoryCap), message),
		Temperature:     a.config.Temperature,
		TopP:            a.config.TopP,
		MaxOutputTokens: a.config.MaxOutputTokens,
	})
	if err != nil {
		return "", err
	}

	text := postprocess(raw, message, kind, pack)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// resolveLanguage applies hint, then detection, then the stored preference,
// then the configured default. A valid hint becomes the session preference.
func (a *Assistant) resolveLanguage(sess *session.Session, message, hint string) domain.Language {
	if lang, ok := domain.ParseLanguage(hint); ok {
		sess.Language = &lang
		return lang
	}
	if lang, ok := a.detector.Detect(message); ok {
		return lang
	}
	if sess.Language != nil && sess.Language.Valid() {
		return *sess.Language
	}
	return a.config.DefaultLanguage
}

// BuildPrompt assembles the instruction, the history window and the current
// message into a single prompt.
func BuildPrompt(pack *Pack, kind TurnKind, history []domain.Turn, message string) string {
	var b strings.Builder
	b.WriteString(pack.Templates[kind])
	b.WriteString("\n\n")

	for _, turn := range history {
		label := pack.UserLabel
		if turn.Role == domain.RoleAssistant {
			label = pack.AssistantLabel
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	if len(history) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(pack.UserLabel)
	b.WriteString(": ")
	b.WriteString(message)
	return b.String()
}

// Reset clears the session's conversation state.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	unlock := a.locks.lock(sessionID)
	defer unlock()

	sess, err := a.loadOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Reset(a.now())
	if err := a.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	a.metrics.RecordChatReset()
	a.emitter.Emit(ctx, domain.EventTypeChatReset, sessionID, struct{}{})
	return nil
}

// Stats summarizes the session. A session that does not exist yet reports
// zero counts.
func (a *Assistant) Stats(ctx context.Context, sessionID string) (SessionStats, error) {
	sess, err := a.loadOrCreate(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}

	stats := SessionStats{
		TotalQueries:        sess.Stats.TotalQueries,
		SuccessfulResponses: sess.Stats.SuccessfulResponses,
		ErrorCount:          sess.Stats.ErrorCount,
		SuccessRate:         sess.Stats.SuccessRate(),
		DurationMinutes:     roundTo(a.now().Sub(sess.CreatedAt).Minutes(), 2),
		LastQuestion:        sess.LastQuestion(),
		FirstTurn:           sess.FirstTurn,
		HistoryLength:       len(sess.Log),
	}
	if sess.Language != nil {
		stats.Language = sess.Language.String()
	}
	return stats, nil
}

// Available reports whether a generator is configured.
func (a *Assistant) Available() bool {
	_, ok := a.backend.(Ready)
	return ok
}

// ModelInfo describes the backend and sampling settings.
func (a *Assistant) ModelInfo() ModelInfo {
	info := ModelInfo{
		Temperature:     a.config.Temperature,
		TopP:            a.config.TopP,
		MaxOutputTokens: a.config.MaxOutputTokens,
	}
	switch b := a.backend.(type) {
	case Ready:
		info.Available = true
		info.Provider = b.Generator.Provider()
		info.Model = b.Generator.Model()
	case Unavailable:
		info.Reason = b.Reason
	}
	return info
}

func (a *Assistant) loadOrCreate(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := a.store.Load(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return session.New(sessionID, a.now()), nil
	}
	return nil, fmt.Errorf("loading session: %w", err)
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}
