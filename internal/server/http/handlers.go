package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/olasis/olasis-service/internal/assistant"
	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
	"github.com/olasis/olasis-service/internal/suggestions"
)

const (
	maxRequestBodySize = 64 << 10

	defaultSuggestionCount = 4
	maxSuggestionCount     = 10

	// Messages returned to chat clients.
	msgInvalidMessage = "Por favor, envie uma mensagem válida."
	msgInternalError  = "Erro interno no servidor."
)

// searchHandler handles GET /api/search.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeDomainError(w, domain.ErrMissingQuery)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	sessionID := s.sessions.resolve(r, "")
	s.sessions.setCookie(w, sessionID)
	ctx := observability.WithSessionID(r.Context(), sessionID)

	result, err := s.deps.Search.Search(ctx, query, page)
	if err != nil {
		logger := observability.LoggerFromContext(ctx, s.logger)
		logger.Error().
			Err(err).
			Str("query", query).
			Int("page", page).
			Msg("search failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// chatHandler handles POST /api/chat.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Response: msgInvalidMessage, Error: "failed to read request body"})
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Response: msgInvalidMessage, Error: "invalid JSON request body"})
		return
	}

	sessionID := s.sessions.resolve(r, req.SessionID)
	s.sessions.setCookie(w, sessionID)

	status, resp := s.answer(r, sessionID, req)
	writeJSON(w, status, resp)
}

// answer runs one chat turn and maps the outcome to a status and body.
func (s *Server) answer(r *http.Request, sessionID string, req chatRequest) (int, chatResponse) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return http.StatusBadRequest, chatResponse{
			Response:  msgInvalidMessage,
			Error:     validationMessage(err),
			SessionID: sessionID,
		}
	}

	ctx := observability.WithSessionID(r.Context(), sessionID)
	reply, err := s.deps.Assistant.Ask(ctx, sessionID, assistant.Request{
		Message: req.Message,
		Lang:    req.Lang,
		Reset:   req.Reset,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, chatResponse{Response: msgInvalidMessage, Error: err.Error(), SessionID: sessionID}
	case err != nil:
		logger := observability.LoggerFromContext(ctx, s.logger)
		logger.Error().Err(err).Msg("chat turn failed")
		return http.StatusOK, chatResponse{Response: msgInternalError, Status: assistant.StatusError, SessionID: sessionID}
	}

	return http.StatusOK, chatResponse{
		Response:  reply.Text,
		Lang:      reply.Lang.String(),
		Status:    reply.Status,
		SessionID: sessionID,
	}
}

// suggestionsHandler handles GET /api/chat/suggestions.
func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawCount := q.Get("count")
	if rawCount == "" {
		rawCount = q.Get("limit")
	}
	count := s.suggestDefault
	if rawCount != "" {
		n, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit provided.")
			return
		}
		count = n
	}
	if count > s.suggestMax {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Maximum allowed suggestions is %d.", s.suggestMax))
		return
	}

	lang, ok := domain.ParseLanguage(q.Get("lang"))
	if !ok {
		lang = suggestions.DefaultLanguage
	}
	contextTag := q.Get("context")
	if contextTag == "" {
		contextTag = suggestions.ContextGeneral
	}
	field := strings.TrimSpace(q.Get("field"))
	history := nonBlank(q["history"])

	defer func() {
		if rec := recover(); rec != nil {
			logger := observability.LoggerFromContext(r.Context(), s.logger)
			logger.Error().
				Interface("panic", rec).
				Msg("suggestion selection failed; serving fallback")
			fallback := s.deps.Suggestions.Fallback(lang)
			writeJSON(w, http.StatusOK, suggestionsFallbackResponse{
				Suggestions: fallback.Suggestions,
				Context:     fallback.Context,
				Error:       fmt.Sprint(rec),
			})
		}
	}()

	var sel suggestions.Selection
	switch {
	case field != "":
		sel = s.deps.Suggestions.ByField(lang, field, count)
	case len(history) > 0:
		sel = s.deps.Suggestions.Adaptive(lang, history, count)
	default:
		sel = s.deps.Suggestions.ByContext(lang, contextTag, count)
	}

	s.deps.Metrics.RecordSuggestions(sel.Mode)
	s.deps.Emitter.Emit(r.Context(), domain.EventTypeSuggestionsServed, "", domain.SuggestionsServedPayload{
		Mode:    sel.Mode,
		Context: sel.Context,
		Field:   sel.Field,
		Count:   len(sel.Suggestions),
	})

	resp := suggestionsResponse{
		Suggestions: sel.Suggestions,
		Context:     contextTag,
		Count:       len(sel.Suggestions),
	}
	if field != "" {
		resp.Field = &field
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionStatsHandler handles GET /api/chat/session.
func (s *Server) sessionStatsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessions.resolve(r, "")
	s.sessions.setCookie(w, sessionID)

	st, err := s.deps.Assistant.Stats(r.Context(), sessionID)
	if err != nil {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("loading session stats failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, SessionStats: st})
}

// sessionResetHandler handles DELETE /api/chat/session.
func (s *Server) sessionResetHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessions.resolve(r, "")
	s.sessions.setCookie(w, sessionID)

	if err := s.deps.Assistant.Reset(r.Context(), sessionID); err != nil {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("resetting session failed")
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// modelInfoHandler handles GET /api/chat/info.
func (s *Server) modelInfoHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Assistant.ModelInfo())
}

// statsHandler handles GET /api/stats.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stats.Snapshot(r.Context()))
}

// writeDomainError maps domain errors to HTTP status codes. Unrecognised
// errors become a generic 500 so internal details never reach the client.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Message)
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// validationMessage renders the first validator failure as "<field>: <rule>".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s: failed %q rule", fe.Field(), fe.Tag())
	}
	return "invalid request"
}
