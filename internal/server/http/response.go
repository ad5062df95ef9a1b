package httpserver

import (
	"github.com/olasis/olasis-service/internal/assistant"
)

// chatRequest is the body of POST /api/chat and of each websocket frame.
type chatRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	Lang      string `json:"lang,omitempty" validate:"omitempty,max=16"`
	Reset     bool   `json:"reset,omitempty"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128,printascii"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Lang      string `json:"lang,omitempty"`
	Status    string `json:"status,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Context     string   `json:"context"`
	Field       *string  `json:"field"`
	Count       int      `json:"count"`
}

type suggestionsFallbackResponse struct {
	Suggestions []string `json:"suggestions"`
	Context     string   `json:"context"`
	Error       string   `json:"error"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	assistant.SessionStats
}
