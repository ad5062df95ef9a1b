package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity event type constants.
const (
	EventTypeSearchPerformed   = "search.performed"
	EventTypeChatAnswered      = "chat.answered"
	EventTypeChatReset         = "chat.reset"
	EventTypeSuggestionsServed = "suggestions.served"
)

// ActivityEvent describes something a user did, for downstream analytics.
type ActivityEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	SessionID  string          `json:"session_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewActivityEvent creates an event with a fresh ID.
// The payload is JSON-serialized automatically.
func NewActivityEvent(eventType, sessionID string, payload interface{}) (*ActivityEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &ActivityEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		SessionID:  sessionID,
		Payload:    payloadBytes,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// WithRequestID sets the request ID on the event.
func (e *ActivityEvent) WithRequestID(requestID string) *ActivityEvent {
	e.RequestID = requestID
	return e
}

// SearchPerformedPayload is the payload for search.performed events.
type SearchPerformedPayload struct {
	Query            string `json:"query"`
	Page             int    `json:"page"`
	ArticlesTotal    int    `json:"articles_total"`
	SpecialistsTotal int    `json:"specialists_total"`
}

// ChatAnsweredPayload is the payload for chat.answered events.
type ChatAnsweredPayload struct {
	Lang      string `json:"lang"`
	FirstTurn bool   `json:"first_turn"`
	Status    string `json:"status"`
	// MessageLength is reported instead of the message text.
	MessageLength int `json:"message_length"`
}

// SuggestionsServedPayload is the payload for suggestions.served events.
type SuggestionsServedPayload struct {
	Mode    string `json:"mode"`
	Context string `json:"context,omitempty"`
	Field   string `json:"field,omitempty"`
	Count   int    `json:"count"`
}
