// Package session holds per-session conversation state and the stores that
// persist it between chat turns.
//
// Three Store implementations are provided: MemoryStore (default, process
// local), RedisStore and PgStore. All of them hand out copies, so a caller
// owns the *Session it loaded until it saves it back.
package session

import (
	"context"
	"time"

	"github.com/olasis/olasis-service/internal/domain"
)

const (
	// MaxQuestions caps the raw question log.
	MaxQuestions = 50

	// DefaultHistoryCap is the default number of turns kept in the log.
	DefaultHistoryCap = 10
)

// Stats counts the outcomes of a session's turns.
type Stats struct {
	TotalQueries        int `json:"total_queries"`
	SuccessfulResponses int `json:"successful_responses"`
	ErrorCount          int `json:"error_count"`
}

// SuccessRate returns successful responses as a percentage of all queries.
func (s Stats) SuccessRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.SuccessfulResponses) / float64(s.TotalQueries) * 100
}

// Session is the conversation state of one client.
type Session struct {
	ID        string           `json:"id"`
	FirstTurn bool             `json:"first_turn"`
	Questions []string         `json:"questions"`
	Log       []domain.Turn    `json:"log"`
	Language  *domain.Language `json:"language,omitempty"`
	Stats     Stats            `json:"stats"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New returns a fresh session awaiting its first turn.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		FirstTurn: true,
		Questions: []string{},
		Log:       []domain.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset restores the initial state, keeping the ID and creation time.
func (s *Session) Reset(now time.Time) {
	created := s.CreatedAt
	*s = *New(s.ID, now)
	s.CreatedAt = created
}

// RecordQuestion appends a raw message to the question log, dropping the
// oldest entries beyond MaxQuestions.
func (s *Session) RecordQuestion(q string) {
	s.Questions = appendCapped(s.Questions, MaxQuestions, q)
}

// AppendExchange appends a user turn and an assistant turn, then evicts the
// oldest turns so the log holds at most capacity entries.
func (s *Session) AppendExchange(user, assistant string, lang domain.Language, capacity int) {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	s.Log = appendCapped(s.Log, capacity,
		domain.Turn{Role: domain.RoleUser, Content: user, Lang: lang},
		domain.Turn{Role: domain.RoleAssistant, Content: assistant, Lang: lang},
	)
}

// Window returns the last n turns of the log.
func (s *Session) Window(n int) []domain.Turn {
	if n <= 0 || len(s.Log) == 0 {
		return nil
	}
	if n > len(s.Log) {
		n = len(s.Log)
	}
	return s.Log[len(s.Log)-n:]
}

// LastQuestion returns the most recent raw message, or "".
func (s *Session) LastQuestion() string {
	if len(s.Questions) == 0 {
		return ""
	}
	return s.Questions[len(s.Questions)-1]
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = append([]string(nil), s.Questions...)
	c.Log = append([]domain.Turn(nil), s.Log...)
	if s.Language != nil {
		lang := *s.Language
		c.Language = &lang
	}
	return &c
}

func appendCapped[T any](list []T, capacity int, items ...T) []T {
	list = append(list, items...)
	if over := len(list) - capacity; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	return list
}

// Store persists sessions by ID.
type Store interface {
	// Load returns the session or an error wrapping domain.ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the session and refreshes its expiry.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
