package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 24 * time.Hour

type memoryEntry struct {
	session      *Session
	lastActivity time.Time
}

// MemoryStore keeps sessions in process memory and expires them after an
// idle TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load returns a copy of the session if it exists and has not expired.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || m.now().Sub(entry.lastActivity) > m.ttl {
		return nil, domain.NewNotFoundError("session", id)
	}
	return entry.session.Clone(), nil
}

// Save stores a copy of s and marks it active.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return domain.NewValidationError("session", "session ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{session: s.Clone(), lastActivity: m.now()}
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// CleanupExpired removes idle sessions and returns how many were removed.
func (m *MemoryStore) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if now.Sub(entry.lastActivity) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions, expired or not.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expirer is implemented by stores that need periodic purging.
type Expirer interface {
	// PurgeExpired removes expired sessions and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeExpired implements Expirer.
func (m *MemoryStore) PurgeExpired(context.Context) (int64, error) {
	return int64(m.CleanupExpired()), nil
}

// RunJanitor calls PurgeExpired every interval until ctx is cancelled.
// onSweep, when non-nil, receives the remaining session count after each
// sweep; stores that cannot count pass -1.
func RunJanitor(ctx context.Context, store Expirer, interval time.Duration, logger zerolog.Logger, onSweep func(remaining int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	logger = logger.With().Str("component", "session_janitor").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("session janitor stopped")
			return
		case <-ticker.C:
			removed, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to purge expired sessions")
				continue
			}
			if removed > 0 {
				logger.Debug().Int64("removed", removed).Msg("purged expired sessions")
			}
			if onSweep != nil {
				remaining := -1
				if c, ok := store.(interface{ Count() int }); ok {
					remaining = c.Count()
				}
				onSweep(remaining)
			}
		}
	}
}
