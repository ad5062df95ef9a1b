package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/olasis/olasis-service/internal/database"
	"github.com/olasis/olasis-service/internal/domain"
)

// PgStore keeps sessions in the chat_sessions table as JSONB.
type PgStore struct {
	db  database.DBTX
	ttl time.Duration
	now func() time.Time
}

var (
	_ Store   = (*PgStore)(nil)
	_ Expirer = (*PgStore)(nil)
)

// NewPgStore creates a PostgreSQL-backed store.
func NewPgStore(db database.DBTX, ttl time.Duration) *PgStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PgStore{db: db, ttl: ttl, now: time.Now}
}

// Load implements Store. Expired rows are reported as not found.
func (p *PgStore) Load(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT state
		FROM chat_sessions
		WHERE id = $1 AND expires_at > $2`

	var state []byte
	if err := p.db.QueryRow(ctx, query, id, p.now().UTC()).Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("session", id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Save implements Store with an upsert.
func (p *PgStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return domain.NewValidationError("session", "session ID is required")
	}

	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	now := p.now().UTC()
	query := `
		INSERT INTO chat_sessions (id, state, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`

	if _, err := p.db.Exec(ctx, query, s.ID, state, s.CreatedAt.UTC(), now, now.Add(p.ttl)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements Store.
func (p *PgStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired rows and returns how many were removed.
func (p *PgStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM chat_sessions WHERE expires_at <= $1`, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeExpired implements Expirer.
func (p *PgStore) PurgeExpired(ctx context.Context) (int64, error) {
	return p.DeleteExpired(ctx)
}
