package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the storage contract shared by the PostgreSQL backend in this
// package and the SQLite backend in localdb.
type Store interface {
	Sessions() SessionRepo
	SessionTricks() SessionTrickRepo
	Tricks() TrickRepo
	UserSessions() UserSessionRepo

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// SessionRepo persists sessions. Every method is scoped to the owning user.
type SessionRepo interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error)
	ListForUser(ctx context.Context, userID string) ([]SessionSummary, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// SessionTrickRepo persists the tricks attached to a session. Every method
// is scoped to both the session and the user owning it.
type SessionTrickRepo interface {
	// Attach inserts st and assigns its ID and OrderIndex. The order index
	// comes from a per-session counter incremented in the same transaction,
	// so concurrent attachments never share an index.
	Attach(ctx context.Context, userID string, st *SessionTrick) error
	ListForSession(ctx context.Context, userID string, sessionID uuid.UUID) ([]SessionTrick, error)
	Update(ctx context.Context, userID string, sessionID uuid.UUID, id int64, fields SessionTrickFields) error
	// MarkComplete sets completed_at to at unless it is already set.
	MarkComplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64, at time.Time) error
	MarkIncomplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error
	Delete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error
}

// TrickRepo reads and manages the trick catalog.
type TrickRepo interface {
	List(ctx context.Context) ([]Trick, error)
	// Upsert inserts tricks, updating the difficulty of existing
	// (name, obstacle, stance) entries. It returns the number of rows written.
	Upsert(ctx context.Context, tricks []Trick) (int, error)
}

// UserSessionRepo persists login sessions.
type UserSessionRepo interface {
	Create(ctx context.Context, session *UserSession) error
	Get(ctx context.Context, id string) (*UserSession, error)
	Delete(ctx context.Context, id string) error
	UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error
	DeleteExpired(ctx context.Context) (int64, error)
}
