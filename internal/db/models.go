package db

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for planned dates.
const DateLayout = "2006-01-02"

// Trick is a catalog entry describing a skateboarding maneuver.
type Trick struct {
	ID         int64
	Name       string
	Obstacle   string
	Stance     string
	Difficulty int
}

// Session is a user-owned planned or logged skate outing.
type Session struct {
	ID             uuid.UUID
	UserID         string
	Title          string
	SpotName       *string    // nullable
	PlannedForDate *time.Time // nullable, date only
	CreatedAt      time.Time
}

// SessionSummary is a session together with its trick counts.
type SessionSummary struct {
	Session
	TrickCount     int
	CompletedCount int
}

// Completed reports whether the session has at least one trick and all of
// them are complete.
func (s SessionSummary) Completed() bool {
	return s.TrickCount > 0 && s.CompletedCount == s.TrickCount
}

// SessionTrick is a catalog trick attached to a session.
type SessionTrick struct {
	ID             int64
	SessionID      uuid.UUID
	TrickID        int64
	OrderIndex     int
	TargetAttempts *int       // nullable
	LandedAttempts *int       // nullable
	Notes          *string    // nullable
	CompletedAt    *time.Time // nullable - non-nil means complete

	// Trick is populated by list queries that join the catalog.
	Trick *Trick
}

// Completed reports whether the entry has been marked complete.
func (st SessionTrick) Completed() bool {
	return st.CompletedAt != nil
}

// SessionTrickFields holds the user-editable fields of a SessionTrick.
// A nil field clears the stored value.
type SessionTrickFields struct {
	TargetAttempts *int
	LandedAttempts *int
	Notes          *string
}

// UserSession is an authenticated login session.
type UserSession struct {
	ID           string
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
