package localdb

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/skate-sessions/internal/db"
)

// Timestamps are stored as Unix nanoseconds so that SQLite compares and
// orders them numerically.

type trickRow struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"not null;uniqueIndex:idx_tricks_identity"`
	Obstacle   string `gorm:"not null;uniqueIndex:idx_tricks_identity"`
	Stance     string `gorm:"not null;uniqueIndex:idx_tricks_identity"`
	Difficulty int    `gorm:"not null;default:1"`
}

func (trickRow) TableName() string { return "tricks" }

type sessionRow struct {
	ID             string  `gorm:"primaryKey"`
	UserID         string  `gorm:"not null;index:idx_sessions_user_created"`
	Title          string  `gorm:"not null"`
	SpotName       *string
	PlannedForDate *string // YYYY-MM-DD
	TrickSeq       int     `gorm:"not null;default:0"`
	CreatedAt      int64   `gorm:"not null;index:idx_sessions_user_created"`
}

func (sessionRow) TableName() string { return "sessions" }

type sessionTrickRow struct {
	ID             int64  `gorm:"primaryKey"`
	SessionID      string `gorm:"not null;uniqueIndex:idx_session_tricks_order"`
	TrickID        int64  `gorm:"not null"`
	OrderIndex     int    `gorm:"not null;uniqueIndex:idx_session_tricks_order"`
	TargetAttempts *int
	LandedAttempts *int
	Notes          *string
	CompletedAt    *int64

	// Relationships
	Session sessionRow `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
	Trick   trickRow   `gorm:"foreignKey:TrickID;constraint:OnDelete:RESTRICT;"`
}

func (sessionTrickRow) TableName() string { return "session_tricks" }

type userSessionRow struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"not null;index"`
	Email        string `gorm:"not null;default:''"`
	AccessToken  string `gorm:"not null"`
	RefreshToken string `gorm:"not null"`
	TokenExpiry  int64  `gorm:"not null"`
	CreatedAt    int64  `gorm:"not null"`
	ExpiresAt    int64  `gorm:"not null;index"`
}

func (userSessionRow) TableName() string { return "user_sessions" }

// summaryRow receives the aggregated session list query. gorm does not
// scan into unexported embedded structs, so the columns are spelled out.
type summaryRow struct {
	ID             string
	UserID         string
	Title          string
	SpotName       *string
	PlannedForDate *string
	CreatedAt      int64
	TrickCount     int
	CompletedCount int
}

func (r summaryRow) session() sessionRow {
	return sessionRow{
		ID:             r.ID,
		UserID:         r.UserID,
		Title:          r.Title,
		SpotName:       r.SpotName,
		PlannedForDate: r.PlannedForDate,
		CreatedAt:      r.CreatedAt,
	}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n)
}

func fromNanosPtr(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}

func toTrick(r trickRow) db.Trick {
	return db.Trick{
		ID:         r.ID,
		Name:       r.Name,
		Obstacle:   r.Obstacle,
		Stance:     r.Stance,
		Difficulty: r.Difficulty,
	}
}

func toSessionRow(s *db.Session) sessionRow {
	row := sessionRow{
		ID:        s.ID.String(),
		UserID:    s.UserID,
		Title:     s.Title,
		SpotName:  s.SpotName,
		CreatedAt: s.CreatedAt.UnixNano(),
	}
	if s.PlannedForDate != nil {
		d := s.PlannedForDate.Format(db.DateLayout)
		row.PlannedForDate = &d
	}
	return row
}

func toSession(r sessionRow) (db.Session, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return db.Session{}, err
	}
	s := db.Session{
		ID:        id,
		UserID:    r.UserID,
		Title:     r.Title,
		SpotName:  r.SpotName,
		CreatedAt: fromNanos(r.CreatedAt),
	}
	if r.PlannedForDate != nil {
		d, err := time.Parse(db.DateLayout, *r.PlannedForDate)
		if err != nil {
			return db.Session{}, err
		}
		s.PlannedForDate = &d
	}
	return s, nil
}

func toSessionTrick(r sessionTrickRow) (db.SessionTrick, error) {
	sessionID, err := uuid.Parse(r.SessionID)
	if err != nil {
		return db.SessionTrick{}, err
	}
	st := db.SessionTrick{
		ID:             r.ID,
		SessionID:      sessionID,
		TrickID:        r.TrickID,
		OrderIndex:     r.OrderIndex,
		TargetAttempts: r.TargetAttempts,
		LandedAttempts: r.LandedAttempts,
		Notes:          r.Notes,
		CompletedAt:    fromNanosPtr(r.CompletedAt),
	}
	if r.Trick.ID != 0 {
		t := toTrick(r.Trick)
		st.Trick = &t
	}
	return st, nil
}

func toUserSession(r userSessionRow) *db.UserSession {
	return &db.UserSession{
		ID:           r.ID,
		UserID:       r.UserID,
		Email:        r.Email,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenExpiry:  fromNanos(r.TokenExpiry),
		CreatedAt:    fromNanos(r.CreatedAt),
		ExpiresAt:    fromNanos(r.ExpiresAt),
	}
}
