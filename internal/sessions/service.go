// Package sessions provides the session and session-trick operations:
// input normalization, validation, ordering and completion.
package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/skate-sessions/internal/db"
)

// Service handles skate sessions and the tricks attached to them.
type Service struct {
	db         db.Store
	tricks     db.TrickRepo
	now        func() time.Time
	catalogTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCatalogTTL keeps the trick catalog in memory for ttl between reads.
// Zero, the default, reads the store every time.
func WithCatalogTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.catalogTTL = ttl
	}
}

// New creates a new session service.
func New(store db.Store, opts ...Option) *Service {
	s := &Service{
		db:  store,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tricks = store.Tricks()
	if s.catalogTTL > 0 {
		s.tricks = newCatalogCache(s.tricks, s.catalogTTL, s.now)
	}
	return s
}

// Detail is everything the session page shows.
type Detail struct {
	Session   *db.Session
	Tricks    []db.SessionTrick
	Catalog   []db.Trick
	Completed bool
}

// IsCompleted reports whether a session with the given entries is fully
// completed. A session without entries is never completed.
func IsCompleted(tricks []db.SessionTrick) bool {
	if len(tricks) == 0 {
		return false
	}
	for _, st := range tricks {
		if !st.Completed() {
			return false
		}
	}
	return true
}

// CreateSession validates the input and stores a new session for userID.
// An empty title yields ErrValidation and nothing is stored.
func (s *Service) CreateSession(ctx context.Context, userID string, in CreateInput) (*db.Session, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	planned, err := optionalDate("planned date", in.PlannedForDate)
	if err != nil {
		return nil, err
	}

	session := &db.Session{
		UserID:         userID,
		Title:          title,
		SpotName:       optionalTrimmed(in.SpotName),
		PlannedForDate: planned,
	}
	if err := s.db.Sessions().Create(ctx, session); err != nil {
		return nil, backend("creating session", err)
	}
	return session, nil
}

// RemoveSession deletes a session together with its tricks.
func (s *Service) RemoveSession(ctx context.Context, userID, rawSessionID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	sessionID, err := ParseSessionID(rawSessionID)
	if err != nil {
		return err
	}
	return backend("deleting session", s.db.Sessions().Delete(ctx, userID, sessionID))
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]db.SessionSummary, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	sessions, err := s.db.Sessions().ListForUser(ctx, userID)
	if err != nil {
		return nil, backend("listing sessions", err)
	}
	return sessions, nil
}

// GetSession returns one of the user's sessions.
func (s *Service) GetSession(ctx context.Context, userID, rawSessionID string) (*db.Session, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	sessionID, err := ParseSessionID(rawSessionID)
	if err != nil {
		return nil, err
	}
	session, err := s.db.Sessions().Get(ctx, userID, sessionID)
	if err != nil {
		return nil, backend("getting session", err)
	}
	return session, nil
}

// ListSessionTricks returns the session's entries in attachment order.
func (s *Service) ListSessionTricks(ctx context.Context, userID string, sessionID uuid.UUID) ([]db.SessionTrick, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	tricks, err := s.db.SessionTricks().ListForSession(ctx, userID, sessionID)
	if err != nil {
		return nil, backend("listing session tricks", err)
	}
	return tricks, nil
}

// Catalog returns every trick ordered by difficulty, then name.
func (s *Service) Catalog(ctx context.Context) ([]db.Trick, error) {
	tricks, err := s.tricks.List(ctx)
	if err != nil {
		return nil, backend("listing tricks", err)
	}
	return tricks, nil
}

// GetDetail loads a session with its entries and the catalog.
func (s *Service) GetDetail(ctx context.Context, userID, rawSessionID string) (*Detail, error) {
	session, err := s.GetSession(ctx, userID, rawSessionID)
	if err != nil {
		return nil, err
	}

	tricks, err := s.ListSessionTricks(ctx, userID, session.ID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Session:   session,
		Tricks:    tricks,
		Catalog:   catalog,
		Completed: IsCompleted(tricks),
	}, nil
}

// AttachTrick adds a catalog trick to the end of a session.
func (s *Service) AttachTrick(ctx context.Context, userID string, in AttachInput) (*db.SessionTrick, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	sessionID, err := ParseSessionID(in.SessionID)
	if err != nil {
		return nil, err
	}
	trickID, err := parseID("trick id", in.TrickID)
	if err != nil {
		return nil, err
	}
	target, err := optionalInt("target attempts", in.TargetAttempts, 1)
	if err != nil {
		return nil, err
	}

	st := &db.SessionTrick{
		SessionID:      sessionID,
		TrickID:        trickID,
		TargetAttempts: target,
		Notes:          optionalText(in.Notes),
	}
	if err := s.db.SessionTricks().Attach(ctx, userID, st); err != nil {
		return nil, backend("attaching trick", err)
	}
	return st, nil
}

// UpdateTrick overwrites the attempts and notes of a session trick. Blank
// fields clear the stored value; malformed numbers reject the whole update.
func (s *Service) UpdateTrick(ctx context.Context, userID string, in UpdateInput) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	sessionID, id, err := parseEntry(in.SessionID, in.SessionTrickID)
	if err != nil {
		return err
	}
	target, err := optionalInt("target attempts", in.TargetAttempts, 1)
	if err != nil {
		return err
	}
	landed, err := optionalInt("landed attempts", in.LandedAttempts, 0)
	if err != nil {
		return err
	}

	fields := db.SessionTrickFields{
		TargetAttempts: target,
		LandedAttempts: landed,
		Notes:          optionalText(in.Notes),
	}
	return backend("updating session trick", s.db.SessionTricks().Update(ctx, userID, sessionID, id, fields))
}

// ToggleCompletion marks a session trick complete or incomplete. Completing
// an entry that is already complete keeps its original timestamp.
func (s *Service) ToggleCompletion(ctx context.Context, userID string, in ToggleInput) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	sessionID, id, err := parseEntry(in.SessionID, in.SessionTrickID)
	if err != nil {
		return err
	}

	repo := s.db.SessionTricks()
	switch in.Desired {
	case DesiredComplete:
		err = repo.MarkComplete(ctx, userID, sessionID, id, s.now())
	case DesiredIncomplete:
		err = repo.MarkIncomplete(ctx, userID, sessionID, id)
	default:
		return invalid("desired", in.Desired)
	}
	return backend("toggling completion", err)
}

// RemoveTrick deletes a session trick. Remaining order indexes are left as
// they are.
func (s *Service) RemoveTrick(ctx context.Context, userID, rawSessionID, rawSessionTrickID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	sessionID, id, err := parseEntry(rawSessionID, rawSessionTrickID)
	if err != nil {
		return err
	}
	return backend("removing session trick", s.db.SessionTricks().Delete(ctx, userID, sessionID, id))
}

func parseEntry(rawSessionID, rawSessionTrickID string) (uuid.UUID, int64, error) {
	sessionID, err := ParseSessionID(rawSessionID)
	if err != nil {
		return uuid.Nil, 0, err
	}
	id, err := parseID("session trick id", rawSessionTrickID)
	if err != nil {
		return uuid.Nil, 0, err
	}
	return sessionID, id, nil
}
