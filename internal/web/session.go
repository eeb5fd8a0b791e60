// Package web provides the HTTP server and web UI for skate sessions.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/skate-sessions/internal/auth"
	"github.com/justestif/skate-sessions/internal/db"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// LoginSession is a signed-in browser, keyed by the session cookie.
type LoginSession struct {
	ID        string
	Token     *oauth2.Token
	UserID    string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager defines the interface for login session management.
type SessionManager interface {
	Create(ctx context.Context, token *oauth2.Token, user *auth.User) (*LoginSession, error)
	Get(ctx context.Context, id string) *LoginSession
	Delete(ctx context.Context, id string)
	UpdateToken(ctx context.Context, id string, token *oauth2.Token) error
	DeleteExpired(ctx context.Context) (int64, error)
	GetFromRequest(r *http.Request) *LoginSession
	SetCookie(w http.ResponseWriter, session *LoginSession)
	ClearCookie(w http.ResponseWriter)
}

// ============================================================================
// In-Memory Session Store (for development/testing)
// ============================================================================

// SessionStore manages login sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*LoginSession
	secure   bool
}

// NewSessionStore creates a new in-memory session store. Cookies carry the
// Secure flag when secure is true.
func NewSessionStore(secure bool) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*LoginSession),
		secure:   secure,
	}
}

// Create generates a new session for the given token and user.
func (s *SessionStore) Create(_ context.Context, token *oauth2.Token, user *auth.User) (*LoginSession, error) {
	session, err := newLoginSession(token, user)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	copied := *session
	return &copied, nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) *LoginSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || !time.Now().Before(session.ExpiresAt) {
		return nil
	}

	copied := *session
	return &copied
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// UpdateToken replaces the token of a session.
func (s *SessionStore) UpdateToken(_ context.Context, id string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return db.ErrNotFound
	}
	session.Token = token
	return nil
}

// DeleteExpired removes every expired session.
func (s *SessionStore) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *LoginSession {
	return fromCookie(r, s)
}

// SetCookie sets the session cookie on the response.
func (s *SessionStore) SetCookie(w http.ResponseWriter, session *LoginSession) {
	setCookie(w, session, s.secure)
}

// ClearCookie removes the session cookie from the response.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w, s.secure)
}

// ============================================================================
// Database-Backed Session Store
// ============================================================================

// DBSessionStore manages login sessions in the user_sessions table.
type DBSessionStore struct {
	repo   db.UserSessionRepo
	secure bool
}

// NewDBSessionStore creates a new database-backed session store.
func NewDBSessionStore(repo db.UserSessionRepo, secure bool) *DBSessionStore {
	return &DBSessionStore{repo: repo, secure: secure}
}

// Create generates a new session and stores it in the database.
func (s *DBSessionStore) Create(ctx context.Context, token *oauth2.Token, user *auth.User) (*LoginSession, error) {
	session, err := newLoginSession(token, user)
	if err != nil {
		return nil, err
	}

	row := &db.UserSession{
		ID:           session.ID,
		UserID:       session.UserID,
		Email:        session.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		CreatedAt:    session.CreatedAt,
		ExpiresAt:    session.ExpiresAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return session, nil
}

// Get retrieves a session by ID from the database.
func (s *DBSessionStore) Get(ctx context.Context, id string) *LoginSession {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil
	}

	return &LoginSession{
		ID: row.ID,
		Token: &oauth2.Token{
			AccessToken:  row.AccessToken,
			RefreshToken: row.RefreshToken,
			Expiry:       row.TokenExpiry,
			TokenType:    "Bearer",
		},
		UserID:    row.UserID,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
}

// Delete removes a session from the database.
func (s *DBSessionStore) Delete(ctx context.Context, id string) {
	_ = s.repo.Delete(ctx, id)
}

// UpdateToken stores a refreshed token for a session.
func (s *DBSessionStore) UpdateToken(ctx context.Context, id string, token *oauth2.Token) error {
	return s.repo.UpdateToken(ctx, id, token.AccessToken, token.RefreshToken, token.Expiry)
}

// DeleteExpired removes every expired session.
func (s *DBSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}

// GetFromRequest extracts the session from the request cookie.
func (s *DBSessionStore) GetFromRequest(r *http.Request) *LoginSession {
	return fromCookie(r, s)
}

// SetCookie sets the session cookie on the response.
func (s *DBSessionStore) SetCookie(w http.ResponseWriter, session *LoginSession) {
	setCookie(w, session, s.secure)
}

// ClearCookie removes the session cookie from the response.
func (s *DBSessionStore) ClearCookie(w http.ResponseWriter) {
	clearCookie(w, s.secure)
}

// ============================================================================
// Helper Functions
// ============================================================================

func newLoginSession(token *oauth2.Token, user *auth.User) (*LoginSession, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &LoginSession{
		ID:        id,
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}, nil
}

func fromCookie(r *http.Request, m SessionManager) *LoginSession {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return m.Get(r.Context(), cookie.Value)
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// setCookie sets the session cookie on the response.
func setCookie(w http.ResponseWriter, session *LoginSession, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})
}

// clearCookie removes the session cookie from the response.
func clearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   -1,
	})
}

// Ensure both stores implement SessionManager.
var (
	_ SessionManager = (*SessionStore)(nil)
	_ SessionManager = (*DBSessionStore)(nil)
)
