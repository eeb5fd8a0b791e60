package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/skate-sessions/internal/metrics"
)

// refreshSkew refreshes tokens slightly before they expire.
const refreshSkew = 30 * time.Second

// TokenRefresher trades a refresh token for a new access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Gate resolves the signed-in user of a request.
type Gate struct {
	sessions SessionManager
	auth     TokenRefresher
	now      func() time.Time
}

// NewGate creates a Gate.
func NewGate(sessions SessionManager, auth TokenRefresher) *Gate {
	return &Gate{
		sessions: sessions,
		auth:     auth,
		now:      time.Now,
	}
}

// User returns the login session for r, or nil when nobody is signed in.
// An expired access token is refreshed and persisted; if the refresh fails
// the session is dropped and the cookie cleared.
func (g *Gate) User(w http.ResponseWriter, r *http.Request) *LoginSession {
	session := g.sessions.GetFromRequest(r)
	if session == nil {
		return nil
	}

	if session.Token == nil || !g.expired(session.Token) {
		return session
	}

	ctx := r.Context()
	token, err := g.auth.RefreshToken(ctx, session.Token.RefreshToken)
	metrics.Auth(metrics.AuthOpRefresh, err)
	if err != nil {
		slog.WarnContext(ctx, "token refresh failed, signing out", "user_id", session.UserID, "error", err)
		g.sessions.Delete(ctx, session.ID)
		g.sessions.ClearCookie(w)
		return nil
	}
	if token.RefreshToken == "" {
		token.RefreshToken = session.Token.RefreshToken
	}

	if err := g.sessions.UpdateToken(ctx, session.ID, token); err != nil {
		slog.ErrorContext(ctx, "storing refreshed token", "user_id", session.UserID, "error", err)
	}
	session.Token = token
	return session
}

func (g *Gate) expired(token *oauth2.Token) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return !g.now().Add(refreshSkew).Before(token.Expiry)
}

type userKey struct{}

// RequireUser redirects to /login unless a user is signed in. The login
// session is available to handlers through currentUser.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := g.User(w, r)
		if session == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the login session stored by RequireUser.
func currentUser(r *http.Request) *LoginSession {
	session, _ := r.Context().Value(userKey{}).(*LoginSession)
	return session
}

// userID returns the signed-in user's ID or "".
func userID(r *http.Request) string {
	if session := currentUser(r); session != nil {
		return session.UserID
	}
	return ""
}
