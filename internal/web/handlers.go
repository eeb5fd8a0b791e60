package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/justestif/skate-sessions/internal/auth"
	"github.com/justestif/skate-sessions/internal/datepick"
	"github.com/justestif/skate-sessions/internal/metrics"
	"github.com/justestif/skate-sessions/internal/sessions"
)

const (
	verifierCookieName = "pkce_verifier"
	verifierTTL        = 10 * time.Minute
)

// providers lists the OAuth providers offered on the login page.
var providers = []string{"google"}

// AuthClient is the subset of the auth service used by the handlers.
type AuthClient interface {
	TokenRefresher
	SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*oauth2.Token, *auth.User, error)
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
	SignOut(ctx context.Context, accessToken string) error
	Ping(ctx context.Context) error
}

// Pinger checks a backend dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      AuthClient
	logins    SessionManager
	gate      *Gate
	service   *sessions.Service
	store     Pinger
	templates *Templates
	baseURL   string
	secure    bool
	now       func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authClient AuthClient, logins SessionManager, service *sessions.Service, store Pinger, templates *Templates, baseURL string, secure bool) *Handlers {
	return &Handlers{
		auth:      authClient,
		logins:    logins,
		gate:      NewGate(logins, authClient),
		service:   service,
		store:     store,
		templates: templates,
		baseURL:   strings.TrimRight(baseURL, "/"),
		secure:    secure,
		now:       time.Now,
	}
}

// ============================================================================
// Pages
// ============================================================================

// Home handles the landing page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if h.gate.User(w, r) != nil {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, "home", HomePageData{
		PageData: h.pageData(r, "Skate Sessions"),
	})
}

// LoginPage shows the sign-in options (GET /login).
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.gate.User(w, r) != nil {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}

	query := r.URL.Query()
	h.render(w, r, http.StatusOK, "login", LoginPageData{
		PageData:  h.pageData(r, "Log in"),
		AuthError: query.Get("error") == "auth",
		Sent:      query.Get("sent") == "1",
		Providers: providers,
	})
}

// Me shows the signed-in account (GET /me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	session := currentUser(r)
	email := session.Email

	if session.Token != nil {
		user, err := h.auth.GetUser(r.Context(), session.Token.AccessToken)
		if err != nil {
			slog.WarnContext(r.Context(), "loading user from auth service", "user_id", session.UserID, "error", err)
		} else if user.Email != "" {
			email = user.Email
		}
	}

	h.render(w, r, http.StatusOK, "me", MePageData{
		PageData: h.pageData(r, "Your account"),
		Email:    email,
	})
}

// ListSessions shows the user's sessions and the new session form (GET /sessions).
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSessions(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "listing sessions", "user_id", userID(r), "error", err)
	}

	now := h.now()
	h.render(w, r, http.StatusOK, "sessions", SessionsPageData{
		PageData: h.pageData(r, "Your skate sessions"),
		Sessions: list,
		Today:    datepick.Value(datepick.ModeToday, "", now),
		Tomorrow: datepick.Value(datepick.ModeTomorrow, "", now),
	})
}

// ShowSession shows a session with its tricks (GET /sessions/{sessionID}).
func (h *Handlers) ShowSession(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "sessionID")

	detail, err := h.service.GetDetail(r.Context(), userID(r), rawID)
	switch {
	case err == nil:
	case errors.Is(err, sessions.ErrInvalidInput):
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	case errors.Is(err, sessions.ErrNotFound):
		h.render(w, r, http.StatusNotFound, "not_found", NotFoundPageData{
			PageData: h.pageData(r, "Session not found"),
		})
		return
	default:
		slog.ErrorContext(r.Context(), "loading session", "session_id", rawID, "error", err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "session", SessionPageData{
		PageData:  h.pageData(r, detail.Session.Title),
		Session:   detail.Session,
		Tricks:    detail.Tricks,
		Catalog:   detail.Catalog,
		Completed: detail.Completed,
	})
}

// ============================================================================
// Session actions
// ============================================================================

// CreateSession stores a new session (POST /sessions).
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(r, metrics.ActionCreateSession, err)
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}

	planned := datepick.Resolve(
		r.PostForm.Get("planned_for_date"),
		r.PostForm.Get("planned_date_mode"),
		r.PostForm.Get("custom_date"),
		h.now(),
	)

	_, err := h.service.CreateSession(r.Context(), userID(r), sessions.CreateInput{
		Title:          r.PostForm.Get("title"),
		SpotName:       r.PostForm.Get("spot_name"),
		PlannedForDate: planned,
	})
	h.outcome(r, metrics.ActionCreateSession, err)
	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

// DeleteSession removes a session and its tricks (POST /sessions/{sessionID}/delete).
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveSession(r.Context(), userID(r), chi.URLParam(r, "sessionID"))
	h.outcome(r, metrics.ActionDeleteSession, err, "session_id", chi.URLParam(r, "sessionID"))
	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

// ============================================================================
// Session trick actions
// ============================================================================

// AttachTrick adds a catalog trick to a session (POST /sessions/{sessionID}/tricks).
func (h *Handlers) AttachTrick(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.parseForm(w, r, metrics.ActionAttachTrick, sessionID) {
		return
	}

	_, err := h.service.AttachTrick(r.Context(), userID(r), sessions.AttachInput{
		SessionID:      sessionID,
		TrickID:        r.PostForm.Get("trick_id"),
		TargetAttempts: r.PostForm.Get("target_attempts"),
		Notes:          r.PostForm.Get("notes"),
	})
	h.outcome(r, metrics.ActionAttachTrick, err, "session_id", sessionID)
	h.backToSession(w, r, sessionID)
}

// UpdateTrick edits attempts and notes (POST /sessions/{sessionID}/tricks/{sessionTrickID}).
func (h *Handlers) UpdateTrick(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.parseForm(w, r, metrics.ActionUpdateTrick, sessionID) {
		return
	}

	err := h.service.UpdateTrick(r.Context(), userID(r), sessions.UpdateInput{
		SessionID:      sessionID,
		SessionTrickID: chi.URLParam(r, "sessionTrickID"),
		TargetAttempts: r.PostForm.Get("target_attempts"),
		LandedAttempts: r.PostForm.Get("landed_attempts"),
		Notes:          r.PostForm.Get("notes"),
	})
	h.outcome(r, metrics.ActionUpdateTrick, err, "session_id", sessionID)
	h.backToSession(w, r, sessionID)
}

// ToggleCompletion marks a trick complete or incomplete
// (POST /sessions/{sessionID}/tricks/{sessionTrickID}/completion).
func (h *Handlers) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.parseForm(w, r, metrics.ActionToggleComplete, sessionID) {
		return
	}

	err := h.service.ToggleCompletion(r.Context(), userID(r), sessions.ToggleInput{
		SessionID:      sessionID,
		SessionTrickID: chi.URLParam(r, "sessionTrickID"),
		Desired:        r.PostForm.Get("desired"),
	})
	h.outcome(r, metrics.ActionToggleComplete, err, "session_id", sessionID)
	h.backToSession(w, r, sessionID)
}

// RemoveTrick detaches a trick from a session
// (POST /sessions/{sessionID}/tricks/{sessionTrickID}/delete).
func (h *Handlers) RemoveTrick(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	err := h.service.RemoveTrick(r.Context(), userID(r), sessionID, chi.URLParam(r, "sessionTrickID"))
	h.outcome(r, metrics.ActionRemoveTrick, err, "session_id", sessionID)
	h.backToSession(w, r, sessionID)
}

// ============================================================================
// Auth
// ============================================================================

// SendMagicLink emails a sign-in link (POST /login/magic-link).
func (h *Handlers) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		http.Redirect(w, r, "/login?error=auth", http.StatusSeeOther)
		return
	}

	verifier := auth.NewVerifier()
	h.setVerifierCookie(w, verifier)

	err := h.auth.SendMagicLink(r.Context(), email, h.baseURL+"/auth/callback", auth.Challenge(verifier))
	metrics.Auth(metrics.AuthOpMagicLink, err)
	if err != nil {
		slog.ErrorContext(r.Context(), "sending magic link", "error", err)
		http.Redirect(w, r, "/login?error=auth", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/login?sent=1", http.StatusSeeOther)
}

// ProviderLogin starts sign-in with an OAuth provider (GET /login/{provider}).
func (h *Handlers) ProviderLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !slices.Contains(providers, provider) {
		http.NotFound(w, r)
		return
	}

	verifier := auth.NewVerifier()
	h.setVerifierCookie(w, verifier)

	redirectTo := h.baseURL + "/auth/callback?next=" + url.QueryEscape("/sessions")
	http.Redirect(w, r, h.auth.AuthorizeURL(provider, redirectTo, auth.Challenge(verifier)), http.StatusFound)
}

// Callback exchanges the auth code for a login session (GET /auth/callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	next := safeNext(query.Get("next"))

	if code == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	verifierCookie, err := r.Cookie(verifierCookieName)
	if err != nil || verifierCookie.Value == "" {
		slog.WarnContext(r.Context(), "auth callback without PKCE verifier")
		http.Redirect(w, r, "/login?error=auth", http.StatusSeeOther)
		return
	}
	h.clearVerifierCookie(w)

	token, user, err := h.auth.ExchangeCode(r.Context(), code, verifierCookie.Value)
	metrics.Auth(metrics.AuthOpExchange, err)
	if err == nil && user == nil {
		user, err = h.auth.GetUser(r.Context(), token.AccessToken)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "exchanging code for session", "error", err)
		http.Redirect(w, r, "/login?error=auth", http.StatusSeeOther)
		return
	}

	session, err := h.logins.Create(r.Context(), token, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "creating login session", "user_id", user.ID, "error", err)
		http.Redirect(w, r, "/login?error=auth", http.StatusSeeOther)
		return
	}

	h.logins.SetCookie(w, session)
	slog.InfoContext(r.Context(), "user signed in", "user_id", user.ID)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout ends the login session (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.logins.GetFromRequest(r)
	if session != nil {
		if session.Token != nil {
			err := h.auth.SignOut(r.Context(), session.Token.AccessToken)
			metrics.Auth(metrics.AuthOpSignOut, err)
			if err != nil {
				slog.WarnContext(r.Context(), "signing out of auth service", "user_id", session.UserID, "error", err)
			}
		}
		h.logins.Delete(r.Context(), session.ID)
	}

	h.logins.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ============================================================================
// Health
// ============================================================================

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Auth     string `json:"auth"`
}

// Health reports database and auth backend connectivity (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Auth: "ok"}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "health check: database", "error", err)
		resp.Database = "unavailable"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := h.auth.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "health check: auth", "error", err)
		resp.Auth = "unavailable"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	data := PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
	}
	if session := currentUser(r); session != nil {
		data.User = &UserData{ID: session.UserID, Email: session.Email}
	}
	return data
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, page, data); err != nil {
		slog.ErrorContext(r.Context(), "rendering template", "page", page, "error", err)
	}
}

// parseForm parses the posted form, redirecting back to the session on failure.
func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request, action, sessionID string) bool {
	if err := r.ParseForm(); err != nil {
		h.outcome(r, action, err, "session_id", sessionID)
		h.backToSession(w, r, sessionID)
		return false
	}
	return true
}

// backToSession redirects to the session page, or to the list when the
// session id does not parse.
func (h *Handlers) backToSession(w http.ResponseWriter, r *http.Request, rawSessionID string) {
	id, err := sessions.ParseSessionID(rawSessionID)
	if err != nil {
		http.Redirect(w, r, "/sessions", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/sessions/"+id.String(), http.StatusSeeOther)
}

// outcome counts an action and logs it when it failed.
func (h *Handlers) outcome(r *http.Request, action string, err error, attrs ...any) {
	metrics.Action(action, resultOf(err))
	if err != nil {
		h.fail(r, action, err, attrs...)
	}
}

func (h *Handlers) fail(r *http.Request, action string, err error, attrs ...any) {
	attrs = append([]any{"action", action, "user_id", userID(r), "error", err}, attrs...)

	var backendErr *sessions.BackendError
	if errors.As(err, &backendErr) {
		slog.ErrorContext(r.Context(), "session action failed", attrs...)
		return
	}
	slog.WarnContext(r.Context(), "session action rejected", attrs...)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, sessions.ErrInvalidInput), errors.Is(err, sessions.ErrValidation):
		return metrics.ResultInvalid
	case errors.Is(err, sessions.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, sessions.ErrUnauthenticated):
		return metrics.ResultUnauthorized
	default:
		return metrics.ResultError
	}
}

func (h *Handlers) setVerifierCookie(w http.ResponseWriter, verifier string) {
	http.SetCookie(w, &http.Cookie{
		Name:     verifierCookieName,
		Value:    verifier,
		Path:     "/auth/callback",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(verifierTTL.Seconds()),
	})
}

func (h *Handlers) clearVerifierCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     verifierCookieName,
		Value:    "",
		Path:     "/auth/callback",
		HttpOnly: true,
		Secure:   h.secure,
		MaxAge:   -1,
	})
}

// safeNext keeps post-login redirects on this site. Browsers drop tabs and
// newlines from a Location, so any control character is rejected.
func safeNext(next string) string {
	const fallback = "/sessions"

	if next == "" || strings.ContainsFunc(next, unicode.IsControl) {
		return fallback
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
