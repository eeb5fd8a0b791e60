package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/justestif/skate-sessions/internal/auth"
	"github.com/justestif/skate-sessions/internal/db"
	"github.com/justestif/skate-sessions/internal/localdb"
	"github.com/justestif/skate-sessions/internal/sessions"
	assets "github.com/justestif/skate-sessions/web"
)

const testBaseURL = "http://skate.test"

// mockAuth is a hand-written AuthClient.
type mockAuth struct {
	mu sync.Mutex

	magicEmail     string
	magicRedirect  string
	magicChallenge string
	magicErr       error

	exchangeVerifier string
	exchangeErr      error

	refreshCalls int
	refreshErr   error

	signOutCalls int
	pingErr      error
}

func (m *mockAuth) SendMagicLink(_ context.Context, email, redirectTo, codeChallenge string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.magicEmail, m.magicRedirect, m.magicChallenge = email, redirectTo, codeChallenge
	return m.magicErr
}

func (m *mockAuth) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	return "https://auth.test/authorize?provider=" + provider + "&redirect_to=" + url.QueryEscape(redirectTo)
}

func (m *mockAuth) ExchangeCode(_ context.Context, code, verifier string) (*oauth2.Token, *auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchangeVerifier = verifier
	if m.exchangeErr != nil {
		return nil, nil, m.exchangeErr
	}
	token := &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
	return token, &auth.User{ID: "user-1", Email: "skater@example.com"}, nil
}

func (m *mockAuth) RefreshToken(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &oauth2.Token{AccessToken: "refreshed", RefreshToken: refreshToken + "-2", Expiry: time.Now().Add(time.Hour)}, nil
}

func (m *mockAuth) GetUser(_ context.Context, accessToken string) (*auth.User, error) {
	return &auth.User{ID: "user-1", Email: "fresh@example.com"}, nil
}

func (m *mockAuth) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	return nil
}

func (m *mockAuth) Ping(_ context.Context) error {
	return m.pingErr
}

type testEnv struct {
	server  *Server
	auth    *mockAuth
	logins  *SessionStore
	store   db.Store
	service *sessions.Service
	trickID int64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := localdb.Open(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if _, err := store.Tricks().Upsert(ctx, []db.Trick{{Name: "Kickflip", Obstacle: "flat", Stance: "regular", Difficulty: 3}}); err != nil {
		t.Fatalf("Failed to seed tricks: %v", err)
	}
	catalog, err := store.Tricks().List(ctx)
	if err != nil {
		t.Fatalf("Failed to list tricks: %v", err)
	}

	templates, err := assets.Templates()
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	static, err := assets.Static()
	if err != nil {
		t.Fatalf("Static() error = %v", err)
	}

	mock := &mockAuth{}
	logins := NewSessionStore(false)
	service := sessions.New(store)

	server, err := NewServer(ServerConfig{
		Addr:        "127.0.0.1:0",
		BaseURL:     testBaseURL,
		TemplatesFS: templates,
		StaticFS:    static,
		Auth:        mock,
		Logins:      logins,
		Service:     service,
		Store:       store,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	return &testEnv{
		server:  server,
		auth:    mock,
		logins:  logins,
		store:   store,
		service: service,
		trickID: catalog[0].ID,
	}
}

// signIn creates a login session for userID and returns its cookie.
func (e *testEnv) signIn(t *testing.T, userID string, expiry time.Time) *http.Cookie {
	t.Helper()
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}
	session, err := e.logins.Create(context.Background(), token, &auth.User{ID: userID, Email: userID + "@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: session.ID}
}

func (e *testEnv) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createSession(t *testing.T, userID, title string) uuid.UUID {
	t.Helper()
	session, err := e.service.CreateSession(context.Background(), userID, sessions.CreateInput{Title: title})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return session.ID
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantLocation string) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Errorf("status = %d, want %d", rec.Code, wantStatus)
	}
	if got := rec.Header().Get("Location"); got != wantLocation {
		t.Errorf("Location = %q, want %q", got, wantLocation)
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignedInRoutesRequireUser(t *testing.T) {
	env := setupTestEnv(t)
	id := uuid.NewString()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/me"},
		{http.MethodGet, "/sessions"},
		{http.MethodPost, "/sessions"},
		{http.MethodGet, "/sessions/" + id},
		{http.MethodPost, "/sessions/" + id + "/delete"},
		{http.MethodPost, "/sessions/" + id + "/tricks"},
		{http.MethodPost, "/sessions/" + id + "/tricks/1"},
		{http.MethodPost, "/sessions/" + id + "/tricks/1/completion"},
		{http.MethodPost, "/sessions/" + id + "/tricks/1/delete"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, url.Values{})
			assertRedirect(t, rec, http.StatusSeeOther, "/login")
		})
	}
}

func TestHome(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/login"`) {
		t.Error("home page should link to login")
	}

	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))
	assertRedirect(t, env.do(http.MethodGet, "/", nil, cookie), http.StatusSeeOther, "/sessions")
}

func TestLoginPage(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		path string
		want string
	}{
		{path: "/login", want: "Send magic link"},
		{path: "/login?error=auth", want: "Sign-in failed"},
		{path: "/login?sent=1", want: "Magic link sent"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body should contain %q", tt.want)
			}
		})
	}
}

func TestSendMagicLink(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodPost, "/login/magic-link", url.Values{"email": {" skater@example.com "}})
	assertRedirect(t, rec, http.StatusSeeOther, "/login?sent=1")

	if env.auth.magicEmail != "skater@example.com" {
		t.Errorf("email = %q", env.auth.magicEmail)
	}
	if env.auth.magicRedirect != testBaseURL+"/auth/callback" {
		t.Errorf("redirect = %q", env.auth.magicRedirect)
	}

	verifier := findCookie(rec, verifierCookieName)
	if verifier == nil || !verifier.HttpOnly {
		t.Fatal("expected HttpOnly PKCE verifier cookie")
	}
	if auth.Challenge(verifier.Value) != env.auth.magicChallenge {
		t.Error("challenge should be derived from the verifier cookie")
	}

	env.auth.magicErr = errors.New("smtp down")
	rec = env.do(http.MethodPost, "/login/magic-link", url.Values{"email": {"skater@example.com"}})
	assertRedirect(t, rec, http.StatusSeeOther, "/login?error=auth")

	rec = env.do(http.MethodPost, "/login/magic-link", url.Values{"email": {""}})
	assertRedirect(t, rec, http.StatusSeeOther, "/login?error=auth")
}

func TestProviderLogin(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodGet, "/login/google", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://auth.test/authorize?provider=google") {
		t.Errorf("Location = %q", location)
	}
	if !strings.Contains(location, url.QueryEscape(testBaseURL+"/auth/callback?next=")) {
		t.Errorf("Location should carry the callback URL: %q", location)
	}
	if findCookie(rec, verifierCookieName) == nil {
		t.Error("expected PKCE verifier cookie")
	}

	if rec := env.do(http.MethodGet, "/login/myspace", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", rec.Code)
	}
}

func TestCallback(t *testing.T) {
	verifier := &http.Cookie{Name: verifierCookieName, Value: "the-verifier"}

	t.Run("no code", func(t *testing.T) {
		env := setupTestEnv(t)
		assertRedirect(t, env.do(http.MethodGet, "/auth/callback", nil), http.StatusSeeOther, "/login")
	})

	t.Run("missing verifier", func(t *testing.T) {
		env := setupTestEnv(t)
		assertRedirect(t, env.do(http.MethodGet, "/auth/callback?code=abc", nil), http.StatusSeeOther, "/login?error=auth")
	})

	t.Run("exchange fails", func(t *testing.T) {
		env := setupTestEnv(t)
		env.auth.exchangeErr = auth.ErrInvalidGrant
		rec := env.do(http.MethodGet, "/auth/callback?code=abc", nil, verifier)
		assertRedirect(t, rec, http.StatusSeeOther, "/login?error=auth")
		if findCookie(rec, sessionCookieName) != nil {
			t.Error("no session cookie expected on failure")
		}
	})

	t.Run("success", func(t *testing.T) {
		env := setupTestEnv(t)
		rec := env.do(http.MethodGet, "/auth/callback?code=abc&next=/me", nil, verifier)
		assertRedirect(t, rec, http.StatusSeeOther, "/me")

		if env.auth.exchangeVerifier != "the-verifier" {
			t.Errorf("verifier = %q", env.auth.exchangeVerifier)
		}
		cookie := findCookie(rec, sessionCookieName)
		if cookie == nil || cookie.Value == "" {
			t.Fatal("expected session cookie")
		}
		session := env.logins.Get(context.Background(), cookie.Value)
		if session == nil || session.UserID != "user-1" || session.Token.AccessToken != "access-abc" {
			t.Errorf("unexpected login session %+v", session)
		}
	})

	t.Run("offsite next", func(t *testing.T) {
		env := setupTestEnv(t)
		rec := env.do(http.MethodGet, "/auth/callback?code=abc&next=//evil.test", nil, verifier)
		assertRedirect(t, rec, http.StatusSeeOther, "/sessions")
	})

	t.Run("next with tab", func(t *testing.T) {
		env := setupTestEnv(t)
		rec := env.do(http.MethodGet, "/auth/callback?code=abc&next=/%09/evil.test", nil, verifier)
		assertRedirect(t, rec, http.StatusSeeOther, "/sessions")
	})
}

func TestLogout(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))

	rec := env.do(http.MethodPost, "/auth/logout", url.Values{}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, "/login")

	if env.auth.signOutCalls != 1 {
		t.Errorf("SignOut called %d times, want 1", env.auth.signOutCalls)
	}
	if env.logins.Get(context.Background(), cookie.Value) != nil {
		t.Error("login session should be deleted")
	}
	if cleared := findCookie(rec, sessionCookieName); cleared == nil || cleared.MaxAge >= 0 {
		t.Error("session cookie should be cleared")
	}
}

func TestMe(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))

	rec := env.do(http.MethodGet, "/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fresh@example.com") {
		t.Error("account page should show the email from the auth service")
	}
}

func TestGateRefreshesExpiredToken(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t, "user-1", time.Now().Add(-time.Minute))

	rec := env.do(http.MethodGet, "/sessions", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.auth.refreshCalls != 1 {
		t.Errorf("RefreshToken called %d times, want 1", env.auth.refreshCalls)
	}

	session := env.logins.Get(context.Background(), cookie.Value)
	if session == nil || session.Token.AccessToken != "refreshed" || session.Token.RefreshToken != "refresh-2" {
		t.Errorf("refreshed token not stored: %+v", session)
	}

	// A fresh token is used as is.
	env.do(http.MethodGet, "/sessions", nil, cookie)
	if env.auth.refreshCalls != 1 {
		t.Errorf("RefreshToken called %d times, want 1", env.auth.refreshCalls)
	}
}

func TestGateDropsSessionWhenRefreshFails(t *testing.T) {
	env := setupTestEnv(t)
	env.auth.refreshErr = auth.ErrInvalidGrant
	cookie := env.signIn(t, "user-1", time.Now().Add(-time.Minute))

	rec := env.do(http.MethodGet, "/sessions", nil, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, "/login")

	if env.logins.Get(context.Background(), cookie.Value) != nil {
		t.Error("login session should be deleted after a failed refresh")
	}
}

func TestCreateSessionHandler(t *testing.T) {
	env := setupTestEnv(t)
	env.server.handlers.now = func() time.Time { return time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC) }
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))

	tests := []struct {
		name        string
		form        url.Values
		wantStored  bool
		wantPlanned string
	}{
		{
			name:        "tomorrow",
			form:        url.Values{"title": {"New year ledges"}, "planned_date_mode": {"tomorrow"}},
			wantStored:  true,
			wantPlanned: "2025-01-01",
		},
		{
			name:        "custom",
			form:        url.Values{"title": {"Bowl"}, "planned_date_mode": {"custom"}, "custom_date": {"2025-02-14"}},
			wantStored:  true,
			wantPlanned: "2025-02-14",
		},
		{
			name:        "custom not chosen",
			form:        url.Values{"title": {"Someday"}, "planned_date_mode": {"custom"}},
			wantStored:  true,
			wantPlanned: "",
		},
		{
			name:        "posted date wins",
			form:        url.Values{"title": {"Plaza"}, "planned_for_date": {"2025-06-21"}, "planned_date_mode": {"today"}},
			wantStored:  true,
			wantPlanned: "2025-06-21",
		},
		{
			name:        "title only",
			form:        url.Values{"title": {"Whenever"}},
			wantStored:  true,
			wantPlanned: "",
		},
		{
			name:       "blank title",
			form:       url.Values{"title": {"   "}, "planned_date_mode": {"today"}},
			wantStored: false,
		},
		{
			name:       "bad date",
			form:       url.Values{"title": {"Broken"}, "planned_for_date": {"31/12/2024"}},
			wantStored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := env.service.ListSessions(context.Background(), "user-1")

			rec := env.do(http.MethodPost, "/sessions", tt.form, cookie)
			assertRedirect(t, rec, http.StatusSeeOther, "/sessions")

			after, err := env.service.ListSessions(context.Background(), "user-1")
			if err != nil {
				t.Fatalf("ListSessions() error = %v", err)
			}
			if stored := len(after) == len(before)+1; stored != tt.wantStored {
				t.Fatalf("stored = %v, want %v", stored, tt.wantStored)
			}
			if !tt.wantStored {
				return
			}

			var created *db.SessionSummary
			for i := range after {
				if after[i].Title == tt.form.Get("title") {
					created = &after[i]
				}
			}
			if created == nil {
				t.Fatalf("session %q not found", tt.form.Get("title"))
			}
			got := ""
			if created.PlannedForDate != nil {
				got = created.PlannedForDate.Format(db.DateLayout)
			}
			if got != tt.wantPlanned {
				t.Errorf("planned date = %q, want %q", got, tt.wantPlanned)
			}
		})
	}
}

func TestSessionPages(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))
	other := env.signIn(t, "user-2", time.Now().Add(time.Hour))
	id := env.createSession(t, "user-1", "Ledge day")

	rec := env.do(http.MethodGet, "/sessions", nil, cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ledge day") {
		t.Errorf("list: status %d, title missing", rec.Code)
	}

	rec = env.do(http.MethodGet, "/sessions", nil, other)
	if strings.Contains(rec.Body.String(), "Ledge day") {
		t.Error("other users must not see the session")
	}

	rec = env.do(http.MethodGet, "/sessions/"+id.String(), nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Kickflip") {
		t.Error("detail page should offer the catalog")
	}

	if rec := env.do(http.MethodGet, "/sessions/"+id.String(), nil, other); rec.Code != http.StatusNotFound {
		t.Errorf("other user status = %d, want 404", rec.Code)
	}
	assertRedirect(t, env.do(http.MethodGet, "/sessions/not-a-uuid", nil, cookie), http.StatusSeeOther, "/sessions")
}

func TestSessionTrickActions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))
	id := env.createSession(t, "user-1", "Flatground")
	detail := "/sessions/" + id.String()
	trickID := strconv.FormatInt(env.trickID, 10)

	// Attach
	rec := env.do(http.MethodPost, detail+"/tricks", url.Values{"trick_id": {trickID}, "target_attempts": {"5"}}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, detail)

	tricks, err := env.service.ListSessionTricks(ctx, "user-1", id)
	if err != nil || len(tricks) != 1 {
		t.Fatalf("expected one attached trick, got %d (%v)", len(tricks), err)
	}
	st := tricks[0]
	entry := detail + "/tricks/" + strconv.FormatInt(st.ID, 10)

	// Rejected attach still lands on the session page
	rec = env.do(http.MethodPost, detail+"/tricks", url.Values{"trick_id": {"kickflip"}}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, detail)

	// Unparseable session id falls back to the list
	rec = env.do(http.MethodPost, "/sessions/nope/tricks", url.Values{"trick_id": {trickID}}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, "/sessions")

	// Update
	rec = env.do(http.MethodPost, entry, url.Values{"target_attempts": {"8"}, "landed_attempts": {"3"}, "notes": {"pop harder"}}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, detail)

	// Complete
	rec = env.do(http.MethodPost, entry+"/completion", url.Values{"desired": {"complete"}}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, detail)

	tricks, _ = env.service.ListSessionTricks(ctx, "user-1", id)
	got := tricks[0]
	if got.TargetAttempts == nil || *got.TargetAttempts != 8 || got.LandedAttempts == nil || *got.LandedAttempts != 3 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("trick should be completed")
	}

	page := env.do(http.MethodGet, detail, nil, cookie).Body.String()
	if !strings.Contains(page, "pop harder") || !strings.Contains(page, "completed") {
		t.Error("detail page should show notes and the completed state")
	}

	// Remove
	rec = env.do(http.MethodPost, entry+"/delete", url.Values{}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, detail)

	tricks, _ = env.service.ListSessionTricks(ctx, "user-1", id)
	if len(tricks) != 0 {
		t.Errorf("expected trick to be removed, %d left", len(tricks))
	}
}

func TestDeleteSessionHandler(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t, "user-1", time.Now().Add(time.Hour))
	other := env.signIn(t, "user-2", time.Now().Add(time.Hour))
	id := env.createSession(t, "user-1", "Doomed")

	rec := env.do(http.MethodPost, "/sessions/"+id.String()+"/delete", url.Values{}, other)
	assertRedirect(t, rec, http.StatusSeeOther, "/sessions")
	if _, err := env.service.GetSession(context.Background(), "user-1", id.String()); err != nil {
		t.Fatalf("other user must not delete the session: %v", err)
	}

	rec = env.do(http.MethodPost, "/sessions/"+id.String()+"/delete", url.Values{}, cookie)
	assertRedirect(t, rec, http.StatusSeeOther, "/sessions")
	if _, err := env.service.GetSession(context.Background(), "user-1", id.String()); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("GetSession() error = %v, want ErrNotFound", err)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "ok" || body.Database != "ok" || body.Auth != "ok" {
		t.Errorf("unexpected health %+v", body)
	}

	env.auth.pingErr = errors.New("unreachable")
	rec = env.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/static/app.css", "/static/app.js"} {
		if rec := env.do(http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                "/sessions",
		"/me":             "/me",
		"/sessions/abc":   "/sessions/abc",
		"https://evil.io": "/sessions",
		"//evil.io":       "/sessions",
		"/\\evil.io":      "/sessions",
		"sessions":        "/sessions",
		"/\t/evil.io":     "/sessions",
		"/\n/evil.io":     "/sessions",
		"/\r\n//evil.io":  "/sessions",
		"/me\x00":         "/sessions",
		"/me\x7f":         "/sessions",
		"/sessions?x=1":   "/sessions?x=1",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
