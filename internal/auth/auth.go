// Package auth is a client for the hosted auth service's REST API: magic
// links, OAuth provider sign-in with PKCE, token refresh and user lookup.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const userAgent = "skate-sessions/1.0"

// codeChallengeMethod is the PKCE method the auth service expects.
const codeChallengeMethod = "s256"

var (
	// ErrUnauthorized is returned when a token is missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidGrant is returned when an auth code or refresh token is rejected.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrRateLimited is returned when the auth service throttles the request.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Config holds the auth service connection settings.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client talks to the auth service.
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
	now            func() time.Time
}

// NewClient creates a new auth client from the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:        cfg.URL,
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// Challenge derives the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// SendMagicLink emails a sign-in link to email. The link lands on
// redirectTo with an auth code bound to codeChallenge.
func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error {
	body := map[string]any{
		"email":                 email,
		"create_user":           true,
		"code_challenge":        codeChallenge,
		"code_challenge_method": codeChallengeMethod,
	}
	query := url.Values{"redirect_to": {redirectTo}}

	if err := c.do(ctx, http.MethodPost, "/auth/v1/otp", query, c.anonKey, body, nil); err != nil {
		return fmt.Errorf("sending magic link: %w", err)
	}
	return nil
}

// AuthorizeURL returns the URL that starts sign-in with an OAuth provider.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	query := url.Values{
		"provider":              {provider},
		"redirect_to":           {redirectTo},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {codeChallengeMethod},
	}
	return c.baseURL + "/auth/v1/authorize?" + query.Encode()
}

// ExchangeCode trades an auth code and its PKCE verifier for a token.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*oauth2.Token, *User, error) {
	body := map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}
	token, user, err := c.grant(ctx, "pkce", body)
	if err != nil {
		return nil, nil, fmt.Errorf("exchanging code: %w", err)
	}
	return token, user, nil
}

// RefreshToken trades a refresh token for a new token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	token, _, err := c.grant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return token, nil
}

// GetUser returns the user owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &user); err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

// Ping checks that the backend REST API is reachable with the service key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.serviceRoleKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging backend: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinging backend: HTTP %d", resp.StatusCode)
	}
	return nil
}

// tokenResponse is the body returned by the token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (c *Client) grant(ctx context.Context, grantType string, body any) (*oauth2.Token, *User, error) {
	var resp tokenResponse
	query := url.Values{"grant_type": {grantType}}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, c.anonKey, body, &resp); err != nil {
		return nil, nil, err
	}
	if resp.AccessToken == "" {
		return nil, nil, errors.New("token response without access token")
	}

	token := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		token.Expiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return token, resp.User, nil
}

// apiError covers the error shapes the auth service returns.
type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e apiError) message() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Error, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do sends a JSON request authorized with bearer and decodes a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		msg := apiErr.message()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return ErrRateLimited
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case apiErr.Error == "invalid_grant" || apiErr.ErrorCode == "bad_code_verifier" ||
			apiErr.ErrorCode == "flow_state_not_found" || apiErr.ErrorCode == "refresh_token_not_found":
			return fmt.Errorf("%w: %s", ErrInvalidGrant, msg)
		default:
			return fmt.Errorf("API error %d: %s", resp.StatusCode, msg)
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
