package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserSessionRepository handles login session database operations.
type UserSessionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new login session.
func (r *UserSessionRepository) Create(ctx context.Context, session *UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, email, access_token, refresh_token, token_expiry, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Email,
		session.AccessToken,
		session.RefreshToken,
		session.TokenExpiry,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user session: %w", err)
	}
	return nil
}

// Get retrieves an unexpired login session by ID.
func (r *UserSessionRepository) Get(ctx context.Context, id string) (*UserSession, error) {
	query := `
		SELECT id, user_id, email, access_token, refresh_token, token_expiry, created_at, expires_at
		FROM user_sessions
		WHERE id = $1 AND expires_at > NOW()
	`
	var session UserSession
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Email,
		&session.AccessToken,
		&session.RefreshToken,
		&session.TokenExpiry,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user session: %w", err)
	}
	return &session, nil
}

// Delete removes a login session by ID.
func (r *UserSessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM user_sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting user session: %w", err)
	}
	return nil
}

// UpdateToken updates the OAuth tokens for a login session.
func (r *UserSessionRepository) UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	query := `
		UPDATE user_sessions
		SET access_token = $2, refresh_token = $3, token_expiry = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, accessToken, refreshToken, expiry)
	if err != nil {
		return fmt.Errorf("updating user session token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes all expired login sessions.
func (r *UserSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at <= NOW()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting expired user sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
