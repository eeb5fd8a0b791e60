package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles skate session database operations.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new session, generating its ID if unset.
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, title, spot_name, planned_for_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.SpotName,
		session.PlannedForDate,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get retrieves a session owned by userID.
func (r *SessionRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error) {
	query := `
		SELECT id, user_id, title, spot_name, planned_for_date, created_at
		FROM sessions
		WHERE id = $1 AND user_id = $2
	`
	var session Session
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.SpotName,
		&session.PlannedForDate,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &session, nil
}

// ListForUser retrieves all sessions for a user with their trick counts,
// newest first.
func (r *SessionRepository) ListForUser(ctx context.Context, userID string) ([]SessionSummary, error) {
	query := `
		SELECT s.id, s.user_id, s.title, s.spot_name, s.planned_for_date, s.created_at,
		       COUNT(st.id), COUNT(st.completed_at)
		FROM sessions s
		LEFT JOIN session_tricks st ON st.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Title,
			&s.SpotName,
			&s.PlannedForDate,
			&s.CreatedAt,
			&s.TrickCount,
			&s.CompletedCount,
		); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session. Its session_tricks rows go with it through
// ON DELETE CASCADE.
func (r *SessionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	query := `DELETE FROM sessions WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
