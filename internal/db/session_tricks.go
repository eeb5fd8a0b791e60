package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionTrickRepository handles session_tricks database operations.
type SessionTrickRepository struct {
	pool *pgxpool.Pool
}

// Attach inserts a trick into a session at the next order index.
func (r *SessionTrickRepository) Attach(ctx context.Context, userID string, st *SessionTrick) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The row lock taken here serializes attachments to the same session.
	seqQuery := `
		UPDATE sessions
		SET trick_seq = trick_seq + 1
		WHERE id = $1 AND user_id = $2
		RETURNING trick_seq
	`
	err = tx.QueryRow(ctx, seqQuery, st.SessionID, userID).Scan(&st.OrderIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("advancing trick sequence: %w", err)
	}

	insertQuery := `
		INSERT INTO session_tricks (session_id, trick_id, order_index, target_attempts, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRow(ctx, insertQuery,
		st.SessionID,
		st.TrickID,
		st.OrderIndex,
		st.TargetAttempts,
		st.Notes,
	).Scan(&st.ID)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("inserting session trick: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListForSession retrieves the tricks of a session joined with the catalog,
// ordered by order index.
func (r *SessionTrickRepository) ListForSession(ctx context.Context, userID string, sessionID uuid.UUID) ([]SessionTrick, error) {
	query := `
		SELECT st.id, st.session_id, st.trick_id, st.order_index,
		       st.target_attempts, st.landed_attempts, st.notes, st.completed_at,
		       t.id, t.name, t.obstacle, t.stance, t.difficulty
		FROM session_tricks st
		JOIN sessions s ON s.id = st.session_id
		JOIN tricks t ON t.id = st.trick_id
		WHERE st.session_id = $1 AND s.user_id = $2
		ORDER BY st.order_index ASC
	`
	rows, err := r.pool.Query(ctx, query, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying session tricks: %w", err)
	}
	defer rows.Close()

	var result []SessionTrick
	for rows.Next() {
		var st SessionTrick
		var t Trick
		if err := rows.Scan(
			&st.ID,
			&st.SessionID,
			&st.TrickID,
			&st.OrderIndex,
			&st.TargetAttempts,
			&st.LandedAttempts,
			&st.Notes,
			&st.CompletedAt,
			&t.ID,
			&t.Name,
			&t.Obstacle,
			&t.Stance,
			&t.Difficulty,
		); err != nil {
			return nil, fmt.Errorf("scanning session trick: %w", err)
		}
		st.Trick = &t
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session tricks: %w", err)
	}
	return result, nil
}

// Update overwrites the editable fields of a session trick.
func (r *SessionTrickRepository) Update(ctx context.Context, userID string, sessionID uuid.UUID, id int64, fields SessionTrickFields) error {
	query := `
		UPDATE session_tricks st
		SET target_attempts = $4, landed_attempts = $5, notes = $6
		FROM sessions s
		WHERE st.id = $1 AND st.session_id = $2
		  AND s.id = st.session_id AND s.user_id = $3
	`
	result, err := r.pool.Exec(ctx, query,
		id,
		sessionID,
		userID,
		fields.TargetAttempts,
		fields.LandedAttempts,
		fields.Notes,
	)
	if err != nil {
		return fmt.Errorf("updating session trick: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkComplete stamps completed_at, keeping an existing timestamp.
func (r *SessionTrickRepository) MarkComplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64, at time.Time) error {
	query := `
		UPDATE session_tricks st
		SET completed_at = COALESCE(st.completed_at, $4)
		FROM sessions s
		WHERE st.id = $1 AND st.session_id = $2
		  AND s.id = st.session_id AND s.user_id = $3
	`
	result, err := r.pool.Exec(ctx, query, id, sessionID, userID, at)
	if err != nil {
		return fmt.Errorf("completing session trick: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkIncomplete clears completed_at.
func (r *SessionTrickRepository) MarkIncomplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error {
	query := `
		UPDATE session_tricks st
		SET completed_at = NULL
		FROM sessions s
		WHERE st.id = $1 AND st.session_id = $2
		  AND s.id = st.session_id AND s.user_id = $3
	`
	result, err := r.pool.Exec(ctx, query, id, sessionID, userID)
	if err != nil {
		return fmt.Errorf("reopening session trick: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a trick from a session. Remaining order indexes are kept.
func (r *SessionTrickRepository) Delete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error {
	query := `
		DELETE FROM session_tricks st
		USING sessions s
		WHERE st.id = $1 AND st.session_id = $2
		  AND s.id = st.session_id AND s.user_id = $3
	`
	result, err := r.pool.Exec(ctx, query, id, sessionID, userID)
	if err != nil {
		return fmt.Errorf("deleting session trick: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
