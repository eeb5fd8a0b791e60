package localdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justestif/skate-sessions/internal/db"
)

type sessionTrickRepo struct {
	gorm *gorm.DB
}

// owned restricts a session_tricks query to one entry of a session owned by userID.
func owned(tx *gorm.DB, userID string, sessionID uuid.UUID, id int64) *gorm.DB {
	return tx.Where("id = ? AND session_id = ?", id, sessionID.String()).
		Where("session_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&sessionRow{}).Select("id").Where("user_id = ?", userID))
}

func (r *sessionTrickRepo) Attach(ctx context.Context, userID string, st *db.SessionTrick) error {
	return r.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&sessionRow{}).
			Where("id = ? AND user_id = ?", st.SessionID.String(), userID).
			UpdateColumn("trick_seq", gorm.Expr("trick_seq + 1"))
		if result.Error != nil {
			return fmt.Errorf("advancing trick sequence: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return db.ErrNotFound
		}

		var seq int
		if err := tx.Model(&sessionRow{}).
			Where("id = ?", st.SessionID.String()).
			Select("trick_seq").
			Row().Scan(&seq); err != nil {
			return fmt.Errorf("reading trick sequence: %w", err)
		}

		var tricks int64
		if err := tx.Model(&trickRow{}).Where("id = ?", st.TrickID).Count(&tricks).Error; err != nil {
			return fmt.Errorf("checking trick: %w", err)
		}
		if tricks == 0 {
			return db.ErrNotFound
		}

		row := sessionTrickRow{
			SessionID:      st.SessionID.String(),
			TrickID:        st.TrickID,
			OrderIndex:     seq,
			TargetAttempts: st.TargetAttempts,
			Notes:          st.Notes,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("inserting session trick: %w", err)
		}

		st.ID = row.ID
		st.OrderIndex = seq
		return nil
	})
}

func (r *sessionTrickRepo) ListForSession(ctx context.Context, userID string, sessionID uuid.UUID) ([]db.SessionTrick, error) {
	tx := r.gorm.WithContext(ctx)

	var rows []sessionTrickRow
	err := tx.Preload("Trick").
		Where("session_id = ?", sessionID.String()).
		Where("session_id IN (?)", tx.Model(&sessionRow{}).Select("id").Where("user_id = ?", userID)).
		Order("order_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying session tricks: %w", err)
	}

	result := make([]db.SessionTrick, 0, len(rows))
	for _, row := range rows {
		st, err := toSessionTrick(row)
		if err != nil {
			return nil, fmt.Errorf("decoding session trick: %w", err)
		}
		result = append(result, st)
	}
	return result, nil
}

func (r *sessionTrickRepo) Update(ctx context.Context, userID string, sessionID uuid.UUID, id int64, fields db.SessionTrickFields) error {
	tx := r.gorm.WithContext(ctx)
	result := owned(tx.Model(&sessionTrickRow{}), userID, sessionID, id).
		Updates(map[string]any{
			"target_attempts": fields.TargetAttempts,
			"landed_attempts": fields.LandedAttempts,
			"notes":           fields.Notes,
		})
	return rowsAffected(result, "updating session trick")
}

func (r *sessionTrickRepo) MarkComplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64, at time.Time) error {
	tx := r.gorm.WithContext(ctx)
	result := owned(tx.Model(&sessionTrickRow{}), userID, sessionID, id).
		UpdateColumn("completed_at", gorm.Expr("COALESCE(completed_at, ?)", at.UnixNano()))
	return rowsAffected(result, "completing session trick")
}

func (r *sessionTrickRepo) MarkIncomplete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error {
	tx := r.gorm.WithContext(ctx)
	result := owned(tx.Model(&sessionTrickRow{}), userID, sessionID, id).
		UpdateColumn("completed_at", nil)
	return rowsAffected(result, "reopening session trick")
}

func (r *sessionTrickRepo) Delete(ctx context.Context, userID string, sessionID uuid.UUID, id int64) error {
	tx := r.gorm.WithContext(ctx)
	result := owned(tx, userID, sessionID, id).Delete(&sessionTrickRow{})
	return rowsAffected(result, "deleting session trick")
}

// rowsAffected maps a write result to ErrNotFound when nothing matched.
func rowsAffected(result *gorm.DB, op string) error {
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return db.ErrNotFound
	}
	return nil
}
