package localdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/justestif/skate-sessions/internal/db"
)

type sessionRepo struct {
	gorm *gorm.DB
}

func (r *sessionRepo) Create(ctx context.Context, session *db.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()

	row := toSessionRow(session)
	if err := r.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, userID string, id uuid.UUID) (*db.Session, error) {
	var row sessionRow
	err := r.gorm.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session, err := toSession(row)
	if err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepo) ListForUser(ctx context.Context, userID string) ([]db.SessionSummary, error) {
	var rows []summaryRow
	err := r.gorm.WithContext(ctx).
		Table("sessions AS s").
		Select(`s.id, s.user_id, s.title, s.spot_name, s.planned_for_date, s.created_at,
			COUNT(st.id) AS trick_count, COUNT(st.completed_at) AS completed_count`).
		Joins("LEFT JOIN session_tricks st ON st.session_id = s.id").
		Where("s.user_id = ?", userID).
		Group("s.id").
		Order("s.created_at DESC, s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying user sessions: %w", err)
	}

	sessions := make([]db.SessionSummary, 0, len(rows))
	for _, row := range rows {
		session, err := toSession(row.session())
		if err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		sessions = append(sessions, db.SessionSummary{
			Session:        session,
			TrickCount:     row.TrickCount,
			CompletedCount: row.CompletedCount,
		})
	}
	return sessions, nil
}

func (r *sessionRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return r.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id.String(), userID).Delete(&sessionRow{})
		if result.Error != nil {
			return fmt.Errorf("deleting session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return db.ErrNotFound
		}

		// The foreign key cascades this already when the pragma is in
		// effect; clearing explicitly keeps the result independent of it.
		if err := tx.Where("session_id = ?", id.String()).Delete(&sessionTrickRow{}).Error; err != nil {
			return fmt.Errorf("deleting session tricks: %w", err)
		}
		return nil
	})
}
