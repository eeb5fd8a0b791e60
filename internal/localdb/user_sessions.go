package localdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/justestif/skate-sessions/internal/db"
)

type userSessionRepo struct {
	gorm *gorm.DB
}

func (r *userSessionRepo) Create(ctx context.Context, session *db.UserSession) error {
	row := userSessionRow{
		ID:           session.ID,
		UserID:       session.UserID,
		Email:        session.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenExpiry:  session.TokenExpiry.UnixNano(),
		CreatedAt:    session.CreatedAt.UnixNano(),
		ExpiresAt:    session.ExpiresAt.UnixNano(),
	}
	if err := r.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting user session: %w", err)
	}
	return nil
}

func (r *userSessionRepo) Get(ctx context.Context, id string) (*db.UserSession, error) {
	var row userSessionRow
	err := r.gorm.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, time.Now().UnixNano()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user session: %w", err)
	}
	return toUserSession(row), nil
}

func (r *userSessionRepo) Delete(ctx context.Context, id string) error {
	if err := r.gorm.WithContext(ctx).Where("id = ?", id).Delete(&userSessionRow{}).Error; err != nil {
		return fmt.Errorf("deleting user session: %w", err)
	}
	return nil
}

func (r *userSessionRepo) UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	result := r.gorm.WithContext(ctx).
		Model(&userSessionRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"token_expiry":  expiry.UnixNano(),
		})
	return rowsAffected(result, "updating user session token")
}

func (r *userSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.gorm.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UnixNano()).
		Delete(&userSessionRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired user sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
