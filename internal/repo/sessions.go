package repo

import (
	"context"
	"time"

	"github.com/salesapp/sales-management/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.UserSession{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}).Error
}

func (r *GormRepo) FindSession(ctx context.Context, token string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.DB.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &session, nil
}

func (r *GormRepo) DeleteSession(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.UserSession{}).Error
}

// DeleteSessionsForUser revokes every session of a principal; used by
// password reset to force re-login everywhere.
func (r *GormRepo) DeleteSessionsForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.UserSession{}).Error
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error {
	return r.DB.WithContext(ctx).Create(reset).Error
}

// FindValidPasswordReset returns the unused, unexpired reset matching the
// email + OTP pair.
func (r *GormRepo) FindValidPasswordReset(ctx context.Context, email, otp string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.DB.WithContext(ctx).
		Where("email = ? AND otp = ? AND used = ? AND expires_at > ?", email, otp, false, time.Now().UTC()).
		First(&reset).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &reset, nil
}

func (r *GormRepo) MarkPasswordResetUsed(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ?", id).
		UpdateColumn("used", true).Error
}

func (r *GormRepo) DeletePasswordResetsForEmail(ctx context.Context, email string) error {
	return r.DB.WithContext(ctx).
		Where("email = ?", email).
		Delete(&models.PasswordReset{}).Error
}

func (r *GormRepo) DeleteExpiredPasswordResets(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&models.PasswordReset{})
	return res.RowsAffected, res.Error
}
