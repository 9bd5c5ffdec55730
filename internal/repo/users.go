package repo

import (
	"context"
	"time"

	"github.com/salesapp/sales-management/internal/models"
)

// FindUserByIdentifier matches either the username or the email column.
// In the ambiguous both-match case an active row wins over an inactive
// one, lowest id breaks the remaining tie; the unique indexes on both
// columns keep new data from ever producing one.
func (r *GormRepo) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		Order("is_active DESC, id ASC").
		First(&user).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrapFind(err)
	}
	return &user, nil
}

// TouchLastLogin is best-effort: callers ignore its error on the login path.
func (r *GormRepo) TouchLastLogin(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_login_at": now, "updated_at": now}).Error
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": time.Now().UTC()}).Error
}

func (r *GormRepo) UpdateUserProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}
