package repo

import (
	"context"

	"github.com/salesapp/sales-management/internal/models"
)

func (r *GormRepo) FindVoucher(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.DB.WithContext(ctx).Where("code = ?", code).First(&voucher).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &voucher, nil
}

func (r *GormRepo) CreateVoucher(ctx context.Context, voucher *models.Voucher) error {
	return r.DB.WithContext(ctx).Create(voucher).Error
}
