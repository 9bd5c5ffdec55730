package repo

import (
	"context"

	"github.com/salesapp/sales-management/internal/models"
)

func (r *GormRepo) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, wrapFind(err)
	}
	return &customer, nil
}

func (r *GormRepo) ListCustomers(ctx context.Context, offset, limit int) ([]models.Customer, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("is_active = ?", true).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *GormRepo) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.DB.WithContext(ctx).Create(customer).Error
}

func (r *GormRepo) DeleteCustomer(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
