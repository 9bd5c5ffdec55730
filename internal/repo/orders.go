package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/salesapp/sales-management/internal/models"
)

// CreateOrder inserts the order row together with its line items. Callers
// compose this with stock adjustments inside a single Transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, wrapFind(err)
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status string, customerID uint, offset, limit int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Session(&gorm.Session{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if customerID != 0 {
		q = q.Where("customer_id = ?", customerID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Session(&gorm.Session{}).Preload("Items").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) UpdateOrderPayment(ctx context.Context, id uint, paymentStatus, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_status": paymentStatus,
			"status":         status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
