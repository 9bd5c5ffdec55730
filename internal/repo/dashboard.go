package repo

import (
	"context"
	"time"

	"github.com/salesapp/sales-management/internal/models"
)

type TopProduct struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	TotalSold int64   `json:"total_sold"`
	Revenue   float64 `json:"revenue"`
}

type Transaction struct {
	OrderID      uint      `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
}

type DashboardStats struct {
	Products           int64            `json:"products"`
	Customers          int64            `json:"customers"`
	Orders             int64            `json:"orders"`
	Revenue            float64          `json:"revenue"`
	OrdersByStatus     map[string]int64 `json:"orders_by_status"`
	TopProducts        []TopProduct     `json:"top_products"`
	RecentTransactions []Transaction    `json:"recent_transactions"`
}

// Stats computes the dashboard rollups. Read-only; revenue counts only
// orders that actually moved (delivered or shipped).
func (r *GormRepo) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{OrdersByStatus: map[string]int64{}}

	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).Count(&stats.Products).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("is_active = ?", true).Count(&stats.Customers).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Count(&stats.Orders).Error; err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status IN ?", []string{models.OrderStatusDelivered, models.OrderStatusShipped}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.Revenue).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	if err := r.DB.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id as product_id, products.name as name, SUM(order_items.quantity) as total_sold, SUM(order_items.quantity * order_items.unit_price) as revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("order_items.product_id, products.name").
		Order("total_sold DESC").
		Limit(5).
		Scan(&stats.TopProducts).Error; err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).
		Table("orders").
		Select("orders.id as order_id, customers.name as customer_name, orders.total_amount as amount, orders.status as status, orders.created_at as date").
		Joins("JOIN customers ON customers.id = orders.customer_id").
		Order("orders.created_at DESC").
		Limit(10).
		Scan(&stats.RecentTransactions).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
