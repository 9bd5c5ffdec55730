package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/models"
	"github.com/salesapp/sales-management/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")                // 400
	ErrCustomerNotFound  = errors.New("customer not found")        // 404
	ErrProductNotFound   = errors.New("product not found")         // 404
	ErrOrderNotFound     = errors.New("order not found")           // 404
	ErrInsufficientStock = errors.New("insufficient stock")        // 409
	ErrInvalidTransition = errors.New("invalid status transition") // 409
)

type LineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateInput struct {
	CustomerID  uint       `json:"customer_id"`
	Items       []LineItem `json:"items"`
	VoucherCode string     `json:"voucher_code"`
}

// Manager owns the order lifecycle: creation with stock reservation,
// cancellation with stock restoration, and the payment/fulfillment
// transitions.
type Manager struct {
	Repo *repo.GormRepo

	now func() time.Time
}

func NewManager(r *repo.GormRepo) *Manager {
	return &Manager{
		Repo: r,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the manager clock for deterministic tests.
func (m *Manager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// Create reserves stock and inserts the order with its line items in one
// transaction. Each item captures the product's current price; the
// conditional stock decrement serializes concurrent orders per product,
// and any failure rolls the whole order back.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	for _, item := range in.Items {
		if item.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	customer, err := m.Repo.FindCustomer(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if !customer.IsActive {
		return nil, ErrCustomerNotFound
	}

	var order *models.Order
	err = m.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var subtotal float64
		items := make([]models.OrderItem, 0, len(in.Items))

		for _, item := range in.Items {
			product, err := tx.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("%w: id %d", ErrProductNotFound, item.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: id %d", ErrProductNotFound, item.ProductID)
			}

			if err := tx.AdjustStock(ctx, product.ID, -item.Quantity); err != nil {
				if errors.Is(err, repo.ErrConflict) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
				}
				return err
			}

			subtotal += product.Price * float64(item.Quantity)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
		}

		discount, voucherCode := m.applyVoucher(ctx, tx, in.VoucherCode, subtotal)

		order = &models.Order{
			CustomerID:     in.CustomerID,
			Status:         models.OrderStatusPending,
			PaymentStatus:  models.PaymentStatusUnpaid,
			TotalAmount:    subtotal - discount,
			DiscountAmount: discount,
			VoucherCode:    voucherCode,
			Items:          items,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_created", "order_id", order.ID, "customer_id", order.CustomerID, "total", order.TotalAmount)
	return order, nil
}

// applyVoucher resolves the discount for a subtotal. Inactive, expired or
// below-minimum vouchers are business conditions, not errors: the order
// proceeds at full price. The returned amount is stored once at creation
// and never recomputed.
func (m *Manager) applyVoucher(ctx context.Context, tx *repo.GormRepo, code string, subtotal float64) (float64, *string) {
	if code == "" {
		return 0, nil
	}
	l := logging.FromContext(ctx).With("svc", "order.voucher", "code", code)

	voucher, err := tx.FindVoucher(ctx, code)
	if err != nil {
		l.Warn("voucher_skipped", "reason", "not_found")
		return 0, nil
	}

	now := m.now()
	if !voucher.IsActive || now.Before(voucher.ValidFrom) || now.After(voucher.ValidTo) {
		l.Warn("voucher_skipped", "reason", "inactive_or_expired")
		return 0, nil
	}
	if subtotal < voucher.MinOrderTotal {
		l.Warn("voucher_skipped", "reason", "below_minimum")
		return 0, nil
	}

	var discount float64
	switch voucher.DiscountType {
	case models.DiscountTypePercentage:
		discount = subtotal * voucher.DiscountValue / 100
	case models.DiscountTypeFixed:
		discount = voucher.DiscountValue
	default:
		l.Warn("voucher_skipped", "reason", "unknown_type", "type", voucher.DiscountType)
		return 0, nil
	}

	if discount < 0 {
		return 0, nil
	}
	// Capped so the total never goes negative.
	if discount > subtotal {
		discount = subtotal
	}
	return discount, &voucher.Code
}

// Cancel restores each line item's quantity back onto its product and
// marks the order cancelled, all in one transaction. A second cancel
// fails with ErrInvalidTransition; the restoration happens exactly once.
func (m *Manager) Cancel(ctx context.Context, orderID uint) error {
	l := logging.FromContext(ctx).With("svc", "order.cancel", "order_id", orderID)

	return m.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(order.Status, models.OrderStatusCancelled) {
			return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, order.Status)
		}

		// Restore by recorded quantity, never by recomputing from the
		// total: price drift must not corrupt the stock count.
		for _, item := range order.Items {
			if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			return err
		}
		l.Info("order_cancelled")
		return nil
	})
}

// SetStatus advances the fulfillment status along the allowed
// transitions.
func (m *Manager) SetStatus(ctx context.Context, orderID uint, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if status == models.OrderStatusCancelled {
		return m.Cancel(ctx, orderID)
	}

	return m.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}
		return tx.UpdateOrderStatus(ctx, order.ID, status)
	})
}

// SetPaymentStatus accepts paid or unpaid. Marking a pending order paid
// auto-advances fulfillment to completed.
func (m *Manager) SetPaymentStatus(ctx context.Context, orderID uint, paymentStatus string) error {
	if paymentStatus != models.PaymentStatusPaid && paymentStatus != models.PaymentStatusUnpaid {
		return fmt.Errorf("%w: unknown payment status %q", ErrValidation, paymentStatus)
	}

	return m.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if IsTerminal(order.Status) {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
		}

		status := order.Status
		if paymentStatus == models.PaymentStatusPaid && order.Status == models.OrderStatusPending {
			status = models.OrderStatusCompleted
		}
		return tx.UpdateOrderPayment(ctx, order.ID, paymentStatus, status)
	})
}
