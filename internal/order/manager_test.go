package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/salesapp/sales-management/internal/models"
	"github.com/salesapp/sales-management/internal/repo"
)

func newTestManager(t *testing.T) (*Manager, *repo.GormRepo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.Migrate(db))
	r := repo.New(db)
	return NewManager(r), r
}

func seedCustomer(t *testing.T, r *repo.GormRepo, active bool) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Name:     "Budi Santoso",
		Email:    "cust-" + uuid.NewString() + "@example.com",
		IsActive: active,
	}
	require.NoError(t, r.CreateCustomer(context.Background(), customer))
	return customer
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, r.CreateProduct(context.Background(), product))
	return product
}

func seedVoucher(t *testing.T, r *repo.GormRepo, v models.Voucher) *models.Voucher {
	t.Helper()

	if v.ValidFrom.IsZero() {
		v.ValidFrom = time.Now().UTC().Add(-time.Hour)
	}
	if v.ValidTo.IsZero() {
		v.ValidTo = time.Now().UTC().Add(time.Hour)
	}
	require.NoError(t, r.CreateVoucher(context.Background(), &v))
	return &v
}

func TestCreate(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, 200000.0, order.TotalAmount)
	assert.Zero(t, order.DiscountAmount)
	assert.Nil(t, order.VoucherCode)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 100000.0, order.Items[0].UnitPrice)

	got, err := r.FindProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
}

func TestCreate_CapturesPriceAtOrderTime(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	product := seedProduct(t, r, "monitor", 150000, 5)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	product.Price = 999999
	require.NoError(t, r.SaveProduct(ctx, product))

	got, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 150000.0, got.Items[0].UnitPrice)
	assert.Equal(t, 150000.0, got.TotalAmount)
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()
	customer := seedCustomer(t, r, true)

	_, err := m.Create(ctx, CreateInput{CustomerID: customer.ID})
	require.ErrorIs(t, err, ErrValidation)

	_, err = m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: 0, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreate_CustomerChecks(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	inactive := seedCustomer(t, r, false)
	product := seedProduct(t, r, "cable", 10000, 5)
	items := []LineItem{{ProductID: product.ID, Quantity: 1}}

	_, err := m.Create(ctx, CreateInput{CustomerID: 9999, Items: items})
	require.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = m.Create(ctx, CreateInput{CustomerID: inactive.ID, Items: items})
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCreate_ProductChecks(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	retired := seedProduct(t, r, "retired", 10000, 5)
	require.NoError(t, r.DeleteProduct(ctx, retired.ID))

	_, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: 9999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: retired.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	plenty := seedProduct(t, r, "plenty", 10000, 100)
	scarce := seedProduct(t, r, "scarce", 20000, 1)

	_, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items: []LineItem{
			{ProductID: plenty.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 2},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The first item's decrement rolled back with the order.
	got, err := r.FindProduct(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Stock)

	got, err = r.FindProduct(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	_, total, err := r.ListOrders(ctx, "", 0, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreate_PercentageVoucher(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)
	seedVoucher(t, r, models.Voucher{
		Code:          "DISC10",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		IsActive:      true,
	})

	order, err := m.Create(ctx, CreateInput{
		CustomerID:  customer.ID,
		Items:       []LineItem{{ProductID: laptop.ID, Quantity: 2}},
		VoucherCode: "DISC10",
	})
	require.NoError(t, err)

	assert.Equal(t, 20000.0, order.DiscountAmount)
	assert.Equal(t, 180000.0, order.TotalAmount)
	require.NotNil(t, order.VoucherCode)
	assert.Equal(t, "DISC10", *order.VoucherCode)
}

func TestCreate_FixedVoucherCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	cheap := seedProduct(t, r, "sticker", 5000, 10)
	seedVoucher(t, r, models.Voucher{
		Code:          "BIGFIX",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 50000,
		IsActive:      true,
	})

	order, err := m.Create(ctx, CreateInput{
		CustomerID:  customer.ID,
		Items:       []LineItem{{ProductID: cheap.ID, Quantity: 1}},
		VoucherCode: "BIGFIX",
	})
	require.NoError(t, err)

	// The discount never pushes the total below zero.
	assert.Equal(t, 5000.0, order.DiscountAmount)
	assert.Zero(t, order.TotalAmount)
}

func TestCreate_VoucherSkipped(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 50)

	seedVoucher(t, r, models.Voucher{
		Code:          "EXPIRED",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		IsActive:      true,
		ValidFrom:     time.Now().UTC().Add(-2 * time.Hour),
		ValidTo:       time.Now().UTC().Add(-time.Hour),
	})
	seedVoucher(t, r, models.Voucher{
		Code:          "MIN500K",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		MinOrderTotal: 500000,
		IsActive:      true,
	})
	seedVoucher(t, r, models.Voucher{
		Code:          "DISABLED",
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 10000,
		IsActive:      false,
	})

	for _, code := range []string{"EXPIRED", "MIN500K", "DISABLED", "NOSUCHCODE"} {
		order, err := m.Create(ctx, CreateInput{
			CustomerID:  customer.ID,
			Items:       []LineItem{{ProductID: laptop.ID, Quantity: 1}},
			VoucherCode: code,
		})
		require.NoError(t, err, "voucher %s must not fail the order", code)
		assert.Zero(t, order.DiscountAmount, "voucher %s", code)
		assert.Equal(t, 100000.0, order.TotalAmount, "voucher %s", code)
		assert.Nil(t, order.VoucherCode, "voucher %s", code)
	}
}

func TestCancel_RestoresStockOnce(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, m.Cancel(ctx, order.ID))

	got, err := r.FindProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	cancelled, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// A second cancel fails and must not restore again.
	require.ErrorIs(t, m.Cancel(ctx, order.ID), ErrInvalidTransition)
	got, err = r.FindProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestCancel_OnlyFromPendingOrProcessing(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusProcessing))
	require.NoError(t, m.Cancel(ctx, order.ID))

	order2, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, m.SetStatus(ctx, order2.ID, models.OrderStatusProcessing))
	require.NoError(t, m.SetStatus(ctx, order2.ID, models.OrderStatusShipped))
	require.ErrorIs(t, m.Cancel(ctx, order2.ID), ErrInvalidTransition)

	require.ErrorIs(t, m.Cancel(ctx, 9999), ErrOrderNotFound)
}

func TestSetStatus(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Skipping processing is not allowed.
	require.ErrorIs(t, m.SetStatus(ctx, order.ID, models.OrderStatusShipped), ErrInvalidTransition)

	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusProcessing))
	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusShipped))
	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusDelivered))

	// Delivered is terminal.
	require.ErrorIs(t, m.SetStatus(ctx, order.ID, models.OrderStatusProcessing), ErrInvalidTransition)

	require.ErrorIs(t, m.SetStatus(ctx, order.ID, "misplaced"), ErrValidation)
	require.ErrorIs(t, m.SetStatus(ctx, 9999, models.OrderStatusProcessing), ErrOrderNotFound)
}

func TestSetStatus_CancelledRestoresStock(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// Cancelling through SetStatus goes through the same restoration.
	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusCancelled))

	got, err := r.FindProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestSetPaymentStatus(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Paying a pending order closes it out.
	require.NoError(t, m.SetPaymentStatus(ctx, order.ID, models.PaymentStatusPaid))

	got, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)

	// Completed is terminal for payment changes too.
	require.ErrorIs(t, m.SetPaymentStatus(ctx, order.ID, models.PaymentStatusUnpaid), ErrInvalidTransition)
}

func TestSetPaymentStatus_ProcessingKeepsStatus(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	laptop := seedProduct(t, r, "laptop", 100000, 10)

	order, err := m.Create(ctx, CreateInput{
		CustomerID: customer.ID,
		Items:      []LineItem{{ProductID: laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, m.SetStatus(ctx, order.ID, models.OrderStatusProcessing))
	require.NoError(t, m.SetPaymentStatus(ctx, order.ID, models.PaymentStatusPaid))

	got, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	require.ErrorIs(t, m.SetPaymentStatus(ctx, order.ID, "refunded"), ErrValidation)
	require.ErrorIs(t, m.SetPaymentStatus(ctx, 9999, models.PaymentStatusPaid), ErrOrderNotFound)
}

func TestCreate_ConcurrentStockNeverOversells(t *testing.T) {
	t.Parallel()

	m, r := newTestManager(t)
	ctx := context.Background()

	customer := seedCustomer(t, r, true)
	scarce := seedProduct(t, r, "scarce", 10000, 5)

	const attempts = 20
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Create(ctx, CreateInput{
				CustomerID: customer.ID,
				Items:      []LineItem{{ProductID: scarce.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrInsufficientStock)
			conflict++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, attempts-5, conflict)

	got, err := r.FindProduct(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}
