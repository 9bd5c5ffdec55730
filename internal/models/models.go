package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string     `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	Role         string     `gorm:"not null;default:staff"   json:"role"`
	IsActive     bool       `gorm:"not null"                 json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Email     string    `gorm:"uniqueIndex;not null"     json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	IsActive  bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"uniqueIndex;not null"     json:"name"`
	Icon   string `json:"icon"`
	Status string `gorm:"not null;default:active"  json:"status"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0" json:"price"`
	Stock       int       `gorm:"not null;check:stock >= 0" json:"stock"`
	CategoryID  uint      `gorm:"index"                    json:"category_id"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

type Order struct {
	ID             uint        `gorm:"primaryKey;autoIncrement"  json:"id"`
	CustomerID     uint        `gorm:"index;not null"            json:"customer_id"`
	Status         string      `gorm:"not null;default:pending"  json:"status"`
	PaymentStatus  string      `gorm:"not null;default:unpaid"   json:"payment_status"`
	TotalAmount    float64     `gorm:"not null"                  json:"total_amount"`
	DiscountAmount float64     `gorm:"not null;default:0"        json:"discount_amount"`
	VoucherCode    *string     `json:"voucher_code,omitempty"`
	Items          []OrderItem `gorm:"foreignKey:OrderID"        json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderItem captures the unit price at order time: later product price
// changes never alter historical orders.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Quantity  int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice float64 `gorm:"not null"                    json:"unit_price"`
}

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED"
)

type Voucher struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string    `gorm:"uniqueIndex;not null"     json:"code"`
	DiscountType  string    `gorm:"not null"                 json:"discount_type"`
	DiscountValue float64   `gorm:"not null"                 json:"discount_value"`
	MinOrderTotal float64   `gorm:"not null;default:0"       json:"min_order_total"`
	IsActive      bool      `gorm:"not null"                 json:"is_active"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
}

// UserSession mirrors a remember-me token server-side so it can be
// revoked before its encoded expiry.
type UserSession struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"           json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordReset struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"index;not null"           json:"email"`
	OTP       string    `gorm:"not null"                 json:"-"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"           json:"expires_at"`
	Used      bool      `gorm:"not null;default:false"   json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
