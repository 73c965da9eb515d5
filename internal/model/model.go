package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

// ValidOrderStatus reports whether s is one of the six known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderReturned
}

// TerminalOrderStatuses returns the terminal set for use in SQL guards, so
// conditional updates can refuse to move an order out of a terminal status.
func TerminalOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderDelivered, OrderCancelled, OrderReturned}
}

type PaymentMethod string

const (
	MethodCOD       PaymentMethod = "COD"
	MethodRazorpay  PaymentMethod = "RAZORPAY"
	MethodBraintree PaymentMethod = "BRAINTREE"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentCOD      PaymentStatus = "cash-on-delivery"
)

type Product struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	Name        string `gorm:"size:128;not null"`
	Description string
	PriceCents  int64  `gorm:"not null"` // never negative
	Stock       int64  `gorm:"not null"` // never negative, enforced by conditional updates
	CategoryID  string `gorm:"size:64;index"`
	Reviews     []Review
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Review struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"size:64;index;not null"`
	UserID    string `gorm:"size:64;not null"`
	Rating    int    `gorm:"not null"` // 1..5
	Comment   string
	CreatedAt time.Time
}

type Category struct {
	ID   string `gorm:"primaryKey;size:64;not null"`
	Name string `gorm:"size:128;not null"`
}

// User is a read-only collaborator: accounts are provisioned by the identity
// service, we only resolve display identity and roles from it.
type User struct {
	ID    string `gorm:"primaryKey;size:64;not null"`
	Name  string `gorm:"size:128"`
	Email string `gorm:"size:128;index"`
	Role  string `gorm:"size:16;not null"` // user | admin
}

type Order struct {
	ID     string `gorm:"primaryKey;size:64;not null"`
	UserID string `gorm:"size:64;index;not null"`
	Items  []OrderItem

	TotalCents int64       `gorm:"not null"`
	Status     OrderStatus `gorm:"size:32;index;not null"`

	// StockCommitted marks that this order's line-item quantities have been
	// subtracted from product stock (at creation for COD, at capture for
	// gateway orders). Cancellation credits stock back only when set.
	StockCommitted bool `gorm:"not null"`

	ShipStreet  string `gorm:"size:255"`
	ShipCity    string `gorm:"size:128"`
	ShipPostal  string `gorm:"size:32"`
	ShipCountry string `gorm:"size:64"`

	PaymentMethod     PaymentMethod `gorm:"size:32;not null"`
	PaymentStatus     PaymentStatus `gorm:"size:32;index;not null"`
	ExternalOrderID   string        `gorm:"size:128;index"` // gateway order id
	ExternalPaymentID string        `gorm:"size:128"`       // gateway payment/capture id

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID string `gorm:"size:64;index;not null"`
	// FK → product.id; name and unit price are frozen at order time so later
	// catalog edits never rewrite historical orders.
	ProductID  string `gorm:"size:64;index;not null"`
	Name       string `gorm:"size:128;not null"`
	PriceCents int64  `gorm:"not null"`
	Quantity   int64  `gorm:"not null"`

	CreatedAt time.Time
}

// WebhookEvent is the idempotency ledger for gateway deliveries. Gateways
// redeliver events, so every event id is recorded once processed and repeated
// deliveries short-circuit.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
