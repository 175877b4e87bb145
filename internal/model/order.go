package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity a cart or order line may hold.
const MaxLineQuantity = 100_000

// MaxAmount is the largest price or order total the NUMERIC(12,2) columns store.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Address is the shipping destination of an order.
type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country" validate:"required"`
}

// Order is a point-in-time snapshot of a checkout and its fulfilment state.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	Items          []OrderItem     `json:"items"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	ShippingFee    decimal.Decimal `json:"shippingFee" db:"shipping_fee"`
	Address        Address         `json:"address" db:"address"`
	Status         OrderStatus     `json:"status" db:"status"`
	Payment        PaymentStatus   `json:"payment" db:"payment"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	IdempotencyKey *string         `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is one snapshotted line of an order. UnitPrice is the catalogue
// price at checkout and is never re-read.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Size      string          `json:"size" db:"size"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Product   *ProductSummary `json:"product"`
	Available bool            `json:"available"`
}

// Subtotal returns quantity times the snapshotted unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"min=1,dive"`
	Address       Address            `json:"address"`
	PaymentMethod string             `json:"paymentMethod" validate:"required"`
	// Amount is the total the client displayed. When present it must match
	// the server-side total.
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100000"`
	Size      string `json:"size" validate:"max=20"`
}

// OrderUpdateRequest represents an administrative order update.
type OrderUpdateRequest struct {
	Status  *string `json:"status,omitempty"`
	Payment *string `json:"payment,omitempty"`
}

// IsEmpty reports whether neither status nor payment is present.
func (r *OrderUpdateRequest) IsEmpty() bool {
	return r.Status == nil && r.Payment == nil
}
