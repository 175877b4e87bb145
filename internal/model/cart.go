package model

import (
	"time"

	"github.com/google/uuid"
)

// CartLine represents one (product, size, quantity) entry in a user's cart.
type CartLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"-" db:"user_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Size      string          `json:"size" db:"size"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// AddToCartRequest represents the payload for adding a product to the cart.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Size      string `json:"size" validate:"required,max=20"`
	Quantity  int    `json:"quantity" validate:"gte=-100000,lte=100000"`
}

// UpdateCartRequest represents the payload for setting a cart line quantity.
type UpdateCartRequest struct {
	NewQuantity *int `json:"newQuantity" validate:"required,lte=100000"`
}
