package service

import (
	"context"
	"io"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// ImageFile is one uploaded product image.
type ImageFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MaxProductImages is the most images a product can be created with.
const MaxProductImages = 4

// ProductService defines operations for catalogue management.
type ProductService interface {
	// Create validates and stores a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// UploadImages stores product images and returns their public URLs in order.
	UploadImages(ctx context.Context, files []ImageFile) ([]string, error)

	// GetAll retrieves every product, newest first.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Filter narrows the catalogue and optionally sorts it by price.
	Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, error)

	// Update applies a partial update to a product.
	Update(ctx context.Context, id string, upd *model.ProductUpdate) (*model.Product, error)

	// Delete removes a product. Existing orders keep their snapshot.
	Delete(ctx context.Context, id string) error
}

// CartService defines operations on the caller's cart. Every method returns
// the cart after the operation with live product data joined in.
type CartService interface {
	AddLine(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) ([]model.CartLine, error)
	SetLineQuantity(ctx context.Context, userID uuid.UUID, lineID string, req *model.UpdateCartRequest) ([]model.CartLine, error)
	RemoveLine(ctx context.Context, userID uuid.UUID, lineID string) ([]model.CartLine, error)
	GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
}

// OrderService defines the order lifecycle.
type OrderService interface {
	// CreateOrder prices the request against the live catalogue, stores the
	// order and clears the caller's cart in one transaction. A non-empty
	// idempotencyKey makes retries return the original order.
	CreateOrder(ctx context.Context, principal *model.Principal, req *model.OrderRequest, idempotencyKey string) (*model.Order, error)

	// ListOrders returns every order for administrators and the caller's own otherwise.
	ListOrders(ctx context.Context, principal *model.Principal) ([]model.Order, error)

	// GetOrder retrieves an order the caller may access.
	GetOrder(ctx context.Context, id string, principal *model.Principal) (*model.Order, error)

	// UpdateOrder moves an order's status and/or payment. Administrators only.
	UpdateOrder(ctx context.Context, id string, req *model.OrderUpdateRequest, principal *model.Principal) (*model.Order, error)
}

// Session is a signed-in user with the token identifying them.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// UserService defines account operations.
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*Session, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error

	// ForgotPassword emails a reset link. Unknown addresses succeed silently.
	ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error

	// ResetPassword redeems a reset token.
	ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) error

	// EnsureAdmin creates an administrator account unless one exists with that email.
	EnsureAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError("Invalid " + what + " id")
	}
	return id, nil
}
