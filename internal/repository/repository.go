package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
// Lookups by id return (nil, nil) when the product does not exist.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// CreateBatch inserts many products in one round trip and returns how many were written.
	CreateBatch(ctx context.Context, products []model.Product) (int, error)

	// GetAll retrieves every product, newest first.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves the products that exist among ids.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Filter retrieves products matching the category, subcategory and name search of f.
	// Sorting by price is left to the caller.
	Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, error)

	// Update overwrites the mutable fields of an existing product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product. It reports false when no row matched.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CartRepository defines the interface for cart line data access.
// Mutating methods run inside a transaction obtained from BeginTx.
type CartRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// LockCart serialises cart mutations of one user for the lifetime of tx.
	LockCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error

	// CountLines returns the number of lines in the user's cart.
	CountLines(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)

	// FindLine returns the line for (productID, size), or nil.
	FindLine(ctx context.Context, tx pgx.Tx, userID, productID uuid.UUID, size string) (*model.CartLine, error)

	// GetLine returns the line with the given id owned by userID, or nil.
	GetLine(ctx context.Context, tx pgx.Tx, userID, lineID uuid.UUID) (*model.CartLine, error)

	// InsertLine adds a new line.
	InsertLine(ctx context.Context, tx pgx.Tx, line *model.CartLine) error

	// SetQuantity changes the quantity of an existing line.
	SetQuantity(ctx context.Context, tx pgx.Tx, lineID uuid.UUID, quantity int) error

	// DeleteLine removes a line owned by userID. Missing lines are ignored.
	DeleteLine(ctx context.Context, tx pgx.Tx, userID, lineID uuid.UUID) error

	// ClearCart removes every line owned by userID.
	ClearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error

	// ListLines returns the user's cart joined with live product data, oldest line first.
	ListLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items, or nil.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// FindByIdempotencyKey returns the order a user created with key, or nil.
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error)

	// List retrieves every order with its items, newest first.
	List(ctx context.Context) ([]model.Order, error)

	// ListByUser retrieves the orders of one user with their items, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// LockByID reads an order without its items and locks it for the lifetime of tx, or nil.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateState persists the status and payment of an existing order.
	UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error
}

// UserRepository defines the interface for account data access.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields model.ErrEmailExists.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile changes name and email. A duplicate email yields model.ErrEmailExists.
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdatePassword replaces the password hash of a user.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// CreatePasswordReset stores a reset token hash, replacing earlier ones for the user.
	CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error

	// RedeemPasswordReset deletes the reset with tokenHash and, when it has not
	// expired at now, stores passwordHash for its user in the same transaction.
	// It returns nil for unknown or expired tokens.
	RedeemPasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.PasswordReset, error)
}
