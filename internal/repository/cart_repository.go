package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const cartLineColumns = `id, user_id, product_id, size, quantity, created_at, updated_at`

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *cartRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// LockCart takes a row lock on the owning user so concurrent read-modify-write
// cycles on the same cart queue behind each other.
func (r *cartRepository) LockCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrUserNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock cart")
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	return nil
}

// CountLines returns the number of lines in the user's cart.
func (r *cartRepository) CountLines(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&n); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to count cart lines")
		return 0, fmt.Errorf("failed to count cart lines: %w", err)
	}
	return n, nil
}

func (r *cartRepository) queryLine(ctx context.Context, tx pgx.Tx, query string, args ...any) (*model.CartLine, error) {
	var l model.CartLine
	err := tx.QueryRow(ctx, query, args...).Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.Size, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query cart line")
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}
	return &l, nil
}

// FindLine returns the line for (productID, size), or nil.
func (r *cartRepository) FindLine(ctx context.Context, tx pgx.Tx, userID, productID uuid.UUID, size string) (*model.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_items WHERE user_id = $1 AND product_id = $2 AND size = $3`
	return r.queryLine(ctx, tx, query, userID, productID, size)
}

// GetLine returns the line with the given id owned by userID, or nil.
func (r *cartRepository) GetLine(ctx context.Context, tx pgx.Tx, userID, lineID uuid.UUID) (*model.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_items WHERE id = $1 AND user_id = $2`
	return r.queryLine(ctx, tx, query, lineID, userID)
}

// InsertLine adds a new line.
func (r *cartRepository) InsertLine(ctx context.Context, tx pgx.Tx, line *model.CartLine) error {
	query := `INSERT INTO cart_items (` + cartLineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		line.ID, line.UserID, line.ProductID, line.Size, line.Quantity, line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", line.UserID.String()).
			Str("product_id", line.ProductID.String()).
			Msg("failed to insert cart line")
		return fmt.Errorf("failed to insert cart line: %w", err)
	}
	return nil
}

// SetQuantity changes the quantity of an existing line.
func (r *cartRepository) SetQuantity(ctx context.Context, tx pgx.Tx, lineID uuid.UUID, quantity int) error {
	_, err := tx.Exec(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1`,
		lineID, quantity,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to update cart line")
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	return nil
}

// DeleteLine removes a line owned by userID. Missing lines are ignored.
func (r *cartRepository) DeleteLine(ctx context.Context, tx pgx.Tx, userID, lineID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to delete cart line")
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// ClearCart removes every line owned by userID.
func (r *cartRepository) ClearCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Int64("lines", tag.RowsAffected()).
		Msg("cart cleared")
	return nil
}

// ListLines returns the user's cart joined with live product data.
func (r *cartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.size, c.quantity, c.created_at, c.updated_at,
			p.name, p.price, p.images
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var (
			l model.CartLine
			p model.ProductSummary
		)
		err := rows.Scan(
			&l.ID, &l.UserID, &l.ProductID, &l.Size, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&p.Name, &p.Price, &p.Images,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		p.ID = l.ProductID
		l.Product = &p
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart: %w", err)
	}

	return lines, nil
}
