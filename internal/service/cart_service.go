package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/telemetry"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	metrics     *telemetry.Metrics
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     metrics,
		now:         time.Now,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddLine merges quantity into the (product, size) line. A non-positive
// quantity on an empty cart counts as 1; a line whose quantity drops to zero
// or below is removed.
func (s *cartService) AddLine(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) ([]model.CartLine, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	productID := uuid.MustParse(req.ProductID)

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to load product")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if !product.HasSize(req.Size) {
		return nil, model.NewValidationError(fmt.Sprintf("Size %s is not available for this product", req.Size))
	}

	err = s.mutate(ctx, userID, func(tx pgx.Tx) error {
		qty := req.Quantity
		if qty <= 0 {
			n, err := s.cartRepo.CountLines(ctx, tx, userID)
			if err != nil {
				return err
			}
			if n == 0 {
				qty = 1
			}
		}

		line, err := s.cartRepo.FindLine(ctx, tx, userID, productID, req.Size)
		if err != nil {
			return err
		}

		switch {
		case line != nil && line.Quantity+qty <= 0:
			return s.cartRepo.DeleteLine(ctx, tx, userID, line.ID)
		case line != nil && line.Quantity+qty > model.MaxLineQuantity:
			return model.NewValidationError(fmt.Sprintf("quantity must be at most %d", model.MaxLineQuantity))
		case line != nil:
			return s.cartRepo.SetQuantity(ctx, tx, line.ID, line.Quantity+qty)
		case qty > 0:
			now := s.now().UTC()
			return s.cartRepo.InsertLine(ctx, tx, &model.CartLine{
				ID:        uuid.New(),
				UserID:    userID,
				ProductID: productID,
				Size:      req.Size,
				Quantity:  qty,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(err, userID, "add")
	}

	s.metrics.CartMutated(ctx, "add")
	return s.GetCart(ctx, userID)
}

// SetLineQuantity clamps negative quantities to zero; zero removes the line.
func (s *cartService) SetLineQuantity(ctx context.Context, userID uuid.UUID, lineID string, req *model.UpdateCartRequest) ([]model.CartLine, error) {
	id, err := parseID(lineID, "cart item")
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	qty := max(*req.NewQuantity, 0)

	err = s.mutate(ctx, userID, func(tx pgx.Tx) error {
		line, err := s.cartRepo.GetLine(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if line == nil {
			return model.ErrCartLineNotFound
		}
		if qty == 0 {
			return s.cartRepo.DeleteLine(ctx, tx, userID, id)
		}
		return s.cartRepo.SetQuantity(ctx, tx, id, qty)
	})
	if err != nil {
		return nil, s.fail(err, userID, "update")
	}

	s.metrics.CartMutated(ctx, "update")
	return s.GetCart(ctx, userID)
}

// RemoveLine is idempotent: removing an absent line succeeds.
func (s *cartService) RemoveLine(ctx context.Context, userID uuid.UUID, lineID string) ([]model.CartLine, error) {
	id, err := parseID(lineID, "cart item")
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, userID, func(tx pgx.Tx) error {
		return s.cartRepo.DeleteLine(ctx, tx, userID, id)
	})
	if err != nil {
		return nil, s.fail(err, userID, "remove")
	}

	s.metrics.CartMutated(ctx, "remove")
	return s.GetCart(ctx, userID)
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return lines, nil
}

// mutate runs fn in a transaction holding the user's cart lock.
func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.cartRepo.LockCart(ctx, tx, userID); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}

// fail passes domain errors through and wraps everything else.
func (s *cartService) fail(err error, userID uuid.UUID, op string) error {
	if model.KindOf(err) != 0 {
		return err
	}
	s.logger.Error().Err(err).Str("user_id", userID.String()).Str("operation", op).Msg("cart mutation failed")
	return fmt.Errorf("failed to %s cart item: %w", op, err)
}
