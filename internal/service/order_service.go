package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/telemetry"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const publishTimeout = 5 * time.Second

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	publisher   events.Publisher
	metrics     *telemetry.Metrics
	shippingFee decimal.Decimal
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	publisher events.Publisher,
	metrics *telemetry.Metrics,
	shippingFee decimal.Decimal,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		publisher:   publisher,
		metrics:     metrics,
		shippingFee: shippingFee,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder prices every line at the current catalogue price, adds the
// shipping fee and persists the order together with clearing the cart.
func (s *orderService) CreateOrder(ctx context.Context, principal *model.Principal, req *model.OrderRequest, idempotencyKey string) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, model.NewValidationError("Unsupported payment method")
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
		existing, err := s.orderRepo.FindByIdempotencyKey(ctx, principal.UserID, idempotencyKey)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", principal.UserID.String()).Msg("failed to look up idempotency key")
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if existing != nil {
			s.logger.Info().Str("order_id", existing.ID.String()).Msg("returning order for repeated idempotency key")
			return existing, nil
		}
	}

	products, err := s.loadProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:             uuid.New(),
		UserID:         principal.UserID,
		ShippingFee:    s.shippingFee,
		Address:        req.Address,
		Status:         model.OrderStatusPlaced,
		Payment:        method.InitialPayment(),
		PaymentMethod:  method,
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	subtotal := decimal.Zero
	order.Items = make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		product := products[uuid.MustParse(item.ProductID)]
		if !product.HasSize(item.Size) {
			return nil, model.NewValidationError(fmt.Sprintf("Size %s is not available for %s", item.Size, product.Name))
		}
		order.Items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Product:   product.Summary(),
			Available: true,
		}
		subtotal = subtotal.Add(order.Items[i].Subtotal())
	}
	order.Amount = subtotal.Add(s.shippingFee)
	if order.Amount.GreaterThan(model.MaxAmount) {
		return nil, model.NewValidationError("Order total exceeds the maximum of " + model.MaxAmount.StringFixed(2))
	}

	if req.Amount != nil && !req.Amount.Equal(order.Amount) {
		s.logger.Warn().
			Str("user_id", principal.UserID.String()).
			Str("client_amount", req.Amount.String()).
			Str("amount", order.Amount.String()).
			Msg("client amount does not match computed total")
		return nil, model.ErrAmountMismatch
	}

	existing, err := s.persist(ctx, order)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	amount, _ := order.Amount.Float64()
	s.metrics.OrderCreated(ctx, string(order.PaymentMethod), amount)
	s.publish(ctx, events.TypeOrderCreated, order)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", order.UserID.String()).
		Int("item_count", len(order.Items)).
		Str("amount", order.Amount.String()).
		Msg("order created successfully")

	return order, nil
}

// loadProducts resolves every requested product, failing on the first unknown id.
func (s *orderService) loadProducts(ctx context.Context, items []model.OrderItemRequest) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		id := uuid.MustParse(item.ProductID)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	found, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to load products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products := make(map[uuid.UUID]*model.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		if products[id] == nil {
			s.logger.Warn().Str("product_id", id.String()).Msg("order references unknown product")
			return nil, model.ErrProductNotFound
		}
	}
	return products, nil
}

// persist writes the order and its items and clears the owner's cart in one
// transaction. When another request already used the idempotency key the
// stored order is returned instead.
func (s *orderService) persist(ctx context.Context, order *model.Order) (existing *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil || existing != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.cartRepo.LockCart(ctx, tx, order.UserID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", order.UserID.String()).Msg("failed to lock cart")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			err = nil
			return s.replay(ctx, order)
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = s.cartRepo.ClearCart(ctx, tx, order.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", order.UserID.String()).Msg("failed to clear cart")
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return nil, nil
}

func (s *orderService) replay(ctx context.Context, order *model.Order) (*model.Order, error) {
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, order.UserID, *order.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load order for idempotency key: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("order for idempotency key vanished")
	}
	s.logger.Info().Str("order_id", existing.ID.String()).Msg("concurrent request already created order")
	return existing, nil
}

func (s *orderService) ListOrders(ctx context.Context, principal *model.Principal) ([]model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}

	var (
		orders []model.Order
		err    error
	)
	if principal.IsAdmin {
		orders, err = s.orderRepo.List(ctx)
	} else {
		orders, err = s.orderRepo.ListByUser(ctx, principal.UserID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", principal.UserID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string, principal *model.Principal) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}
	orderID, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	if !CanAccessOrder(order, principal) {
		s.logger.Warn().Str("order_id", id).Str("user_id", principal.UserID.String()).Msg("order access denied")
		return nil, model.ErrForbidden
	}
	return order, nil
}

// UpdateOrder applies the requested status and payment under a row lock.
// Requests that change nothing succeed without writing.
func (s *orderService) UpdateOrder(ctx context.Context, id string, req *model.OrderUpdateRequest, principal *model.Principal) (*model.Order, error) {
	if principal == nil {
		return nil, model.ErrUnauthorised
	}
	if !principal.IsAdmin {
		return nil, model.ErrForbidden
	}
	orderID, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	if req == nil || req.IsEmpty() {
		return nil, model.ErrEmptyOrderUpdate
	}

	var (
		nextStatus  *model.OrderStatus
		nextPayment *model.PaymentStatus
	)
	if req.Status != nil {
		st, ok := model.ParseOrderStatus(*req.Status)
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("Unknown order status %q", *req.Status))
		}
		nextStatus = &st
	}
	if req.Payment != nil {
		p, ok := model.ParsePaymentStatus(*req.Payment)
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("Unknown payment status %q", *req.Payment))
		}
		nextPayment = &p
	}

	changed, statusChanged, err := s.applyUpdate(ctx, orderID, principal, nextStatus, nextPayment)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to reload order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if changed {
		if statusChanged {
			s.metrics.OrderTransitioned(ctx, string(order.Status))
		}
		s.publish(ctx, events.TypeOrderUpdated, order)
		s.logger.Info().
			Str("order_id", id).
			Str("status", string(order.Status)).
			Str("payment", string(order.Payment)).
			Msg("order updated")
	}
	return order, nil
}

func (s *orderService) applyUpdate(
	ctx context.Context,
	orderID uuid.UUID,
	principal *model.Principal,
	nextStatus *model.OrderStatus,
	nextPayment *model.PaymentStatus,
) (changed, statusChanged bool, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return false, false, fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil || !changed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to lock order")
		return false, false, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return false, false, model.ErrOrderNotFound
	}
	if !CanAccessOrder(order, principal) {
		return false, false, model.ErrForbidden
	}

	if nextStatus != nil && *nextStatus != order.Status {
		if !order.Status.CanTransitionTo(*nextStatus) {
			s.logger.Warn().
				Str("order_id", orderID.String()).
				Str("from", string(order.Status)).
				Str("to", string(*nextStatus)).
				Msg("rejected order status transition")
			return false, false, model.ErrInvalidTransition
		}
		order.Status = *nextStatus
		statusChanged = true
	}
	if nextPayment != nil && *nextPayment != order.Payment {
		if !order.Payment.CanTransitionTo(*nextPayment) {
			return false, false, model.ErrInvalidTransition
		}
		order.Payment = *nextPayment
		changed = true
	}
	changed = changed || statusChanged
	if !changed {
		return false, false, nil
	}

	order.UpdatedAt = s.now().UTC()
	if err = s.orderRepo.UpdateState(ctx, tx, order); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return false, false, err
		}
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order")
		return false, false, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return false, false, fmt.Errorf("failed to update order: %w", err)
	}
	return true, statusChanged, nil
}

// publish emits an order event without failing the request. The event
// outlives request cancellation but not publishTimeout.
func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order, s.now().UTC())); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Str("event", eventType).Msg("failed to publish order event")
	}
}
