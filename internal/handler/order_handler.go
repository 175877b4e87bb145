package handler

import (
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader lets clients retry checkout without creating duplicates.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKey = 255

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /order/create-order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKey {
		writeError(w, r, model.NewValidationError("Idempotency-Key is too long"), h.logger)
		return
	}

	var req model.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), p, &req, key)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"message": "Order placed", "order": order})
}

// List handles GET /order.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), p)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	message := "Orders fetched successfully"
	if len(orders) == 0 {
		message = "No orders found"
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, envelope{"message": message, "orders": orders})
}

// GetByID handles GET /order/{orderId}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), r.PathValue("orderId"), p)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Order fetched successfully", "order": order})
}

// UpdateStatus handles PUT /order/update-status/{orderId}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req model.OrderUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), r.PathValue("orderId"), &req, p)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Order updated", "order": order})
}
