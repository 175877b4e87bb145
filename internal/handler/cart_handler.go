package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests for the signed-in user.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

func writeCart(w http.ResponseWriter, message string, cart []model.CartLine) {
	if cart == nil {
		cart = []model.CartLine{}
	}
	writeJSON(w, http.StatusOK, envelope{"message": message, "cart": cart})
}

// Add handles POST /cart/add.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.service.AddLine(r.Context(), p.UserID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeCart(w, "Added to cart", cart)
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeCart(w, "Cart fetched successfully", cart)
}

// Update handles PUT /cart/update-cart/{itemId}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req model.UpdateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.service.SetLineQuantity(r.Context(), p.UserID, r.PathValue("itemId"), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeCart(w, "Cart updated", cart)
}

// Delete handles DELETE /cart/delete-cart/{id}.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveLine(r.Context(), p.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeCart(w, "Removed from cart", cart)
}
