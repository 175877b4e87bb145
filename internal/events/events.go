package events

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Event types published on the orders topic.
const (
	TypeOrderCreated = "order.created"
	TypeOrderUpdated = "order.updated"
)

// OrderEvent describes a change to an order.
type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       string              `json:"order_id"`
	UserID        string              `json:"user_id"`
	Status        model.OrderStatus   `json:"status"`
	Payment       model.PaymentStatus `json:"payment"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
	Items         int                 `json:"items"`
	Timestamp     time.Time           `json:"timestamp"`
}

// NewOrderEvent snapshots order into an event of the given type.
func NewOrderEvent(eventType string, order *model.Order, at time.Time) OrderEvent {
	quantity := 0
	for _, item := range order.Items {
		quantity += item.Quantity
	}
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		Status:        order.Status,
		Payment:       order.Payment,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.Amount,
		Items:         quantity,
		Timestamp:     at,
	}
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (nopPublisher) Close() error                              { return nil }
