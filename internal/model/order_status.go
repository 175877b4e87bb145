package model

import "strings"

// OrderStatus is the fulfilment position of an order.
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "Order Placed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusTransit    OrderStatus = "Transit"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// fulfilmentPipeline lists the non-cancelled states in delivery order.
var fulfilmentPipeline = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusTransit,
	OrderStatusDelivered,
}

// allowedTransitions maps a state to the states reachable from it. Forward
// moves may skip steps; Cancelled is reachable from every non-terminal state.
var allowedTransitions = buildTransitions()

func buildTransitions() map[OrderStatus]map[OrderStatus]bool {
	table := make(map[OrderStatus]map[OrderStatus]bool, len(fulfilmentPipeline)+1)
	for i, from := range fulfilmentPipeline {
		next := make(map[OrderStatus]bool)
		for _, to := range fulfilmentPipeline[i+1:] {
			next[to] = true
		}
		if from != OrderStatusDelivered {
			next[OrderStatusCancelled] = true
		}
		table[from] = next
	}
	table[OrderStatusCancelled] = map[OrderStatus]bool{}
	return table
}

// ParseOrderStatus resolves a status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for status := range allowedTransitions {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving from s to next.
// Staying in the same state is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	return allowedTransitions[s][next]
}

// PaymentStatus tracks whether an order has been paid for.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ParsePaymentStatus resolves a payment status name.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentPending:
		return PaymentPending, true
	case PaymentPaid:
		return PaymentPaid, true
	}
	return "", false
}

// CanTransitionTo reports whether payment may move from p to next.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return p == next || (p == PaymentPending && next == PaymentPaid)
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCard   PaymentMethod = "card"
)

// ParsePaymentMethod resolves a payment method name.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentMethodCOD, PaymentMethodPayPal, PaymentMethodCard:
		return m, true
	}
	return "", false
}

// InitialPayment returns the payment state of a new order. Methods that
// settle at checkout start paid; cash on delivery waits for confirmation.
func (m PaymentMethod) InitialPayment() PaymentStatus {
	if m == PaymentMethodCOD {
		return PaymentPending
	}
	return PaymentPaid
}
