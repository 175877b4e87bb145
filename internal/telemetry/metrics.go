package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider installs a Prometheus-backed global meter provider and
// returns the handler serving /metrics.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the storefront business instruments.
type Metrics struct {
	ordersCreated    metric.Int64Counter
	orderAmount      metric.Float64Histogram
	orderTransitions metric.Int64Counter
	cartMutations    metric.Int64Counter
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	ordersCreated, err := meter.Int64Counter("storefront.orders.created",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	orderAmount, err := meter.Float64Histogram("storefront.orders.amount",
		metric.WithDescription("Order totals including shipping"),
	)
	if err != nil {
		return nil, err
	}

	orderTransitions, err := meter.Int64Counter("storefront.orders.transitions",
		metric.WithDescription("Administrative order state changes"),
	)
	if err != nil {
		return nil, err
	}

	cartMutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart line changes by operation"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated:    ordersCreated,
		orderAmount:      orderAmount,
		orderTransitions: orderTransitions,
		cartMutations:    cartMutations,
	}, nil
}

// NewNopMetrics returns instruments bound to the global meter provider,
// which discards everything until a provider is installed.
func NewNopMetrics() *Metrics {
	m, err := NewMetrics(otel.Meter("storefront"))
	if err != nil {
		panic(err)
	}
	return m
}

// OrderCreated records a placed order.
func (m *Metrics) OrderCreated(ctx context.Context, paymentMethod string, amount float64) {
	attrs := metric.WithAttributes(attribute.String("payment_method", paymentMethod))
	m.ordersCreated.Add(ctx, 1, attrs)
	m.orderAmount.Record(ctx, amount, attrs)
}

// OrderTransitioned records an order moving to status.
func (m *Metrics) OrderTransitioned(ctx context.Context, status string) {
	m.orderTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// CartMutated records one cart operation.
func (m *Metrics) CartMutated(ctx context.Context, operation string) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
