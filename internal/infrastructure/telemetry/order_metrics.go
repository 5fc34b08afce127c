package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for storefront business metrics.
const MeterName = "github.com/flowershop/storefront"

var attrCancelledBy = attribute.Key("cancelled_by")

// OrderMetrics records order lifecycle counters.
type OrderMetrics struct {
	placed        *Counter
	confirmed     *Counter
	cancelled     *Counter
	unitsSold     *Counter
	unitsRestored *Counter
	orderAmount   *Histogram
}

// NewOrderMetrics registers the order instruments on meter.
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	var errs []error
	counter := func(name, desc, unit string) *Counter {
		c, err := NewCounter(meter, name, desc, unit)
		errs = append(errs, err)
		return c
	}

	m := &OrderMetrics{
		placed:        counter("shop.orders.placed", "Orders placed at checkout", "{order}"),
		confirmed:     counter("shop.orders.confirmed", "Orders confirmed by staff", "{order}"),
		cancelled:     counter("shop.orders.cancelled", "Orders cancelled", "{order}"),
		unitsSold:     counter("shop.stock.units_sold", "Units deducted from stock at checkout", "{unit}"),
		unitsRestored: counter("shop.stock.units_restored", "Units returned to stock by cancellation", "{unit}"),
	}
	amount, err := NewHistogram(meter, HistogramOpts{
		Name:        "shop.orders.amount",
		Description: "Order total at checkout",
		Unit:        "{currency}",
		Buckets:     []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	errs = append(errs, err)
	m.orderAmount = amount

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOrderPlaced counts a successful checkout.
func (m *OrderMetrics) RecordOrderPlaced(ctx context.Context, units int, amount decimal.Decimal) {
	m.placed.Inc(ctx)
	m.unitsSold.Add(ctx, int64(units))
	m.orderAmount.Record(ctx, amount.InexactFloat64())
}

// RecordOrderConfirmed counts a confirmation.
func (m *OrderMetrics) RecordOrderConfirmed(ctx context.Context) {
	m.confirmed.Inc(ctx)
}

// RecordOrderCancelled counts a cancellation and the stock it gave back.
func (m *OrderMetrics) RecordOrderCancelled(ctx context.Context, role string, restoredUnits int) {
	m.cancelled.Inc(ctx, attrCancelledBy.String(role))
	if restoredUnits > 0 {
		m.unitsRestored.Add(ctx, int64(restoredUnits), attrCancelledBy.String(role))
	}
}
