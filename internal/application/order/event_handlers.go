package order

import (
	"context"
	"fmt"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var orderEventTypes = []string{
	order.EventTypeOrderPlaced,
	order.EventTypeOrderConfirmed,
	order.EventTypeOrderCancelled,
}

// OrderAuditHandler writes an audit log line for every order lifecycle event
type OrderAuditHandler struct {
	logger *zap.Logger
}

// NewOrderAuditHandler creates a new OrderAuditHandler
func NewOrderAuditHandler(logger *zap.Logger) *OrderAuditHandler {
	return &OrderAuditHandler{logger: logger.Named("order.audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderAuditHandler) EventTypes() []string {
	return orderEventTypes
}

// Handle logs the event
func (h *OrderAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("order_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("user_id", e.UserID.String()),
			zap.Int("total_quantity", e.TotalQuantity),
			zap.String("total_price", e.TotalPrice.StringFixed(2)))
	case *order.OrderConfirmedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("confirmed_by", e.ConfirmedBy.String()))
	case *order.OrderCancelledEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("previous_status", e.PreviousStatus.String()),
			zap.String("reason", e.Reason),
			zap.String("cancelled_by", e.CancelledBy.String()),
			zap.String("cancelled_as", string(e.CancelledAs)),
			zap.Int("restored_units", e.RestoredUnits()))
	default:
		return fmt.Errorf("order audit: unexpected event %T", event)
	}

	h.logger.Info("order lifecycle event", fields...)
	return nil
}

// OrderMetricsRecorder receives order business counters
type OrderMetricsRecorder interface {
	RecordOrderPlaced(ctx context.Context, units int, amount decimal.Decimal)
	RecordOrderConfirmed(ctx context.Context)
	RecordOrderCancelled(ctx context.Context, role string, restoredUnits int)
}

// OrderMetricsHandler turns order events into business metrics
type OrderMetricsHandler struct {
	recorder OrderMetricsRecorder
}

// NewOrderMetricsHandler creates a new OrderMetricsHandler
func NewOrderMetricsHandler(recorder OrderMetricsRecorder) *OrderMetricsHandler {
	return &OrderMetricsHandler{recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderMetricsHandler) EventTypes() []string {
	return orderEventTypes
}

// Handle records the counters for the event
func (h *OrderMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		h.recorder.RecordOrderPlaced(ctx, e.TotalQuantity, e.TotalPrice)
	case *order.OrderConfirmedEvent:
		h.recorder.RecordOrderConfirmed(ctx)
	case *order.OrderCancelledEvent:
		h.recorder.RecordOrderCancelled(ctx, string(e.CancelledAs), e.RestoredUnits())
	}
	return nil
}

var (
	_ shared.EventHandler = (*OrderAuditHandler)(nil)
	_ shared.EventHandler = (*OrderMetricsHandler)(nil)
)
