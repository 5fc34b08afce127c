package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/flowershop/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDedupTTL is how long a handled event id is remembered
const DefaultDedupTTL = 24 * time.Hour

// DedupStats is a snapshot of deduplication counters
type DedupStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so that an event delivered twice
// (for example by a retried publish) is handled once.
type IdempotentHandler struct {
	handler   shared.EventHandler
	store     shared.IdempotencyStore
	ttl       time.Duration
	logger    *zap.Logger
	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		ttl:     DefaultDedupTTL,
		logger:  logger,
	}
}

// SetTTL changes how long handled event ids are remembered
func (h *IdempotentHandler) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		h.ttl = ttl
	}
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its id was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	// several handlers share one store, so the key is per handler
	key := fmt.Sprintf("event:%T:%s", h.handler, event.EventID())

	reserved, err := h.store.Reserve(ctx, key, h.ttl)
	if err != nil {
		// Better to risk duplicate processing than to drop events
		h.logger.Warn("failed to check idempotency, processing anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return h.run(ctx, event)
	}
	if !reserved {
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.run(ctx, event); err != nil {
		// let a redelivery try again
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("failed to release event key", zap.Error(relErr))
		}
		return err
	}
	if err := h.store.Complete(ctx, key, "done", h.ttl); err != nil {
		h.logger.Warn("failed to mark event handled", zap.Error(err))
	}
	return nil
}

func (h *IdempotentHandler) run(ctx context.Context, event shared.DomainEvent) error {
	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the handler counters
func (h *IdempotentHandler) Stats() DedupStats {
	return DedupStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
