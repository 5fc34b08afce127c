package order

import (
	"context"
	"strings"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BulkConfirm confirms every selected order that is currently new. Other
// orders are skipped and reported.
func (s *OrderService) BulkConfirm(ctx context.Context, ids []uuid.UUID, actor order.Actor) (*BulkResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	return s.bulk(ctx, ids, func(o *order.Order) bool {
		return o.Status == order.StatusNew
	}, func(o *order.Order) ([]order.StockRestoration, error) {
		return nil, o.Confirm(actor)
	})
}

// BulkCancel cancels every selected order that is new or confirmed and
// restores its stock. The reason is mandatory and shared by all orders.
func (s *OrderService) BulkCancel(ctx context.Context, ids []uuid.UUID, actor order.Actor, reason string) (*BulkResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if isBlank(reason) {
		return nil, order.ErrEmptyCancellationReason
	}
	return s.bulk(ctx, ids, func(o *order.Order) bool {
		return o.Status.CanTransitionTo(order.StatusCancelled)
	}, func(o *order.Order) ([]order.StockRestoration, error) {
		return o.Cancel(actor, reason)
	})
}

// bulk applies change to every eligible order of the selection in a single
// transaction. Stock restorations are summed per product and written once.
func (s *OrderService) bulk(
	ctx context.Context,
	ids []uuid.UUID,
	eligible func(o *order.Order) bool,
	change func(o *order.Order) ([]order.StockRestoration, error),
) (*BulkResult, error) {
	ids = uniqueIDs(ids)
	var (
		result  *BulkResult
		changed []*order.Order
	)
	err := s.inTransaction(ctx, func(repos TransactionalRepositories) error {
		result = &BulkResult{Skipped: make([]uuid.UUID, 0)}
		changed = changed[:0]

		orders, err := repos.Orders().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*order.Order, len(orders))
		for _, o := range orders {
			byID[o.ID] = o
		}

		totals := make(map[uuid.UUID]int)
		var productOrder []uuid.UUID
		for _, id := range ids {
			o, ok := byID[id]
			if !ok || !eligible(o) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			restorations, err := change(o)
			if err != nil {
				return err
			}
			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}
			for _, r := range restorations {
				if _, seen := totals[r.ProductID]; !seen {
					productOrder = append(productOrder, r.ProductID)
				}
				totals[r.ProductID] += r.Quantity
			}
			changed = append(changed, o)
			result.Affected++
		}

		merged := make([]order.StockRestoration, len(productOrder))
		for i, pid := range productOrder {
			merged[i] = order.StockRestoration{ProductID: pid, Quantity: totals[pid]}
		}
		return restoreStock(ctx, repos.Products(), merged)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk order action",
		zap.Int("affected", result.Affected),
		zap.Int("skipped", len(result.Skipped)))
	for _, o := range changed {
		s.publish(ctx, o)
	}
	return result, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
