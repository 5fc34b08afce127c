package order

import (
	"context"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirm moves a new order to confirmed. Stock is untouched: it was taken
// at checkout, so confirming twice can never take it twice.
func (s *OrderService) Confirm(ctx context.Context, id uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.transition(ctx, id, actor, func(o *order.Order) ([]order.StockRestoration, error) {
		return nil, o.Confirm(actor)
	})
}

// Cancel cancels an order and gives its deducted stock back in the same
// transaction. Admins must give a reason; customers get the fixed one.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, actor order.Actor, reason string) (*OrderResponse, error) {
	return s.transition(ctx, id, actor, func(o *order.Order) ([]order.StockRestoration, error) {
		return o.Cancel(actor, reason)
	})
}

// CancelOwn is the self-service cancellation of a new order by its owner
func (s *OrderService) CancelOwn(ctx context.Context, id, userID uuid.UUID) (*OrderResponse, error) {
	return s.Cancel(ctx, id, order.CustomerActor(userID), order.CustomerCancellationReason)
}

// transition loads the order, applies change, persists it with a version
// check and restores stock, all in one transaction.
func (s *OrderService) transition(
	ctx context.Context,
	id uuid.UUID,
	actor order.Actor,
	change func(o *order.Order) ([]order.StockRestoration, error),
) (*OrderResponse, error) {
	var changed *order.Order
	err := s.inTransaction(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.CanBeViewedBy(actor) {
			return shared.ErrNotFound
		}
		restorations, err := change(o)
		if err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if err := restoreStock(ctx, repos.Products(), restorations); err != nil {
			return err
		}
		changed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_number", changed.OrderNumber),
		zap.String("status", changed.Status.String()),
		zap.String("actor", actor.UserID.String()),
		zap.String("role", string(actor.Role)))
	s.publish(ctx, changed)

	response := ToOrderResponse(changed)
	return &response, nil
}
