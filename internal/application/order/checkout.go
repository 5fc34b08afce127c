package order

import (
	"context"
	"errors"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutInput is everything checkout needs from the caller
type CheckoutInput struct {
	UserID   uuid.UUID
	Password string
	// IdempotencyKey is optional. A repeated key returns the order created
	// by the first request instead of checking out again.
	IdempotencyKey string
}

// Checkout turns the user's cart into a new order.
//
// In one transaction it creates the order, copies every cart entry with the
// product's current price, takes the ordered quantity out of stock (clamped
// at zero unless oversell is rejected) and empties the cart. Either all of
// it commits or none of it does.
func (s *OrderService) Checkout(ctx context.Context, input CheckoutInput) (response *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "checkout",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, input.UserID.String()),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrOrderNumber, response.OrderNumber,
				telemetry.SpanAttrItemCount, len(response.Items),
			)
		}
		span.End()
	}()

	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		return nil, ErrInvalidPassword
	}

	if input.IdempotencyKey == "" || s.idempotency == nil {
		return s.checkout(ctx, input.UserID)
	}

	key := "checkout:" + input.UserID.String() + ":" + input.IdempotencyKey
	reserved, err := s.idempotency.Reserve(ctx, key, s.opts.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return s.replay(ctx, key, input.UserID)
	}

	response, err = s.checkout(ctx, input.UserID)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, response.ID.String(), s.opts.IdempotencyTTL); err != nil {
		s.logger.Warn("failed to store idempotency result", zap.String("key", key), zap.Error(err))
	}
	return response, nil
}

func (s *OrderService) replay(ctx context.Context, key string, userID uuid.UUID) (*OrderResponse, error) {
	result, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || result == "" {
		return nil, ErrCheckoutInProgress
	}
	orderID, err := uuid.Parse(result)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID, order.CustomerActor(userID))
}

func (s *OrderService) checkout(ctx context.Context, userID uuid.UUID) (*OrderResponse, error) {
	var placed *order.Order
	place := func(repos TransactionalRepositories) error {
		o, err := s.placeOrder(ctx, repos, userID)
		if err != nil {
			return err
		}
		placed = o
		return nil
	}

	// The only unique key checkout writes is the order number. A clash gets
	// a fresh order ID and number on the next attempt.
	var err error
	for attempt := 0; attempt <= s.opts.CheckoutRetries; attempt++ {
		err = s.inTransaction(ctx, place)
		if !errors.Is(err, shared.ErrAlreadyExists) {
			break
		}
		s.logger.Warn("order number already taken, retrying checkout",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_number", placed.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(placed.Items)))
	s.publish(ctx, placed)

	response := ToOrderResponse(placed)
	return &response, nil
}

// placeOrder runs the four checkout steps against the transaction's repositories
func (s *OrderService) placeOrder(ctx context.Context, repos TransactionalRepositories, userID uuid.UUID) (*order.Order, error) {
	entries, err := repos.Carts().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	found, err := repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*catalog.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	o, err := order.NewOrder(userID)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		p, ok := products[entry.ProductID]
		if !ok {
			return nil, shared.NewDomainErrorf("NOT_FOUND", "Product %s no longer exists", entry.ProductID)
		}
		if s.opts.RejectOversell && entry.Quantity > p.StockQuantity {
			return nil, shared.NewDomainErrorf("INSUFFICIENT_STOCK",
				"Insufficient stock for %s. Available: %d", p.Name, p.StockQuantity)
		}
		taken, err := p.DecreaseStock(entry.Quantity)
		if err != nil {
			return nil, err
		}
		if _, err := o.AddItem(order.ItemLine{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      entry.Quantity,
			UnitPrice:     p.Price,
			StockDeducted: taken,
		}); err != nil {
			return nil, err
		}
		if err := repos.Products().SaveWithLock(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := o.Place(); err != nil {
		return nil, err
	}
	if err := repos.Orders().Create(ctx, o); err != nil {
		return nil, err
	}
	if err := repos.Carts().DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}
	return o, nil
}

// IsRetryable reports whether a checkout error is worth retrying by the client
func IsRetryable(err error) bool {
	return errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, ErrCheckoutInProgress)
}
