package order

import (
	"context"
	"errors"
	"time"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Application errors raised by the order use cases
var (
	ErrEmptyCart             = shared.NewDomainError("EMPTY_CART", "Cart is empty")
	ErrInvalidPassword       = shared.NewDomainError("INVALID_PASSWORD", "Password is incorrect")
	ErrCheckoutInProgress    = shared.NewDomainError("IDEMPOTENCY_IN_PROGRESS", "A checkout with this idempotency key is still running")
	ErrReceiptsNotConfigured = shared.NewDomainError("PRINTING_DISABLED", "Receipt printing is not configured")
)

// Options tunes the order engine
type Options struct {
	// CheckoutRetries is how many extra attempts a stock-affecting
	// transaction gets after a version conflict.
	CheckoutRetries int
	// RejectOversell fails checkout when stock no longer covers the cart
	// instead of clamping stock at zero.
	RejectOversell bool
	// IdempotencyTTL is how long checkout idempotency keys are remembered
	IdempotencyTTL time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		CheckoutRetries: 3,
		IdempotencyTTL:  24 * time.Hour,
	}
}

// OrderService implements checkout, the order status machine and the
// back-office bulk actions.
type OrderService struct {
	txScope        TransactionScope
	orderRepo      order.OrderRepository
	userRepo       identity.UserRepository
	opts           Options
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	receipts       ReceiptRenderer
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(txScope TransactionScope, orderRepo order.OrderRepository, userRepo identity.UserRepository, opts Options) *OrderService {
	if opts.CheckoutRetries < 0 {
		opts.CheckoutRetries = 0
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = DefaultOptions().IdempotencyTTL
	}
	return &OrderService{
		txScope:   txScope,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		opts:      opts,
		logger:    zap.NewNop(),
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling for checkout
func (s *OrderService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetReceiptRenderer enables receipt PDFs
func (s *OrderService) SetReceiptRenderer(renderer ReceiptRenderer) {
	s.receipts = renderer
}

// SetLogger sets the service logger
func (s *OrderService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger.Named("order")
	}
}

// GetByID returns an order the actor may see. Orders of other customers are
// reported as not found.
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.CanBeViewedBy(actor) {
		return nil, shared.ErrNotFound
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// ListMine lists the user's own orders, newest first
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	f, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	f.UserID = &userID
	f.Search = ""
	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// ListAll lists every order for the back office
func (s *OrderService) ListAll(ctx context.Context, actor order.Actor, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}
	f, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// Stats counts orders per status
func (s *OrderService) Stats(ctx context.Context, actor order.Actor) (*OrderStats, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &OrderStats{
		New:       counts[order.StatusNew],
		Confirmed: counts[order.StatusConfirmed],
		Cancelled: counts[order.StatusCancelled],
	}, nil
}

// inTransaction runs fn in a transaction and retries the whole transaction
// when it failed on a version conflict.
func (s *OrderService) inTransaction(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.CheckoutRetries; attempt++ {
		err = s.txScope.Execute(ctx, fn)
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		s.logger.Debug("retrying transaction after version conflict", zap.Int("attempt", attempt+1))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// restoreStock gives the restored quantities back to their products
func restoreStock(ctx context.Context, products catalog.ProductRepository, restorations []order.StockRestoration) error {
	if len(restorations) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(restorations))
	for i, r := range restorations {
		ids[i] = r.ProductID
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, r := range restorations {
		p, ok := byID[r.ProductID]
		if !ok {
			return shared.NewDomainErrorf("NOT_FOUND", "Product %s no longer exists", r.ProductID)
		}
		if err := p.RestoreStock(r.Quantity); err != nil {
			return err
		}
		if err := products.SaveWithLock(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// publish sends and clears the aggregate's pending events. Publishing
// happens after commit, so failures are logged and not returned.
func (s *OrderService) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if s.eventPublisher == nil || len(events) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish order events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Error(err))
		}
	}
}

func toDomainFilter(f OrderListFilter) (order.OrderFilter, error) {
	out := order.OrderFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		}.Normalize(),
	}
	if f.Status != "" {
		status := order.Status(f.Status)
		if !status.IsValid() {
			return out, shared.NewDomainErrorf("INVALID_INPUT", "Unknown order status %q", f.Status)
		}
		out.Status = &status
	}
	return out, nil
}
