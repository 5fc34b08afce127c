package order

import (
	"context"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	UserID *uuid.UUID
	Status *Status
}

// OrderRepository persists orders together with their items
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	// Create inserts a new order and all of its items
	Create(ctx context.Context, order *Order) error
	// SaveWithLock writes status changes only if the version is unchanged
	// since the order was loaded and returns shared.ErrConcurrencyConflict
	// otherwise.
	SaveWithLock(ctx context.Context, order *Order) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
