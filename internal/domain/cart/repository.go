package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository persists cart entries
type CartRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*CartItem, error)
	// FindByUser returns the user's entries, oldest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
