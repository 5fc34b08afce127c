// Package cart models the per-user shopping cart. Cart entries reserve no
// stock; availability is checked when an entry is created or changed.
package cart

import (
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// CartItem is one (user, product) line of a shopping cart
type CartItem struct {
	shared.BaseEntity
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// NewCartItem creates a cart entry with a positive quantity
func NewCartItem(userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "User and product are required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
	}, nil
}

// Increase adds quantity units to the entry
func (c *CartItem) Increase(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c.Quantity += quantity
	c.Touch()
	return nil
}

// SetQuantity replaces the entry quantity
func (c *CartItem) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c.Quantity = quantity
	c.Touch()
	return nil
}

// BelongsTo reports whether the entry is in the given user's cart
func (c *CartItem) BelongsTo(userID uuid.UUID) bool {
	return c.UserID == userID
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return nil
}
