package models

import (
	"github.com/flowershop/storefront/internal/domain/cart"
	"github.com/google/uuid"
)

// CartItemModel is the persistence model for cart entries
type CartItemModel struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:2"`
	Quantity  int       `gorm:"not null;check:quantity > 0"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the model to a domain CartItem
func (m *CartItemModel) ToDomain() *cart.CartItem {
	return &cart.CartItem{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
	}
}

// CartItemModelFromDomain creates a CartItemModel from a domain CartItem
func CartItemModelFromDomain(c *cart.CartItem) *CartItemModel {
	m := &CartItemModel{
		UserID:    c.UserID,
		ProductID: c.ProductID,
		Quantity:  c.Quantity,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
