package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Messages returned by cart mutations
const (
	MessageAdded   = "Product added to cart"
	MessageUpdated = "Quantity updated"
	MessageRemoved = "Product removed from cart"
)

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=1000"`
}

// UpdateItemRequest sets the quantity of a cart entry. Zero or less removes it.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"max=1000"`
}

// CartLineResponse is one cart entry priced at the product's current price
type CartLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageKey    string          `json:"image_key,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	InStock     int             `json:"in_stock"`
}

// CartResponse is the full cart view
type CartResponse struct {
	Items         []CartLineResponse `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	TotalPrice    decimal.Decimal    `json:"total_price"`
}
