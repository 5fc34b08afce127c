// Package order holds the order aggregate: a snapshot of products, quantities
// and prices taken at checkout, plus the status machine that governs it.
package order

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerCancellationReason is recorded when an owner cancels their own order
const CustomerCancellationReason = "Cancelled by customer"

// Domain errors specific to orders
var (
	ErrEmptyCancellationReason = shared.NewDomainError("EMPTY_CANCELLATION_REASON", "Cancellation reason is required")
	ErrNoItems                 = shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
)

// OrderItem is one product line of an order. UnitPrice is frozen at checkout.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	// StockDeducted is how many units checkout actually took from stock.
	// It can be lower than Quantity when stock ran out; cancellation
	// restores exactly this amount.
	StockDeducted int
}

// Subtotal returns quantity times the frozen unit price
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemLine describes a product line to add to a new order
type ItemLine struct {
	ProductID     uuid.UUID
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	StockDeducted int
}

// StockRestoration is an amount of stock to give back to a product
type StockRestoration struct {
	ProductID uuid.UUID
	Quantity  int
}

// Order is the aggregate root for the order lifecycle
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber        string
	UserID             uuid.UUID
	Status             Status
	CancellationReason string
	Items              []OrderItem
	PlacedAt           *time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
}

// NewOrder starts an empty order for userID in status new
func NewOrder(userID uuid.UUID) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Order owner is required")
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Status:            StatusNew,
		Items:             make([]OrderItem, 0),
	}
	o.OrderNumber = generateOrderNumber(o.ID, o.CreatedAt)
	return o, nil
}

// AddItem appends a product line. Only orders that have not been placed yet
// accept new lines.
func (o *Order) AddItem(line ItemLine) (*OrderItem, error) {
	if o.Status != StatusNew || o.PlacedAt != nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added before the order is placed")
	}
	if line.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if line.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if line.StockDeducted < 0 || line.StockDeducted > line.Quantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Deducted stock must be between zero and the ordered quantity")
	}

	o.Items = append(o.Items, OrderItem{
		ID:            uuid.New(),
		OrderID:       o.ID,
		ProductID:     line.ProductID,
		ProductName:   line.ProductName,
		Quantity:      line.Quantity,
		UnitPrice:     line.UnitPrice,
		StockDeducted: line.StockDeducted,
	})
	return &o.Items[len(o.Items)-1], nil
}

// Place finalizes checkout and emits OrderPlaced
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	if o.PlacedAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Order has already been placed")
	}
	now := time.Now()
	o.PlacedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// Confirm moves a new order to confirmed. Only admins may confirm.
// Confirmation does not change stock: stock was taken at checkout.
func (o *Order) Confirm(actor Actor) error {
	if !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only administrators can confirm orders")
	}
	if !o.Status.CanTransitionTo(StatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = StatusConfirmed
	o.ConfirmedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderConfirmedEvent(o, actor))
	return nil
}

// Cancel moves the order to cancelled and returns the stock that must be
// given back.
//
// Admins may cancel new or confirmed orders and must give a non-empty
// reason. The owning customer may cancel only while the order is new; the
// reason is then always CustomerCancellationReason.
func (o *Order) Cancel(actor Actor, reason string) ([]StockRestoration, error) {
	switch actor.Role {
	case RoleAdmin:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, ErrEmptyCancellationReason
		}
	case RoleCustomer:
		if actor.UserID != o.UserID {
			return nil, shared.NewDomainError("FORBIDDEN", "Order belongs to another user")
		}
		if o.Status != StatusNew {
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
		}
		reason = CustomerCancellationReason
	default:
		return nil, shared.NewDomainError("FORBIDDEN", "Unknown actor role")
	}

	if !o.Status.CanTransitionTo(StatusCancelled) {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}

	previous := o.Status
	now := time.Now()
	o.Status = StatusCancelled
	o.CancellationReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now

	restorations := o.stockRestorations()
	o.AddDomainEvent(NewOrderCancelledEvent(o, previous, actor, restorations))
	return restorations, nil
}

// CanBeViewedBy reports whether actor may read this order
func (o *Order) CanBeViewedBy(actor Actor) bool {
	return actor.IsAdmin() || actor.UserID == o.UserID
}

// TotalQuantity returns the number of units across all items
func (o *Order) TotalQuantity() int {
	total := 0
	for i := range o.Items {
		total += o.Items[i].Quantity
	}
	return total
}

// TotalPrice returns the sum of item subtotals at their frozen prices
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}

// stockRestorations groups deducted stock per product, skipping zeros
func (o *Order) stockRestorations() []StockRestoration {
	index := make(map[uuid.UUID]int)
	result := make([]StockRestoration, 0, len(o.Items))
	for _, item := range o.Items {
		if item.StockDeducted == 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			result[i].Quantity += item.StockDeducted
			continue
		}
		index[item.ProductID] = len(result)
		result = append(result, StockRestoration{ProductID: item.ProductID, Quantity: item.StockDeducted})
	}
	return result
}

// generateOrderNumber uses the last 48 random bits of the id. Collisions are
// still possible and are retried at checkout.
func generateOrderNumber(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("FS-%s-%s", at.Format("20060102"), strings.ToUpper(hex.EncodeToString(id[10:])))
}
