package order

import (
	"time"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest confirms the cart as an order. The password is re-entered
// to confirm the purchase.
type CheckoutRequest struct {
	Password string `json:"password" binding:"required"`
}

// CancelOrderRequest carries the administrator's cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// BulkConfirmRequest selects orders to confirm
type BulkConfirmRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=200"`
}

// BulkCancelRequest selects orders to cancel. An empty reason is answered
// with a reason_required payload echoing the selection.
type BulkCancelRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=200"`
	Reason   string      `json:"reason"`
}

// OrderListFilter holds the query parameters of order listings
type OrderListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=new confirmed cancelled"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse is one order line
type OrderItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockDeducted int             `json:"stock_deducted"`
}

// OrderResponse is the full order view
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             uuid.UUID           `json:"user_id"`
	Status             string              `json:"status"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	TotalQuantity      int                 `json:"total_quantity"`
	TotalPrice         decimal.Decimal     `json:"total_price"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	Version            int                 `json:"version"`
}

// BulkResult reports the outcome of a bulk action. Orders that were not in
// an eligible status, or do not exist, are listed in Skipped.
type BulkResult struct {
	Affected int         `json:"affected"`
	Skipped  []uuid.UUID `json:"skipped"`
}

// OrderStats counts orders per status for the back-office dashboard
type OrderStats struct {
	New       int64 `json:"new"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
}

// ToOrderResponse converts a domain order to its response
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Subtotal:      item.Subtotal(),
			StockDeducted: item.StockDeducted,
		}
	}
	return OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Status:             o.Status.String(),
		CancellationReason: o.CancellationReason,
		Items:              items,
		TotalQuantity:      o.TotalQuantity(),
		TotalPrice:         o.TotalPrice(),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		ConfirmedAt:        o.ConfirmedAt,
		CancelledAt:        o.CancelledAt,
		Version:            o.Version,
	}
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}
