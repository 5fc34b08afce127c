package models

import (
	"time"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for orders
type OrderModel struct {
	AggregateModel
	OrderNumber        string       `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID             uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status             order.Status `gorm:"type:varchar(20);not null;default:'new';index"`
	CancellationReason string       `gorm:"type:text"`
	PlacedAt           *time.Time   `gorm:"index"`
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	Items              []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model and its loaded items to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		OrderNumber:        m.OrderNumber,
		UserID:             m.UserID,
		Status:             m.Status,
		CancellationReason: m.CancellationReason,
		PlacedAt:           m.PlacedAt,
		ConfirmedAt:        m.ConfirmedAt,
		CancelledAt:        m.CancelledAt,
		Items:              make([]order.OrderItem, len(m.Items)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates an OrderModel, items included
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Status:             o.Status,
		CancellationReason: o.CancellationReason,
		PlacedAt:           o.PlacedAt,
		ConfirmedAt:        o.ConfirmedAt,
		CancelledAt:        o.CancelledAt,
		Items:              make([]OrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(&o.Items[i], o.CreatedAt)
	}
	return m
}

// OrderItemModel is the persistence model for order lines
type OrderItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	Quantity      int             `gorm:"not null;check:quantity > 0"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockDeducted int             `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain OrderItem
func (m *OrderItemModel) ToDomain() order.OrderItem {
	return order.OrderItem{
		ID:            m.ID,
		OrderID:       m.OrderID,
		ProductID:     m.ProductID,
		ProductName:   m.ProductName,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		StockDeducted: m.StockDeducted,
	}
}

// OrderItemModelFromDomain creates an OrderItemModel from a domain OrderItem
func OrderItemModelFromDomain(i *order.OrderItem, createdAt time.Time) OrderItemModel {
	return OrderItemModel{
		ID:            i.ID,
		OrderID:       i.OrderID,
		ProductID:     i.ProductID,
		ProductName:   i.ProductName,
		Quantity:      i.Quantity,
		UnitPrice:     i.UnitPrice,
		StockDeducted: i.StockDeducted,
		CreatedAt:     createdAt,
	}
}
