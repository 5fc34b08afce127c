package order

import (
	"context"
	"fmt"
	"time"

	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptLine is one printed order line
type ReceiptLine struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptData is everything printed on an order receipt
type ReceiptData struct {
	OrderNumber        string
	CustomerName       string
	Status             string
	CancellationReason string
	PlacedAt           time.Time
	Lines              []ReceiptLine
	TotalQuantity      int
	TotalPrice         decimal.Decimal
}

// ReceiptRenderer turns receipt data into a printable document
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

// ReceiptFile is a rendered receipt ready to be downloaded
type ReceiptFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Receipt renders the PDF receipt of an order the actor may see
func (s *OrderService) Receipt(ctx context.Context, id uuid.UUID, actor order.Actor) (*ReceiptFile, error) {
	if s.receipts == nil {
		return nil, ErrReceiptsNotConfigured
	}
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.CanBeViewedBy(actor) {
		return nil, shared.ErrNotFound
	}
	user, err := s.userRepo.FindByID(ctx, o.UserID)
	if err != nil {
		return nil, err
	}

	content, err := s.receipts.RenderReceipt(ctx, BuildReceiptData(o, user.FullName()))
	if err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", o.OrderNumber, err)
	}
	return &ReceiptFile{
		Filename:    fmt.Sprintf("receipt-%s.pdf", o.OrderNumber),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// BuildReceiptData maps an order to the data printed on its receipt
func BuildReceiptData(o *order.Order, customerName string) ReceiptData {
	lines := make([]ReceiptLine, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		lines[i] = ReceiptLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		}
	}
	placedAt := o.CreatedAt
	if o.PlacedAt != nil {
		placedAt = *o.PlacedAt
	}
	return ReceiptData{
		OrderNumber:        o.OrderNumber,
		CustomerName:       customerName,
		Status:             o.Status.String(),
		CancellationReason: o.CancellationReason,
		PlacedAt:           placedAt,
		Lines:              lines,
		TotalQuantity:      o.TotalQuantity(),
		TotalPrice:         o.TotalPrice(),
	}
}
