package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	orderapp "github.com/flowershop/storefront/internal/application/order"
	"github.com/flowershop/storefront/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type fakeRenderer struct {
	requests []*RenderRequest
	err      error
}

func (f *fakeRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.4 fake")}, nil
}

func (f *fakeRenderer) Close() error { return nil }

func sampleReceipt() orderapp.ReceiptData {
	return orderapp.ReceiptData{
		OrderNumber:  "ORD-20261017-0001",
		CustomerName: "Петрова Анна Ивановна",
		Status:       "cancelled",
		PlacedAt:     time.Date(2026, 3, 8, 9, 30, 0, 0, time.UTC),
		Lines: []orderapp.ReceiptLine{
			{ProductName: "Роза <красная>", Quantity: 3, UnitPrice: decimal.NewFromInt(2500), Subtotal: decimal.NewFromInt(7500)},
			{ProductName: "Тюльпан", Quantity: 1, UnitPrice: decimal.RequireFromString("99.5"), Subtotal: decimal.RequireFromString("99.5")},
		},
		TotalQuantity:      4,
		TotalPrice:         decimal.RequireFromString("7599.5"),
		CancellationReason: "Нет в наличии",
	}
}

func TestReceiptPrinter_RenderHTML(t *testing.T) {
	printer, err := NewReceiptPrinter(&fakeRenderer{}, ReceiptPrinterConfig{ShopName: "Флора"}, nil)
	require.NoError(t, err)

	html, err := printer.RenderHTML(sampleReceipt())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Флора</h1>")
	assert.Contains(t, html, "Заказ № ORD-20261017-0001 от 08.03.2026 09:30")
	assert.Contains(t, html, "Статус: Отменён")
	assert.Contains(t, html, "Роза &lt;красная&gt;", "product names are escaped")
	assert.Contains(t, html, "Причина отмены: Нет в наличии")
	assert.Contains(t, html, "₽")
	assert.Contains(t, html, `lang="ru"`)
}

func TestMoneyFormatter(t *testing.T) {
	f, err := newMoneyFormatter("USD", language.English)
	require.NoError(t, err)
	assert.Equal(t, "2,500.00 $", f.Format(decimal.NewFromInt(2500)))
	assert.Equal(t, "0.10 $", f.Format(decimal.RequireFromString("0.104")))

	_, err = newMoneyFormatter("XYZ1", language.English)
	assert.Error(t, err)
}

func TestReceiptPrinter_RenderReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("renders on A4 and archives", func(t *testing.T) {
		renderer := &fakeRenderer{}
		archive := storage.NewMemoryObjectStorage("")
		printer, err := NewReceiptPrinter(renderer, ReceiptPrinterConfig{}, nil)
		require.NoError(t, err)
		printer.SetArchive(archive)

		pdf, err := printer.RenderReceipt(ctx, sampleReceipt())
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), pdf)

		require.Len(t, renderer.requests, 1)
		assert.Equal(t, PaperSizeA4, renderer.requests[0].PaperSize)
		assert.Equal(t, "Заказ ORD-20261017-0001", renderer.requests[0].Title)

		stored, err := archive.Get(ctx, "receipts/ORD-20261017-0001.pdf")
		require.NoError(t, err)
		assert.Equal(t, pdf, stored)
	})

	t.Run("propagates render errors", func(t *testing.T) {
		renderer := &fakeRenderer{err: NewRenderError(ErrCodeRenderTimeout, "timed out", nil)}
		printer, err := NewReceiptPrinter(renderer, ReceiptPrinterConfig{}, nil)
		require.NoError(t, err)

		_, err = printer.RenderReceipt(ctx, sampleReceipt())
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, ErrCodeRenderTimeout, renderErr.Code)
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		_, err := NewReceiptPrinter(&fakeRenderer{}, ReceiptPrinterConfig{CurrencyISO: "NOPE"}, nil)
		assert.Error(t, err)
	})
}

func TestBuildPrintParams(t *testing.T) {
	a4 := buildPrintParams(&RenderRequest{PaperSize: PaperSizeA4, Margins: Margins{Top: 25.4}})
	assert.InDelta(t, mmToInches(210), a4.PaperWidth, 0.001)
	assert.InDelta(t, mmToInches(297), a4.PaperHeight, 0.001)
	assert.InDelta(t, 1.0, a4.MarginTop, 0.001)
	assert.True(t, a4.PrintBackground)

	roll := buildPrintParams(&RenderRequest{PaperSize: PaperSizeReceipt80, Landscape: true})
	assert.InDelta(t, mmToInches(80), roll.PaperWidth, 0.001)
	assert.InDelta(t, mmToInches(continuousPageHeightMM), roll.PaperHeight, 0.001)
	assert.True(t, roll.Landscape)
}

func TestChromedpRenderer_RejectsBadRequests(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  ", PaperSize: PaperSizeA4})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", PaperSize: "LETTER"})
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)
}
