package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	orderapp "github.com/flowershop/storefront/internal/application/order"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/receipt.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

var statusLabels = map[string]string{
	"new":       "новый",
	"confirmed": "подтверждён",
	"cancelled": "отменён",
}

// ObjectArchive stores rendered documents
type ObjectArchive interface {
	Put(ctx context.Context, storageKey, contentType string, data []byte) error
}

// ReceiptPrinterConfig configures receipt layout and locale
type ReceiptPrinterConfig struct {
	ShopName    string
	CurrencyISO string
	Language    language.Tag
	PaperSize   PaperSize
}

// ReceiptPrinter renders order receipts as PDF
type ReceiptPrinter struct {
	renderer PDFRenderer
	config   ReceiptPrinterConfig
	money    *moneyFormatter
	caser    cases.Caser
	archive  ObjectArchive
	logger   *zap.Logger
}

// NewReceiptPrinter creates a printer. An unknown currency code is an error.
func NewReceiptPrinter(renderer PDFRenderer, config ReceiptPrinterConfig, logger *zap.Logger) (*ReceiptPrinter, error) {
	if config.ShopName == "" {
		config.ShopName = "Цветочный магазин"
	}
	if config.CurrencyISO == "" {
		config.CurrencyISO = "RUB"
	}
	if config.Language == language.Und {
		config.Language = language.Russian
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = PaperSizeA4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	money, err := newMoneyFormatter(config.CurrencyISO, config.Language)
	if err != nil {
		return nil, err
	}
	return &ReceiptPrinter{
		renderer: renderer,
		config:   config,
		money:    money,
		caser:    cases.Title(config.Language),
		logger:   logger,
	}, nil
}

// SetArchive stores a copy of every rendered receipt under receipts/
func (p *ReceiptPrinter) SetArchive(archive ObjectArchive) {
	p.archive = archive
}

// RenderReceipt renders the receipt of one order
func (p *ReceiptPrinter) RenderReceipt(ctx context.Context, data orderapp.ReceiptData) ([]byte, error) {
	html, err := p.RenderHTML(data)
	if err != nil {
		return nil, err
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:      html,
		Title:     "Заказ " + data.OrderNumber,
		PaperSize: p.config.PaperSize,
		Margins:   Margins{Top: 10, Right: 10, Bottom: 10, Left: 10},
	})
	if err != nil {
		return nil, err
	}

	if p.archive != nil {
		key := fmt.Sprintf("receipts/%s.pdf", data.OrderNumber)
		if err := p.archive.Put(ctx, key, "application/pdf", result.PDFData); err != nil {
			// the customer still gets the receipt
			p.logger.Warn("failed to archive receipt", zap.String("key", key), zap.Error(err))
		}
	}
	return result.PDFData, nil
}

type receiptLineView struct {
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

type receiptView struct {
	Lang     string
	Title    string
	ShopName string
	Status   string
	PlacedAt string
	Total    string
	Lines    []receiptLineView
	Order    orderapp.ReceiptData
}

// RenderHTML fills the receipt template
func (p *ReceiptPrinter) RenderHTML(data orderapp.ReceiptData) (string, error) {
	status := data.Status
	if label, ok := statusLabels[status]; ok {
		status = label
	}

	view := receiptView{
		Lang:     p.config.Language.String(),
		Title:    "Заказ " + data.OrderNumber,
		ShopName: p.config.ShopName,
		Status:   p.caser.String(status),
		PlacedAt: data.PlacedAt.Format("02.01.2006 15:04"),
		Total:    p.money.Format(data.TotalPrice),
		Lines:    make([]receiptLineView, len(data.Lines)),
		Order:    data,
	}
	for i, line := range data.Lines {
		view.Lines[i] = receiptLineView{
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			UnitPrice: p.money.Format(line.UnitPrice),
			Subtotal:  p.money.Format(line.Subtotal),
		}
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to render receipt template", err)
	}
	return buf.String(), nil
}

// moneyFormatter prints amounts with locale grouping and the currency symbol
type moneyFormatter struct {
	printer *message.Printer
	symbol  string
}

func newMoneyFormatter(iso string, lang language.Tag) (*moneyFormatter, error) {
	unit, err := currency.ParseISO(iso)
	if err != nil {
		return nil, fmt.Errorf("unknown currency %q: %w", iso, err)
	}
	printer := message.NewPrinter(lang)
	return &moneyFormatter{
		printer: printer,
		symbol:  strings.TrimSpace(printer.Sprint(currency.NarrowSymbol(unit))),
	}, nil
}

// Format renders 2500 as "2 500,00 ₽" for Russian
func (f *moneyFormatter) Format(amount decimal.Decimal) string {
	value := f.printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
	return value + " " + f.symbol
}

var _ orderapp.ReceiptRenderer = (*ReceiptPrinter)(nil)
