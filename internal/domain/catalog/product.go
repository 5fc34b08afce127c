package catalog

import (
	"strings"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinProductYear is the earliest production year accepted for a product
const MinProductYear = 1900

// ProductDetails holds the descriptive attributes of a product
type ProductDetails struct {
	Name        string
	Description string
	CategoryID  uuid.UUID
	Country     string
	Year        int
	Model       string
}

// Product is a sellable item. It is the aggregate root for price, stock and
// availability changes.
type Product struct {
	shared.BaseAggregateRoot
	Name          string
	Description   string
	Price         decimal.Decimal
	CategoryID    uuid.UUID
	Country       string
	Year          int
	Model         string
	ImageKey      string
	StockQuantity int
	IsAvailable   bool
}

// NewProduct creates an available product with the given price and stock
func NewProduct(details ProductDetails, price decimal.Decimal, stock int) (*Product, error) {
	details = normalizeDetails(details)
	if err := validateDetails(details); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Price:             price,
		StockQuantity:     stock,
		IsAvailable:       true,
	}
	p.applyDetails(details)
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update replaces the descriptive attributes of the product
func (p *Product) Update(details ProductDetails) error {
	details = normalizeDetails(details)
	if err := validateDetails(details); err != nil {
		return err
	}
	p.applyDetails(details)
	p.Touch()
	return nil
}

// ChangePrice sets a new unit price. Orders already placed keep the price
// they were created with.
func (p *Product) ChangePrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if p.Price.Equal(price) {
		return nil
	}
	old := p.Price
	p.Price = price
	p.Touch()
	p.AddDomainEvent(NewProductPriceChangedEvent(p, old))
	return nil
}

// SetAvailability shows or hides the product in the storefront
func (p *Product) SetAvailability(available bool) {
	if p.IsAvailable == available {
		return
	}
	p.IsAvailable = available
	p.Touch()
}

// SetImage records the object storage key of the product image
func (p *Product) SetImage(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return shared.NewDomainError("INVALID_IMAGE", "Image key cannot be empty")
	}
	p.ImageKey = key
	p.Touch()
	return nil
}

// CanSell reports whether quantity units are currently in stock
func (p *Product) CanSell(quantity int) bool {
	return quantity > 0 && quantity <= p.StockQuantity
}

// DecreaseStock takes quantity units out of stock and returns how many were
// actually taken. Stock never drops below zero: a larger decrement empties it.
func (p *Product) DecreaseStock(quantity int) (int, error) {
	if quantity <= 0 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	taken := min(quantity, p.StockQuantity)
	p.StockQuantity -= taken
	p.Touch()
	return taken, nil
}

// RestoreStock puts quantity units back into stock
func (p *Product) RestoreStock(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if quantity == 0 {
		return nil
	}
	p.StockQuantity += quantity
	p.Touch()
	return nil
}

// AdjustStock applies a manual correction. The result is clamped at zero.
func (p *Product) AdjustStock(delta int) {
	p.StockQuantity = max(p.StockQuantity+delta, 0)
	p.Touch()
}

func (p *Product) applyDetails(d ProductDetails) {
	p.Name = d.Name
	p.Description = d.Description
	p.CategoryID = d.CategoryID
	p.Country = d.Country
	p.Year = d.Year
	p.Model = d.Model
}

func normalizeDetails(d ProductDetails) ProductDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Country = strings.TrimSpace(d.Country)
	d.Model = strings.TrimSpace(d.Model)
	return d
}

func validateDetails(d ProductDetails) error {
	if d.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len([]rune(d.Name)) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if d.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Product category is required")
	}
	if d.Year != 0 && d.Year < MinProductYear {
		return shared.NewDomainErrorf("INVALID_YEAR", "Year cannot be earlier than %d", MinProductYear)
	}
	if len([]rune(d.Country)) > 100 || len([]rune(d.Model)) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Country and model cannot exceed 100 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
