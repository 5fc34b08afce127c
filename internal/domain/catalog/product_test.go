package catalog

import (
	"testing"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ProductDetails {
	return ProductDetails{
		Name:       "Red Roses",
		CategoryID: uuid.New(),
		Country:    "Ecuador",
		Year:       2024,
		Model:      "Bouquet-25",
	}
}

func TestNewProduct(t *testing.T) {
	t.Run("creates available product", func(t *testing.T) {
		p, err := NewProduct(validDetails(), decimal.NewFromInt(2500), 10)
		require.NoError(t, err)

		assert.Equal(t, "Red Roses", p.Name)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(2500)))
		assert.Equal(t, 10, p.StockQuantity)
		assert.True(t, p.IsAvailable)
		assert.Equal(t, 1, p.GetVersion())

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("trims name", func(t *testing.T) {
		d := validDetails()
		d.Name = "  Tulips  "
		p, err := NewProduct(d, decimal.Zero, 0)
		require.NoError(t, err)
		assert.Equal(t, "Tulips", p.Name)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct(validDetails(), decimal.NewFromInt(-1), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Price cannot be negative")
	})

	t.Run("rejects negative stock", func(t *testing.T) {
		_, err := NewProduct(validDetails(), decimal.NewFromInt(1), -1)
		require.Error(t, err)
	})

	t.Run("rejects missing category", func(t *testing.T) {
		d := validDetails()
		d.CategoryID = uuid.Nil
		_, err := NewProduct(d, decimal.NewFromInt(1), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "category")
	})

	t.Run("rejects year before 1900", func(t *testing.T) {
		d := validDetails()
		d.Year = 1899
		_, err := NewProduct(d, decimal.NewFromInt(1), 1)
		require.Error(t, err)
	})
}

func TestProduct_DecreaseStock(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		decrement int
		wantTaken int
		wantStock int
	}{
		{"partial", 10, 3, 3, 7},
		{"exact", 5, 5, 5, 0},
		{"clamped at zero", 2, 5, 2, 0},
		{"already empty", 0, 4, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(validDetails(), decimal.NewFromInt(100), tt.stock)
			require.NoError(t, err)

			taken, err := p.DecreaseStock(tt.decrement)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTaken, taken)
			assert.Equal(t, tt.wantStock, p.StockQuantity)
			assert.GreaterOrEqual(t, p.StockQuantity, 0)
		})
	}

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p, _ := NewProduct(validDetails(), decimal.NewFromInt(100), 3)
		_, err := p.DecreaseStock(0)
		require.Error(t, err)
		assert.Equal(t, 3, p.StockQuantity)
	})
}

func TestProduct_RestoreAndAdjustStock(t *testing.T) {
	p, err := NewProduct(validDetails(), decimal.NewFromInt(100), 3)
	require.NoError(t, err)

	require.NoError(t, p.RestoreStock(4))
	assert.Equal(t, 7, p.StockQuantity)

	require.Error(t, p.RestoreStock(-1))
	assert.Equal(t, 7, p.StockQuantity)

	p.AdjustStock(-10)
	assert.Equal(t, 0, p.StockQuantity)

	p.AdjustStock(6)
	assert.Equal(t, 6, p.StockQuantity)
}

func TestProduct_CanSell(t *testing.T) {
	p, _ := NewProduct(validDetails(), decimal.NewFromInt(100), 10)

	assert.True(t, p.CanSell(10))
	assert.False(t, p.CanSell(11))
	assert.False(t, p.CanSell(0))
}

func TestProduct_ChangePrice(t *testing.T) {
	p, _ := NewProduct(validDetails(), decimal.NewFromInt(2500), 10)
	p.ClearDomainEvents()

	require.NoError(t, p.ChangePrice(decimal.NewFromInt(3000)))
	assert.True(t, p.Price.Equal(decimal.NewFromInt(3000)))

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*ProductPriceChangedEvent)
	require.True(t, ok)
	assert.True(t, changed.OldPrice.Equal(decimal.NewFromInt(2500)))
	assert.True(t, changed.NewPrice.Equal(decimal.NewFromInt(3000)))

	t.Run("same price emits nothing", func(t *testing.T) {
		p.ClearDomainEvents()
		require.NoError(t, p.ChangePrice(decimal.NewFromInt(3000)))
		assert.Empty(t, p.GetDomainEvents())
	})

	t.Run("negative price rejected", func(t *testing.T) {
		err := p.ChangePrice(decimal.NewFromInt(-5))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
	})
}

func TestProduct_SetAvailabilityAndImage(t *testing.T) {
	p, _ := NewProduct(validDetails(), decimal.NewFromInt(100), 1)

	p.SetAvailability(false)
	assert.False(t, p.IsAvailable)

	require.Error(t, p.SetImage("  "))
	require.NoError(t, p.SetImage("products/rose.jpg"))
	assert.Equal(t, "products/rose.jpg", p.ImageKey)
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory(" Roses ", "Classic")
	require.NoError(t, err)
	assert.Equal(t, "Roses", c.Name)

	_, err = NewCategory("", "")
	require.Error(t, err)

	require.NoError(t, c.Rename("Garden roses", ""))
	assert.Equal(t, "Garden roses", c.Name)
}

func TestIsValidSort(t *testing.T) {
	for _, s := range []string{"", "year", "name", "price"} {
		assert.True(t, IsValidSort(s), s)
	}
	assert.False(t, IsValidSort("popularity"))
}
