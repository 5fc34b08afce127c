package catalog

import (
	"context"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// Sort keys accepted by the storefront listing
const (
	SortNewest = ""
	SortYear   = "year"
	SortName   = "name"
	SortPrice  = "price"
)

// ProductFilter narrows the storefront product listing
type ProductFilter struct {
	shared.Filter
	CategoryID *uuid.UUID
	// Sort is one of SortYear (newest year first), SortName, SortPrice
	// (cheapest first) or SortNewest.
	Sort string
	// IncludeUnavailable lists hidden products too (back-office only)
	IncludeUnavailable bool
}

// IsValidSort reports whether sort is a known sort key
func IsValidSort(sort string) bool {
	switch sort {
	case SortNewest, SortYear, SortName, SortPrice:
		return true
	}
	return false
}

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	Save(ctx context.Context, product *Product) error
	// SaveWithLock writes the product only if its version is unchanged since
	// it was loaded and returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, product *Product) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context) ([]*Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, category *Category) error
}
