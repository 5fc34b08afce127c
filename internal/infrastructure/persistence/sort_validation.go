package persistence

import (
	"strings"

	"github.com/flowershop/storefront/internal/domain/catalog"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// OrderSortFields contains allowed sort fields for order listings
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"placed_at":    true,
	"order_number": true,
	"status":       true,
}

// productSortClause maps a storefront sort key to an ORDER BY clause.
// Every clause ends with the id so that pagination is stable.
func productSortClause(sort string) string {
	switch sort {
	case catalog.SortYear:
		return "year DESC, created_at DESC, id"
	case catalog.SortName:
		return "name ASC, id"
	case catalog.SortPrice:
		return "price ASC, id"
	default:
		return "created_at DESC, id"
	}
}
