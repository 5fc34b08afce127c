// Package models contains the GORM persistence models. Each model maps to
// one table and converts to and from its domain type with ToDomain and
// FromDomain; domain types never carry gorm tags.
package models

// All returns every model, in dependency order, for AutoMigrate in tests
// and local development. Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&UserModel{},
		&CategoryModel{},
		&ProductModel{},
		&CartItemModel{},
		&OrderModel{},
		&OrderItemModel{},
	}
}
