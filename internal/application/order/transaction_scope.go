package order

import (
	"context"

	"github.com/flowershop/storefront/internal/domain/cart"
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/order"
)

// TransactionScope runs a function inside one database transaction.
// Every stock-affecting sequence (checkout, confirm, cancel, bulk actions)
// goes through it: if fn returns an error nothing it wrote is kept.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the repositories that share the
// current transaction.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Carts() cart.CartRepository
	Orders() order.OrderRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// It is meant for tests that do not need rollback.
type NoOpTransactionScope struct {
	products catalog.ProductRepository
	carts    cart.CartRepository
	orders   order.OrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(products catalog.ProductRepository, carts cart.CartRepository, orders order.OrderRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{products: products, carts: carts, orders: orders}
}

// Execute calls fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.products }

// Carts returns the cart repository
func (s *NoOpTransactionScope) Carts() cart.CartRepository { return s.carts }

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.orders }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
