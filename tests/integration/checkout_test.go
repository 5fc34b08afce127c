package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	cartapp "github.com/flowershop/storefront/internal/application/cart"
	apporder "github.com/flowershop/storefront/internal/application/order"
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/infrastructure/persistence"
	"github.com/flowershop/storefront/internal/infrastructure/persistence/models"
	"github.com/flowershop/storefront/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storefrontSetup wires the cart and order services to PostgreSQL
type storefrontSetup struct {
	DB       *TestDB
	Carts    *cartapp.CartService
	Orders   *apporder.OrderService
	Admin    *identity.User
	Category *catalog.Category
}

func newStorefrontSetup(t *testing.T, opts apporder.Options) *storefrontSetup {
	t.Helper()
	testDB := NewTestDB(t)
	db := testDB.DB

	productRepo := persistence.NewGormProductRepository(db)
	orders := apporder.NewOrderService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormOrderRepository(db),
		persistence.NewGormUserRepository(db),
		opts,
	)

	return &storefrontSetup{
		DB:       testDB,
		Carts:    cartapp.NewCartService(persistence.NewGormCartRepository(db), productRepo),
		Orders:   orders,
		Admin:    testutil.CreateUser(t, db, "florist", true),
		Category: testutil.CreateCategory(t, db, "Букеты"),
	}
}

func (s *storefrontSetup) addToCart(t *testing.T, user *identity.User, p *catalog.Product, qty int) {
	t.Helper()
	_, err := s.Carts.Add(context.Background(), user.ID, cartapp.AddItemRequest{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
}

func (s *storefrontSetup) checkout(ctx context.Context, user *identity.User) (*apporder.OrderResponse, error) {
	return s.Orders.Checkout(ctx, apporder.CheckoutInput{UserID: user.ID, Password: testutil.TestPassword})
}

func (s *storefrontSetup) stock(t *testing.T, p *catalog.Product) int {
	t.Helper()
	return testutil.ReloadProduct(t, s.DB.DB, p).StockQuantity
}

func TestCheckout_Postgres_CartToOrder(t *testing.T) {
	s := newStorefrontSetup(t, apporder.DefaultOptions())
	customer := testutil.CreateUser(t, s.DB.DB, "customer", false)
	a := testutil.CreateProduct(t, s.DB.DB, s.Category, "Роза", 2500, 10)
	b := testutil.CreateProduct(t, s.DB.DB, s.Category, "Лилия", 900, 5)

	s.addToCart(t, customer, a, 3)
	s.addToCart(t, customer, b, 5)

	resp, err := s.checkout(context.Background(), customer)
	require.NoError(t, err)

	assert.Equal(t, 8, resp.TotalQuantity)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 7, s.stock(t, a))
	assert.Equal(t, 0, s.stock(t, b))
	assert.Zero(t, testutil.CountRows(t, s.DB.DB, &models.CartItemModel{}))

	// Later price edits do not change the stored order
	require.NoError(t, s.DB.DB.Model(&models.ProductModel{}).Where("id = ?", a.ID).Update("price", 3000).Error)
	stored, err := s.Orders.GetByID(context.Background(), resp.ID, order.CustomerActor(customer.ID))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3*2500+5*900).Equal(stored.TotalPrice))
}

func TestCheckout_Postgres_AddMoreThanStockRejected(t *testing.T) {
	s := newStorefrontSetup(t, apporder.DefaultOptions())
	customer := testutil.CreateUser(t, s.DB.DB, "customer", false)
	p := testutil.CreateProduct(t, s.DB.DB, s.Category, "Роза", 2500, 10)

	_, err := s.Carts.Add(context.Background(), customer.ID, cartapp.AddItemRequest{ProductID: p.ID, Quantity: 11})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Zero(t, testutil.CountRows(t, s.DB.DB, &models.CartItemModel{}))
}

func TestCheckout_Postgres_ConcurrentBuyersNeverDriveStockNegative(t *testing.T) {
	opts := apporder.DefaultOptions()
	opts.CheckoutRetries = 10
	s := newStorefrontSetup(t, opts)
	p := testutil.CreateProduct(t, s.DB.DB, s.Category, "Тюльпан", 120, 10)

	const buyers = 5
	users := make([]*identity.User, buyers)
	for i := range users {
		users[i] = testutil.CreateUser(t, s.DB.DB, fmt.Sprintf("buyer-%d", i), false)
		// Every cart passes the advisory check against the same stock value
		s.addToCart(t, users[i], p, 3)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		deducted int
		errs     []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *identity.User) {
			defer wg.Done()
			resp, err := s.checkout(context.Background(), u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for _, item := range resp.Items {
				deducted += item.StockDeducted
			}
		}(u)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 0, s.stock(t, p))
	assert.Equal(t, 10, deducted, "stock taken across orders must equal the stock that existed")
	assert.EqualValues(t, buyers, testutil.CountRows(t, s.DB.DB, &models.OrderModel{}))
}

func TestCheckout_Postgres_ConcurrentBuyersWithOversellRejected(t *testing.T) {
	opts := apporder.DefaultOptions()
	opts.CheckoutRetries = 10
	opts.RejectOversell = true
	s := newStorefrontSetup(t, opts)
	p := testutil.CreateProduct(t, s.DB.DB, s.Category, "Тюльпан", 120, 10)

	const buyers = 5
	users := make([]*identity.User, buyers)
	for i := range users {
		users[i] = testutil.CreateUser(t, s.DB.DB, fmt.Sprintf("buyer-%d", i), false)
		s.addToCart(t, users[i], p, 3)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *identity.User) {
			defer wg.Done()
			_, err := s.checkout(context.Background(), u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, rejected)
	assert.Equal(t, 1, s.stock(t, p))
	// Rejected carts stay intact
	assert.EqualValues(t, 2, testutil.CountRows(t, s.DB.DB, &models.CartItemModel{}))
}

func TestOrderLifecycle_Postgres_CancelRestoresStockOnce(t *testing.T) {
	s := newStorefrontSetup(t, apporder.DefaultOptions())
	customer := testutil.CreateUser(t, s.DB.DB, "customer", false)
	p := testutil.CreateProduct(t, s.DB.DB, s.Category, "Пион", 400, 6)
	s.addToCart(t, customer, p, 4)

	placed, err := s.checkout(context.Background(), customer)
	require.NoError(t, err)
	require.Equal(t, 2, s.stock(t, p))

	admin := order.AdminActor(s.Admin.ID)
	_, err = s.Orders.Confirm(context.Background(), placed.ID, admin)
	require.NoError(t, err)
	_, err = s.Orders.Confirm(context.Background(), placed.ID, admin)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 2, s.stock(t, p), "confirmation never touches stock")

	_, err = s.Orders.Cancel(context.Background(), placed.ID, admin, "")
	assert.ErrorIs(t, err, order.ErrEmptyCancellationReason)
	assert.Equal(t, 2, s.stock(t, p))

	cancelled, err := s.Orders.Cancel(context.Background(), placed.ID, admin, "Нет в наличии")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, 6, s.stock(t, p))

	_, err = s.Orders.Cancel(context.Background(), placed.ID, admin, "again")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 6, s.stock(t, p))
}

func TestOrderLifecycle_Postgres_BulkCancel(t *testing.T) {
	s := newStorefrontSetup(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, s.DB.DB, s.Category, "Гербера", 150, 20)
	admin := order.AdminActor(s.Admin.ID)

	placed := make([]apporder.OrderResponse, 0, 3)
	for i := 0; i < 3; i++ {
		u := testutil.CreateUser(t, s.DB.DB, fmt.Sprintf("buyer-%d", i), false)
		s.addToCart(t, u, p, 2)
		resp, err := s.checkout(context.Background(), u)
		require.NoError(t, err)
		placed = append(placed, *resp)
	}
	require.Equal(t, 14, s.stock(t, p))

	// The third order is already cancelled and must be skipped
	_, err := s.Orders.CancelOwn(context.Background(), placed[2].ID, placed[2].UserID)
	require.NoError(t, err)
	require.Equal(t, 16, s.stock(t, p))

	result, err := s.Orders.BulkCancel(context.Background(),
		[]uuid.UUID{placed[0].ID, placed[1].ID, placed[2].ID}, admin, "Склад закрыт")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Affected)
	assert.Equal(t, []uuid.UUID{placed[2].ID}, result.Skipped)
	assert.Equal(t, 20, s.stock(t, p))
}
