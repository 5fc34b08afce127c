package order_test

import (
	"context"
	"errors"
	"testing"

	apporder "github.com/flowershop/storefront/internal/application/order"
	"github.com/flowershop/storefront/internal/domain/cart"
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
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       *apporder.OrderService
	publisher *testutil.RecordingPublisher
	customer  *identity.User
	admin     *identity.User
	category  *catalog.Category
}

func newFixture(t *testing.T, opts apporder.Options) *fixture {
	return newFixtureWithScope(t, opts, nil)
}

func newFixtureWithScope(t *testing.T, opts apporder.Options, wrap func(apporder.TransactionScope) apporder.TransactionScope) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	var scope apporder.TransactionScope = persistence.NewGormTransactionScope(db)
	if wrap != nil {
		scope = wrap(scope)
	}
	svc := apporder.NewOrderService(scope, persistence.NewGormOrderRepository(db), persistence.NewGormUserRepository(db), opts)
	publisher := testutil.NewRecordingPublisher()
	svc.SetEventPublisher(publisher)

	return &fixture{
		db:        db,
		svc:       svc,
		publisher: publisher,
		customer:  testutil.CreateUser(t, db, "customer", false),
		admin:     testutil.CreateUser(t, db, "florist", true),
		category:  testutil.CreateCategory(t, db, "Розы"),
	}
}

func (f *fixture) checkout(t *testing.T, user *identity.User) *apporder.OrderResponse {
	t.Helper()
	resp, err := f.svc.Checkout(context.Background(), apporder.CheckoutInput{UserID: user.ID, Password: testutil.TestPassword})
	require.NoError(t, err)
	return resp
}

func (f *fixture) stock(t *testing.T, p *catalog.Product) int {
	t.Helper()
	return testutil.ReloadProduct(t, f.db, p).StockQuantity
}

func (f *fixture) adminActor() order.Actor {
	return order.AdminActor(f.admin.ID)
}

func TestCheckout_TwoProductScenario(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	a := testutil.CreateProduct(t, f.db, f.category, "Роза красная", 150, 10)
	b := testutil.CreateProduct(t, f.db, f.category, "Тюльпан", 90, 5)
	testutil.AddToCart(t, f.db, f.customer, a, 3)
	testutil.AddToCart(t, f.db, f.customer, b, 5)

	resp := f.checkout(t, f.customer)

	assert.Equal(t, "new", resp.Status)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 8, resp.TotalQuantity)
	assert.True(t, decimal.NewFromInt(3*150+5*90).Equal(resp.TotalPrice))
	assert.Equal(t, 7, f.stock(t, a))
	assert.Equal(t, 0, f.stock(t, b))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.CartItemModel{}))
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &models.OrderModel{}))
	assert.EqualValues(t, 2, testutil.CountRows(t, f.db, &models.OrderItemModel{}))
	assert.Equal(t, []string{order.EventTypeOrderPlaced}, f.publisher.EventTypes())
}

func TestCheckout_ClampsStockAtZero(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Пион", 300, 2)
	testutil.AddToCart(t, f.db, f.customer, p, 5)

	resp := f.checkout(t, f.customer)

	assert.Equal(t, 0, f.stock(t, p))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, 2, resp.Items[0].StockDeducted)
}

func TestCheckout_RejectOversell(t *testing.T) {
	opts := apporder.DefaultOptions()
	opts.RejectOversell = true
	f := newFixture(t, opts)
	p := testutil.CreateProduct(t, f.db, f.category, "Пион", 300, 2)
	testutil.AddToCart(t, f.db, f.customer, p, 5)

	_, err := f.svc.Checkout(context.Background(), apporder.CheckoutInput{UserID: f.customer.ID, Password: testutil.TestPassword})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Available: 2")
	assert.Equal(t, 2, f.stock(t, p))
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &models.CartItemModel{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.OrderModel{}))
}

type failingCartRepo struct {
	cart.CartRepository
}

func (failingCartRepo) DeleteByUser(context.Context, uuid.UUID) error {
	return errors.New("connection reset")
}

type failingRepos struct {
	apporder.TransactionalRepositories
}

func (r failingRepos) Carts() cart.CartRepository {
	return failingCartRepo{r.TransactionalRepositories.Carts()}
}

type failingScope struct {
	inner apporder.TransactionScope
}

func (s failingScope) Execute(ctx context.Context, fn func(apporder.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
		return fn(failingRepos{repos})
	})
}

func TestCheckout_IsAtomic(t *testing.T) {
	f := newFixtureWithScope(t, apporder.DefaultOptions(), func(inner apporder.TransactionScope) apporder.TransactionScope {
		return failingScope{inner: inner}
	})
	a := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	b := testutil.CreateProduct(t, f.db, f.category, "Лилия", 200, 5)
	testutil.AddToCart(t, f.db, f.customer, a, 3)
	testutil.AddToCart(t, f.db, f.customer, b, 5)

	_, err := f.svc.Checkout(context.Background(), apporder.CheckoutInput{UserID: f.customer.ID, Password: testutil.TestPassword})

	require.Error(t, err)
	assert.Equal(t, 10, f.stock(t, a))
	assert.Equal(t, 5, f.stock(t, b))
	assert.EqualValues(t, 2, testutil.CountRows(t, f.db, &models.CartItemModel{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.OrderModel{}))
	assert.Zero(t, testutil.CountRows(t, f.db, &models.OrderItemModel{}))
	assert.Empty(t, f.publisher.Events())
}

func TestCheckout_Preconditions(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())

	_, err := f.svc.Checkout(context.Background(), apporder.CheckoutInput{UserID: f.customer.ID, Password: testutil.TestPassword})
	assert.ErrorIs(t, err, apporder.ErrEmptyCart)

	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 1)
	_, err = f.svc.Checkout(context.Background(), apporder.CheckoutInput{UserID: f.customer.ID, Password: "wrong-pass"})
	assert.ErrorIs(t, err, apporder.ErrInvalidPassword)
	assert.Equal(t, 10, f.stock(t, p))
}

func TestOrderTotal_UsesFrozenPrice(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Букет невесты", 2500, 4)
	testutil.AddToCart(t, f.db, f.customer, p, 1)
	placed := f.checkout(t, f.customer)

	products := persistence.NewGormProductRepository(f.db)
	current, err := products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NoError(t, current.ChangePrice(decimal.NewFromInt(3000)))
	require.NoError(t, products.SaveWithLock(context.Background(), current))

	got, err := f.svc.GetByID(context.Background(), placed.ID, order.CustomerActor(f.customer.ID))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(got.TotalPrice), "total %s", got.TotalPrice)
	assert.True(t, decimal.NewFromInt(2500).Equal(got.Items[0].UnitPrice))
}

func TestCancelOwn_RestoresExactlyOnce(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 3)
	placed := f.checkout(t, f.customer)
	require.Equal(t, 7, f.stock(t, p))

	cancelled, err := f.svc.CancelOwn(context.Background(), placed.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, order.CustomerCancellationReason, cancelled.CancellationReason)
	assert.Equal(t, 10, f.stock(t, p))

	_, err = f.svc.CancelOwn(context.Background(), placed.ID, f.customer.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = f.svc.Cancel(context.Background(), placed.ID, f.adminActor(), "duplicate")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 10, f.stock(t, p))
}

func TestCancel_RestoresOnlyDeductedStock(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Пион", 300, 2)
	testutil.AddToCart(t, f.db, f.customer, p, 5)
	placed := f.checkout(t, f.customer)

	_, err := f.svc.Cancel(context.Background(), placed.ID, f.adminActor(), "Out of stock")
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, p))
}

func TestConfirm_NeverDecrementsStockTwice(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 3)
	placed := f.checkout(t, f.customer)

	confirmed, err := f.svc.Confirm(context.Background(), placed.ID, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	_, err = f.svc.Confirm(context.Background(), placed.ID, f.adminActor())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 7, f.stock(t, p))
}

func TestConfirm_RequiresAdmin(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 1)
	placed := f.checkout(t, f.customer)

	_, err := f.svc.Confirm(context.Background(), placed.ID, order.CustomerActor(f.customer.ID))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCancel_ConfirmedOrderByAdmin(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 4)
	placed := f.checkout(t, f.customer)
	_, err := f.svc.Confirm(context.Background(), placed.ID, f.adminActor())
	require.NoError(t, err)

	_, err = f.svc.CancelOwn(context.Background(), placed.ID, f.customer.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	cancelled, err := f.svc.Cancel(context.Background(), placed.ID, f.adminActor(), "Customer called")
	require.NoError(t, err)
	assert.Equal(t, "Customer called", cancelled.CancellationReason)
	assert.Equal(t, 10, f.stock(t, p))
}

func TestAdminCancel_EmptyReasonChangesNothing(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 3)
	placed := f.checkout(t, f.customer)

	_, err := f.svc.Cancel(context.Background(), placed.ID, f.adminActor(), "   ")
	assert.ErrorIs(t, err, order.ErrEmptyCancellationReason)

	got, err := f.svc.GetByID(context.Background(), placed.ID, f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, 7, f.stock(t, p))
}

func TestGetByID_HidesOtherCustomersOrders(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	other := testutil.CreateUser(t, f.db, "other", false)
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 150, 10)
	testutil.AddToCart(t, f.db, f.customer, p, 1)
	placed := f.checkout(t, f.customer)

	_, err := f.svc.GetByID(context.Background(), placed.ID, order.CustomerActor(other.ID))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.CancelOwn(context.Background(), placed.ID, other.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 9, f.stock(t, p))
}

func TestBulkActions(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 100, 20)

	var ids []uuid.UUID
	for range 3 {
		testutil.AddToCart(t, f.db, f.customer, p, 2)
		ids = append(ids, f.checkout(t, f.customer).ID)
	}
	require.Equal(t, 14, f.stock(t, p))
	_, err := f.svc.CancelOwn(context.Background(), ids[2], f.customer.ID)
	require.NoError(t, err)
	require.Equal(t, 16, f.stock(t, p))

	missing := uuid.New()
	confirmed, err := f.svc.BulkConfirm(context.Background(), append(ids, missing), f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, 2, confirmed.Affected)
	assert.ElementsMatch(t, []uuid.UUID{ids[2], missing}, confirmed.Skipped)

	_, err = f.svc.BulkCancel(context.Background(), ids, f.adminActor(), "")
	assert.ErrorIs(t, err, order.ErrEmptyCancellationReason)

	cancelled, err := f.svc.BulkCancel(context.Background(), ids, f.adminActor(), "Shop closed")
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled.Affected)
	assert.Equal(t, []uuid.UUID{ids[2]}, cancelled.Skipped)
	assert.Equal(t, 20, f.stock(t, p))

	_, err = f.svc.BulkConfirm(context.Background(), ids, order.CustomerActor(f.customer.ID))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListings(t *testing.T) {
	f := newFixture(t, apporder.DefaultOptions())
	other := testutil.CreateUser(t, f.db, "other", false)
	p := testutil.CreateProduct(t, f.db, f.category, "Роза", 100, 20)

	testutil.AddToCart(t, f.db, f.customer, p, 1)
	mine := f.checkout(t, f.customer)
	testutil.AddToCart(t, f.db, other, p, 1)
	f.checkout(t, other)
	_, err := f.svc.Confirm(context.Background(), mine.ID, f.adminActor())
	require.NoError(t, err)

	list, total, err := f.svc.ListMine(context.Background(), f.customer.ID, apporder.OrderListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)

	all, total, err := f.svc.ListAll(context.Background(), f.adminActor(), apporder.OrderListFilter{Status: "new"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, other.ID, all[0].UserID)

	found, _, err := f.svc.ListAll(context.Background(), f.adminActor(), apporder.OrderListFilter{Search: "OTHER"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, other.ID, found[0].UserID)

	stats, err := f.svc.Stats(context.Background(), f.adminActor())
	require.NoError(t, err)
	assert.Equal(t, apporder.OrderStats{New: 1, Confirmed: 1}, *stats)

	_, _, err = f.svc.ListAll(context.Background(), order.CustomerActor(f.customer.ID), apporder.OrderListFilter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
