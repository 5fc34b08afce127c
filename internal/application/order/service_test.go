package order

import (
	"context"
	"errors"
	"testing"

	"github.com/flowershop/storefront/internal/domain/cart"
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/identity"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret-pass"

type serviceMocks struct {
	products *MockProductRepository
	carts    *MockCartRepository
	orders   *MockOrderRepository
	users    *MockUserRepository
}

func newTestService(opts Options) (*OrderService, *serviceMocks) {
	m := &serviceMocks{
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
		orders:   new(MockOrderRepository),
		users:    new(MockUserRepository),
	}
	scope := NewNoOpTransactionScope(m.products, m.carts, m.orders)
	return NewOrderService(scope, m.orders, m.users, opts), m
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	identity.SetPasswordCost(bcrypt.MinCost)
	u, err := identity.NewUser("buyer", "buyer@example.com", testPassword, identity.PersonName{First: "Анна", Last: "Петрова"})
	require.NoError(t, err)
	return u
}

func newTestProduct(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{Name: name, CategoryID: uuid.New(), Country: "Нидерланды", Year: 2024}, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	return p
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	return &c
}

func newCartEntry(t *testing.T, userID uuid.UUID, p *catalog.Product, quantity int) *cart.CartItem {
	t.Helper()
	item, err := cart.NewCartItem(userID, p.ID, quantity)
	require.NoError(t, err)
	return item
}

func newPlacedOrder(t *testing.T, userID uuid.UUID, lines ...order.ItemLine) *order.Order {
	t.Helper()
	o, err := order.NewOrder(userID)
	require.NoError(t, err)
	for _, line := range lines {
		_, err := o.AddItem(line)
		require.NoError(t, err)
	}
	require.NoError(t, o.Place())
	o.ClearDomainEvents()
	return o
}

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func TestCheckout_InvalidPassword(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	user := newTestUser(t)
	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: "nope"})

	assert.ErrorIs(t, err, ErrInvalidPassword)
	m.carts.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	user := newTestUser(t)
	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{}, nil)

	_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	assert.ErrorIs(t, err, ErrEmptyCart)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_Success(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)
	user := newTestUser(t)
	a := newTestProduct(t, "Роза", 150, 10)
	b := newTestProduct(t, "Тюльпан", 90, 5)

	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{
		newCartEntry(t, user.ID, a, 3),
		newCartEntry(t, user.ID, b, 5),
	}, nil)
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{a.ID, b.ID}).Return([]*catalog.Product{a, b}, nil)
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
	m.carts.On("DeleteByUser", mock.Anything, user.ID).Return(nil)

	resp, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, "new", resp.Status)
	assert.Equal(t, 8, resp.TotalQuantity)
	assert.True(t, decimal.NewFromInt(900).Equal(resp.TotalPrice))
	assert.Equal(t, 7, a.StockQuantity)
	assert.Equal(t, 0, b.StockQuantity)
	m.products.AssertNumberOfCalls(t, "SaveWithLock", 2)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, order.EventTypeOrderPlaced, publisher.events[0].EventType())
}

func TestCheckout_RetriesOnVersionConflict(t *testing.T) {
	svc, m := newTestService(Options{CheckoutRetries: 2})
	user := newTestUser(t)
	p := newTestProduct(t, "Роза", 150, 10)
	entry := newCartEntry(t, user.ID, p, 2)

	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{entry}, nil)
	// Each attempt reloads the product, as a fresh transaction would.
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Once()
	m.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.carts.On("DeleteByUser", mock.Anything, user.ID).Return(nil)

	resp, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalQuantity)
	m.carts.AssertNumberOfCalls(t, "FindByUser", 2)
	m.orders.AssertNumberOfCalls(t, "Create", 1)
}

func TestCheckout_GivesUpAfterRetries(t *testing.T) {
	svc, m := newTestService(Options{CheckoutRetries: 1})
	user := newTestUser(t)
	p := newTestProduct(t, "Роза", 150, 10)

	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{newCartEntry(t, user.ID, p, 1)}, nil)
	m.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

	_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, IsRetryable(err))
	m.carts.AssertNumberOfCalls(t, "FindByUser", 2)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_RetriesOnOrderNumberClash(t *testing.T) {
	svc, m := newTestService(Options{CheckoutRetries: 2})
	user := newTestUser(t)
	p := newTestProduct(t, "Пион", 400, 10)

	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{newCartEntry(t, user.ID, p, 2)}, nil)
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{cloneProduct(p)}, nil).Once()
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

	var numbers []string
	record := func(args mock.Arguments) {
		numbers = append(numbers, args.Get(1).(*order.Order).OrderNumber)
	}
	m.orders.On("Create", mock.Anything, mock.Anything).Run(record).Return(shared.ErrAlreadyExists).Once()
	m.orders.On("Create", mock.Anything, mock.Anything).Run(record).Return(nil).Once()
	m.carts.On("DeleteByUser", mock.Anything, user.ID).Return(nil)

	resp, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	require.NoError(t, err)
	require.Len(t, numbers, 2)
	assert.NotEqual(t, numbers[0], numbers[1])
	assert.Equal(t, numbers[1], resp.OrderNumber)
	m.carts.AssertNumberOfCalls(t, "DeleteByUser", 1)
}

func TestCheckout_OrderNumberClashGivesUp(t *testing.T) {
	svc, m := newTestService(Options{CheckoutRetries: 1})
	user := newTestUser(t)
	p := newTestProduct(t, "Пион", 400, 10)

	m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{newCartEntry(t, user.ID, p, 1)}, nil)
	m.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]*catalog.Product{cloneProduct(p)}, nil)
	m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	m.orders.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

	_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	m.orders.AssertNumberOfCalls(t, "Create", 2)
	m.carts.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
}

func TestCheckout_Idempotency(t *testing.T) {
	user := newTestUser(t)
	key := "checkout:" + user.ID.String() + ":abc"

	t.Run("replays the first order", func(t *testing.T) {
		svc, m := newTestService(DefaultOptions())
		store := new(MockIdempotencyStore)
		svc.SetIdempotencyStore(store)
		existing := newPlacedOrder(t, user.ID, order.ItemLine{ProductID: uuid.New(), ProductName: "Роза", Quantity: 1, UnitPrice: decimal.NewFromInt(150), StockDeducted: 1})

		m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Reserve", mock.Anything, key, mock.Anything).Return(false, nil)
		store.On("Lookup", mock.Anything, key).Return(existing.ID.String(), true, nil)
		m.orders.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)

		resp, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword, IdempotencyKey: "abc"})

		require.NoError(t, err)
		assert.Equal(t, existing.ID, resp.ID)
		m.carts.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
	})

	t.Run("reports a request still in flight", func(t *testing.T) {
		svc, m := newTestService(DefaultOptions())
		store := new(MockIdempotencyStore)
		svc.SetIdempotencyStore(store)

		m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Reserve", mock.Anything, key, mock.Anything).Return(false, nil)
		store.On("Lookup", mock.Anything, key).Return("", true, nil)

		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword, IdempotencyKey: "abc"})

		assert.ErrorIs(t, err, ErrCheckoutInProgress)
		assert.True(t, IsRetryable(err))
	})

	t.Run("releases the key when checkout fails", func(t *testing.T) {
		svc, m := newTestService(DefaultOptions())
		store := new(MockIdempotencyStore)
		svc.SetIdempotencyStore(store)

		m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Reserve", mock.Anything, key, mock.Anything).Return(true, nil)
		store.On("Release", mock.Anything, key).Return(nil)
		m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{}, nil)

		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword, IdempotencyKey: "abc"})

		assert.ErrorIs(t, err, ErrEmptyCart)
		store.AssertCalled(t, "Release", mock.Anything, key)
		store.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stores the order id on success", func(t *testing.T) {
		svc, m := newTestService(DefaultOptions())
		store := new(MockIdempotencyStore)
		svc.SetIdempotencyStore(store)
		p := newTestProduct(t, "Роза", 150, 10)

		m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Reserve", mock.Anything, key, mock.Anything).Return(true, nil)
		store.On("Complete", mock.Anything, key, mock.Anything, mock.Anything).Return(nil)
		m.carts.On("FindByUser", mock.Anything, user.ID).Return([]*cart.CartItem{newCartEntry(t, user.ID, p, 1)}, nil)
		m.products.On("FindByIDs", mock.Anything, mock.Anything).Return([]*catalog.Product{p}, nil)
		m.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
		m.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
		m.carts.On("DeleteByUser", mock.Anything, user.ID).Return(nil)

		resp, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, Password: testPassword, IdempotencyKey: "abc"})

		require.NoError(t, err)
		store.AssertCalled(t, "Complete", mock.Anything, key, resp.ID.String(), mock.Anything)
	})
}

func TestConfirm_PublishFailureDoesNotFail(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	svc.SetEventPublisher(&recordingPublisher{err: errors.New("broker down")})
	customer := uuid.New()
	o := newPlacedOrder(t, customer, order.ItemLine{ProductID: uuid.New(), ProductName: "Роза", Quantity: 1, UnitPrice: decimal.NewFromInt(150), StockDeducted: 1})

	m.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	m.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

	resp, err := svc.Confirm(context.Background(), o.ID, order.AdminActor(uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	m.products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
}

func TestCancel_RestoresStockInTransaction(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	customer := uuid.New()
	p := newTestProduct(t, "Пион", 300, 0)
	o := newPlacedOrder(t, customer, order.ItemLine{ProductID: p.ID, ProductName: p.Name, Quantity: 5, UnitPrice: p.Price, StockDeducted: 2})

	m.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	m.orders.On("SaveWithLock", mock.Anything, o).Return(nil)
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{p}, nil)
	m.products.On("SaveWithLock", mock.Anything, p).Return(nil)

	resp, err := svc.CancelOwn(context.Background(), o.ID, customer)

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, 2, p.StockQuantity)
}

func TestCancel_OtherCustomerSeesNotFound(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	o := newPlacedOrder(t, uuid.New(), order.ItemLine{ProductID: uuid.New(), ProductName: "Роза", Quantity: 1, UnitPrice: decimal.NewFromInt(150), StockDeducted: 1})
	m.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err := svc.CancelOwn(context.Background(), o.ID, uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
	m.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestBulkCancel_MergesRestorationsPerProduct(t *testing.T) {
	svc, m := newTestService(DefaultOptions())
	p := newTestProduct(t, "Роза", 100, 0)
	line := order.ItemLine{ProductID: p.ID, ProductName: p.Name, Quantity: 2, UnitPrice: p.Price, StockDeducted: 2}
	first := newPlacedOrder(t, uuid.New(), line)
	second := newPlacedOrder(t, uuid.New(), line)
	ids := []uuid.UUID{first.ID, second.ID, first.ID}

	m.orders.On("FindByIDs", mock.Anything, []uuid.UUID{first.ID, second.ID}).Return([]*order.Order{first, second}, nil)
	m.orders.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	m.products.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}).Return([]*catalog.Product{p}, nil)
	m.products.On("SaveWithLock", mock.Anything, p).Return(nil)

	result, err := svc.BulkCancel(context.Background(), ids, order.AdminActor(uuid.New()), "Closed for holidays")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Affected)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 4, p.StockQuantity)
	m.products.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestListAll_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(DefaultOptions())

	_, _, err := svc.ListAll(context.Background(), order.AdminActor(uuid.New()), OrderListFilter{Status: "shipped"})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReceipt(t *testing.T) {
	user := newTestUser(t)
	o := newPlacedOrder(t, user.ID, order.ItemLine{ProductID: uuid.New(), ProductName: "Роза", Quantity: 3, UnitPrice: decimal.NewFromInt(150), StockDeducted: 3})

	t.Run("disabled without renderer", func(t *testing.T) {
		svc, _ := newTestService(DefaultOptions())
		_, err := svc.Receipt(context.Background(), o.ID, order.CustomerActor(user.ID))
		assert.ErrorIs(t, err, ErrReceiptsNotConfigured)
	})

	t.Run("renders the order", func(t *testing.T) {
		svc, m := newTestService(DefaultOptions())
		renderer := new(MockReceiptRenderer)
		svc.SetReceiptRenderer(renderer)
		m.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		m.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		renderer.On("RenderReceipt", mock.Anything, mock.MatchedBy(func(d ReceiptData) bool {
			return d.OrderNumber == o.OrderNumber && d.TotalQuantity == 3 && d.CustomerName == user.FullName()
		})).Return([]byte("%PDF-1.4"), nil)

		file, err := svc.Receipt(context.Background(), o.ID, order.CustomerActor(user.ID))

		require.NoError(t, err)
		assert.Equal(t, "receipt-"+o.OrderNumber+".pdf", file.Filename)
		assert.Equal(t, "application/pdf", file.ContentType)
		assert.Equal(t, []byte("%PDF-1.4"), file.Content)
	})
}
