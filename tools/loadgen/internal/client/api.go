package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RegisterInput is the registration form
type RegisterInput struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Patronymic     string `json:"patronymic,omitempty"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
	AcceptRules    bool   `json:"accept_rules"`
}

// Session is an authenticated user
type Session struct {
	AccessToken string `json:"access_token"`
	Password    string `json:"-"`
	User        struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	} `json:"user"`
}

// Product is the subset of the product view the scenarios need
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
}

// Order is the subset of the order view the scenarios need
type Order struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	TotalQuantity int       `json:"total_quantity"`
}

// Register creates an account; the storefront logs it in right away
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	var s Session
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in}, &s); err != nil {
		return nil, err
	}
	s.Password = in.Password
	return &s, nil
}

// Login authenticates an existing account
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body}, &s); err != nil {
		return nil, err
	}
	s.Password = password
	return &s, nil
}

// ListProducts returns the first page of available products
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/catalog/products?page_size=100"}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one available product
func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/catalog/products/" + id.String()}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddToCart puts quantity units of productID into the session's cart and
// returns the acknowledgement message.
func (c *Client) AddToCart(ctx context.Context, s *Session, productID uuid.UUID, quantity int) (string, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	env, err := c.do(ctx, request{method: http.MethodPost, path: "/cart/items", token: s.AccessToken, body: body}, nil)
	if env != nil {
		return env.Message, err
	}
	return "", err
}

// Checkout turns the session's cart into an order
func (c *Client) Checkout(ctx context.Context, s *Session, idempotencyKey string) (*Order, error) {
	var o Order
	req := request{
		method: http.MethodPost,
		path:   "/orders/checkout",
		token:  s.AccessToken,
		body:   map[string]string{"password": s.Password},
	}
	if idempotencyKey != "" {
		req.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	if _, err := c.do(ctx, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ConfirmOrder confirms an order from the back office
func (c *Client) ConfirmOrder(ctx context.Context, admin *Session, id uuid.UUID) (*Order, error) {
	var o Order
	req := request{method: http.MethodPost, path: "/admin/orders/" + id.String() + "/confirm", token: admin.AccessToken}
	if _, err := c.do(ctx, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOrder cancels an order from the back office with reason
func (c *Client) CancelOrder(ctx context.Context, admin *Session, id uuid.UUID, reason string) (*Order, error) {
	var o Order
	req := request{
		method: http.MethodPost,
		path:   "/admin/orders/" + id.String() + "/cancel",
		token:  admin.AccessToken,
		body:   map[string]string{"reason": reason},
	}
	if _, err := c.do(ctx, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
