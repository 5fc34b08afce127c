package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowershop/storefront/tools/loadgen/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(config.TargetConfig{BaseURL: srv.URL + "/api/v1/"})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_LoginDecodesSession(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buyer", body["username"])
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"access_token": "tok",
				"user":         map[string]any{"id": userID, "username": "buyer"},
			},
		})
	})

	s, err := c.Login(context.Background(), "buyer", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, userID, s.User.ID)
	assert.Equal(t, "secret1", s.Password)
}

func TestClient_AddToCartAck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"message": "Insufficient stock. Available: 2",
			"code":    "INSUFFICIENT_STOCK",
		})
	})

	msg, err := c.AddToCart(context.Background(), &Session{AccessToken: "tok"}, uuid.New(), 5)

	require.Error(t, err)
	assert.Equal(t, "Insufficient stock. Available: 2", msg)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Insufficient stock. Available: 2", apiErr.Message)
	assert.True(t, IsCode(err, "INSUFFICIENT_STOCK"))
}

func TestClient_CheckoutSendsPasswordAndIdempotencyKey(t *testing.T) {
	orderID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret1", body["password"])
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    map[string]any{"id": orderID, "status": "new", "total_quantity": 3},
		})
	})

	o, err := c.Checkout(context.Background(), &Session{AccessToken: "tok", Password: "secret1"}, "key-1")

	require.NoError(t, err)
	assert.Equal(t, orderID, o.ID)
	assert.Equal(t, 3, o.TotalQuantity)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"error":   map[string]string{"code": "INVALID_STATE", "message": "Cannot confirm order in cancelled status"},
		})
	})

	_, err := c.ConfirmOrder(context.Background(), &Session{AccessToken: "admin"}, uuid.New())

	assert.True(t, IsCode(err, "INVALID_STATE"))
	assert.False(t, IsCode(err, "NOT_FOUND"))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(config.TargetConfig{})
	assert.Error(t, err)
}
