package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/interfaces/http/dto"
	"github.com/flowershop/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(handler gin.HandlerFunc, path, target string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET(path, handler)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped conflict", fmt.Errorf("save: %w", shared.ErrConcurrencyConflict), http.StatusConflict, "CONCURRENT_MODIFICATION"},
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock. Available: 3"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"empty reason", shared.NewDomainError("EMPTY_CANCELLATION_REASON", "Cancellation reason is required"), http.StatusBadRequest, "EMPTY_CANCELLATION_REASON"},
		{"unknown error", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) { h.HandleError(c, tt.err) }, "/", "/")
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.RequestID)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestHandleAckError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock. Available: 10"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Insufficient stock. Available: 10"},
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},
		{"unknown error", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) { h.HandleAckError(c, tt.err) }, "/", "/")
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotContains(t, body, "error")
		})
	}
}

func TestPathID(t *testing.T) {
	h := &BaseHandler{}
	handler := func(c *gin.Context) {
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	}

	id := uuid.New()
	w := serve(handler, "/orders/:id", "/orders/"+id.String())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = serve(handler, "/orders/:id", "/orders/42")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrentUserID_RequiresAuthentication(t *testing.T) {
	h := &BaseHandler{}
	w := serve(func(c *gin.Context) {
		if _, ok := h.currentUserID(c); ok {
			c.Status(http.StatusOK)
		}
	}, "/", "/")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPageOrDefault(t *testing.T) {
	page, size := pageOrDefault(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = pageOrDefault(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}
