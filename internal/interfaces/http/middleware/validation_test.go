package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowershop/storefront/internal/interfaces/http/dto"
)

type signupForm struct {
	Username  string `json:"username" binding:"required,login"`
	FirstName string `json:"first_name" binding:"required,cyrillic_name"`
	Email     string `json:"email" binding:"required,email"`
}

func TestValidation_CustomTags(t *testing.T) {
	require.NoError(t, SetupValidator())

	engine := gin.New()
	engine.Use(RequestID())
	engine.POST("/signup", func(c *gin.Context) {
		var form signupForm
		if err := c.ShouldBindJSON(&form); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("valid", func(t *testing.T) {
		w := post(`{"username":"rose-lover","first_name":"Анна","email":"anna@example.com"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w := post(`{"username":"rose lover!","first_name":"Anna","email":"nope"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "Only latin letters, digits and dashes are allowed", messages["username"])
		assert.Equal(t, "Only Cyrillic letters, spaces and dashes are allowed", messages["first_name"])
		assert.Equal(t, "Invalid email format", messages["email"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := post(`{"username":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
	})
}
