package handler

import (
	"net/http"

	"github.com/flowershop/storefront/internal/application/cart"
	"github.com/flowershop/storefront/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler handles the shopping cart of the authenticated user
type CartHandler struct {
	BaseHandler
	cartService *cart.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// View godoc
// @Summary      View cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cart.CartResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) View(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	view, err := h.cartService.View(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem godoc
// @Summary      Add product to cart
// @Description  Fails with INSUFFICIENT_STOCK when the cart would exceed the stock
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cart.AddItemRequest true "Product and quantity"
// @Success      200 {object} dto.Ack
// @Failure      400 {object} dto.Ack
// @Failure      404 {object} dto.Ack
// @Failure      422 {object} dto.Ack
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req cart.AddItemRequest
	if !h.bindAck(c, &req) {
		return
	}

	msg, err := h.cartService.Add(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleAckError(c, err)
		return
	}
	h.Ack(c, msg)
}

// UpdateItem godoc
// @Summary      Change cart quantity
// @Description  A quantity of zero or less removes the entry
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart item ID" format(uuid)
// @Param        request body cart.UpdateItemRequest true "Quantity"
// @Success      200 {object} dto.Ack
// @Failure      404 {object} dto.Ack
// @Failure      422 {object} dto.Ack
// @Security     BearerAuth
// @Router       /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}
	var req cart.UpdateItemRequest
	if !h.bindAck(c, &req) {
		return
	}

	msg, err := h.cartService.Update(c.Request.Context(), userID, itemID, req)
	if err != nil {
		h.HandleAckError(c, err)
		return
	}
	h.Ack(c, msg)
}

// RemoveItem godoc
// @Summary      Remove cart entry
// @Tags         cart
// @Produce      json
// @Param        id path string true "Cart item ID" format(uuid)
// @Success      200 {object} dto.Ack
// @Failure      404 {object} dto.Ack
// @Security     BearerAuth
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	msg, err := h.cartService.Remove(c.Request.Context(), userID, itemID)
	if err != nil {
		h.HandleAckError(c, err)
		return
	}
	h.Ack(c, msg)
}

// bindAck binds the request body, answering a failed acknowledgement on error
func (h *CartHandler) bindAck(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.AckFailure(c, http.StatusBadRequest, dto.ErrCodeValidation, "Invalid product or quantity")
		return false
	}
	return true
}

func (h *CartHandler) itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.AckFailure(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
