package handler

import (
	"errors"
	"net/http"

	apporder "github.com/flowershop/storefront/internal/application/order"
	"github.com/flowershop/storefront/internal/domain/order"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/flowershop/storefront/internal/interfaces/http/dto"
	"github.com/flowershop/storefront/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReasonRequiredPayload is returned when a bulk cancel arrives without a
// reason, so the client can ask for one and resubmit the same selection.
type ReasonRequiredPayload struct {
	ReasonRequired bool        `json:"reason_required"`
	OrderIDs       []uuid.UUID `json:"order_ids"`
}

// AdminOrderHandler handles back-office order processing
type AdminOrderHandler struct {
	BaseHandler
	orderService *apporder.OrderService
}

// NewAdminOrderHandler creates a new admin order handler
func NewAdminOrderHandler(orderService *apporder.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orderService: orderService}
}

func (h *AdminOrderHandler) actor(c *gin.Context) (order.Actor, bool) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return order.Actor{}, false
	}
	return order.AdminActor(userID), true
}

// List godoc
// @Summary      List all orders
// @Tags         admin-orders
// @Produce      json
// @Param        status query string false "Status" Enums(new, confirmed, cancelled)
// @Param        search query string false "Order number or customer username"
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]apporder.OrderResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *AdminOrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter apporder.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.ListAll(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// Stats godoc
// @Summary      Order counts per status
// @Tags         admin-orders
// @Produce      json
// @Success      200 {object} dto.Response{data=apporder.OrderStats}
// @Security     BearerAuth
// @Router       /admin/orders/stats [get]
func (h *AdminOrderHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	stats, err := h.orderService.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Get godoc
// @Summary      Order detail (admin)
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *AdminOrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	result, err := h.orderService.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Confirm godoc
// @Summary      Confirm order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/confirm [post]
func (h *AdminOrderHandler) Confirm(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	result, err := h.orderService.Confirm(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel order
// @Description  Cancels a new or confirmed order with a mandatory reason and returns its stock
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body apporder.CancelOrderRequest true "Reason"
// @Success      200 {object} dto.Response{data=apporder.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/cancel [post]
func (h *AdminOrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req apporder.CancelOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.Cancel(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkConfirm godoc
// @Summary      Confirm selected orders
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        request body apporder.BulkConfirmRequest true "Selection"
// @Success      200 {object} dto.Response{data=apporder.BulkResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/bulk-confirm [post]
func (h *AdminOrderHandler) BulkConfirm(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apporder.BulkConfirmRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.BulkConfirm(c.Request.Context(), req.OrderIDs, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkCancel godoc
// @Summary      Cancel selected orders
// @Description  Without a reason the selection is echoed back with reason_required set
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        request body apporder.BulkCancelRequest true "Selection and reason"
// @Success      200 {object} dto.Response{data=apporder.BulkResult}
// @Failure      400 {object} dto.Response{data=ReasonRequiredPayload,error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/bulk-cancel [post]
func (h *AdminOrderHandler) BulkCancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apporder.BulkCancelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.BulkCancel(c.Request.Context(), req.OrderIDs, actor, req.Reason)
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == dto.ErrCodeReasonRequired {
		resp := dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, middleware.GetRequestID(c))
		resp.Data = ReasonRequiredPayload{ReasonRequired: true, OrderIDs: req.OrderIDs}
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Receipt godoc
// @Summary      Download receipt (admin)
// @Tags         admin-orders
// @Produce      application/pdf
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/receipt [get]
func (h *AdminOrderHandler) Receipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	file, err := h.orderService.Receipt(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeFile(c, file)
}
