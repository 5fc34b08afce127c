package handler

import (
	"github.com/flowershop/storefront/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// AdminCatalogHandler handles back-office catalog management
type AdminCatalogHandler struct {
	BaseHandler
	categoryService *catalog.CategoryService
	productService  *catalog.ProductService
}

// NewAdminCatalogHandler creates a new admin catalog handler
func NewAdminCatalogHandler(categoryService *catalog.CategoryService, productService *catalog.ProductService) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		categoryService: categoryService,
		productService:  productService,
	}
}

// CreateCategory godoc
// @Summary      Create category
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateCategoryRequest true "Category"
// @Success      201 {object} dto.Response{data=catalog.CategoryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/categories [post]
func (h *AdminCatalogHandler) CreateCategory(c *gin.Context) {
	var req catalog.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// ListProducts godoc
// @Summary      List all products
// @Description  Includes hidden products
// @Tags         admin-catalog
// @Produce      json
// @Param        search query string false "Name search"
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        sort query string false "Sort key" Enums(year, name, price)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/catalog/products [get]
func (h *AdminCatalogHandler) ListProducts(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, total, err := h.productService.AdminList(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// GetProduct godoc
// @Summary      Product detail (admin)
// @Tags         admin-catalog
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id} [get]
func (h *AdminCatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.AdminGet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// CreateProduct godoc
// @Summary      Create product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products [post]
func (h *AdminCatalogHandler) CreateProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateProduct godoc
// @Summary      Update product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.UpdateProductRequest true "Product attributes"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id} [put]
func (h *AdminCatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ChangePrice godoc
// @Summary      Change product price
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.ChangePriceRequest true "New price"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id}/price [put]
func (h *AdminCatalogHandler) ChangePrice(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.ChangePriceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.ChangePrice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdjustStock godoc
// @Summary      Adjust stock
// @Description  Applies a signed correction. The result is clamped at zero.
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.AdjustStockRequest true "Stock delta"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id}/stock [post]
func (h *AdminCatalogHandler) AdjustStock(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SetAvailability godoc
// @Summary      Show or hide a product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.SetAvailabilityRequest true "Availability"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id}/availability [put]
func (h *AdminCatalogHandler) SetAvailability(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.SetAvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.SetAvailability(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RequestImageUpload godoc
// @Summary      Request an image upload URL
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.ImageUploadRequest true "File description"
// @Success      200 {object} dto.Response{data=catalog.ImageUploadResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id}/image-upload [post]
func (h *AdminCatalogHandler) RequestImageUpload(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.ImageUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	upload, err := h.productService.RequestImageUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}

// ConfirmImage godoc
// @Summary      Attach an uploaded image
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.ConfirmImageRequest true "Storage key"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/catalog/products/{id}/image [put]
func (h *AdminCatalogHandler) ConfirmImage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.ConfirmImageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.productService.ConfirmImageUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
