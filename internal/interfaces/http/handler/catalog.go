package handler

import (
	"github.com/flowershop/storefront/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	BaseHandler
	categoryService *catalog.CategoryService
	productService  *catalog.ProductService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(categoryService *catalog.CategoryService, productService *catalog.ProductService) *CatalogHandler {
	return &CatalogHandler{
		categoryService: categoryService,
		productService:  productService,
	}
}

// ListCategories godoc
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalog.CategoryResponse}
// @Router       /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// ListProducts godoc
// @Summary      List products
// @Description  Visible products, optionally filtered by category and sorted by year, name or price
// @Tags         catalog
// @Produce      json
// @Param        search query string false "Name search"
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        sort query string false "Sort key" Enums(year, name, price)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// GetProduct godoc
// @Summary      Product detail
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
