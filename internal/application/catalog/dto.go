package catalog

import (
	"time"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Country     string          `json:"country" binding:"max=100"`
	Year        int             `json:"year" binding:"omitempty,min=1900,max=2100"`
	Model       string          `json:"model" binding:"max=100"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
}

// UpdateProductRequest replaces the descriptive attributes of a product
type UpdateProductRequest struct {
	Name        string    `json:"name" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	CategoryID  uuid.UUID `json:"category_id" binding:"required"`
	Country     string    `json:"country" binding:"max=100"`
	Year        int       `json:"year" binding:"omitempty,min=1900,max=2100"`
	Model       string    `json:"model" binding:"max=100"`
}

// ChangePriceRequest sets a new product price
type ChangePriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

// AdjustStockRequest applies a manual stock correction
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SetAvailabilityRequest shows or hides a product
type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// ImageUploadRequest asks for a presigned image upload URL
type ImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned upload URL
type ImageUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ConfirmImageRequest attaches an uploaded object to a product
type ConfirmImageRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
}

// ProductListFilter represents filter options for product lists
type ProductListFilter struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Sort       string `form:"sort" binding:"omitempty,oneof=year name price"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    uuid.UUID       `json:"category_id"`
	Country       string          `json:"country,omitempty"`
	Year          int             `json:"year,omitempty"`
	Model         string          `json:"model,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	InStock       bool            `json:"in_stock"`
	IsAvailable   bool            `json:"is_available"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Country:       p.Country,
		Year:          p.Year,
		Model:         p.Model,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		InStock:       p.StockQuantity > 0,
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}
