package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	// UploadURLExpiry is the duration for which image upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which image URLs are valid
	DownloadURLExpiry time.Duration
}

// DefaultProductServiceConfig returns the default configuration
func DefaultProductServiceConfig() ProductServiceConfig {
	return ProductServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: time.Hour,
	}
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	categoryRepo   catalog.CategoryRepository
	storage        ObjectStorageService
	eventPublisher shared.EventPublisher
	config         ProductServiceConfig
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, categoryRepo catalog.CategoryRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		config:       DefaultProductServiceConfig(),
		logger:       zap.NewNop(),
	}
}

// SetObjectStorage enables product images
func (s *ProductService) SetObjectStorage(storage ObjectStorageService) {
	s.storage = storage
}

// SetEventPublisher sets the publisher for product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetConfig sets the service configuration
func (s *ProductService) SetConfig(config ProductServiceConfig) {
	s.config = config
}

// SetLogger sets the service logger
func (s *ProductService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger.Named("catalog")
	}
}

// List returns storefront products: available ones only, filtered by
// category and sorted by the requested key.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	return s.list(ctx, filter, false)
}

// AdminList returns products including hidden ones
func (s *ProductService) AdminList(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	return s.list(ctx, filter, true)
}

func (s *ProductService) list(ctx context.Context, filter ProductListFilter, includeHidden bool) ([]ProductResponse, int64, error) {
	if !catalog.IsValidSort(filter.Sort) {
		return nil, 0, shared.NewDomainErrorf("INVALID_INPUT", "Unknown sort %q", filter.Sort)
	}
	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		}.Normalize(),
		Sort:               filter.Sort,
		IncludeUnavailable: includeHidden,
	}
	if filter.CategoryID != "" {
		id, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Invalid category id")
		}
		domainFilter.CategoryID = &id
	}

	products, total, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = s.toResponse(ctx, p)
	}
	return out, total, nil
}

// Get returns an available product. Hidden products are reported as not found.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, shared.ErrNotFound
	}
	response := s.toResponse(ctx, product)
	return &response, nil
}

// AdminGet returns a product whether it is available or not
func (s *ProductService) AdminGet(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := s.toResponse(ctx, product)
	return &response, nil
}

// Create creates a new product in an existing category
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(catalog.ProductDetails{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Country:     req.Country,
		Year:        req.Year,
		Model:       req.Model,
	}, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := s.toResponse(ctx, product)
	return &response, nil
}

// Update replaces the descriptive attributes of a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.Update(catalog.ProductDetails{
			Name:        req.Name,
			Description: req.Description,
			CategoryID:  req.CategoryID,
			Country:     req.Country,
			Year:        req.Year,
			Model:       req.Model,
		})
	})
}

// ChangePrice sets a new price. Existing orders keep their frozen prices.
func (s *ProductService) ChangePrice(ctx context.Context, id uuid.UUID, req ChangePriceRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.ChangePrice(req.Price)
	})
}

// AdjustStock applies a manual stock correction, clamped at zero
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		p.AdjustStock(req.Delta)
		return nil
	})
}

// SetAvailability shows or hides a product in the storefront
func (s *ProductService) SetAvailability(ctx context.Context, id uuid.UUID, req SetAvailabilityRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		p.SetAvailability(*req.Available)
		return nil
	})
}

// mutate loads a product, applies change and writes it back with a version
// check so that a concurrent checkout is never overwritten.
func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, change func(p *catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := s.toResponse(ctx, product)
	return &response, nil
}

func (s *ProductService) requireCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}

func (s *ProductService) toResponse(ctx context.Context, p *catalog.Product) ProductResponse {
	response := ToProductResponse(p)
	if p.ImageKey == "" || s.storage == nil {
		return response
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, p.ImageKey, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Warn("failed to sign image url", zap.String("key", p.ImageKey), zap.Error(err))
		return response
	}
	response.ImageURL = url
	return response
}
