package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllowedImageContentTypes is the whitelist of product image types.
// SVG is excluded because it can carry scripts.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ErrStorageDisabled is returned by image operations when no object storage
// is configured
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")

// ObjectStorageService defines the object storage operations product images need
type ObjectStorageService interface {
	// GenerateUploadURL returns a presigned URL for uploading storageKey
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL returns a presigned URL for reading storageKey
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// RequestImageUpload returns a presigned URL the back office uploads the
// product image to. The image is attached by ConfirmImageUpload.
func (s *ProductService) RequestImageUpload(ctx context.Context, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !AllowedImageContentTypes[contentType] {
		return nil, shared.NewDomainErrorf("DISALLOWED_CONTENT_TYPE", "Content type '%s' is not allowed for product images", req.ContentType)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	key := imageStorageKey(productID, req.FileName)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}
	return &ImageUploadResponse{StorageKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// ConfirmImageUpload attaches an uploaded object as the product image. The
// previous image object is deleted.
func (s *ProductService) ConfirmImageUpload(ctx context.Context, productID uuid.UUID, req ConfirmImageRequest) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	prefix := imageKeyPrefix(productID)
	if !strings.HasPrefix(req.StorageKey, prefix) {
		return nil, shared.NewDomainError("INVALID_IMAGE", "Storage key does not belong to this product")
	}
	exists, err := s.storage.ObjectExists(ctx, req.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("check uploaded image: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "File not found in storage. Please upload the file first.")
	}

	var previous string
	response, err := s.mutate(ctx, productID, func(p *catalog.Product) error {
		previous = p.ImageKey
		return p.SetImage(req.StorageKey)
	})
	if err != nil {
		return nil, err
	}
	if previous != "" && previous != req.StorageKey {
		if err := s.storage.DeleteObject(ctx, previous); err != nil {
			s.logger.Warn("failed to delete previous product image", zap.String("key", previous), zap.Error(err))
		}
	}
	return response, nil
}

func imageKeyPrefix(productID uuid.UUID) string {
	return "products/" + productID.String() + "/"
}

func imageStorageKey(productID uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return imageKeyPrefix(productID) + uuid.New().String() + ext
}
