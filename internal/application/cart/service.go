package cart

import (
	"context"
	"errors"

	"github.com/flowershop/storefront/internal/domain/cart"
	"github.com/flowershop/storefront/internal/domain/catalog"
	"github.com/flowershop/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProductUnavailable is returned when a product is hidden from the shop
var ErrProductUnavailable = shared.NewDomainError("NOT_FOUND", "Product not found")

// CartService manages the user's cart. Entries reserve no stock: stock is
// only checked here and taken at checkout.
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.CartRepository, productRepo catalog.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Add puts quantity units of a product into the cart, merging with an
// existing entry. The combined quantity may not exceed current stock.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (string, error) {
	if req.Quantity <= 0 {
		return "", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	product, err := s.availableProduct(ctx, req.ProductID)
	if err != nil {
		return "", err
	}

	existing, err := s.cartRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", err
	}

	inCart := 0
	if existing != nil {
		inCart = existing.Quantity
	}
	if inCart+req.Quantity > product.StockQuantity {
		return "", insufficientStock(product)
	}

	if existing != nil {
		if err := existing.Increase(req.Quantity); err != nil {
			return "", err
		}
		return MessageAdded, s.cartRepo.Save(ctx, existing)
	}

	item, err := cart.NewCartItem(userID, req.ProductID, req.Quantity)
	if err != nil {
		return "", err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return "", err
	}
	return MessageAdded, nil
}

// Update sets the quantity of one of the user's entries. A quantity of zero
// or less removes the entry.
func (s *CartService) Update(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (string, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return "", err
	}
	if req.Quantity <= 0 {
		if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
			return "", err
		}
		return MessageRemoved, nil
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return "", err
	}
	if req.Quantity > product.StockQuantity {
		return "", insufficientStock(product)
	}
	if err := item.SetQuantity(req.Quantity); err != nil {
		return "", err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return "", err
	}
	return MessageUpdated, nil
}

// Remove deletes one of the user's entries
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (string, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return "", err
	}
	if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
		return "", err
	}
	return MessageRemoved, nil
}

// View returns the cart priced at current product prices
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{Items: make([]CartLineResponse, 0, len(items)), TotalPrice: decimal.Zero}
	if len(items) == 0 {
		return resp, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, CartLineResponse{
			ID:          item.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			ImageKey:    p.ImageKey,
			Quantity:    item.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    subtotal,
			InStock:     p.StockQuantity,
		})
		resp.TotalQuantity += item.Quantity
		resp.TotalPrice = resp.TotalPrice.Add(subtotal)
	}
	return resp, nil
}

func (s *CartService) availableProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// ownedItem loads an entry of the user. Entries of other users are reported
// as not found.
func (s *CartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartItem, error) {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.BelongsTo(userID) {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func insufficientStock(p *catalog.Product) error {
	return shared.NewDomainErrorf("INSUFFICIENT_STOCK", "Insufficient stock. Available: %d", p.StockQuantity)
}
