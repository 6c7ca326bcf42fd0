package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrInventoryInvalidInput signals invalid stock data.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryNotFound indicates no stock record exists for the product.
	ErrInventoryNotFound = errors.New("inventory: not found")
)

// InventoryServiceDeps bundles collaborators required to construct the inventory service.
type InventoryServiceDeps struct {
	Inventory repositories.InventoryRepository
	Products  repositories.ProductRepository
	Logger    *zap.Logger
}

type inventoryService struct {
	inventory repositories.InventoryRepository
	products  repositories.ProductRepository
	logger    *zap.Logger
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Inventory == nil {
		return nil, errors.New("inventory service: inventory repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("inventory service: product repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		inventory: deps.Inventory,
		products:  deps.Products,
		logger:    logger,
	}, nil
}

// SetQuantity replaces the absolute stock level for a product.
func (s *inventoryService) SetQuantity(ctx context.Context, productID string, quantity int) (domain.InventoryItem, error) {
	if quantity < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: quantity must not be negative", ErrInventoryInvalidInput)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repositories.IsNotFound(err) {
			return domain.InventoryItem{}, ErrCatalogProductNotFound
		}
		return domain.InventoryItem{}, err
	}

	item := domain.InventoryItem{ProductID: productID, Quantity: quantity}
	if err := s.inventory.Upsert(ctx, &item); err != nil {
		return domain.InventoryItem{}, err
	}

	s.logger.Info("stock level set",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))

	return item, nil
}

func (s *inventoryService) Get(ctx context.Context, productID string) (domain.InventoryItem, error) {
	item, err := s.inventory.FindByProductID(ctx, productID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.InventoryItem{}, ErrInventoryNotFound
		}
		return domain.InventoryItem{}, err
	}
	return item, nil
}

func (s *inventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.inventory.List(ctx)
}
