package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals invalid category or product data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCategoryNotFound indicates the category could not be located.
	ErrCategoryNotFound = errors.New("catalog: category not found")
	// ErrCatalogProductNotFound indicates the product could not be located.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogConflict indicates a uniqueness violation.
	ErrCatalogConflict = errors.New("catalog: conflict")
)

// productSequenceWidth is the digit count of the per-category sequence in a
// product code, e.g. "EL00042".
const productSequenceWidth = 5

const maxProductSequence = 99999

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Categories repositories.CategoryRepository
	Products   repositories.ProductRepository
	Inventory  repositories.InventoryRepository
	UnitOfWork repositories.UnitOfWork
	Logger     *zap.Logger
}

type catalogService struct {
	categories repositories.CategoryRepository
	products   repositories.ProductRepository
	inventory  repositories.InventoryRepository
	unitOfWork repositories.UnitOfWork
	logger     *zap.Logger
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Categories == nil {
		return nil, errors.New("catalog service: category repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("catalog service: inventory repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("catalog service: unit of work is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		categories: deps.Categories,
		products:   deps.Products,
		inventory:  deps.Inventory,
		unitOfWork: deps.UnitOfWork,
		logger:     logger,
	}, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if len(name) < 2 {
		return domain.Category{}, fmt.Errorf("%w: category name needs at least two characters", ErrCatalogInvalidInput)
	}
	category := domain.Category{Name: name, ImageURL: strings.TrimSpace(input.ImageURL)}
	if err := s.categories.Insert(ctx, &category); err != nil {
		if repositories.IsConflict(err) {
			return domain.Category{}, ErrCatalogConflict
		}
		return domain.Category{}, err
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uint, input CategoryInput) (domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		if len(name) < 2 {
			return domain.Category{}, fmt.Errorf("%w: category name needs at least two characters", ErrCatalogInvalidInput)
		}
		category.Name = name
	}
	if input.ImageURL != "" {
		category.ImageURL = strings.TrimSpace(input.ImageURL)
	}
	if err := s.categories.Update(ctx, &category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uint) error {
	products, err := s.products.ListByCategory(ctx, id)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		return fmt.Errorf("%w: category still has products", ErrCatalogConflict)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uint) (domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, err
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// CreateProduct assigns the next product code under the category prefix and
// writes the product together with its initial stock record in one transaction.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return domain.Product{}, err
	}

	category, err := s.categories.FindByID(ctx, input.CategoryID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Product{}, ErrCategoryNotFound
		}
		return domain.Product{}, err
	}

	prefix, err := categoryPrefix(category.Name)
	if err != nil {
		return domain.Product{}, err
	}

	var created domain.Product
	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.products.MaxSequenceForPrefix(txCtx, prefix)
		if err != nil {
			return err
		}
		if seq >= maxProductSequence {
			return fmt.Errorf("%w: product code space exhausted for prefix %s", ErrCatalogConflict, prefix)
		}

		product := domain.Product{
			ID:             fmt.Sprintf("%s%0*d", prefix, productSequenceWidth, seq+1),
			Name:           strings.TrimSpace(input.Name),
			Description:    strings.TrimSpace(input.Description),
			Price:          input.Price,
			ImageURL:       strings.TrimSpace(input.ImageURL),
			CategoryID:     category.ID,
			WarrantyMonths: input.WarrantyMonths,
		}
		if err := s.products.Insert(txCtx, &product); err != nil {
			return err
		}

		stock := domain.InventoryItem{ProductID: product.ID, Quantity: input.InitialStock}
		if err := s.inventory.Upsert(txCtx, &stock); err != nil {
			return err
		}
		product.InventoryItem = &stock
		created = product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("product created",
		zap.String("product_id", created.ID),
		zap.Uint("category_id", created.CategoryID))

	return created, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Product{}, ErrCatalogProductNotFound
		}
		return domain.Product{}, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		product.Description = desc
	}
	if input.Price > 0 {
		product.Price = input.Price
	}
	if input.ImageURL != "" {
		product.ImageURL = strings.TrimSpace(input.ImageURL)
	}
	if input.WarrantyMonths > 0 {
		product.WarrantyMonths = input.WarrantyMonths
	}

	if err := s.products.Update(ctx, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.Delete(txCtx, id); err != nil {
			if repositories.IsNotFound(err) {
				return ErrCatalogProductNotFound
			}
			return err
		}
		// The stock record goes with the product; a missing one is fine.
		if err := s.inventory.Delete(txCtx, id); err != nil && !repositories.IsNotFound(err) {
			return err
		}
		return nil
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Product{}, ErrCatalogProductNotFound
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *catalogService) ListProductsByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return s.products.ListByCategory(ctx, categoryID)
}

// categoryPrefix derives the 2-letter uppercase code prefix from the category name.
func categoryPrefix(name string) (string, error) {
	letters := make([]rune, 0, 2)
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 2 {
				return string(letters), nil
			}
		}
	}
	return "", fmt.Errorf("%w: category name %q has fewer than two letters", ErrCatalogInvalidInput, name)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrCatalogInvalidInput)
	}
	if input.CategoryID == 0 {
		return fmt.Errorf("%w: category id is required", ErrCatalogInvalidInput)
	}
	if input.InitialStock < 0 {
		return fmt.Errorf("%w: initial stock must not be negative", ErrCatalogInvalidInput)
	}
	return nil
}
