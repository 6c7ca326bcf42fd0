package gormrepo

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
)

// CategoryRepository persists catalog categories.
type CategoryRepository struct {
	db *gorm.DB
}

func (r *CategoryRepository) Insert(ctx context.Context, category *domain.Category) error {
	return wrap("categories.insert", handle(ctx, r.db).Create(category).Error)
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return wrap("categories.update", handle(ctx, r.db).Save(category).Error)
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	res := handle(ctx, r.db).Delete(&domain.Category{}, "id = ?", id)
	if res.Error != nil {
		return wrap("categories.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("categories.delete")
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (domain.Category, error) {
	var category domain.Category
	err := handle(ctx, r.db).First(&category, "id = ?", id).Error
	return category, wrap("categories.find", err)
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := handle(ctx, r.db).Order("name").Find(&categories).Error
	return categories, wrap("categories.list", err)
}

// ProductRepository persists catalog products.
type ProductRepository struct {
	db *gorm.DB
}

func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	return wrap("products.insert", handle(ctx, r.db).Create(product).Error)
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return wrap("products.update", handle(ctx, r.db).Save(product).Error)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res := handle(ctx, r.db).Delete(&domain.Product{}, "id = ?", id)
	if res.Error != nil {
		return wrap("products.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("products.delete")
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := handle(ctx, r.db).
		Preload("Category").
		Preload("InventoryItem").
		First(&product, "id = ?", id).Error
	return product, wrap("products.find", err)
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := handle(ctx, r.db).
		Preload("Category").
		Preload("InventoryItem").
		Order("id").
		Find(&products).Error
	return products, wrap("products.list", err)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	var products []domain.Product
	err := handle(ctx, r.db).
		Preload("InventoryItem").
		Where("category_id = ?", categoryID).
		Order("id").
		Find(&products).Error
	return products, wrap("products.list_by_category", err)
}

// MaxSequenceForPrefix scans existing product codes under the prefix and
// returns the highest numeric suffix. Codes that do not parse are skipped.
func (r *ProductRepository) MaxSequenceForPrefix(ctx context.Context, prefix string) (int, error) {
	var ids []string
	err := handle(ctx, r.db).Model(&domain.Product{}).
		Where("id LIKE ?", prefix+"%").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, wrap("products.max_sequence", err)
	}

	max := 0
	for _, id := range ids {
		if len(id) <= len(prefix) || !strings.HasPrefix(id, prefix) {
			continue
		}
		seq, err := strconv.Atoi(id[len(prefix):])
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}
