package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clearcart/api/internal/domain"
)

// ErrInsufficientStock reports that a decrement would take stock negative.
var ErrInsufficientStock = errors.New("gormrepo: insufficient stock")

// InventoryRepository persists stock levels.
type InventoryRepository struct {
	db *gorm.DB
}

func (r *InventoryRepository) Upsert(ctx context.Context, item *domain.InventoryItem) error {
	err := handle(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
	return wrap("inventory.upsert", err)
}

func (r *InventoryRepository) FindByProductID(ctx context.Context, productID string) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := handle(ctx, r.db).First(&item, "product_id = ?", productID).Error
	return item, wrap("inventory.find", err)
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := handle(ctx, r.db).Order("product_id").Find(&items).Error
	return items, wrap("inventory.list", err)
}

// DecrementIfAvailable issues a guarded UPDATE so the quantity can never go
// negative even under concurrent checkouts. Zero rows affected means either
// the product has no stock record or not enough units remain; the caller
// distinguishes the two with a follow-up read.
func (r *InventoryRepository) DecrementIfAvailable(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return conflict("inventory.decrement", errors.New("quantity must be positive"))
	}
	res := handle(ctx, r.db).Model(&domain.InventoryItem{}).
		Where("product_id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return wrap("inventory.decrement", res.Error)
	}
	if res.RowsAffected == 0 {
		var item domain.InventoryItem
		err := handle(ctx, r.db).First(&item, "product_id = ?", productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("inventory.decrement")
		}
		if err != nil {
			return wrap("inventory.decrement", err)
		}
		return conflict("inventory.decrement", ErrInsufficientStock)
	}
	return nil
}

func (r *InventoryRepository) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return conflict("inventory.restock", errors.New("quantity must be positive"))
	}
	res := handle(ctx, r.db).Model(&domain.InventoryItem{}).
		Where("product_id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return wrap("inventory.restock", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("inventory.restock")
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, productID string) error {
	res := handle(ctx, r.db).Delete(&domain.InventoryItem{}, "product_id = ?", productID)
	if res.Error != nil {
		return wrap("inventory.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("inventory.delete")
	}
	return nil
}
