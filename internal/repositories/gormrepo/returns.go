package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
)

// ReturnRepository persists return and replacement requests.
type ReturnRepository struct {
	db *gorm.DB
}

func (r *ReturnRepository) Insert(ctx context.Context, request *domain.ReturnOrReplacement) error {
	return wrap("returns.insert", handle(ctx, r.db).Create(request).Error)
}

func (r *ReturnRepository) Update(ctx context.Context, request *domain.ReturnOrReplacement) error {
	return wrap("returns.update", handle(ctx, r.db).Save(request).Error)
}

func (r *ReturnRepository) FindByID(ctx context.Context, id uint) (domain.ReturnOrReplacement, error) {
	var request domain.ReturnOrReplacement
	err := handle(ctx, r.db).First(&request, "id = ?", id).Error
	return request, wrap("returns.find", err)
}

func (r *ReturnRepository) List(ctx context.Context) ([]domain.ReturnOrReplacement, error) {
	var requests []domain.ReturnOrReplacement
	err := handle(ctx, r.db).Order("request_date DESC").Find(&requests).Error
	return requests, wrap("returns.list", err)
}

func (r *ReturnRepository) ListByOrderIDs(ctx context.Context, orderIDs []uint) ([]domain.ReturnOrReplacement, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var requests []domain.ReturnOrReplacement
	err := handle(ctx, r.db).
		Where("order_id IN ?", orderIDs).
		Order("request_date DESC").
		Find(&requests).Error
	return requests, wrap("returns.list_by_orders", err)
}
