package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
)

// FeedbackRepository persists customer feedback messages.
type FeedbackRepository struct {
	db *gorm.DB
}

func (r *FeedbackRepository) Insert(ctx context.Context, feedback *domain.Feedback) error {
	return wrap("feedback.insert", handle(ctx, r.db).Create(feedback).Error)
}

func (r *FeedbackRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Feedback, error) {
	var items []domain.Feedback
	err := handle(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&items).Error
	return items, wrap("feedback.list_by_product", err)
}

func (r *FeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	var items []domain.Feedback
	err := handle(ctx, r.db).Order("created_at DESC").Find(&items).Error
	return items, wrap("feedback.list", err)
}
