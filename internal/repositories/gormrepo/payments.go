package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
)

// PaymentRepository persists capture attempts.
type PaymentRepository struct {
	db *gorm.DB
}

func (r *PaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	return wrap("payments.insert", handle(ctx, r.db).Create(payment).Error)
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return wrap("payments.update", handle(ctx, r.db).Save(payment).Error)
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint) (domain.Payment, error) {
	var payment domain.Payment
	err := handle(ctx, r.db).First(&payment, "id = ?", id).Error
	return payment, wrap("payments.find", err)
}

func (r *PaymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (domain.Payment, error) {
	var payment domain.Payment
	err := handle(ctx, r.db).First(&payment, "provider_order_id = ?", providerOrderID).Error
	return payment, wrap("payments.find_by_provider_order", err)
}

func (r *PaymentRepository) LatestByOrderID(ctx context.Context, orderID uint) (domain.Payment, error) {
	var payment domain.Payment
	err := handle(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("payment_date DESC, id DESC").
		First(&payment).Error
	return payment, wrap("payments.latest_by_order", err)
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID uint) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := handle(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	return payments, wrap("payments.list_by_order", err)
}

func (r *PaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var payments []domain.Payment
	err := handle(ctx, r.db).
		Where("payment_status = ? AND created_at < ?", domain.PaymentStatusPending, cutoff).
		Order("created_at").
		Limit(limit).
		Find(&payments).Error
	return payments, wrap("payments.list_stale_pending", err)
}
