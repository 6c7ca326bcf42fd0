package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

// OrderRepository persists orders and their items.
type OrderRepository struct {
	db *gorm.DB
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	return wrap("orders.insert", handle(ctx, r.db).Create(order).Error)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	err := handle(ctx, r.db).
		Omit("Items").
		Save(order).Error
	return wrap("orders.update", err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (domain.Order, error) {
	var order domain.Order
	err := handle(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error
	return order, wrap("orders.find", err)
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
	var orders []domain.Order
	q := handle(ctx, r.db).
		Preload("Items").
		Order("order_date DESC")
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date <= ?", *filter.To)
	}
	if filter.DeliveryType != nil {
		q = q.Where("delivery_type = ?", *filter.DeliveryType)
	}
	err := q.Find(&orders).Error
	return orders, wrap("orders.list", err)
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := handle(ctx, r.db).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("order_date DESC").
		Find(&orders).Error
	return orders, wrap("orders.list_by_customer", err)
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uint, status domain.PaymentStatus) error {
	res := handle(ctx, r.db).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status)
	if res.Error != nil {
		return wrap("orders.update_payment_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("orders.update_payment_status")
	}
	return nil
}

func (r *OrderRepository) UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) error {
	res := handle(ctx, r.db).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("dispatch_status", status)
	if res.Error != nil {
		return wrap("orders.update_dispatch_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("orders.update_dispatch_status")
	}
	return nil
}

func (r *OrderRepository) CustomerHasPurchased(ctx context.Context, customerID uint, productID string) (bool, error) {
	var count int64
	err := handle(ctx, r.db).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.customer_id = ? AND order_items.product_id = ?", customerID, productID).
		Count(&count).Error
	if err != nil {
		return false, wrap("orders.customer_has_purchased", err)
	}
	return count > 0, nil
}
