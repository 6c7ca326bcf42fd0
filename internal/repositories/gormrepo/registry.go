// Package gormrepo implements the repository contracts on MySQL via GORM.
package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/repositories"
)

type txContextKey struct{}

// Registry bundles the GORM-backed repositories behind the repositories.Registry contract.
type Registry struct {
	db *gorm.DB

	accounts   *AccountRepository
	categories *CategoryRepository
	products   *ProductRepository
	inventory  *InventoryRepository
	orders     *OrderRepository
	payments   *PaymentRepository
	returns    *ReturnRepository
	feedback   *FeedbackRepository
}

// NewRegistry constructs a Registry backed by the given database handle.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if db == nil {
		return nil, errors.New("gormrepo: db is required")
	}
	r := &Registry{db: db}
	r.accounts = &AccountRepository{db: db}
	r.categories = &CategoryRepository{db: db}
	r.products = &ProductRepository{db: db}
	r.inventory = &InventoryRepository{db: db}
	r.orders = &OrderRepository{db: db}
	r.payments = &PaymentRepository{db: db}
	r.returns = &ReturnRepository{db: db}
	r.feedback = &FeedbackRepository{db: db}
	return r, nil
}

// Accounts implements repositories.Registry.
func (r *Registry) Accounts() repositories.AccountRepository { return r.accounts }

// Categories implements repositories.Registry.
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }

// Products implements repositories.Registry.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Inventory implements repositories.Registry.
func (r *Registry) Inventory() repositories.InventoryRepository { return r.inventory }

// Orders implements repositories.Registry.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Payments implements repositories.Registry.
func (r *Registry) Payments() repositories.PaymentRepository { return r.payments }

// Returns implements repositories.Registry.
func (r *Registry) Returns() repositories.ReturnRepository { return r.returns }

// Feedback implements repositories.Registry.
func (r *Registry) Feedback() repositories.FeedbackRepository { return r.feedback }

// RunInTx executes fn inside a database transaction. The context handed to fn
// carries the transaction handle; repository calls made with it join the
// transaction and roll back together when fn returns an error.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// handle returns the transaction bound to ctx when present, else the root handle.
func handle(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
