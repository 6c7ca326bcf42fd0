// Package repositories defines the persistence contracts consumed by services.
package repositories

import (
	"context"
	"time"

	"github.com/clearcart/api/internal/domain"
)

// Registry exposes typed repository accessors for dependency injection.
type Registry interface {
	Accounts() AccountRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Returns() ReturnRepository
	Feedback() FeedbackRepository
	UnitOfWork
}

// UnitOfWork groups repository operations in a transactional boundary. The
// callback receives a context carrying the transaction; repositories invoked
// with that context participate in it.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository persists customer, employee, and admin accounts.
type AccountRepository interface {
	InsertCustomer(ctx context.Context, customer *domain.Customer) error
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error
	FindCustomerByID(ctx context.Context, id uint) (domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (domain.Customer, error)

	InsertEmployee(ctx context.Context, employee *domain.Employee) error
	UpdateEmployee(ctx context.Context, employee *domain.Employee) error
	FindEmployeeByID(ctx context.Context, id uint) (domain.Employee, error)
	FindEmployeeByUsername(ctx context.Context, username string) (domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)

	FindAdminByID(ctx context.Context, id uint) (domain.Admin, error)
	FindAdminByUsername(ctx context.Context, username string) (domain.Admin, error)
	UpdateAdmin(ctx context.Context, admin *domain.Admin) error
}

// CategoryRepository persists catalog categories.
type CategoryRepository interface {
	Insert(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ProductRepository persists catalog products keyed by their 7-character code.
type ProductRepository interface {
	Insert(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error)
	// MaxSequenceForPrefix returns the highest numeric suffix already assigned
	// under the given 2-character prefix, or 0 when none exists.
	MaxSequenceForPrefix(ctx context.Context, prefix string) (int, error)
}

// InventoryRepository persists stock levels, one record per product.
type InventoryRepository interface {
	Upsert(ctx context.Context, item *domain.InventoryItem) error
	FindByProductID(ctx context.Context, productID string) (domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	// DecrementIfAvailable atomically reduces stock for the product, failing
	// with a conflict error when fewer than quantity units remain.
	DecrementIfAvailable(ctx context.Context, productID string, quantity int) error
	// Restock adds quantity back, used by cancellation and approved returns.
	Restock(ctx context.Context, productID string, quantity int) error
	Delete(ctx context.Context, productID string) error
}

// OrderFilter narrows order listings by date range and delivery type. Nil
// fields are not applied.
type OrderFilter struct {
	From         *time.Time
	To           *time.Time
	DeliveryType *domain.DeliveryType
}

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint) (domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uint, status domain.PaymentStatus) error
	UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) error
	// CustomerHasPurchased reports whether any of the customer's orders
	// contain the product.
	CustomerHasPurchased(ctx context.Context, customerID uint, productID string) (bool, error)
}

// PaymentRepository persists capture attempts.
type PaymentRepository interface {
	Insert(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uint) (domain.Payment, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (domain.Payment, error)
	LatestByOrderID(ctx context.Context, orderID uint) (domain.Payment, error)
	ListByOrderID(ctx context.Context, orderID uint) ([]domain.Payment, error)
	// ListStalePending returns pending payments created before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error)
}

// ReturnRepository persists return and replacement requests.
type ReturnRepository interface {
	Insert(ctx context.Context, request *domain.ReturnOrReplacement) error
	Update(ctx context.Context, request *domain.ReturnOrReplacement) error
	FindByID(ctx context.Context, id uint) (domain.ReturnOrReplacement, error)
	List(ctx context.Context) ([]domain.ReturnOrReplacement, error)
	ListByOrderIDs(ctx context.Context, orderIDs []uint) ([]domain.ReturnOrReplacement, error)
}

// FeedbackRepository persists customer feedback messages.
type FeedbackRepository interface {
	Insert(ctx context.Context, feedback *domain.Feedback) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Feedback, error)
	List(ctx context.Context) ([]domain.Feedback, error)
}
