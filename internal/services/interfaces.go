// Package services implements the application workflows on top of the
// repository and payment-provider contracts.
package services

import (
	"context"
	"time"

	"github.com/clearcart/api/internal/domain"
)

// Actor identifies the authenticated principal invoking a service operation.
type Actor struct {
	ID   uint
	Role string
}

// IsCustomer reports whether the actor is a customer account.
func (a Actor) IsCustomer() bool { return a.Role == "customer" }

// IsStaff reports whether the actor is an employee or admin.
func (a Actor) IsStaff() bool { return a.Role == "employee" || a.Role == "admin" }

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// OrderLineInput is a single requested product within a new order.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID      uint
	DeliveryAddress string
	DeliveryType    domain.DeliveryType
	Items           []OrderLineInput
}

// UpdateOrderInput carries the operator-editable fields of an order. Nil
// fields are left untouched.
type UpdateOrderInput struct {
	OrderID         uint
	DeliveryAddress *string
	DeliveryType    *domain.DeliveryType
	DispatchStatus  *domain.DispatchStatus
}

// OrderListFilter narrows an operator listing. Zero fields match everything;
// customer listings ignore the filter.
type OrderListFilter struct {
	From         *time.Time
	To           *time.Time
	DeliveryType *domain.DeliveryType
}

// OrderService drives the order workflow.
type OrderService interface {
	Create(ctx context.Context, input CreateOrderInput) (domain.Order, error)
	Get(ctx context.Context, actor Actor, orderID uint) (domain.Order, error)
	List(ctx context.Context, actor Actor, filter OrderListFilter) ([]domain.Order, error)
	Update(ctx context.Context, actor Actor, input UpdateOrderInput) (domain.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID uint) (domain.Order, error)
	UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) (domain.Order, error)
}

// StartPaymentResult carries the provider checkout handed back to the client.
type StartPaymentResult struct {
	OrderID         uint
	ProviderOrderID string
	ApprovalURL     string
	Amount          int64
}

// PaymentView is the customer-facing state of an order's payment.
type PaymentView struct {
	OrderID       uint
	Status        domain.PaymentStatus
	PaymentType   domain.PaymentType
	Amount        int64
	TransactionID string
	PaymentDate   time.Time
}

// PaymentService drives the capture workflow against the provider.
type PaymentService interface {
	Start(ctx context.Context, actor Actor, orderID uint) (StartPaymentResult, error)
	HandleProviderCallback(ctx context.Context, providerOrderID string) (PaymentView, error)
	GetStatus(ctx context.Context, actor Actor, orderID uint) (PaymentView, error)
	Override(ctx context.Context, orderID uint, status domain.PaymentStatus) (PaymentView, error)
	ReconcileStalePayments(ctx context.Context) (int, error)
}

// CategoryInput creates or updates a catalog category.
type CategoryInput struct {
	Name     string
	ImageURL string
}

// ProductInput creates or updates a catalog product.
type ProductInput struct {
	Name           string
	Description    string
	Price          int64
	ImageURL       string
	CategoryID     uint
	WarrantyMonths int
	InitialStock   int
}

// CatalogService manages categories and products.
type CatalogService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, id uint, input CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
	GetCategory(ctx context.Context, id uint) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error)
}

// InventoryService manages stock levels.
type InventoryService interface {
	SetQuantity(ctx context.Context, productID string, quantity int) (domain.InventoryItem, error)
	Get(ctx context.Context, productID string) (domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
}

// RegisterCustomerInput creates a customer account.
type RegisterCustomerInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
}

// CreateEmployeeInput creates an employee account; admin only.
type CreateEmployeeInput struct {
	Username string
	Password string
	Name     string
}

// Credentials authenticate a login attempt. Identifier is the email for
// customers and the username for staff.
type Credentials struct {
	Role       string
	Identifier string
	Password   string
}

// Session is an issued bearer token with its expiry.
type Session struct {
	Token     string
	Role      string
	AccountID uint
	Name      string
	ExpiresAt time.Time
}

// AccountService manages accounts and authentication.
type AccountService interface {
	RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (domain.Customer, error)
	Login(ctx context.Context, creds Credentials) (Session, error)
	ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error
	GetCustomer(ctx context.Context, actor Actor, customerID uint) (domain.Customer, error)
	CreateEmployee(ctx context.Context, input CreateEmployeeInput) (domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
}

// CreateReturnInput files a return or replacement request.
type CreateReturnInput struct {
	OrderID     uint
	ProductID   string
	RequestType domain.RequestType
}

// ReturnsService drives the return/replacement workflow.
type ReturnsService interface {
	Create(ctx context.Context, actor Actor, input CreateReturnInput) (domain.ReturnOrReplacement, error)
	Decide(ctx context.Context, requestID uint, status domain.ApprovalStatus) (domain.ReturnOrReplacement, error)
	Get(ctx context.Context, actor Actor, requestID uint) (domain.ReturnOrReplacement, error)
	List(ctx context.Context, actor Actor) ([]domain.ReturnOrReplacement, error)
}

// FeedbackService accepts and lists product feedback.
type FeedbackService interface {
	Create(ctx context.Context, actor Actor, productID, message string) (domain.Feedback, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Feedback, error)
}
