package services

import (
	"context"
	"errors"
	"time"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/payments"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/repositories"
)

var errStubNotConfigured = errors.New("stub: call not configured")

type stubUnitOfWork struct{}

func (stubUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubOrderRepo struct {
	insertFn               func(ctx context.Context, order *domain.Order) error
	updateFn               func(ctx context.Context, order *domain.Order) error
	findFn                 func(ctx context.Context, id uint) (domain.Order, error)
	listFn                 func(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error)
	listByCustomerFn       func(ctx context.Context, customerID uint) ([]domain.Order, error)
	updatePaymentFn        func(ctx context.Context, orderID uint, status domain.PaymentStatus) error
	updateDispatchFn       func(ctx context.Context, orderID uint, status domain.DispatchStatus) error
	customerHasPurchasedFn func(ctx context.Context, customerID uint, productID string) (bool, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order *domain.Order) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	if s.updateFn == nil {
		return errStubNotConfigured
	}
	return s.updateFn(ctx, order)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uint) (domain.Order, error) {
	if s.findFn == nil {
		return domain.Order{}, errStubNotConfigured
	}
	return s.findFn(ctx, id)
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx, filter)
}

func (s *stubOrderRepo) ListByCustomer(ctx context.Context, customerID uint) ([]domain.Order, error) {
	if s.listByCustomerFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listByCustomerFn(ctx, customerID)
}

func (s *stubOrderRepo) UpdatePaymentStatus(ctx context.Context, orderID uint, status domain.PaymentStatus) error {
	if s.updatePaymentFn == nil {
		return errStubNotConfigured
	}
	return s.updatePaymentFn(ctx, orderID, status)
}

func (s *stubOrderRepo) UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) error {
	if s.updateDispatchFn == nil {
		return errStubNotConfigured
	}
	return s.updateDispatchFn(ctx, orderID, status)
}

func (s *stubOrderRepo) CustomerHasPurchased(ctx context.Context, customerID uint, productID string) (bool, error) {
	if s.customerHasPurchasedFn == nil {
		return false, errStubNotConfigured
	}
	return s.customerHasPurchasedFn(ctx, customerID, productID)
}

type stubProductRepo struct {
	insertFn         func(ctx context.Context, product *domain.Product) error
	updateFn         func(ctx context.Context, product *domain.Product) error
	deleteFn         func(ctx context.Context, id string) error
	findFn           func(ctx context.Context, id string) (domain.Product, error)
	listFn           func(ctx context.Context) ([]domain.Product, error)
	listByCategoryFn func(ctx context.Context, categoryID uint) ([]domain.Product, error)
	maxSequenceFn    func(ctx context.Context, prefix string) (int, error)
}

func (s *stubProductRepo) Insert(ctx context.Context, product *domain.Product) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, product)
}

func (s *stubProductRepo) Update(ctx context.Context, product *domain.Product) error {
	if s.updateFn == nil {
		return errStubNotConfigured
	}
	return s.updateFn(ctx, product)
}

func (s *stubProductRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return errStubNotConfigured
	}
	return s.deleteFn(ctx, id)
}

func (s *stubProductRepo) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if s.findFn == nil {
		return domain.Product{}, errStubNotConfigured
	}
	return s.findFn(ctx, id)
}

func (s *stubProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx)
}

func (s *stubProductRepo) ListByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	if s.listByCategoryFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listByCategoryFn(ctx, categoryID)
}

func (s *stubProductRepo) MaxSequenceForPrefix(ctx context.Context, prefix string) (int, error) {
	if s.maxSequenceFn == nil {
		return 0, errStubNotConfigured
	}
	return s.maxSequenceFn(ctx, prefix)
}

type stubInventoryRepo struct {
	upsertFn    func(ctx context.Context, item *domain.InventoryItem) error
	findFn      func(ctx context.Context, productID string) (domain.InventoryItem, error)
	listFn      func(ctx context.Context) ([]domain.InventoryItem, error)
	decrementFn func(ctx context.Context, productID string, quantity int) error
	restockFn   func(ctx context.Context, productID string, quantity int) error
	deleteFn    func(ctx context.Context, productID string) error
}

func (s *stubInventoryRepo) Upsert(ctx context.Context, item *domain.InventoryItem) error {
	if s.upsertFn == nil {
		return errStubNotConfigured
	}
	return s.upsertFn(ctx, item)
}

func (s *stubInventoryRepo) FindByProductID(ctx context.Context, productID string) (domain.InventoryItem, error) {
	if s.findFn == nil {
		return domain.InventoryItem{}, errStubNotConfigured
	}
	return s.findFn(ctx, productID)
}

func (s *stubInventoryRepo) List(ctx context.Context) ([]domain.InventoryItem, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx)
}

func (s *stubInventoryRepo) DecrementIfAvailable(ctx context.Context, productID string, quantity int) error {
	if s.decrementFn == nil {
		return errStubNotConfigured
	}
	return s.decrementFn(ctx, productID, quantity)
}

func (s *stubInventoryRepo) Restock(ctx context.Context, productID string, quantity int) error {
	if s.restockFn == nil {
		return errStubNotConfigured
	}
	return s.restockFn(ctx, productID, quantity)
}

func (s *stubInventoryRepo) Delete(ctx context.Context, productID string) error {
	if s.deleteFn == nil {
		return errStubNotConfigured
	}
	return s.deleteFn(ctx, productID)
}

type stubPaymentRepo struct {
	insertFn           func(ctx context.Context, payment *domain.Payment) error
	updateFn           func(ctx context.Context, payment *domain.Payment) error
	findFn             func(ctx context.Context, id uint) (domain.Payment, error)
	findByProviderFn   func(ctx context.Context, providerOrderID string) (domain.Payment, error)
	latestByOrderFn    func(ctx context.Context, orderID uint) (domain.Payment, error)
	listByOrderFn      func(ctx context.Context, orderID uint) ([]domain.Payment, error)
	listStalePendingFn func(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error)
}

func (s *stubPaymentRepo) Insert(ctx context.Context, payment *domain.Payment) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, payment)
}

func (s *stubPaymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	if s.updateFn == nil {
		return errStubNotConfigured
	}
	return s.updateFn(ctx, payment)
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id uint) (domain.Payment, error) {
	if s.findFn == nil {
		return domain.Payment{}, errStubNotConfigured
	}
	return s.findFn(ctx, id)
}

func (s *stubPaymentRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (domain.Payment, error) {
	if s.findByProviderFn == nil {
		return domain.Payment{}, errStubNotConfigured
	}
	return s.findByProviderFn(ctx, providerOrderID)
}

func (s *stubPaymentRepo) LatestByOrderID(ctx context.Context, orderID uint) (domain.Payment, error) {
	if s.latestByOrderFn == nil {
		return domain.Payment{}, errStubNotConfigured
	}
	return s.latestByOrderFn(ctx, orderID)
}

func (s *stubPaymentRepo) ListByOrderID(ctx context.Context, orderID uint) ([]domain.Payment, error) {
	if s.listByOrderFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listByOrderFn(ctx, orderID)
}

func (s *stubPaymentRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	if s.listStalePendingFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listStalePendingFn(ctx, cutoff, limit)
}

type stubReturnRepo struct {
	insertFn       func(ctx context.Context, request *domain.ReturnOrReplacement) error
	updateFn       func(ctx context.Context, request *domain.ReturnOrReplacement) error
	findFn         func(ctx context.Context, id uint) (domain.ReturnOrReplacement, error)
	listFn         func(ctx context.Context) ([]domain.ReturnOrReplacement, error)
	listByOrdersFn func(ctx context.Context, orderIDs []uint) ([]domain.ReturnOrReplacement, error)
}

func (s *stubReturnRepo) Insert(ctx context.Context, request *domain.ReturnOrReplacement) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, request)
}

func (s *stubReturnRepo) Update(ctx context.Context, request *domain.ReturnOrReplacement) error {
	if s.updateFn == nil {
		return errStubNotConfigured
	}
	return s.updateFn(ctx, request)
}

func (s *stubReturnRepo) FindByID(ctx context.Context, id uint) (domain.ReturnOrReplacement, error) {
	if s.findFn == nil {
		return domain.ReturnOrReplacement{}, errStubNotConfigured
	}
	return s.findFn(ctx, id)
}

func (s *stubReturnRepo) List(ctx context.Context) ([]domain.ReturnOrReplacement, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx)
}

func (s *stubReturnRepo) ListByOrderIDs(ctx context.Context, orderIDs []uint) ([]domain.ReturnOrReplacement, error) {
	if s.listByOrdersFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listByOrdersFn(ctx, orderIDs)
}

type stubFeedbackRepo struct {
	insertFn        func(ctx context.Context, feedback *domain.Feedback) error
	listByProductFn func(ctx context.Context, productID string) ([]domain.Feedback, error)
	listFn          func(ctx context.Context) ([]domain.Feedback, error)
}

func (s *stubFeedbackRepo) Insert(ctx context.Context, feedback *domain.Feedback) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, feedback)
}

func (s *stubFeedbackRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Feedback, error) {
	if s.listByProductFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listByProductFn(ctx, productID)
}

func (s *stubFeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx)
}

type stubCategoryRepo struct {
	insertFn func(ctx context.Context, category *domain.Category) error
	updateFn func(ctx context.Context, category *domain.Category) error
	deleteFn func(ctx context.Context, id uint) error
	findFn   func(ctx context.Context, id uint) (domain.Category, error)
	listFn   func(ctx context.Context) ([]domain.Category, error)
}

func (s *stubCategoryRepo) Insert(ctx context.Context, category *domain.Category) error {
	if s.insertFn == nil {
		return errStubNotConfigured
	}
	return s.insertFn(ctx, category)
}

func (s *stubCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	if s.updateFn == nil {
		return errStubNotConfigured
	}
	return s.updateFn(ctx, category)
}

func (s *stubCategoryRepo) Delete(ctx context.Context, id uint) error {
	if s.deleteFn == nil {
		return errStubNotConfigured
	}
	return s.deleteFn(ctx, id)
}

func (s *stubCategoryRepo) FindByID(ctx context.Context, id uint) (domain.Category, error) {
	if s.findFn == nil {
		return domain.Category{}, errStubNotConfigured
	}
	return s.findFn(ctx, id)
}

func (s *stubCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	if s.listFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listFn(ctx)
}

type stubAccountRepo struct {
	insertCustomerFn         func(ctx context.Context, customer *domain.Customer) error
	updateCustomerFn         func(ctx context.Context, customer *domain.Customer) error
	findCustomerFn           func(ctx context.Context, id uint) (domain.Customer, error)
	findCustomerByEmailFn    func(ctx context.Context, email string) (domain.Customer, error)
	insertEmployeeFn         func(ctx context.Context, employee *domain.Employee) error
	updateEmployeeFn         func(ctx context.Context, employee *domain.Employee) error
	findEmployeeFn           func(ctx context.Context, id uint) (domain.Employee, error)
	findEmployeeByUsernameFn func(ctx context.Context, username string) (domain.Employee, error)
	listEmployeesFn          func(ctx context.Context) ([]domain.Employee, error)
	findAdminFn              func(ctx context.Context, id uint) (domain.Admin, error)
	findAdminByUsernameFn    func(ctx context.Context, username string) (domain.Admin, error)
	updateAdminFn            func(ctx context.Context, admin *domain.Admin) error
}

func (s *stubAccountRepo) InsertCustomer(ctx context.Context, customer *domain.Customer) error {
	if s.insertCustomerFn == nil {
		return errStubNotConfigured
	}
	return s.insertCustomerFn(ctx, customer)
}

func (s *stubAccountRepo) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	if s.updateCustomerFn == nil {
		return errStubNotConfigured
	}
	return s.updateCustomerFn(ctx, customer)
}

func (s *stubAccountRepo) FindCustomerByID(ctx context.Context, id uint) (domain.Customer, error) {
	if s.findCustomerFn == nil {
		return domain.Customer{}, errStubNotConfigured
	}
	return s.findCustomerFn(ctx, id)
}

func (s *stubAccountRepo) FindCustomerByEmail(ctx context.Context, email string) (domain.Customer, error) {
	if s.findCustomerByEmailFn == nil {
		return domain.Customer{}, errStubNotConfigured
	}
	return s.findCustomerByEmailFn(ctx, email)
}

func (s *stubAccountRepo) InsertEmployee(ctx context.Context, employee *domain.Employee) error {
	if s.insertEmployeeFn == nil {
		return errStubNotConfigured
	}
	return s.insertEmployeeFn(ctx, employee)
}

func (s *stubAccountRepo) UpdateEmployee(ctx context.Context, employee *domain.Employee) error {
	if s.updateEmployeeFn == nil {
		return errStubNotConfigured
	}
	return s.updateEmployeeFn(ctx, employee)
}

func (s *stubAccountRepo) FindEmployeeByID(ctx context.Context, id uint) (domain.Employee, error) {
	if s.findEmployeeFn == nil {
		return domain.Employee{}, errStubNotConfigured
	}
	return s.findEmployeeFn(ctx, id)
}

func (s *stubAccountRepo) FindEmployeeByUsername(ctx context.Context, username string) (domain.Employee, error) {
	if s.findEmployeeByUsernameFn == nil {
		return domain.Employee{}, errStubNotConfigured
	}
	return s.findEmployeeByUsernameFn(ctx, username)
}

func (s *stubAccountRepo) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	if s.listEmployeesFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listEmployeesFn(ctx)
}

func (s *stubAccountRepo) FindAdminByID(ctx context.Context, id uint) (domain.Admin, error) {
	if s.findAdminFn == nil {
		return domain.Admin{}, errStubNotConfigured
	}
	return s.findAdminFn(ctx, id)
}

func (s *stubAccountRepo) FindAdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	if s.findAdminByUsernameFn == nil {
		return domain.Admin{}, errStubNotConfigured
	}
	return s.findAdminByUsernameFn(ctx, username)
}

func (s *stubAccountRepo) UpdateAdmin(ctx context.Context, admin *domain.Admin) error {
	if s.updateAdminFn == nil {
		return errStubNotConfigured
	}
	return s.updateAdminFn(ctx, admin)
}

type stubProvider struct {
	createFn  func(ctx context.Context, req payments.CheckoutRequest) (payments.Checkout, error)
	captureFn func(ctx context.Context, providerOrderID string) (payments.CaptureResult, error)
}

func (s *stubProvider) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (payments.Checkout, error) {
	if s.createFn == nil {
		return payments.Checkout{}, errStubNotConfigured
	}
	return s.createFn(ctx, req)
}

func (s *stubProvider) CaptureCheckout(ctx context.Context, providerOrderID string) (payments.CaptureResult, error) {
	if s.captureFn == nil {
		return payments.CaptureResult{}, errStubNotConfigured
	}
	return s.captureFn(ctx, providerOrderID)
}

type stubTokenIssuer struct {
	issueFn func(identity auth.Identity) (string, error)
}

func (s *stubTokenIssuer) Issue(identity auth.Identity) (string, error) {
	if s.issueFn == nil {
		return "stub-token", nil
	}
	return s.issueFn(identity)
}
