package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/services"
)

var errHandlerStubNotConfigured = errors.New("handler stub not configured")

// stubVerifier resolves test bearer tokens of the form "role:id" into
// identities without real signature checks.
type stubVerifier struct{}

func (stubVerifier) Verify(tokenStr string) (*auth.Identity, error) {
	for _, role := range []string{auth.RoleCustomer, auth.RoleEmployee, auth.RoleAdmin} {
		var id uint
		if n, err := fmt.Sscanf(tokenStr, role+":%d", &id); err == nil && n == 1 {
			return &auth.Identity{AccountID: id, Role: role}, nil
		}
	}
	return nil, auth.ErrTokenInvalid
}

type stubOrderService struct {
	createFn         func(ctx context.Context, input services.CreateOrderInput) (domain.Order, error)
	getFn            func(ctx context.Context, actor services.Actor, orderID uint) (domain.Order, error)
	listFn           func(ctx context.Context, actor services.Actor, filter services.OrderListFilter) ([]domain.Order, error)
	updateFn         func(ctx context.Context, actor services.Actor, input services.UpdateOrderInput) (domain.Order, error)
	cancelFn         func(ctx context.Context, actor services.Actor, orderID uint) (domain.Order, error)
	updateDispatchFn func(ctx context.Context, orderID uint, status domain.DispatchStatus) (domain.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, input services.CreateOrderInput) (domain.Order, error) {
	if s.createFn == nil {
		return domain.Order{}, errHandlerStubNotConfigured
	}
	return s.createFn(ctx, input)
}

func (s *stubOrderService) Get(ctx context.Context, actor services.Actor, orderID uint) (domain.Order, error) {
	if s.getFn == nil {
		return domain.Order{}, errHandlerStubNotConfigured
	}
	return s.getFn(ctx, actor, orderID)
}

func (s *stubOrderService) List(ctx context.Context, actor services.Actor, filter services.OrderListFilter) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, errHandlerStubNotConfigured
	}
	return s.listFn(ctx, actor, filter)
}

func (s *stubOrderService) Update(ctx context.Context, actor services.Actor, input services.UpdateOrderInput) (domain.Order, error) {
	if s.updateFn == nil {
		return domain.Order{}, errHandlerStubNotConfigured
	}
	return s.updateFn(ctx, actor, input)
}

func (s *stubOrderService) Cancel(ctx context.Context, actor services.Actor, orderID uint) (domain.Order, error) {
	if s.cancelFn == nil {
		return domain.Order{}, errHandlerStubNotConfigured
	}
	return s.cancelFn(ctx, actor, orderID)
}

func (s *stubOrderService) UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) (domain.Order, error) {
	if s.updateDispatchFn == nil {
		return domain.Order{}, errHandlerStubNotConfigured
	}
	return s.updateDispatchFn(ctx, orderID, status)
}

type stubPaymentService struct {
	startFn     func(ctx context.Context, actor services.Actor, orderID uint) (services.StartPaymentResult, error)
	callbackFn  func(ctx context.Context, providerOrderID string) (services.PaymentView, error)
	getStatusFn func(ctx context.Context, actor services.Actor, orderID uint) (services.PaymentView, error)
	overrideFn  func(ctx context.Context, orderID uint, status domain.PaymentStatus) (services.PaymentView, error)
	reconcileFn func(ctx context.Context) (int, error)
}

func (s *stubPaymentService) Start(ctx context.Context, actor services.Actor, orderID uint) (services.StartPaymentResult, error) {
	if s.startFn == nil {
		return services.StartPaymentResult{}, errHandlerStubNotConfigured
	}
	return s.startFn(ctx, actor, orderID)
}

func (s *stubPaymentService) HandleProviderCallback(ctx context.Context, providerOrderID string) (services.PaymentView, error) {
	if s.callbackFn == nil {
		return services.PaymentView{}, errHandlerStubNotConfigured
	}
	return s.callbackFn(ctx, providerOrderID)
}

func (s *stubPaymentService) GetStatus(ctx context.Context, actor services.Actor, orderID uint) (services.PaymentView, error) {
	if s.getStatusFn == nil {
		return services.PaymentView{}, errHandlerStubNotConfigured
	}
	return s.getStatusFn(ctx, actor, orderID)
}

func (s *stubPaymentService) Override(ctx context.Context, orderID uint, status domain.PaymentStatus) (services.PaymentView, error) {
	if s.overrideFn == nil {
		return services.PaymentView{}, errHandlerStubNotConfigured
	}
	return s.overrideFn(ctx, orderID, status)
}

func (s *stubPaymentService) ReconcileStalePayments(ctx context.Context) (int, error) {
	if s.reconcileFn == nil {
		return 0, errHandlerStubNotConfigured
	}
	return s.reconcileFn(ctx)
}
