package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrReturnInvalidInput signals invalid return request data.
	ErrReturnInvalidInput = errors.New("return: invalid input")
	// ErrReturnNotFound indicates the request could not be located.
	ErrReturnNotFound = errors.New("return: not found")
	// ErrReturnForbidden indicates the actor may not access the request.
	ErrReturnForbidden = errors.New("return: forbidden")
	// ErrReturnInvalidState indicates the request or order state forbids the operation.
	ErrReturnInvalidState = errors.New("return: invalid state")
)

// ReturnsServiceDeps bundles collaborators required to construct the returns service.
type ReturnsServiceDeps struct {
	Returns    repositories.ReturnRepository
	Orders     repositories.OrderRepository
	Inventory  repositories.InventoryRepository
	UnitOfWork repositories.UnitOfWork
	Clock      func() time.Time
	Logger     *zap.Logger
}

type returnsService struct {
	returns    repositories.ReturnRepository
	orders     repositories.OrderRepository
	inventory  repositories.InventoryRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	logger     *zap.Logger
}

// NewReturnsService wires dependencies into a concrete ReturnsService implementation.
func NewReturnsService(deps ReturnsServiceDeps) (ReturnsService, error) {
	if deps.Returns == nil {
		return nil, errors.New("returns service: return repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("returns service: order repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("returns service: inventory repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("returns service: unit of work is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &returnsService{
		returns:    deps.Returns,
		orders:     deps.Orders,
		inventory:  deps.Inventory,
		unitOfWork: deps.UnitOfWork,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Create files a return or replacement request. The order must belong to the
// requesting customer, must have been delivered, and must actually contain the
// product.
func (s *returnsService) Create(ctx context.Context, actor Actor, input CreateReturnInput) (domain.ReturnOrReplacement, error) {
	if input.OrderID == 0 || input.ProductID == "" {
		return domain.ReturnOrReplacement{}, fmt.Errorf("%w: order id and product id are required", ErrReturnInvalidInput)
	}
	if input.RequestType != domain.RequestTypeReturn && input.RequestType != domain.RequestTypeReplacement {
		return domain.ReturnOrReplacement{}, fmt.Errorf("%w: unknown request type", ErrReturnInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.ReturnOrReplacement{}, ErrOrderNotFound
		}
		return domain.ReturnOrReplacement{}, err
	}
	if actor.IsCustomer() && order.CustomerID != actor.ID {
		return domain.ReturnOrReplacement{}, ErrReturnForbidden
	}
	if order.DispatchStatus != domain.DispatchStatusDelivered {
		return domain.ReturnOrReplacement{}, fmt.Errorf("%w: order not delivered", ErrReturnInvalidState)
	}
	if !orderContains(order, input.ProductID) {
		return domain.ReturnOrReplacement{}, fmt.Errorf("%w: product %s not part of order", ErrReturnInvalidInput, input.ProductID)
	}

	request := domain.ReturnOrReplacement{
		OrderID:        order.ID,
		ProductID:      input.ProductID,
		RequestType:    input.RequestType,
		ApprovalStatus: domain.ApprovalStatusPending,
		RequestDate:    s.clock().UTC(),
	}
	if err := s.returns.Insert(ctx, &request); err != nil {
		return domain.ReturnOrReplacement{}, err
	}

	s.logger.Info("return request filed",
		zap.Uint("request_id", request.ID),
		zap.Uint("order_id", order.ID),
		zap.String("request_type", string(request.RequestType)))

	return request, nil
}

// Decide applies the operator decision. A pending request may be approved or
// rejected exactly once; approving a return puts the goods back into stock.
func (s *returnsService) Decide(ctx context.Context, requestID uint, status domain.ApprovalStatus) (domain.ReturnOrReplacement, error) {
	if status != domain.ApprovalStatusApproved && status != domain.ApprovalStatusRejected {
		return domain.ReturnOrReplacement{}, fmt.Errorf("%w: decision must be approved or rejected", ErrReturnInvalidInput)
	}

	var decided domain.ReturnOrReplacement
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.returns.FindByID(txCtx, requestID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return ErrReturnNotFound
			}
			return err
		}
		if request.ApprovalStatus != domain.ApprovalStatusPending {
			return fmt.Errorf("%w: request already %s", ErrReturnInvalidState, request.ApprovalStatus)
		}

		if status == domain.ApprovalStatusApproved && request.RequestType == domain.RequestTypeReturn {
			order, err := s.orders.FindByID(txCtx, request.OrderID)
			if err != nil {
				return err
			}
			qty := quantityOf(order, request.ProductID)
			if qty > 0 {
				if err := s.inventory.Restock(txCtx, request.ProductID, qty); err != nil && !repositories.IsNotFound(err) {
					return err
				}
			}
		}

		request.ApprovalStatus = status
		if err := s.returns.Update(txCtx, &request); err != nil {
			return err
		}
		decided = request
		return nil
	})
	if err != nil {
		return domain.ReturnOrReplacement{}, err
	}

	s.logger.Info("return request decided",
		zap.Uint("request_id", decided.ID),
		zap.String("approval_status", string(status)))

	return decided, nil
}

func (s *returnsService) Get(ctx context.Context, actor Actor, requestID uint) (domain.ReturnOrReplacement, error) {
	request, err := s.returns.FindByID(ctx, requestID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.ReturnOrReplacement{}, ErrReturnNotFound
		}
		return domain.ReturnOrReplacement{}, err
	}
	if actor.IsCustomer() {
		order, err := s.orders.FindByID(ctx, request.OrderID)
		if err != nil {
			return domain.ReturnOrReplacement{}, err
		}
		if order.CustomerID != actor.ID {
			return domain.ReturnOrReplacement{}, ErrReturnForbidden
		}
	}
	return request, nil
}

func (s *returnsService) List(ctx context.Context, actor Actor) ([]domain.ReturnOrReplacement, error) {
	if !actor.IsCustomer() {
		return s.returns.List(ctx)
	}

	orders, err := s.orders.ListByCustomer(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	return s.returns.ListByOrderIDs(ctx, ids)
}

func orderContains(order domain.Order, productID string) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func quantityOf(order domain.Order, productID string) int {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}
