package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

// deliveryLeadTime is added to the order date to produce the promised delivery date.
const deliveryLeadTime = 5 * 24 * time.Hour

const maxOrderLines = 50

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the actor may not access the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrProductNotFound indicates a requested product does not exist.
	ErrProductNotFound = errors.New("order: product not found")
	// ErrInsufficientStock indicates a requested quantity exceeds availability.
	ErrInsufficientStock = errors.New("order: insufficient stock")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders     repositories.OrderRepository
	Products   repositories.ProductRepository
	Inventory  repositories.InventoryRepository
	UnitOfWork repositories.UnitOfWork
	Clock      func() time.Time
	Logger     *zap.Logger
}

type orderService struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepository
	inventory  repositories.InventoryRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	logger     *zap.Logger
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("order service: inventory repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("order service: unit of work is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{
		orders:     deps.Orders,
		products:   deps.Products,
		inventory:  deps.Inventory,
		unitOfWork: deps.UnitOfWork,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Create places an order atomically: every line's stock is decremented and the
// order row written inside one transaction, so either the whole order exists
// with reserved stock or nothing changed.
func (s *orderService) Create(ctx context.Context, input CreateOrderInput) (domain.Order, error) {
	if err := validateCreateOrder(input); err != nil {
		return domain.Order{}, err
	}

	now := s.clock().UTC()
	var created domain.Order

	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		items := make([]domain.OrderItem, 0, len(input.Items))
		var total int64

		for _, line := range input.Items {
			product, err := s.products.FindByID(txCtx, line.ProductID)
			if err != nil {
				if repositories.IsNotFound(err) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
				}
				return err
			}

			if err := s.inventory.DecrementIfAvailable(txCtx, line.ProductID, line.Quantity); err != nil {
				switch {
				case repositories.IsNotFound(err):
					return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
				case repositories.IsConflict(err):
					return fmt.Errorf("%w: %s", ErrInsufficientStock, line.ProductID)
				default:
					return err
				}
			}

			items = append(items, domain.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
			total += product.Price * int64(line.Quantity)
		}

		order := domain.Order{
			CustomerID:      input.CustomerID,
			OrderDate:       now,
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			DeliveryType:    input.DeliveryType,
			PaymentStatus:   domain.PaymentStatusPending,
			DispatchStatus:  domain.DispatchStatusPending,
			DeliveryDate:    now.Add(deliveryLeadTime),
			TotalAmount:     total,
			Items:           items,
		}
		if err := s.orders.Insert(txCtx, &order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order placed",
		zap.Uint("order_id", created.ID),
		zap.Uint("customer_id", created.CustomerID),
		zap.Int64("total_amount", created.TotalAmount),
		zap.Int("line_count", len(created.Items)))

	return created, nil
}

func (s *orderService) Get(ctx context.Context, actor Actor, orderID uint) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	if actor.IsCustomer() && order.CustomerID != actor.ID {
		return domain.Order{}, ErrOrderForbidden
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, actor Actor, filter OrderListFilter) ([]domain.Order, error) {
	if actor.IsCustomer() {
		return s.orders.ListByCustomer(ctx, actor.ID)
	}
	return s.orders.List(ctx, repositories.OrderFilter{
		From:         filter.From,
		To:           filter.To,
		DeliveryType: filter.DeliveryType,
	})
}

// Update lets an operator amend delivery details and the dispatch status of
// an order.
func (s *orderService) Update(ctx context.Context, actor Actor, input UpdateOrderInput) (domain.Order, error) {
	order, err := s.Get(ctx, actor, input.OrderID)
	if err != nil {
		return domain.Order{}, err
	}

	changed := false
	if input.DeliveryAddress != nil {
		address := strings.TrimSpace(*input.DeliveryAddress)
		if address == "" {
			return domain.Order{}, fmt.Errorf("%w: delivery address must not be empty", ErrOrderInvalidInput)
		}
		order.DeliveryAddress = address
		changed = true
	}
	if input.DeliveryType != nil {
		order.DeliveryType = *input.DeliveryType
		changed = true
	}
	if input.DispatchStatus != nil {
		order.DispatchStatus = *input.DispatchStatus
		changed = true
	}
	if !changed {
		return order, nil
	}

	if err := s.orders.Update(ctx, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Cancel aborts an undispatched order and returns its stock to inventory.
func (s *orderService) Cancel(ctx context.Context, actor Actor, orderID uint) (domain.Order, error) {
	var cancelled domain.Order

	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}
		if actor.IsCustomer() && order.CustomerID != actor.ID {
			return ErrOrderForbidden
		}
		if order.DispatchStatus != domain.DispatchStatusPending {
			return fmt.Errorf("%w: cannot cancel order in state %s", ErrOrderInvalidState, order.DispatchStatus)
		}

		for _, item := range order.Items {
			if err := s.inventory.Restock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateDispatchStatus(txCtx, order.ID, domain.DispatchStatusCancelled); err != nil {
			return err
		}
		order.DispatchStatus = domain.DispatchStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order cancelled",
		zap.Uint("order_id", cancelled.ID),
		zap.Uint("customer_id", cancelled.CustomerID))

	return cancelled, nil
}

// UpdateDispatchStatus assigns a fulfilment status. Operators may move the
// order to any recognised status; the handler rejects unparseable values.
func (s *orderService) UpdateDispatchStatus(ctx context.Context, orderID uint, status domain.DispatchStatus) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	if err := s.orders.UpdateDispatchStatus(ctx, orderID, status); err != nil {
		return domain.Order{}, err
	}
	order.DispatchStatus = status

	s.logger.Info("dispatch status updated",
		zap.Uint("order_id", orderID),
		zap.String("dispatch_status", string(status)))

	return order, nil
}

func validateCreateOrder(input CreateOrderInput) error {
	if input.CustomerID == 0 {
		return fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return fmt.Errorf("%w: delivery address is required", ErrOrderInvalidInput)
	}
	if input.DeliveryType == "" {
		return fmt.Errorf("%w: delivery type is required", ErrOrderInvalidInput)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	if len(input.Items) > maxOrderLines {
		return fmt.Errorf("%w: too many order lines", ErrOrderInvalidInput)
	}
	seen := make(map[string]struct{}, len(input.Items))
	for _, line := range input.Items {
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			return fmt.Errorf("%w: product id is required", ErrOrderInvalidInput)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive for %s", ErrOrderInvalidInput, productID)
		}
		if _, dup := seen[productID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrOrderInvalidInput, productID)
		}
		seen[productID] = struct{}{}
	}
	return nil
}
