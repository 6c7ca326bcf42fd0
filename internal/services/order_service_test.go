package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newOrderServiceForTest(t *testing.T, orders *stubOrderRepo, products *stubProductRepo, inventory *stubInventoryRepo, now time.Time) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:     orders,
		Products:   products,
		Inventory:  inventory,
		UnitOfWork: stubUnitOfWork{},
		Clock:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestCreateOrderComputesTotalsAndDecrementsStock(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	catalog := map[string]domain.Product{
		"EL00001": {ID: "EL00001", Price: 1999},
		"EL00002": {ID: "EL00002", Price: 500},
	}
	decrements := map[string]int{}

	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order *domain.Order) error {
			order.ID = 42
			return nil
		},
	}
	products := &stubProductRepo{
		findFn: func(_ context.Context, id string) (domain.Product, error) {
			p, ok := catalog[id]
			if !ok {
				return domain.Product{}, repositories.NewError("products.find", repositories.KindNotFound, nil)
			}
			return p, nil
		},
	}
	inventory := &stubInventoryRepo{
		decrementFn: func(_ context.Context, productID string, quantity int) error {
			decrements[productID] += quantity
			return nil
		},
	}

	svc := newOrderServiceForTest(t, orders, products, inventory, now)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      7,
		DeliveryAddress: "12 High Street",
		DeliveryType:    domain.DeliveryTypeStandard,
		Items: []OrderLineInput{
			{ProductID: "EL00001", Quantity: 2},
			{ProductID: "EL00002", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if order.TotalAmount != 2*1999+3*500 {
		t.Errorf("TotalAmount = %d, want %d", order.TotalAmount, 2*1999+3*500)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("PaymentStatus = %s, want Pending", order.PaymentStatus)
	}
	if order.DispatchStatus != domain.DispatchStatusPending {
		t.Errorf("DispatchStatus = %s, want Pending", order.DispatchStatus)
	}
	if want := now.Add(5 * 24 * time.Hour); !order.DeliveryDate.Equal(want) {
		t.Errorf("DeliveryDate = %v, want %v", order.DeliveryDate, want)
	}
	if order.DisplayID() != "00000042" {
		t.Errorf("DisplayID = %q, want 00000042", order.DisplayID())
	}
	if decrements["EL00001"] != 2 || decrements["EL00002"] != 3 {
		t.Errorf("decrements = %v", decrements)
	}
	if got := order.Items[0].Price; got != 1999 {
		t.Errorf("item price snapshot = %d, want 1999", got)
	}
}

func TestCreateOrderInsufficientStockAbortsWholeOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	inserted := false

	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order *domain.Order) error {
			inserted = true
			return nil
		},
	}
	products := &stubProductRepo{
		findFn: func(_ context.Context, id string) (domain.Product, error) {
			return domain.Product{ID: id, Price: 100}, nil
		},
	}
	inventory := &stubInventoryRepo{
		decrementFn: func(_ context.Context, productID string, quantity int) error {
			if productID == "EL00002" {
				return repositories.NewError("inventory.decrement", repositories.KindConflict, nil)
			}
			return nil
		},
	}

	svc := newOrderServiceForTest(t, orders, products, inventory, now)
	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:      7,
		DeliveryAddress: "12 High Street",
		DeliveryType:    domain.DeliveryTypeStandard,
		Items: []OrderLineInput{
			{ProductID: "EL00001", Quantity: 1},
			{ProductID: "EL00002", Quantity: 1},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if inserted {
		t.Error("order must not be inserted when any line fails")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	now := time.Now()
	svc := newOrderServiceForTest(t, &stubOrderRepo{}, &stubProductRepo{}, &stubInventoryRepo{}, now)

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{"no customer", CreateOrderInput{DeliveryAddress: "a", DeliveryType: domain.DeliveryTypeStandard, Items: []OrderLineInput{{ProductID: "X", Quantity: 1}}}},
		{"no address", CreateOrderInput{CustomerID: 1, DeliveryType: domain.DeliveryTypeStandard, Items: []OrderLineInput{{ProductID: "X", Quantity: 1}}}},
		{"no items", CreateOrderInput{CustomerID: 1, DeliveryAddress: "a", DeliveryType: domain.DeliveryTypeStandard}},
		{"zero quantity", CreateOrderInput{CustomerID: 1, DeliveryAddress: "a", DeliveryType: domain.DeliveryTypeStandard, Items: []OrderLineInput{{ProductID: "X", Quantity: 0}}}},
		{"duplicate line", CreateOrderInput{CustomerID: 1, DeliveryAddress: "a", DeliveryType: domain.DeliveryTypeStandard, Items: []OrderLineInput{{ProductID: "X", Quantity: 1}, {ProductID: "X", Quantity: 2}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); !errors.Is(err, ErrOrderInvalidInput) {
				t.Fatalf("err = %v, want ErrOrderInvalidInput", err)
			}
		})
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id uint) (domain.Order, error) {
			return domain.Order{ID: id, CustomerID: 7}, nil
		},
	}
	svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, &stubInventoryRepo{}, time.Now())

	if _, err := svc.Get(context.Background(), Actor{ID: 7, Role: "customer"}, 1); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(context.Background(), Actor{ID: 8, Role: "customer"}, 1); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("stranger Get err = %v, want ErrOrderForbidden", err)
	}
	if _, err := svc.Get(context.Background(), Actor{ID: 2, Role: "employee"}, 1); err != nil {
		t.Fatalf("employee Get: %v", err)
	}
}

func TestCancelRestocksAndMarksCancelled(t *testing.T) {
	restocked := map[string]int{}
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id uint) (domain.Order, error) {
			return domain.Order{
				ID:             id,
				CustomerID:     7,
				DispatchStatus: domain.DispatchStatusPending,
				Items: []domain.OrderItem{
					{ProductID: "EL00001", Quantity: 2},
				},
			}, nil
		},
		updateDispatchFn: func(_ context.Context, orderID uint, status domain.DispatchStatus) error {
			if status != domain.DispatchStatusCancelled {
				t.Errorf("status = %s, want Cancelled", status)
			}
			return nil
		},
	}
	inventory := &stubInventoryRepo{
		restockFn: func(_ context.Context, productID string, quantity int) error {
			restocked[productID] += quantity
			return nil
		},
	}
	svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, inventory, time.Now())

	order, err := svc.Cancel(context.Background(), Actor{ID: 7, Role: "customer"}, 5)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if order.DispatchStatus != domain.DispatchStatusCancelled {
		t.Errorf("DispatchStatus = %s", order.DispatchStatus)
	}
	if restocked["EL00001"] != 2 {
		t.Errorf("restocked = %v", restocked)
	}
}

func TestCancelDispatchedOrderFails(t *testing.T) {
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id uint) (domain.Order, error) {
			return domain.Order{ID: id, CustomerID: 7, DispatchStatus: domain.DispatchStatusDispatched}, nil
		},
	}
	svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, &stubInventoryRepo{}, time.Now())

	if _, err := svc.Cancel(context.Background(), Actor{ID: 7, Role: "customer"}, 5); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("err = %v, want ErrOrderInvalidState", err)
	}
}

func TestUpdateDispatchStatusAssignsAnyStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.DispatchStatus
		payment domain.PaymentStatus
		to      domain.DispatchStatus
	}{
		{"dispatch unpaid order", domain.DispatchStatusPending, domain.PaymentStatusPending, domain.DispatchStatusDispatched},
		{"deliver pending", domain.DispatchStatusPending, domain.PaymentStatusCleared, domain.DispatchStatusDelivered},
		{"regress delivered", domain.DispatchStatusDelivered, domain.PaymentStatusCleared, domain.DispatchStatusPending},
		{"revive cancelled", domain.DispatchStatusCancelled, domain.PaymentStatusCleared, domain.DispatchStatusDispatched},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotStatus domain.DispatchStatus
			orders := &stubOrderRepo{
				findFn: func(_ context.Context, id uint) (domain.Order, error) {
					return domain.Order{ID: id, PaymentStatus: tc.payment, DispatchStatus: tc.from}, nil
				},
				updateDispatchFn: func(_ context.Context, orderID uint, status domain.DispatchStatus) error {
					gotStatus = status
					return nil
				},
			}
			svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, &stubInventoryRepo{}, time.Now())

			order, err := svc.UpdateDispatchStatus(context.Background(), 1, tc.to)
			if err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if gotStatus != tc.to || order.DispatchStatus != tc.to {
				t.Fatalf("status = %s (persisted %s), want %s", order.DispatchStatus, gotStatus, tc.to)
			}
		})
	}
}

func TestUpdateOrderSetsOperatorFields(t *testing.T) {
	var saved domain.Order
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id uint) (domain.Order, error) {
			return domain.Order{ID: id, CustomerID: 7, DispatchStatus: domain.DispatchStatusDispatched}, nil
		},
		updateFn: func(_ context.Context, order *domain.Order) error {
			saved = *order
			return nil
		},
	}
	svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, &stubInventoryRepo{}, time.Now())

	address := "1 New Street"
	deliveryType := domain.DeliveryTypeExpress
	status := domain.DispatchStatusDelivered
	_, err := svc.Update(context.Background(), Actor{ID: 2, Role: "employee"}, UpdateOrderInput{
		OrderID:         1,
		DeliveryAddress: &address,
		DeliveryType:    &deliveryType,
		DispatchStatus:  &status,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if saved.DeliveryAddress != address {
		t.Errorf("DeliveryAddress = %q, want %q", saved.DeliveryAddress, address)
	}
	if saved.DeliveryType != deliveryType {
		t.Errorf("DeliveryType = %s, want %s", saved.DeliveryType, deliveryType)
	}
	if saved.DispatchStatus != status {
		t.Errorf("DispatchStatus = %s, want %s", saved.DispatchStatus, status)
	}
}

func TestListOrdersPassesOperatorFilter(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	deliveryType := domain.DeliveryTypeExpress

	var gotFilter repositories.OrderFilter
	orders := &stubOrderRepo{
		listFn: func(_ context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
			gotFilter = filter
			return []domain.Order{{ID: 1}}, nil
		},
	}
	svc := newOrderServiceForTest(t, orders, &stubProductRepo{}, &stubInventoryRepo{}, time.Now())

	listed, err := svc.List(context.Background(), Actor{ID: 2, Role: "employee"}, OrderListFilter{
		From:         &from,
		To:           &to,
		DeliveryType: &deliveryType,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("len = %d, want 1", len(listed))
	}
	if gotFilter.From == nil || !gotFilter.From.Equal(from) {
		t.Errorf("From = %v, want %v", gotFilter.From, from)
	}
	if gotFilter.To == nil || !gotFilter.To.Equal(to) {
		t.Errorf("To = %v, want %v", gotFilter.To, to)
	}
	if gotFilter.DeliveryType == nil || *gotFilter.DeliveryType != deliveryType {
		t.Errorf("DeliveryType = %v, want %s", gotFilter.DeliveryType, deliveryType)
	}
}
