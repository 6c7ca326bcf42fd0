package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/idempotency"
	"github.com/clearcart/api/internal/services"
)

func newOrderRouter(svc services.OrderService) http.Handler {
	authn := auth.NewAuthenticator(stubVerifier{})
	return NewRouter(WithOrderRoutes(NewOrderHandlers(authn, svc).Routes))
}

func authedRequest(method, target, token string, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestCreateOrderEndpoint(t *testing.T) {
	var gotInput services.CreateOrderInput
	svc := &stubOrderService{
		createFn: func(_ context.Context, input services.CreateOrderInput) (domain.Order, error) {
			gotInput = input
			return domain.Order{
				ID:              42,
				CustomerID:      input.CustomerID,
				DeliveryAddress: input.DeliveryAddress,
				DeliveryType:    input.DeliveryType,
				PaymentStatus:   domain.PaymentStatusPending,
				DispatchStatus:  domain.DispatchStatusPending,
				OrderDate:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
				TotalAmount:     4998,
				Items: []domain.OrderItem{
					{ProductID: "EL00001", Quantity: 2, Price: 2499},
				},
			}, nil
		},
	}
	router := newOrderRouter(svc)

	body := `{"delivery_address":"1 Main St","delivery_type":"Standard","items":[{"product_id":"EL00001","quantity":2}]}`
	req := authedRequest(http.MethodPost, "/api/order/", "customer:7", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotInput.CustomerID != 7 {
		t.Errorf("CustomerID = %d, want caller id 7", gotInput.CustomerID)
	}
	if len(gotInput.Items) != 1 || gotInput.Items[0].Quantity != 2 {
		t.Errorf("unexpected items %+v", gotInput.Items)
	}

	var payload orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.DisplayID != "00000042" {
		t.Errorf("DisplayID = %q, want 00000042", payload.DisplayID)
	}
	if payload.TotalAmount != 4998 {
		t.Errorf("TotalAmount = %d, want 4998", payload.TotalAmount)
	}
}

func TestCreateOrderRejectsBadDeliveryType(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	body := `{"delivery_address":"1 Main St","delivery_type":"Teleport","items":[{"product_id":"EL00001","quantity":1}]}`
	req := authedRequest(http.MethodPost, "/api/order/", "customer:7", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCreateOrderRequiresCustomerRole(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := authedRequest(http.MethodPost, "/api/order/", "employee:2", `{}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestCreateOrderUnauthenticated(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := authedRequest(http.MethodPost, "/api/order/", "", `{}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestCreateOrderInsufficientStockIs400(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(_ context.Context, _ services.CreateOrderInput) (domain.Order, error) {
			return domain.Order{}, fmt.Errorf("%w: product EL00001", services.ErrInsufficientStock)
		},
	}
	router := newOrderRouter(svc)

	body := `{"delivery_address":"1 Main St","delivery_type":"Standard","items":[{"product_id":"EL00001","quantity":9}]}`
	req := authedRequest(http.MethodPost, "/api/order/", "customer:7", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if payload["error"] != "insufficient_stock" {
		t.Errorf("error code = %v, want insufficient_stock", payload["error"])
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc := &stubOrderService{
		getFn: func(_ context.Context, _ services.Actor, _ uint) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotFound
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodGet, "/api/order/99", "customer:7", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGetOrderForbidden(t *testing.T) {
	svc := &stubOrderService{
		getFn: func(_ context.Context, _ services.Actor, _ uint) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderForbidden
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodGet, "/api/order/99", "customer:7", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestCancelDispatchedOrderIs400(t *testing.T) {
	svc := &stubOrderService{
		cancelFn: func(_ context.Context, _ services.Actor, _ uint) (domain.Order, error) {
			return domain.Order{}, fmt.Errorf("%w: order already Dispatched", services.ErrOrderInvalidState)
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodPut, "/api/order/42/cancel", "customer:7", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateDispatchStatusStaffOnly(t *testing.T) {
	var gotStatus domain.DispatchStatus
	svc := &stubOrderService{
		updateDispatchFn: func(_ context.Context, orderID uint, status domain.DispatchStatus) (domain.Order, error) {
			gotStatus = status
			return domain.Order{ID: orderID, DispatchStatus: status}, nil
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodPut, "/api/order/42/delivery", "customer:7", `{"status":"Dispatched"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d, want 403", rr.Code)
	}

	req = authedRequest(http.MethodPut, "/api/order/42/delivery", "employee:2", `{"status":"Dispatched"}`)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("employee status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotStatus != domain.DispatchStatusDispatched {
		t.Errorf("status forwarded = %q, want Dispatched", gotStatus)
	}
}

func TestListMyOrders(t *testing.T) {
	svc := &stubOrderService{
		listFn: func(_ context.Context, actor services.Actor, _ services.OrderListFilter) ([]domain.Order, error) {
			if actor.ID != 7 || !actor.IsCustomer() {
				t.Errorf("actor = %+v, want customer 7", actor)
			}
			return []domain.Order{{ID: 1, CustomerID: 7}, {ID: 2, CustomerID: 7}}, nil
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodGet, "/api/order/my", "customer:7", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var payload orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(payload.Items))
	}
}

func TestListAllOrdersParsesFilters(t *testing.T) {
	var gotFilter services.OrderListFilter
	svc := &stubOrderService{
		listFn: func(_ context.Context, _ services.Actor, filter services.OrderListFilter) ([]domain.Order, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	router := newOrderRouter(svc)

	req := authedRequest(http.MethodGet, "/api/order/?from_date=2025-03-01&to_date=2025-03-31T23:59:59Z&delivery_type=Express", "employee:2", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotFilter.From == nil || !gotFilter.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From = %v, want 2025-03-01", gotFilter.From)
	}
	if gotFilter.To == nil || !gotFilter.To.Equal(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("To = %v, want 2025-03-31T23:59:59Z", gotFilter.To)
	}
	if gotFilter.DeliveryType == nil || *gotFilter.DeliveryType != domain.DeliveryTypeExpress {
		t.Errorf("DeliveryType = %v, want Express", gotFilter.DeliveryType)
	}
}

func TestListAllOrdersRejectsBadFilter(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := authedRequest(http.MethodGet, "/api/order/?delivery_type=Teleport", "employee:2", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateOrderOperatorOnly(t *testing.T) {
	var gotInput services.UpdateOrderInput
	svc := &stubOrderService{
		updateFn: func(_ context.Context, _ services.Actor, input services.UpdateOrderInput) (domain.Order, error) {
			gotInput = input
			return domain.Order{ID: input.OrderID}, nil
		},
	}
	router := newOrderRouter(svc)

	body := `{"delivery_address":"2 New St","dispatch_status":"Delivered"}`
	req := authedRequest(http.MethodPut, "/api/order/42", "customer:7", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d, want 403", rr.Code)
	}

	req = authedRequest(http.MethodPut, "/api/order/42", "employee:2", body)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("employee status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotInput.DeliveryAddress == nil || *gotInput.DeliveryAddress != "2 New St" {
		t.Errorf("DeliveryAddress = %v, want 2 New St", gotInput.DeliveryAddress)
	}
	if gotInput.DispatchStatus == nil || *gotInput.DispatchStatus != domain.DispatchStatusDelivered {
		t.Errorf("DispatchStatus = %v, want Delivered", gotInput.DispatchStatus)
	}
}

func TestCreateOrderUnknownProductIs400(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(_ context.Context, _ services.CreateOrderInput) (domain.Order, error) {
			return domain.Order{}, fmt.Errorf("%w: EL09999", services.ErrProductNotFound)
		},
	}
	router := newOrderRouter(svc)

	body := `{"delivery_address":"1 Main St","delivery_type":"Standard","items":[{"product_id":"EL09999","quantity":1}]}`
	req := authedRequest(http.MethodPost, "/api/order/", "customer:7", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if payload["error"] != "product_not_found" {
		t.Errorf("error code = %v, want product_not_found", payload["error"])
	}
}

func TestCreateOrderIdempotencyReplay(t *testing.T) {
	calls := 0
	svc := &stubOrderService{
		createFn: func(_ context.Context, input services.CreateOrderInput) (domain.Order, error) {
			calls++
			return domain.Order{ID: 42, CustomerID: input.CustomerID}, nil
		},
	}
	authn := auth.NewAuthenticator(stubVerifier{})
	router := NewRouter(WithOrderRoutes(NewOrderHandlers(authn, svc,
		WithCreateOrderMiddleware(idempotency.Middleware(idempotency.NewMemoryStore())),
	).Routes))

	body := `{"delivery_address":"1 Main St","delivery_type":"Standard","items":[{"product_id":"EL00001","quantity":1}]}`
	for i := 0; i < 2; i++ {
		req := authedRequest(http.MethodPost, "/api/order/", "customer:7", body)
		req.Header.Set("Idempotency-Key", "key-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("attempt %d status = %d, body %s", i, rr.Code, rr.Body.String())
		}
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1 (second request replayed)", calls)
	}
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if payload["error"] != "route_not_found" {
		t.Errorf("error code = %v, want route_not_found", payload["error"])
	}
}
