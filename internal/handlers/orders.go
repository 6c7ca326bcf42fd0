package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/httpx"
	"github.com/clearcart/api/internal/services"
)

const maxOrderBodySize = 32 * 1024

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryType    string             `json:"delivery_type"`
	Items           []orderLineRequest `json:"items"`
}

type updateOrderRequest struct {
	DeliveryAddress *string `json:"delivery_address"`
	DeliveryType    *string `json:"delivery_type"`
	DispatchStatus  *string `json:"dispatch_status"`
}

type dispatchStatusRequest struct {
	Status string `json:"status"`
}

// OrderHandlers exposes the order workflow endpoints.
type OrderHandlers struct {
	authn    *auth.Authenticator
	orders   services.OrderService
	createMW []func(http.Handler) http.Handler
}

// OrderHandlerOption customises the order handlers.
type OrderHandlerOption func(*OrderHandlers)

// WithCreateOrderMiddleware wraps the order creation route, after
// authentication, so replay protection can scope keys to the caller.
func WithCreateOrderMiddleware(mw ...func(http.Handler) http.Handler) OrderHandlerOption {
	return func(h *OrderHandlers) {
		h.createMW = append(h.createMW, mw...)
	}
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, opts ...OrderHandlerOption) *OrderHandlers {
	h := &OrderHandlers{
		authn:  authn,
		orders: orders,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /order endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.With(append([]func(http.Handler) http.Handler{h.authn.RequireAuth(auth.RoleCustomer)}, h.createMW...)...).Post("/", h.createOrder)
		r.With(h.authn.RequireAuth(auth.RoleCustomer)).Get("/my", h.listMyOrders)
		r.With(h.authn.RequireAuth(auth.RoleEmployee, auth.RoleAdmin)).Get("/", h.listAllOrders)
		r.With(h.authn.RequireAuth()).Get("/{orderID}", h.getOrder)
		r.With(h.authn.RequireAuth(auth.RoleEmployee, auth.RoleAdmin)).Put("/{orderID}", h.updateOrder)
		r.With(h.authn.RequireAuth()).Put("/{orderID}/cancel", h.cancelOrder)
		r.With(h.authn.RequireAuth(auth.RoleEmployee, auth.RoleAdmin)).Put("/{orderID}/delivery", h.updateDispatchStatus)
		return
	}
	r.With(h.createMW...).Post("/", h.createOrder)
	r.Get("/my", h.listMyOrders)
	r.Get("/", h.listAllOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Put("/{orderID}", h.updateOrder)
	r.Put("/{orderID}/cancel", h.cancelOrder)
	r.Put("/{orderID}/delivery", h.updateDispatchStatus)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	deliveryType, ok := domain.ParseDeliveryType(req.DeliveryType)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "delivery_type must be one of Standard, Express, Pickup", http.StatusBadRequest))
		return
	}

	input := services.CreateOrderInput{
		CustomerID:      actor.ID,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryType:    deliveryType,
		Items:           make([]services.OrderLineInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.OrderLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orders.Create(ctx, input)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, services.OrderListFilter{})
}

func (h *OrderHandlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseOrderListFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	h.listOrders(w, r, filter)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request, filter services.OrderListFilter) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orders, err := h.orders.List(ctx, actor, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Items: items})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID, err := parseUintParam(r, "orderID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := h.orders.Get(ctx, actor, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID, err := parseUintParam(r, "orderID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req updateOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	input := services.UpdateOrderInput{
		OrderID:         orderID,
		DeliveryAddress: req.DeliveryAddress,
	}
	if req.DeliveryType != nil {
		deliveryType, ok := domain.ParseDeliveryType(*req.DeliveryType)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "delivery_type must be one of Standard, Express, Pickup", http.StatusBadRequest))
			return
		}
		input.DeliveryType = &deliveryType
	}
	if req.DispatchStatus != nil {
		status, ok := domain.ParseDispatchStatus(*req.DispatchStatus)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "dispatch_status must be one of Pending, Dispatched, Delivered, Cancelled", http.StatusBadRequest))
			return
		}
		input.DispatchStatus = &status
	}

	order, err := h.orders.Update(ctx, actor, input)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID, err := parseUintParam(r, "orderID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order, err := h.orders.Cancel(ctx, actor, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) updateDispatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := parseUintParam(r, "orderID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req dispatchStatusRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status, ok := domain.ParseDispatchStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be one of Pending, Dispatched, Delivered, Cancelled", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateDispatchStatus(ctx, orderID, status)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

// parseOrderListFilter reads the operator listing query parameters: from_date
// and to_date (RFC 3339 or YYYY-MM-DD) and delivery_type.
func parseOrderListFilter(r *http.Request) (services.OrderListFilter, error) {
	var filter services.OrderListFilter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("from_date")); raw != "" {
		from, err := parseFilterDate(raw)
		if err != nil {
			return services.OrderListFilter{}, fmt.Errorf("from_date: %w", err)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(query.Get("to_date")); raw != "" {
		to, err := parseFilterDate(raw)
		if err != nil {
			return services.OrderListFilter{}, fmt.Errorf("to_date: %w", err)
		}
		filter.To = &to
	}
	if raw := strings.TrimSpace(query.Get("delivery_type")); raw != "" {
		deliveryType, ok := domain.ParseDeliveryType(raw)
		if !ok {
			return services.OrderListFilter{}, errors.New("delivery_type must be one of Standard, Express, Pickup")
		}
		filter.DeliveryType = &deliveryType
	}
	return filter, nil
}

func parseFilterDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("must be RFC 3339 or YYYY-MM-DD")
	}
	return t.UTC(), nil
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

type orderPayload struct {
	ID              uint               `json:"id"`
	DisplayID       string             `json:"display_id"`
	CustomerID      uint               `json:"customer_id"`
	OrderDate       string             `json:"order_date"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryType    string             `json:"delivery_type"`
	PaymentStatus   string             `json:"payment_status"`
	DispatchStatus  string             `json:"dispatch_status"`
	DeliveryDate    string             `json:"delivery_date"`
	TotalAmount     int64              `json:"total_amount"`
	Items           []orderItemPayload `json:"items"`
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		DisplayID:       order.DisplayID(),
		CustomerID:      order.CustomerID,
		OrderDate:       formatTime(order.OrderDate),
		DeliveryAddress: strings.TrimSpace(order.DeliveryAddress),
		DeliveryType:    string(order.DeliveryType),
		PaymentStatus:   string(order.PaymentStatus),
		DispatchStatus:  string(order.DispatchStatus),
		DeliveryDate:    formatTime(order.DeliveryDate),
		TotalAmount:     order.TotalAmount,
		Items:           make([]orderItemPayload, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return payload
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		// An unknown product in an order body is a bad request, not a missing
		// resource.
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order does not belong to the caller", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
