package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/payments"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/httpx"
	"github.com/clearcart/api/internal/services"
)

const maxPaymentBodySize = 8 * 1024

type startPaymentRequest struct {
	OrderID uint `json:"order_id"`
}

type paymentStatusRequest struct {
	Status string `json:"status"`
}

type callbackRequest struct {
	Token string `json:"token"`
}

// PaymentHandlers exposes the payment capture endpoints.
type PaymentHandlers struct {
	authn    *auth.Authenticator
	payments services.PaymentService
}

// NewPaymentHandlers constructs a new PaymentHandlers instance.
func NewPaymentHandlers(authn *auth.Authenticator, svc services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{
		authn:    authn,
		payments: svc,
	}
}

// Routes registers the /payment endpoints. The provider callback stays
// unauthenticated because PayPal redirects the shopper's browser to it.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/paypal/callback", h.providerCallback)
	r.Post("/paypal/callback", h.providerCallback)
	if h.authn != nil {
		r.With(h.authn.RequireAuth(auth.RoleCustomer)).Post("/start", h.startPayment)
		r.With(h.authn.RequireAuth()).Get("/status/{orderID}", h.getStatus)
		r.With(h.authn.RequireAuth(auth.RoleAdmin)).Put("/{orderID}/status", h.overrideStatus)
		return
	}
	r.Post("/start", h.startPayment)
	r.Get("/status/{orderID}", h.getStatus)
	r.Put("/{orderID}/status", h.overrideStatus)
}

func (h *PaymentHandlers) startPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req startPaymentRequest
	if err := decodeJSONBody(r, maxPaymentBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.OrderID == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order_id is required", http.StatusBadRequest))
		return
	}

	result, err := h.payments.Start(ctx, actor, req.OrderID)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, startPaymentResponse{
		OrderID:         result.OrderID,
		ProviderOrderID: result.ProviderOrderID,
		ApprovalURL:     result.ApprovalURL,
		Amount:          result.Amount,
	})
}

func (h *PaymentHandlers) providerCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// PayPal redirects the buyer's browser with ?token=; server-to-server
	// notifications POST the token as JSON.
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" && r.Method == http.MethodPost {
		var req callbackRequest
		if err := decodeJSONBody(r, maxPaymentBodySize, &req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}
	if token == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "token is required", http.StatusBadRequest))
		return
	}

	view, err := h.payments.HandleProviderCallback(ctx, token)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPaymentView(view))
}

func (h *PaymentHandlers) getStatus(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.payments.GetStatus(ctx, actor, orderID)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPaymentView(view))
}

func (h *PaymentHandlers) overrideStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := parseUintParam(r, "orderID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req paymentStatusRequest
	if err := decodeJSONBody(r, maxPaymentBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status, ok := domain.ParsePaymentStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be one of Pending, Cleared, Rejected", http.StatusBadRequest))
		return
	}

	view, err := h.payments.Override(ctx, orderID, status)
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPaymentView(view))
}

type startPaymentResponse struct {
	OrderID         uint   `json:"order_id"`
	ProviderOrderID string `json:"provider_order_id"`
	ApprovalURL     string `json:"approval_url"`
	Amount          int64  `json:"amount"`
}

type paymentViewPayload struct {
	OrderID       uint   `json:"order_id"`
	Status        string `json:"status"`
	PaymentType   string `json:"payment_type,omitempty"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transaction_id,omitempty"`
	PaymentDate   string `json:"payment_date,omitempty"`
}

func buildPaymentView(view services.PaymentView) paymentViewPayload {
	return paymentViewPayload{
		OrderID:       view.OrderID,
		Status:        string(view.Status),
		PaymentType:   string(view.PaymentType),
		Amount:        view.Amount,
		TransactionID: view.TransactionID,
		PaymentDate:   formatTime(view.PaymentDate),
	}
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, payments.ErrProviderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("payment_provider_unavailable", "payment provider is unavailable", http.StatusBadGateway))
	case errors.Is(err, services.ErrPaymentNotCompleted):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_completed", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("payment_invalid_state", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_found", "payment not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order does not belong to the caller", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", "failed to process payment request", http.StatusInternalServerError))
	}
}
