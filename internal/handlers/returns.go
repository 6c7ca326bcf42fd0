package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/httpx"
	"github.com/clearcart/api/internal/services"
)

const maxReturnBodySize = 8 * 1024

type createReturnRequest struct {
	OrderID     uint   `json:"order_id"`
	ProductID   string `json:"product_id"`
	RequestType string `json:"request_type"`
}

type decideReturnRequest struct {
	Status string `json:"status"`
}

// ReturnHandlers exposes the return and replacement workflow.
type ReturnHandlers struct {
	authn   *auth.Authenticator
	returns services.ReturnsService
}

// NewReturnHandlers constructs a new ReturnHandlers instance.
func NewReturnHandlers(authn *auth.Authenticator, returns services.ReturnsService) *ReturnHandlers {
	return &ReturnHandlers{
		authn:   authn,
		returns: returns,
	}
}

// Routes registers the /returnorreplacement endpoints.
func (h *ReturnHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.With(h.authn.RequireAuth(auth.RoleCustomer)).Post("/", h.create)
		r.With(h.authn.RequireAuth()).Get("/", h.list)
		r.With(h.authn.RequireAuth()).Get("/{requestID}", h.get)
		r.With(h.authn.RequireAuth(auth.RoleEmployee, auth.RoleAdmin)).Put("/{requestID}/status", h.decide)
		return
	}
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{requestID}", h.get)
	r.Put("/{requestID}/status", h.decide)
}

func (h *ReturnHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createReturnRequest
	if err := decodeJSONBody(r, maxReturnBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	requestType, ok := domain.ParseRequestType(req.RequestType)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request_type must be Return or Replacement", http.StatusBadRequest))
		return
	}

	request, err := h.returns.Create(ctx, actor, services.CreateReturnInput{
		OrderID:     req.OrderID,
		ProductID:   req.ProductID,
		RequestType: requestType,
	})
	if err != nil {
		writeReturnError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildReturnPayload(request))
}

func (h *ReturnHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	requests, err := h.returns.List(ctx, actor)
	if err != nil {
		writeReturnError(ctx, w, err)
		return
	}

	items := make([]returnPayload, 0, len(requests))
	for _, request := range requests {
		items = append(items, buildReturnPayload(request))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ReturnHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	requestID, err := parseUintParam(r, "requestID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	request, err := h.returns.Get(ctx, actor, requestID)
	if err != nil {
		writeReturnError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildReturnPayload(request))
}

func (h *ReturnHandlers) decide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := parseUintParam(r, "requestID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req decideReturnRequest
	if err := decodeJSONBody(r, maxReturnBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	status, ok := domain.ParseApprovalStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be one of Pending, Approved, Rejected", http.StatusBadRequest))
		return
	}

	request, err := h.returns.Decide(ctx, requestID, status)
	if err != nil {
		writeReturnError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildReturnPayload(request))
}

type returnPayload struct {
	ID             uint   `json:"id"`
	OrderID        uint   `json:"order_id"`
	ProductID      string `json:"product_id"`
	RequestType    string `json:"request_type"`
	ApprovalStatus string `json:"approval_status"`
	RequestDate    string `json:"request_date"`
}

func buildReturnPayload(request domain.ReturnOrReplacement) returnPayload {
	return returnPayload{
		ID:             request.ID,
		OrderID:        request.OrderID,
		ProductID:      request.ProductID,
		RequestType:    string(request.RequestType),
		ApprovalStatus: string(request.ApprovalStatus),
		RequestDate:    formatTime(request.RequestDate),
	}
}

func writeReturnError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReturnInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReturnInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("return_invalid_state", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReturnNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("return_not_found", "request not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrReturnForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order does not belong to the caller", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("return_error", "failed to process return request", http.StatusInternalServerError))
	}
}
