package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/httpx"
	"github.com/clearcart/api/internal/services"
)

const maxFeedbackBodySize = 8 * 1024

type createFeedbackRequest struct {
	ProductID string `json:"product_id"`
	Message   string `json:"message"`
}

// FeedbackHandlers exposes product feedback endpoints. Reads are public.
type FeedbackHandlers struct {
	authn    *auth.Authenticator
	feedback services.FeedbackService
}

// NewFeedbackHandlers constructs a new FeedbackHandlers instance.
func NewFeedbackHandlers(authn *auth.Authenticator, feedback services.FeedbackService) *FeedbackHandlers {
	return &FeedbackHandlers{
		authn:    authn,
		feedback: feedback,
	}
}

// Routes registers the /feedback endpoints.
func (h *FeedbackHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/product/{productID}", h.listByProduct)
	if h.authn != nil {
		r.With(h.authn.RequireAuth(auth.RoleCustomer)).Post("/", h.create)
		return
	}
	r.Post("/", h.create)
}

func (h *FeedbackHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createFeedbackRequest
	if err := decodeJSONBody(r, maxFeedbackBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	feedback, err := h.feedback.Create(ctx, actor, req.ProductID, req.Message)
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildFeedbackPayload(feedback))
}

func (h *FeedbackHandlers) listByProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	entries, err := h.feedback.ListByProduct(ctx, productID)
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	items := make([]feedbackPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, buildFeedbackPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

type feedbackPayload struct {
	ID         uint   `json:"id"`
	CustomerID uint   `json:"customer_id"`
	ProductID  string `json:"product_id"`
	Message    string `json:"message"`
	CreatedAt  string `json:"created_at"`
}

func buildFeedbackPayload(feedback domain.Feedback) feedbackPayload {
	return feedbackPayload{
		ID:         feedback.ID,
		CustomerID: feedback.CustomerID,
		ProductID:  feedback.ProductID,
		Message:    feedback.Message,
		CreatedAt:  formatTime(feedback.CreatedAt),
	}
}

func writeFeedbackError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrFeedbackInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrFeedbackNotPurchased):
		httpx.WriteError(ctx, w, httpx.NewError("feedback_not_purchased", "feedback requires a purchase of the product", http.StatusForbidden))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("feedback_error", "failed to process feedback request", http.StatusInternalServerError))
	}
}
