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

const maxInventoryBodySize = 4 * 1024

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// InventoryHandlers exposes stock management for operators.
type InventoryHandlers struct {
	authn     *auth.Authenticator
	inventory services.InventoryService
}

// NewInventoryHandlers constructs a new InventoryHandlers instance.
func NewInventoryHandlers(authn *auth.Authenticator, inventory services.InventoryService) *InventoryHandlers {
	return &InventoryHandlers{
		authn:     authn,
		inventory: inventory,
	}
}

// Routes registers the /inventory endpoints, all operator gated.
func (h *InventoryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleEmployee, auth.RoleAdmin))
	}
	r.Get("/", h.list)
	r.Get("/{productID}", h.get)
	r.Put("/{productID}", h.setQuantity)
}

func (h *InventoryHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.inventory.List(ctx)
	if err != nil {
		writeInventoryError(ctx, w, err)
		return
	}
	payloads := make([]inventoryPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildInventoryPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": payloads})
}

func (h *InventoryHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}
	item, err := h.inventory.Get(ctx, productID)
	if err != nil {
		writeInventoryError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildInventoryPayload(item))
}

func (h *InventoryHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req setQuantityRequest
	if err := decodeJSONBody(r, maxInventoryBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	item, err := h.inventory.SetQuantity(ctx, productID, req.Quantity)
	if err != nil {
		writeInventoryError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildInventoryPayload(item))
}

type inventoryPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func buildInventoryPayload(item domain.InventoryItem) inventoryPayload {
	return inventoryPayload{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UpdatedAt: formatTime(item.UpdatedAt),
	}
}

func writeInventoryError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrInventoryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryNotFound), errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("inventory_error", "failed to process inventory request", http.StatusInternalServerError))
	}
}
