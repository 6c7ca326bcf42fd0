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

const maxAuthBodySize = 8 * 1024

type registerCustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

type loginRequest struct {
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type createEmployeeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AccountHandlers exposes registration, login and account management.
type AccountHandlers struct {
	authn    *auth.Authenticator
	accounts services.AccountService
}

// NewAccountHandlers constructs a new AccountHandlers instance.
func NewAccountHandlers(authn *auth.Authenticator, accounts services.AccountService) *AccountHandlers {
	return &AccountHandlers{
		authn:    authn,
		accounts: accounts,
	}
}

// Routes registers the /auth endpoints. Registration and login are public.
func (h *AccountHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.registerCustomer)
	r.Post("/login", h.login)
	if h.authn != nil {
		r.With(h.authn.RequireAuth()).Post("/password", h.changePassword)
		r.With(h.authn.RequireAuth()).Get("/customer/{customerID}", h.getCustomer)
		r.With(h.authn.RequireAuth(auth.RoleAdmin)).Post("/employee", h.createEmployee)
		r.With(h.authn.RequireAuth(auth.RoleAdmin)).Get("/employee", h.listEmployees)
		return
	}
	r.Post("/password", h.changePassword)
	r.Get("/customer/{customerID}", h.getCustomer)
	r.Post("/employee", h.createEmployee)
	r.Get("/employee", h.listEmployees)
}

func (h *AccountHandlers) registerCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerCustomerRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	customer, err := h.accounts.RegisterCustomer(ctx, services.RegisterCustomerInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		writeAccountError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildCustomerPayload(customer))
}

func (h *AccountHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session, err := h.accounts.Login(ctx, services.Credentials{
		Role:       req.Role,
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		writeAccountError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionPayload{
		Token:     session.Token,
		Role:      session.Role,
		AccountID: session.AccountID,
		Name:      session.Name,
		ExpiresAt: formatTime(session.ExpiresAt),
	})
}

func (h *AccountHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req changePasswordRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.accounts.ChangePassword(ctx, actor, req.CurrentPassword, req.NewPassword); err != nil {
		writeAccountError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFromRequest(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	customerID, err := parseUintParam(r, "customerID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	customer, err := h.accounts.GetCustomer(ctx, actor, customerID)
	if err != nil {
		writeAccountError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCustomerPayload(customer))
}

func (h *AccountHandlers) createEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createEmployeeRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	employee, err := h.accounts.CreateEmployee(ctx, services.CreateEmployeeInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeAccountError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildEmployeePayload(employee))
}

func (h *AccountHandlers) listEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.accounts.ListEmployees(ctx)
	if err != nil {
		writeAccountError(ctx, w, err)
		return
	}

	items := make([]employeePayload, 0, len(employees))
	for _, employee := range employees {
		items = append(items, buildEmployeePayload(employee))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

type sessionPayload struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	AccountID uint   `json:"account_id"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expires_at"`
}

type customerPayload struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type employeePayload struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func buildCustomerPayload(customer domain.Customer) customerPayload {
	return customerPayload{
		ID:          customer.ID,
		Name:        customer.Name,
		Email:       customer.Email,
		PhoneNumber: customer.PhoneNumber,
		Address:     customer.Address,
		CreatedAt:   formatTime(customer.CreatedAt),
	}
}

func buildEmployeePayload(employee domain.Employee) employeePayload {
	return employeePayload{
		ID:       employee.ID,
		Username: employee.Username,
		Name:     employee.Name,
	}
}

func writeAccountError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrAccountInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid credentials", http.StatusUnauthorized))
	case errors.Is(err, services.ErrEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("identifier_taken", "identifier already registered", http.StatusConflict))
	case errors.Is(err, services.ErrAccountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("account_not_found", "account not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAccountForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "access denied", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("account_error", "failed to process account request", http.StatusInternalServerError))
	}
}
