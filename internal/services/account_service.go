package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrAccountInvalidInput signals invalid registration or login data.
	ErrAccountInvalidInput = errors.New("account: invalid input")
	// ErrAccountNotFound indicates the account could not be located.
	ErrAccountNotFound = errors.New("account: not found")
	// ErrAccountForbidden indicates the actor may not access the account.
	ErrAccountForbidden = errors.New("account: forbidden")
	// ErrInvalidCredentials indicates the identifier/password pair did not match.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	// ErrEmailTaken indicates the email or username is already registered.
	ErrEmailTaken = errors.New("account: identifier already registered")
)

const minPasswordLength = 8

// TokenIssuer issues signed session tokens for authenticated identities.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// AccountServiceDeps bundles collaborators required to construct the account service.
type AccountServiceDeps struct {
	Accounts repositories.AccountRepository
	Tokens   TokenIssuer
	TokenTTL time.Duration
	Clock    func() time.Time
	Logger   *zap.Logger
	// HashCost overrides the bcrypt cost, primarily to speed up tests.
	HashCost int
}

type accountService struct {
	accounts repositories.AccountRepository
	tokens   TokenIssuer
	tokenTTL time.Duration
	clock    func() time.Time
	logger   *zap.Logger
	hashCost int
}

// NewAccountService wires dependencies into a concrete AccountService implementation.
func NewAccountService(deps AccountServiceDeps) (AccountService, error) {
	if deps.Accounts == nil {
		return nil, errors.New("account service: account repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("account service: token issuer is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	cost := deps.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &accountService{
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		tokenTTL: ttl,
		clock:    clock,
		logger:   logger,
		hashCost: cost,
	}, nil
}

func (s *accountService) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (domain.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Customer{}, fmt.Errorf("%w: name is required", ErrAccountInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Customer{}, fmt.Errorf("%w: invalid email", ErrAccountInvalidInput)
	}
	if err := validatePassword(input.Password); err != nil {
		return domain.Customer{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("account: hashing password: %w", err)
	}

	customer := domain.Customer{
		Name:           name,
		Email:          email,
		HashedPassword: string(hashed),
		PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
		Address:        strings.TrimSpace(input.Address),
	}
	if err := s.accounts.InsertCustomer(ctx, &customer); err != nil {
		if repositories.IsConflict(err) {
			return domain.Customer{}, ErrEmailTaken
		}
		return domain.Customer{}, err
	}

	s.logger.Info("customer registered", zap.Uint("customer_id", customer.ID))
	return customer, nil
}

// Login authenticates against the account table matching the requested role
// and issues a session token.
func (s *accountService) Login(ctx context.Context, creds Credentials) (Session, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" || creds.Password == "" {
		return Session{}, fmt.Errorf("%w: identifier and password are required", ErrAccountInvalidInput)
	}

	var (
		accountID uint
		name      string
		email     string
		hashed    string
		role      string
	)

	switch strings.ToLower(strings.TrimSpace(creds.Role)) {
	case auth.RoleCustomer, "":
		customer, err := s.accounts.FindCustomerByEmail(ctx, identifier)
		if err != nil {
			return Session{}, loginLookupError(err)
		}
		accountID, name, email, hashed, role = customer.ID, customer.Name, customer.Email, customer.HashedPassword, auth.RoleCustomer
	case auth.RoleEmployee:
		employee, err := s.accounts.FindEmployeeByUsername(ctx, identifier)
		if err != nil {
			return Session{}, loginLookupError(err)
		}
		accountID, name, hashed, role = employee.ID, employee.Name, employee.HashedPassword, auth.RoleEmployee
	case auth.RoleAdmin:
		admin, err := s.accounts.FindAdminByUsername(ctx, identifier)
		if err != nil {
			return Session{}, loginLookupError(err)
		}
		accountID, name, hashed, role = admin.ID, admin.Name, admin.HashedPassword, auth.RoleAdmin
	default:
		return Session{}, fmt.Errorf("%w: unknown role %q", ErrAccountInvalidInput, creds.Role)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(creds.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	identity := auth.Identity{AccountID: accountID, Email: email, Name: name, Role: role}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return Session{}, fmt.Errorf("account: issuing token: %w", err)
	}

	s.logger.Info("login succeeded",
		zap.Uint("account_id", accountID),
		zap.String("role", role))

	return Session{
		Token:     token,
		Role:      role,
		AccountID: accountID,
		Name:      name,
		ExpiresAt: s.clock().Add(s.tokenTTL),
	}, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *accountService) ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	verify := func(hashed string) error {
		if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(currentPassword)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}
	hash := func() (string, error) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
		if err != nil {
			return "", fmt.Errorf("account: hashing password: %w", err)
		}
		return string(hashed), nil
	}

	switch actor.Role {
	case auth.RoleCustomer:
		customer, err := s.accounts.FindCustomerByID(ctx, actor.ID)
		if err != nil {
			return accountLookupError(err)
		}
		if err := verify(customer.HashedPassword); err != nil {
			return err
		}
		if customer.HashedPassword, err = hash(); err != nil {
			return err
		}
		return s.accounts.UpdateCustomer(ctx, &customer)
	case auth.RoleEmployee:
		employee, err := s.accounts.FindEmployeeByID(ctx, actor.ID)
		if err != nil {
			return accountLookupError(err)
		}
		if err := verify(employee.HashedPassword); err != nil {
			return err
		}
		if employee.HashedPassword, err = hash(); err != nil {
			return err
		}
		return s.accounts.UpdateEmployee(ctx, &employee)
	case auth.RoleAdmin:
		admin, err := s.accounts.FindAdminByID(ctx, actor.ID)
		if err != nil {
			return accountLookupError(err)
		}
		if err := verify(admin.HashedPassword); err != nil {
			return err
		}
		if admin.HashedPassword, err = hash(); err != nil {
			return err
		}
		return s.accounts.UpdateAdmin(ctx, &admin)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrAccountInvalidInput, actor.Role)
	}
}

// GetCustomer returns a customer profile. Customers may only read their own.
func (s *accountService) GetCustomer(ctx context.Context, actor Actor, customerID uint) (domain.Customer, error) {
	if actor.IsCustomer() && actor.ID != customerID {
		return domain.Customer{}, ErrAccountForbidden
	}
	customer, err := s.accounts.FindCustomerByID(ctx, customerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Customer{}, ErrAccountNotFound
		}
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *accountService) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (domain.Employee, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return domain.Employee{}, fmt.Errorf("%w: username is required", ErrAccountInvalidInput)
	}
	if err := validatePassword(input.Password); err != nil {
		return domain.Employee{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("account: hashing password: %w", err)
	}

	employee := domain.Employee{
		Username:       username,
		HashedPassword: string(hashed),
		Name:           strings.TrimSpace(input.Name),
	}
	if err := s.accounts.InsertEmployee(ctx, &employee); err != nil {
		if repositories.IsConflict(err) {
			return domain.Employee{}, ErrEmailTaken
		}
		return domain.Employee{}, err
	}

	s.logger.Info("employee created", zap.Uint("employee_id", employee.ID))
	return employee, nil
}

func (s *accountService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.accounts.ListEmployees(ctx)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password needs at least %d characters", ErrAccountInvalidInput, minPasswordLength)
	}
	return nil
}

// loginLookupError hides whether the account exists from login callers.
func loginLookupError(err error) error {
	if repositories.IsNotFound(err) {
		return ErrInvalidCredentials
	}
	return err
}

func accountLookupError(err error) error {
	if repositories.IsNotFound(err) {
		return ErrAccountNotFound
	}
	return err
}
