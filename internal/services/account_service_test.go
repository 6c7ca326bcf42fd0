package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/repositories"
)

func newAccountServiceForTest(t *testing.T, accounts *stubAccountRepo) AccountService {
	t.Helper()
	svc, err := NewAccountService(AccountServiceDeps{
		Accounts: accounts,
		Tokens:   &stubTokenIssuer{},
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewAccountService: %v", err)
	}
	return svc
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	return string(hashed)
}

func TestRegisterCustomerHashesPassword(t *testing.T) {
	var inserted domain.Customer
	accounts := &stubAccountRepo{
		insertCustomerFn: func(_ context.Context, c *domain.Customer) error {
			c.ID = 1
			inserted = *c
			return nil
		},
	}
	svc := newAccountServiceForTest(t, accounts)

	customer, err := svc.RegisterCustomer(context.Background(), RegisterCustomerInput{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("RegisterCustomer: %v", err)
	}
	if customer.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalised lowercase", customer.Email)
	}
	if inserted.HashedPassword == "s3cret-pass" || inserted.HashedPassword == "" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(inserted.HashedPassword), []byte("s3cret-pass")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterCustomerValidation(t *testing.T) {
	svc := newAccountServiceForTest(t, &stubAccountRepo{})
	tests := []struct {
		name  string
		input RegisterCustomerInput
	}{
		{"bad email", RegisterCustomerInput{Name: "A", Email: "nope", Password: "long-enough"}},
		{"short password", RegisterCustomerInput{Name: "A", Email: "a@b.com", Password: "short"}},
		{"missing name", RegisterCustomerInput{Email: "a@b.com", Password: "long-enough"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RegisterCustomer(context.Background(), tc.input); !errors.Is(err, ErrAccountInvalidInput) {
				t.Fatalf("err = %v, want ErrAccountInvalidInput", err)
			}
		})
	}
}

func TestRegisterCustomerDuplicateEmail(t *testing.T) {
	accounts := &stubAccountRepo{
		insertCustomerFn: func(_ context.Context, c *domain.Customer) error {
			return repositories.NewError("accounts.insert_customer", repositories.KindConflict, nil)
		},
	}
	svc := newAccountServiceForTest(t, accounts)

	_, err := svc.RegisterCustomer(context.Background(), RegisterCustomerInput{
		Name: "A", Email: "a@b.com", Password: "long-enough",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginPerRole(t *testing.T) {
	hashed := mustHash(t, "correct-password")
	accounts := &stubAccountRepo{
		findCustomerByEmailFn: func(_ context.Context, email string) (domain.Customer, error) {
			return domain.Customer{ID: 1, Email: email, HashedPassword: hashed}, nil
		},
		findEmployeeByUsernameFn: func(_ context.Context, username string) (domain.Employee, error) {
			return domain.Employee{ID: 2, Username: username, HashedPassword: hashed}, nil
		},
		findAdminByUsernameFn: func(_ context.Context, username string) (domain.Admin, error) {
			return domain.Admin{ID: 3, Username: username, HashedPassword: hashed}, nil
		},
	}
	svc := newAccountServiceForTest(t, accounts)

	tests := []struct {
		role       string
		wantID     uint
		wantRole   string
		identifier string
	}{
		{auth.RoleCustomer, 1, auth.RoleCustomer, "a@b.com"},
		{auth.RoleEmployee, 2, auth.RoleEmployee, "worker"},
		{auth.RoleAdmin, 3, auth.RoleAdmin, "root"},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			session, err := svc.Login(context.Background(), Credentials{
				Role:       tc.role,
				Identifier: tc.identifier,
				Password:   "correct-password",
			})
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if session.AccountID != tc.wantID {
				t.Errorf("AccountID = %d, want %d", session.AccountID, tc.wantID)
			}
			if session.Role != tc.wantRole {
				t.Errorf("Role = %q, want %q", session.Role, tc.wantRole)
			}
			if session.Token == "" {
				t.Error("Token is empty")
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hashed := mustHash(t, "correct-password")
	accounts := &stubAccountRepo{
		findCustomerByEmailFn: func(_ context.Context, email string) (domain.Customer, error) {
			return domain.Customer{ID: 1, HashedPassword: hashed}, nil
		},
	}
	svc := newAccountServiceForTest(t, accounts)

	_, err := svc.Login(context.Background(), Credentials{Role: "customer", Identifier: "a@b.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownAccountHidesExistence(t *testing.T) {
	accounts := &stubAccountRepo{
		findCustomerByEmailFn: func(_ context.Context, email string) (domain.Customer, error) {
			return domain.Customer{}, repositories.NewError("accounts.find_customer_by_email", repositories.KindNotFound, nil)
		},
	}
	svc := newAccountServiceForTest(t, accounts)

	_, err := svc.Login(context.Background(), Credentials{Role: "customer", Identifier: "ghost@b.com", Password: "whatever-pass"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	hashed := mustHash(t, "old-password")
	var saved domain.Customer
	accounts := &stubAccountRepo{
		findCustomerFn: func(_ context.Context, id uint) (domain.Customer, error) {
			return domain.Customer{ID: id, HashedPassword: hashed}, nil
		},
		updateCustomerFn: func(_ context.Context, c *domain.Customer) error {
			saved = *c
			return nil
		},
	}
	svc := newAccountServiceForTest(t, accounts)
	actor := Actor{ID: 1, Role: auth.RoleCustomer}

	if err := svc.ChangePassword(context.Background(), actor, "wrong", "new-password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current err = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(context.Background(), actor, "old-password", "new-password-1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(saved.HashedPassword), []byte("new-password-1")); err != nil {
		t.Errorf("new hash mismatch: %v", err)
	}
}
