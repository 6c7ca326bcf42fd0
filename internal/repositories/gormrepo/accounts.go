package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/clearcart/api/internal/domain"
)

// AccountRepository persists customer, employee, and admin rows.
type AccountRepository struct {
	db *gorm.DB
}

func (r *AccountRepository) InsertCustomer(ctx context.Context, customer *domain.Customer) error {
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	return wrap("accounts.insert_customer", handle(ctx, r.db).Create(customer).Error)
}

func (r *AccountRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	return wrap("accounts.update_customer", handle(ctx, r.db).Save(customer).Error)
}

func (r *AccountRepository) FindCustomerByID(ctx context.Context, id uint) (domain.Customer, error) {
	var customer domain.Customer
	err := handle(ctx, r.db).First(&customer, "id = ?", id).Error
	return customer, wrap("accounts.find_customer", err)
}

func (r *AccountRepository) FindCustomerByEmail(ctx context.Context, email string) (domain.Customer, error) {
	var customer domain.Customer
	email = strings.ToLower(strings.TrimSpace(email))
	err := handle(ctx, r.db).First(&customer, "email = ?", email).Error
	return customer, wrap("accounts.find_customer_by_email", err)
}

func (r *AccountRepository) InsertEmployee(ctx context.Context, employee *domain.Employee) error {
	employee.Username = strings.TrimSpace(employee.Username)
	return wrap("accounts.insert_employee", handle(ctx, r.db).Create(employee).Error)
}

func (r *AccountRepository) UpdateEmployee(ctx context.Context, employee *domain.Employee) error {
	return wrap("accounts.update_employee", handle(ctx, r.db).Save(employee).Error)
}

func (r *AccountRepository) FindEmployeeByID(ctx context.Context, id uint) (domain.Employee, error) {
	var employee domain.Employee
	err := handle(ctx, r.db).First(&employee, "id = ?", id).Error
	return employee, wrap("accounts.find_employee", err)
}

func (r *AccountRepository) FindEmployeeByUsername(ctx context.Context, username string) (domain.Employee, error) {
	var employee domain.Employee
	err := handle(ctx, r.db).First(&employee, "username = ?", strings.TrimSpace(username)).Error
	return employee, wrap("accounts.find_employee_by_username", err)
}

func (r *AccountRepository) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var employees []domain.Employee
	err := handle(ctx, r.db).Order("id").Find(&employees).Error
	return employees, wrap("accounts.list_employees", err)
}

func (r *AccountRepository) FindAdminByID(ctx context.Context, id uint) (domain.Admin, error) {
	var admin domain.Admin
	err := handle(ctx, r.db).First(&admin, "id = ?", id).Error
	return admin, wrap("accounts.find_admin", err)
}

func (r *AccountRepository) FindAdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	var admin domain.Admin
	err := handle(ctx, r.db).First(&admin, "username = ?", strings.TrimSpace(username)).Error
	return admin, wrap("accounts.find_admin_by_username", err)
}

func (r *AccountRepository) UpdateAdmin(ctx context.Context, admin *domain.Admin) error {
	return wrap("accounts.update_admin", handle(ctx, r.db).Save(admin).Error)
}
