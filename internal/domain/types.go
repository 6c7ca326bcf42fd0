package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus tracks the lifecycle of the monetary capture for an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusCleared  PaymentStatus = "Cleared"
	PaymentStatusRejected PaymentStatus = "Rejected"
)

// DispatchStatus tracks order fulfilment independently of payment.
type DispatchStatus string

const (
	DispatchStatusPending    DispatchStatus = "Pending"
	DispatchStatusDispatched DispatchStatus = "Dispatched"
	DispatchStatusDelivered  DispatchStatus = "Delivered"
	DispatchStatusCancelled  DispatchStatus = "Cancelled"
)

// PaymentType identifies the capture channel for a payment.
type PaymentType string

const (
	PaymentTypePayPal     PaymentType = "PayPal"
	PaymentTypeCreditCard PaymentType = "CreditCard"
	PaymentTypeCheque     PaymentType = "Cheque"
)

// DeliveryType selects how an order is delivered.
type DeliveryType string

const (
	DeliveryTypeStandard DeliveryType = "Standard"
	DeliveryTypeExpress  DeliveryType = "Express"
	DeliveryTypePickup   DeliveryType = "Pickup"
)

// RequestType distinguishes post-order customer requests.
type RequestType string

const (
	RequestTypeReturn      RequestType = "Return"
	RequestTypeReplacement RequestType = "Replacement"
)

// ApprovalStatus tracks the operator decision on a return/replacement request.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "Pending"
	ApprovalStatusApproved ApprovalStatus = "Approved"
	ApprovalStatusRejected ApprovalStatus = "Rejected"
)

// ParsePaymentStatus parses a payment status name case-insensitively.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return PaymentStatusPending, true
	case "cleared":
		return PaymentStatusCleared, true
	case "rejected":
		return PaymentStatusRejected, true
	}
	return "", false
}

// ParseDispatchStatus parses a dispatch status name case-insensitively.
func ParseDispatchStatus(raw string) (DispatchStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return DispatchStatusPending, true
	case "dispatched":
		return DispatchStatusDispatched, true
	case "delivered":
		return DispatchStatusDelivered, true
	case "cancelled", "canceled":
		return DispatchStatusCancelled, true
	}
	return "", false
}

// ParseDeliveryType parses a delivery type name case-insensitively.
func ParseDeliveryType(raw string) (DeliveryType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "standard":
		return DeliveryTypeStandard, true
	case "express":
		return DeliveryTypeExpress, true
	case "pickup":
		return DeliveryTypePickup, true
	}
	return "", false
}

// ParseRequestType parses a return/replacement request type case-insensitively.
func ParseRequestType(raw string) (RequestType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "return":
		return RequestTypeReturn, true
	case "replacement":
		return RequestTypeReplacement, true
	}
	return "", false
}

// ParseApprovalStatus parses an approval status name case-insensitively.
func ParseApprovalStatus(raw string) (ApprovalStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return ApprovalStatusPending, true
	case "approved":
		return ApprovalStatusApproved, true
	case "rejected":
		return ApprovalStatusRejected, true
	}
	return "", false
}

// Customer is a registered shopper. Customers are never hard-deleted while
// referenced by orders, feedback, or return requests.
type Customer struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:128"`
	Email          string `gorm:"size:255;uniqueIndex"`
	HashedPassword string `gorm:"size:128"`
	PhoneNumber    string `gorm:"size:32"`
	Address        string `gorm:"size:255"`
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Employee accounts are managed by admins only.
type Employee struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"size:64;uniqueIndex"`
	HashedPassword string `gorm:"size:128"`
	Name           string `gorm:"size:128"`
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Admin accounts hold the highest privilege level.
type Admin struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"size:64;uniqueIndex"`
	HashedPassword string `gorm:"size:128"`
	Name           string `gorm:"size:128"`
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Category groups products and donates the two-character prefix of product codes.
type Category struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:128"`
	ImageURL   string `gorm:"size:512"`
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Product is catalog stock. The identifier is a fixed 7-character code:
// a 2-character category prefix followed by a 5-digit per-category sequence.
type Product struct {
	ID             string `gorm:"primaryKey;size:7"`
	Name           string `gorm:"size:255"`
	Description    string `gorm:"size:1024"`
	Price          int64
	ImageURL       string `gorm:"size:512"`
	CategoryID     uint   `gorm:"index"`
	Category       *Category
	WarrantyMonths int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	InventoryItem  *InventoryItem
}

// InventoryItem holds quantity on hand, one-to-one with a product.
type InventoryItem struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"size:7;uniqueIndex"`
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order is the aggregate root of the order workflow. It owns its items and at
// most one payment; the product and customer references are shared.
type Order struct {
	ID              uint `gorm:"primaryKey"`
	CustomerID      uint `gorm:"index"`
	OrderDate       time.Time
	DeliveryAddress string         `gorm:"size:255"`
	DeliveryType    DeliveryType   `gorm:"size:16"`
	PaymentStatus   PaymentStatus  `gorm:"size:16"`
	DispatchStatus  DispatchStatus `gorm:"size:16"`
	DeliveryDate    time.Time
	TotalAmount     int64
	Items           []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time   `gorm:"index"`
	UpdatedAt       time.Time
}

// DisplayID is the zero-padded external-facing order identifier; it doubles
// as the merchant reference handed to the payment provider.
func (o Order) DisplayID() string {
	return fmt.Sprintf("%08d", o.ID)
}

// OrderItem captures quantity and unit price at time of purchase. The price is
// a snapshot, not a live reference to the catalog price.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"index"`
	ProductID string `gorm:"size:7;index"`
	Quantity  int
	Price     int64
	CreatedAt time.Time
}

// Payment records a capture attempt for an order. TransactionID is populated
// only after the provider confirms completion.
type Payment struct {
	ID              uint `gorm:"primaryKey"`
	OrderID         uint `gorm:"index"`
	PaymentType     PaymentType   `gorm:"size:16"`
	PaymentStatus   PaymentStatus `gorm:"size:16"`
	Amount          int64
	ProviderOrderID string `gorm:"size:64;index"`
	TransactionID   string `gorm:"size:64"`
	PaymentDate     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReturnOrReplacement is a post-order customer request referencing an order
// and one of its products.
type ReturnOrReplacement struct {
	ID             uint   `gorm:"primaryKey"`
	OrderID        uint   `gorm:"index"`
	ProductID      string `gorm:"size:7"`
	RequestType    RequestType    `gorm:"size:16"`
	ApprovalStatus ApprovalStatus `gorm:"size:16"`
	RequestDate    time.Time
}

// Feedback is a customer message tied to a purchased product.
type Feedback struct {
	ID         uint   `gorm:"primaryKey"`
	CustomerID uint   `gorm:"index"`
	ProductID  string `gorm:"size:7;index"`
	Message    string `gorm:"size:2048"`
	CreatedAt  time.Time `gorm:"index"`
}
