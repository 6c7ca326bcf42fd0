// Package payments abstracts the external payment provider behind a narrow
// interface so services never speak provider wire formats directly.
package payments

import (
	"context"
	"errors"
)

// CaptureStatus enumerates the normalised outcomes of a capture attempt.
type CaptureStatus string

const (
	// CaptureStatusCompleted indicates the provider captured the funds.
	CaptureStatusCompleted CaptureStatus = "completed"
	// CaptureStatusDeclined indicates the provider definitively declined the capture.
	CaptureStatusDeclined CaptureStatus = "declined"
	// CaptureStatusPending indicates the provider has not settled the capture yet.
	CaptureStatusPending CaptureStatus = "pending"
)

var (
	// ErrProviderUnavailable indicates the provider could not be reached or
	// answered outside the 2xx range for an infrastructure reason.
	ErrProviderUnavailable = errors.New("payments: provider unavailable")
	// ErrOrderNotFound indicates the provider does not know the referenced order.
	ErrOrderNotFound = errors.New("payments: provider order not found")
)

// CheckoutRequest carries everything needed to open a provider checkout.
type CheckoutRequest struct {
	// ReferenceID is the merchant-side order reference shown in provider dashboards.
	ReferenceID string
	// Amount is the order total in minor currency units.
	Amount int64
	// Currency is an ISO 4217 code such as "USD".
	Currency string
	// Description appears on the payer-facing checkout page.
	Description string
}

// Checkout is the provider session the customer must approve.
type Checkout struct {
	// ProviderOrderID is the provider's identifier for this checkout.
	ProviderOrderID string
	// ApprovalURL is where the customer completes the payment.
	ApprovalURL string
}

// CaptureResult normalises the outcome of capturing an approved checkout.
type CaptureResult struct {
	Status        CaptureStatus
	ReferenceID   string
	TransactionID string
}

// Provider is the payment gateway contract used by the payment service.
type Provider interface {
	// CreateCheckout opens a checkout session for the given order.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
	// CaptureCheckout captures the funds for an approved checkout.
	CaptureCheckout(ctx context.Context, providerOrderID string) (CaptureResult, error)
}
