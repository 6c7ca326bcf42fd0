package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/payments"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrPaymentNotFound indicates no payment matches the lookup.
	ErrPaymentNotFound = errors.New("payment: not found")
	// ErrPaymentForbidden indicates the actor may not access the payment.
	ErrPaymentForbidden = errors.New("payment: forbidden")
	// ErrPaymentInvalidState indicates the order's payment state forbids the operation.
	ErrPaymentInvalidState = errors.New("payment: invalid state")
	// ErrPaymentNotCompleted indicates the provider did not complete the
	// capture; the payment remains pending.
	ErrPaymentNotCompleted = errors.New("payment: not completed")
)

const (
	defaultPendingTTL     = time.Hour
	defaultReconcileBatch = 100
	paymentCurrency       = "USD"
)

// PaymentServiceDeps bundles collaborators required to construct the payment service.
type PaymentServiceDeps struct {
	Orders     repositories.OrderRepository
	Payments   repositories.PaymentRepository
	Provider   payments.Provider
	UnitOfWork repositories.UnitOfWork
	Clock      func() time.Time
	Logger     *zap.Logger
	// PendingTTL is how long a pending payment may sit before the
	// reconciliation sweep settles or rejects it.
	PendingTTL     time.Duration
	ReconcileBatch int
}

type paymentService struct {
	orders         repositories.OrderRepository
	payments       repositories.PaymentRepository
	provider       payments.Provider
	unitOfWork     repositories.UnitOfWork
	clock          func() time.Time
	logger         *zap.Logger
	pendingTTL     time.Duration
	reconcileBatch int
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("payment service: payment repository is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("payment service: provider is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("payment service: unit of work is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pendingTTL := deps.PendingTTL
	if pendingTTL <= 0 {
		pendingTTL = defaultPendingTTL
	}
	batch := deps.ReconcileBatch
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &paymentService{
		orders:         deps.Orders,
		payments:       deps.Payments,
		provider:       deps.Provider,
		unitOfWork:     deps.UnitOfWork,
		clock:          clock,
		logger:         logger,
		pendingTTL:     pendingTTL,
		reconcileBatch: batch,
	}, nil
}

// Start opens a provider checkout for the order and records a pending payment.
func (s *paymentService) Start(ctx context.Context, actor Actor, orderID uint) (StartPaymentResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return StartPaymentResult{}, ErrOrderNotFound
		}
		return StartPaymentResult{}, err
	}
	if actor.IsCustomer() && order.CustomerID != actor.ID {
		return StartPaymentResult{}, ErrPaymentForbidden
	}
	if order.PaymentStatus == domain.PaymentStatusCleared {
		return StartPaymentResult{}, fmt.Errorf("%w: payment already cleared", ErrPaymentInvalidState)
	}
	if order.DispatchStatus != domain.DispatchStatusPending {
		return StartPaymentResult{}, fmt.Errorf("%w: order already %s", ErrPaymentInvalidState, order.DispatchStatus)
	}

	// The pending row is written before the provider call: if the checkout is
	// created but the token never lands here, the reconciliation sweep still
	// finds a local record to expire.
	payment := domain.Payment{
		OrderID:       order.ID,
		PaymentType:   domain.PaymentTypePayPal,
		PaymentStatus: domain.PaymentStatusPending,
		Amount:        order.TotalAmount,
		PaymentDate:   s.clock().UTC(),
	}
	if err := s.payments.Insert(ctx, &payment); err != nil {
		return StartPaymentResult{}, err
	}

	checkout, err := s.provider.CreateCheckout(ctx, payments.CheckoutRequest{
		ReferenceID: order.DisplayID(),
		Amount:      order.TotalAmount,
		Currency:    paymentCurrency,
		Description: fmt.Sprintf("Order %s", order.DisplayID()),
	})
	if err != nil {
		return StartPaymentResult{}, err
	}

	payment.ProviderOrderID = checkout.ProviderOrderID
	if err := s.payments.Update(ctx, &payment); err != nil {
		return StartPaymentResult{}, err
	}

	s.logger.Info("payment started",
		zap.Uint("order_id", order.ID),
		zap.String("provider_order_id", checkout.ProviderOrderID),
		zap.Int64("amount", order.TotalAmount))

	return StartPaymentResult{
		OrderID:         order.ID,
		ProviderOrderID: checkout.ProviderOrderID,
		ApprovalURL:     checkout.ApprovalURL,
		Amount:          order.TotalAmount,
	}, nil
}

// HandleProviderCallback captures an approved checkout. Replayed callbacks for
// an already-settled payment return the stored outcome without touching the
// provider again.
func (s *paymentService) HandleProviderCallback(ctx context.Context, providerOrderID string) (PaymentView, error) {
	payment, err := s.payments.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return PaymentView{}, ErrPaymentNotFound
		}
		return PaymentView{}, err
	}

	if payment.PaymentStatus != domain.PaymentStatusPending {
		return viewOf(payment), nil
	}

	result, err := s.provider.CaptureCheckout(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			return PaymentView{}, fmt.Errorf("%w: provider does not recognise the checkout", ErrPaymentNotCompleted)
		}
		return PaymentView{}, err
	}

	switch result.Status {
	case payments.CaptureStatusCompleted:
		return s.settle(ctx, payment, domain.PaymentStatusCleared, result.TransactionID)
	default:
		// Declined or still processing: the payment stays pending so the
		// customer can retry; only an override or the reconciliation sweep
		// rejects it.
		return PaymentView{}, fmt.Errorf("%w: provider capture status %s", ErrPaymentNotCompleted, result.Status)
	}
}

// settle finalises a payment attempt and, on clearance, flips the order's
// payment status in the same transaction.
func (s *paymentService) settle(ctx context.Context, payment domain.Payment, status domain.PaymentStatus, transactionID string) (PaymentView, error) {
	now := s.clock().UTC()
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		payment.PaymentStatus = status
		payment.TransactionID = transactionID
		payment.PaymentDate = now
		if err := s.payments.Update(txCtx, &payment); err != nil {
			return err
		}
		if status == domain.PaymentStatusCleared {
			return s.orders.UpdatePaymentStatus(txCtx, payment.OrderID, domain.PaymentStatusCleared)
		}
		return nil
	})
	if err != nil {
		return PaymentView{}, err
	}

	s.logger.Info("payment settled",
		zap.Uint("order_id", payment.OrderID),
		zap.String("provider_order_id", payment.ProviderOrderID),
		zap.String("payment_status", string(status)),
		zap.String("transaction_id", transactionID))

	return viewOf(payment), nil
}

// GetStatus returns the latest capture attempt for the order, falling back to
// the order's own payment status when nothing has been attempted yet.
func (s *paymentService) GetStatus(ctx context.Context, actor Actor, orderID uint) (PaymentView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return PaymentView{}, ErrOrderNotFound
		}
		return PaymentView{}, err
	}
	if actor.IsCustomer() && order.CustomerID != actor.ID {
		return PaymentView{}, ErrPaymentForbidden
	}

	payment, err := s.payments.LatestByOrderID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return PaymentView{OrderID: orderID, Status: order.PaymentStatus}, nil
		}
		return PaymentView{}, err
	}
	return viewOf(payment), nil
}

// Override lets an admin force a payment status, covering out-of-band
// settlements such as cheque or bank transfer.
func (s *paymentService) Override(ctx context.Context, orderID uint, status domain.PaymentStatus) (PaymentView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return PaymentView{}, ErrOrderNotFound
		}
		return PaymentView{}, err
	}
	settledAlready := order.PaymentStatus == domain.PaymentStatusCleared || order.PaymentStatus == domain.PaymentStatusRejected
	if settledAlready && status != order.PaymentStatus {
		return PaymentView{}, fmt.Errorf("%w: payment already %s", ErrPaymentInvalidState, order.PaymentStatus)
	}

	now := s.clock().UTC()
	var view PaymentView
	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.UpdatePaymentStatus(txCtx, order.ID, status); err != nil {
			return err
		}

		payment, err := s.payments.LatestByOrderID(txCtx, order.ID)
		if repositories.IsNotFound(err) {
			view = PaymentView{OrderID: order.ID, Status: status}
			return nil
		}
		if err != nil {
			return err
		}
		payment.PaymentStatus = status
		payment.PaymentDate = now
		if err := s.payments.Update(txCtx, &payment); err != nil {
			return err
		}
		view = viewOf(payment)
		return nil
	})
	if err != nil {
		return PaymentView{}, err
	}

	s.logger.Info("payment status overridden",
		zap.Uint("order_id", order.ID),
		zap.String("payment_status", string(status)))

	return view, nil
}

// ReconcileStalePayments settles pending payments older than the TTL: the
// provider is asked once more, and attempts it no longer recognises or has
// declined are rejected. Returns the number of payments settled.
func (s *paymentService) ReconcileStalePayments(ctx context.Context) (int, error) {
	cutoff := s.clock().UTC().Add(-s.pendingTTL)
	stale, err := s.payments.ListStalePending(ctx, cutoff, s.reconcileBatch)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, payment := range stale {
		if payment.ProviderOrderID == "" {
			// Checkout never got a token; nothing to ask the provider about.
			if _, err := s.settle(ctx, payment, domain.PaymentStatusRejected, ""); err != nil {
				return settled, err
			}
			settled++
			continue
		}
		result, err := s.provider.CaptureCheckout(ctx, payment.ProviderOrderID)
		switch {
		case errors.Is(err, payments.ErrOrderNotFound):
			result = payments.CaptureResult{Status: payments.CaptureStatusDeclined}
		case errors.Is(err, payments.ErrProviderUnavailable):
			// Provider is down; leave the rest for the next sweep.
			s.logger.Warn("reconciliation aborted, provider unavailable",
				zap.Uint("payment_id", payment.ID))
			return settled, nil
		case err != nil:
			return settled, err
		}

		switch result.Status {
		case payments.CaptureStatusCompleted:
			if _, err := s.settle(ctx, payment, domain.PaymentStatusCleared, result.TransactionID); err != nil {
				return settled, err
			}
			settled++
		case payments.CaptureStatusDeclined:
			if _, err := s.settle(ctx, payment, domain.PaymentStatusRejected, ""); err != nil {
				return settled, err
			}
			settled++
		default:
			// Expired without approval: reject so the order can be retried.
			if _, err := s.settle(ctx, payment, domain.PaymentStatusRejected, ""); err != nil {
				return settled, err
			}
			settled++
		}
	}
	return settled, nil
}

func viewOf(payment domain.Payment) PaymentView {
	return PaymentView{
		OrderID:       payment.OrderID,
		Status:        payment.PaymentStatus,
		PaymentType:   payment.PaymentType,
		Amount:        payment.Amount,
		TransactionID: payment.TransactionID,
		PaymentDate:   payment.PaymentDate,
	}
}
