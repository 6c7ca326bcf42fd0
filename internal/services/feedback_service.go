package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/clearcart/api/internal/domain"
	"github.com/clearcart/api/internal/repositories"
)

var (
	// ErrFeedbackInvalidInput signals invalid feedback data.
	ErrFeedbackInvalidInput = errors.New("feedback: invalid input")
	// ErrFeedbackNotPurchased indicates the customer never bought the product.
	ErrFeedbackNotPurchased = errors.New("feedback: product not purchased")
)

const maxFeedbackLength = 2000

// FeedbackServiceDeps bundles collaborators required to construct the feedback service.
type FeedbackServiceDeps struct {
	Feedback repositories.FeedbackRepository
	Orders   repositories.OrderRepository
	Products repositories.ProductRepository
	Logger   *zap.Logger
}

type feedbackService struct {
	feedback  repositories.FeedbackRepository
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewFeedbackService wires dependencies into a concrete FeedbackService implementation.
func NewFeedbackService(deps FeedbackServiceDeps) (FeedbackService, error) {
	if deps.Feedback == nil {
		return nil, errors.New("feedback service: feedback repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("feedback service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("feedback service: product repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &feedbackService{
		feedback:  deps.Feedback,
		orders:    deps.Orders,
		products:  deps.Products,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}, nil
}

// Create stores sanitised feedback. Only customers who purchased the product
// may leave feedback for it.
func (s *feedbackService) Create(ctx context.Context, actor Actor, productID, message string) (domain.Feedback, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Feedback{}, fmt.Errorf("%w: product id is required", ErrFeedbackInvalidInput)
	}

	message = strings.TrimSpace(s.sanitizer.Sanitize(message))
	if message == "" {
		return domain.Feedback{}, fmt.Errorf("%w: message is required", ErrFeedbackInvalidInput)
	}
	if len(message) > maxFeedbackLength {
		return domain.Feedback{}, fmt.Errorf("%w: message too long", ErrFeedbackInvalidInput)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repositories.IsNotFound(err) {
			return domain.Feedback{}, ErrCatalogProductNotFound
		}
		return domain.Feedback{}, err
	}

	purchased, err := s.orders.CustomerHasPurchased(ctx, actor.ID, productID)
	if err != nil {
		return domain.Feedback{}, err
	}
	if !purchased {
		return domain.Feedback{}, ErrFeedbackNotPurchased
	}

	feedback := domain.Feedback{
		CustomerID: actor.ID,
		ProductID:  productID,
		Message:    message,
	}
	if err := s.feedback.Insert(ctx, &feedback); err != nil {
		return domain.Feedback{}, err
	}

	s.logger.Info("feedback stored",
		zap.Uint("customer_id", actor.ID),
		zap.String("product_id", productID))

	return feedback, nil
}

func (s *feedbackService) ListByProduct(ctx context.Context, productID string) ([]domain.Feedback, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrCatalogProductNotFound
		}
		return nil, err
	}
	return s.feedback.ListByProduct(ctx, productID)
}
