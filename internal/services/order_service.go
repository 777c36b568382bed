package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/checkout"
	"github.com/moldova-direct/storefront/internal/models"
)

// ErrOrderAlreadyPlaced is returned when a checkout session already holds an
// order-creation reservation. The orchestrator normally prevents this on a
// single instance; the reservation covers concurrent instances.
var ErrOrderAlreadyPlaced = errors.New("an order was already placed for this checkout session")

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, reference string, status models.OrderStatus, paymentRef string) error
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
}

// Reservations guards order creation so each checkout session produces at
// most one order.
type Reservations interface {
	Key(checkoutSessionID string) string
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// OrderService turns a completed checkout session into a persisted,
// charged order. It implements the orchestrator's order placement.
type OrderService struct {
	orderRepo    OrderRepository
	payments     PaymentService
	reservations Reservations
	clock        clock.Clock
	logger       *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo OrderRepository, payments PaymentService, reservations Reservations, clk clock.Clock, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		payments:     payments,
		reservations: reservations,
		clock:        clk,
		logger:       logger,
	}
}

// PlaceOrder creates and charges the order for a checkout session. The
// session's reservation is released on failure so the shopper can retry; a
// successful placement keeps it, making repeats fail fast.
func (s *OrderService) PlaceOrder(ctx context.Context, session *models.CheckoutSession) (*checkout.Confirmation, error) {
	key := s.reservations.Key(session.ID)
	reserved, err := s.reservations.Reserve(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve order creation: %w", err)
	}
	if !reserved {
		return nil, ErrOrderAlreadyPlaced
	}

	confirmation, err := s.placeReserved(ctx, session)
	if err != nil {
		if releaseErr := s.reservations.Release(ctx, key); releaseErr != nil {
			s.logger.Error("failed to release order reservation",
				zap.String("sessionId", session.ID),
				zap.Error(releaseErr))
		}
		return nil, err
	}
	return confirmation, nil
}

func (s *OrderService) placeReserved(ctx context.Context, session *models.CheckoutSession) (*checkout.Confirmation, error) {
	now := s.clock.Now()
	order, err := models.NewOrder(session, now)
	if err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	paymentRef, err := s.payments.Charge(ctx, order)
	if err != nil {
		if failErr := order.Fail(s.clock.Now()); failErr == nil {
			if updateErr := s.orderRepo.UpdateOrderStatus(ctx, order.Reference, order.Status, ""); updateErr != nil {
				s.logger.Error("failed to record order failure",
					zap.String("reference", order.Reference),
					zap.Error(updateErr))
			}
		}
		return nil, err
	}

	if err := order.Confirm(paymentRef, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrderStatus(ctx, order.Reference, order.Status, order.PaymentRef); err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	s.logger.Info("order confirmed",
		zap.String("reference", order.Reference),
		zap.String("paymentRef", paymentRef),
		zap.Int64("total", order.Total))

	return &checkout.Confirmation{
		OrderID:     order.ID,
		Reference:   order.Reference,
		RedirectURL: "/checkout/confirmation/" + order.Reference,
	}, nil
}

// GetOrderByReference retrieves an order for the confirmation page.
func (s *OrderService) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}
