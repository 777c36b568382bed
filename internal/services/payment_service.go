package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
)

// Payment domain errors
var (
	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrUnknownPaymentKind = errors.New("unknown payment kind")
)

// PaymentService charges an order with the selected payment method.
type PaymentService interface {
	Charge(ctx context.Context, order *models.Order) (string, error)
}

// PaymentServiceImpl implements PaymentService. Card payments go through
// Stripe; cash on delivery and PayPal are settled outside the order flow and
// only get a tracking reference here.
type PaymentServiceImpl struct {
	stripe StripeClient
	logger *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(stripe StripeClient, logger *zap.Logger) PaymentService {
	return &PaymentServiceImpl{
		stripe: stripe,
		logger: logger,
	}
}

// Charge executes the payment for a pending order and returns the payment
// reference to record on it.
func (s *PaymentServiceImpl) Charge(ctx context.Context, order *models.Order) (string, error) {
	switch order.Payment.Kind {
	case models.PaymentKindCash:
		return "cod-" + order.Reference, nil

	case models.PaymentKindPayPal:
		// Captured by the PayPal return handler; the order carries a
		// provisional reference until then.
		return "paypal-" + order.Reference, nil

	case models.PaymentKindCreditCard:
		intent, err := s.stripe.CreatePaymentIntent(ctx, &PaymentIntentRequest{
			Amount:        order.Total,
			Currency:      order.Currency,
			PaymentMethod: order.Payment.CardToken,
			Description:   "Moldova Direct order " + order.Reference,
			Reference:     order.Reference,
		})
		if err != nil {
			return "", fmt.Errorf("failed to charge card: %w", err)
		}
		if intent.Status != "succeeded" {
			s.logger.Warn("payment intent not settled",
				zap.String("orderReference", order.Reference),
				zap.String("intentStatus", intent.Status))
			return "", fmt.Errorf("%w: intent status %s", ErrPaymentDeclined, intent.Status)
		}
		return intent.ID, nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPaymentKind, order.Payment.Kind)
	}
}
