package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents valid order states.
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order domain errors
var (
	ErrOrderNoItems            = errors.New("order must contain at least one item")
	ErrOrderNoAddress          = errors.New("order requires a shipping address")
	ErrOrderNoShippingMethod   = errors.New("order requires a shipping method")
	ErrOrderPaymentUnresolved  = errors.New("order requires a resolved payment selection")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// Order is a placed customer order created from a checkout session.
type Order struct {
	ID              string
	Reference       string
	SessionID       string
	UserID          string
	Items           []CartItem
	ShippingAddress Address
	ShippingMethod  ShippingMethod
	Payment         PaymentSelection
	Subtotal        int64
	ShippingCost    int64
	Total           int64
	Currency        string
	Status          OrderStatus
	PaymentRef      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder builds a pending order from a checkout session.
func NewOrder(session *CheckoutSession, now time.Time) (*Order, error) {
	if session.Cart.IsEmpty() {
		return nil, ErrOrderNoItems
	}
	if session.Address == nil {
		return nil, ErrOrderNoAddress
	}
	if session.ShippingMethod == nil {
		return nil, ErrOrderNoShippingMethod
	}
	if !session.Payment.Resolved() {
		return nil, ErrOrderPaymentUnresolved
	}

	subtotal := session.Cart.Subtotal()
	shippingCost := session.ShippingMethod.Price

	return &Order{
		ID:              uuid.New().String(),
		Reference:       fmt.Sprintf("MD-%d", now.Unix()),
		SessionID:       session.ID,
		UserID:          session.UserID,
		Items:           session.Cart.Items,
		ShippingAddress: *session.Address,
		ShippingMethod:  *session.ShippingMethod,
		Payment:         session.Payment,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Total:           subtotal + shippingCost,
		Currency:        "EUR",
		Status:          OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Confirm marks the order as confirmed with a payment reference.
func (o *Order) Confirm(paymentRef string, now time.Time) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot confirm order with status %s", ErrInvalidStatusTransition, o.Status)
	}
	o.Status = OrderStatusConfirmed
	o.PaymentRef = paymentRef
	o.UpdatedAt = now
	return nil
}

// Fail marks the order as failed.
func (o *Order) Fail(now time.Time) error {
	if o.Status == OrderStatusConfirmed {
		return fmt.Errorf("%w: cannot fail a confirmed order", ErrInvalidStatusTransition)
	}
	if o.Status == OrderStatusCancelled {
		return fmt.Errorf("%w: cannot fail a cancelled order", ErrInvalidStatusTransition)
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = now
	return nil
}

// Cancel marks the order as cancelled.
func (o *Order) Cancel(now time.Time) error {
	if o.Status == OrderStatusConfirmed {
		return fmt.Errorf("%w: cannot cancel a confirmed order", ErrInvalidStatusTransition)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// IsConfirmed returns true if the order has been confirmed.
func (o *Order) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// FormattedTotal returns the total formatted with currency, e.g. "42.50 EUR".
func (o *Order) FormattedTotal() string {
	return fmt.Sprintf("%.2f %s", float64(o.Total)/100.0, o.Currency)
}
