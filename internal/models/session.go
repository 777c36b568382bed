package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CheckoutMode distinguishes guest and authenticated checkout.
type CheckoutMode string

// Checkout modes
const (
	ModeGuest         CheckoutMode = "guest"
	ModeAuthenticated CheckoutMode = "authenticated"
)

// SessionStatus represents valid checkout session states.
type SessionStatus string

// Session statuses
const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// Session domain errors
var (
	ErrEmptyCart                = errors.New("checkout requires a non-empty cart")
	ErrInvalidSessionTransition = errors.New("invalid checkout session transition")
	ErrSessionExpired           = errors.New("checkout session has expired")
)

// sessionTTL is how long a checkout session stays valid without renewal.
const sessionTTL = 30 * time.Minute

// CheckoutSession is the aggregate root for one checkout attempt. It owns the
// working address/shipping/payment state; the durable cart lives in the cart
// store and is referenced by snapshot.
type CheckoutSession struct {
	ID              string
	UserID          string
	Cart            CartSnapshot
	Address         *Address
	ShippingMethod  *ShippingMethod
	Payment         PaymentSelection
	TermsAccepted   bool
	PrivacyAccepted bool
	Mode            CheckoutMode
	Status          SessionStatus
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// NewCheckoutSession creates a session for a non-empty cart. userID is empty
// for guest checkout.
func NewCheckoutSession(cart CartSnapshot, mode CheckoutMode, userID string, now time.Time) (*CheckoutSession, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	return &CheckoutSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Cart:      cart,
		Payment:   PaymentSelection{},
		Mode:      mode,
		Status:    SessionActive,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}, nil
}

// Expired reports whether the session has passed its expiry.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Renew extends the session expiry from now.
func (s *CheckoutSession) Renew(now time.Time) {
	s.ExpiresAt = now.Add(sessionTTL)
}

// Terms reports whether both the terms and privacy flags are set. Order
// placement requires both.
func (s *CheckoutSession) Terms() bool {
	return s.TermsAccepted && s.PrivacyAccepted
}

// Complete marks the session as completed after a successful order.
func (s *CheckoutSession) Complete() error {
	if s.Status != SessionActive {
		return fmt.Errorf("%w: cannot complete session with status %s", ErrInvalidSessionTransition, s.Status)
	}
	s.Status = SessionCompleted
	return nil
}

// Abandon marks the session as abandoned. Checkout-specific fields are
// discarded with the session; only the cart survives in its cookie.
func (s *CheckoutSession) Abandon() error {
	if s.Status == SessionCompleted {
		return fmt.Errorf("%w: cannot abandon a completed session", ErrInvalidSessionTransition)
	}
	s.Status = SessionAbandoned
	return nil
}

// Total returns cart subtotal plus the selected shipping price.
func (s *CheckoutSession) Total() int64 {
	total := s.Cart.Subtotal()
	if s.ShippingMethod != nil {
		total += s.ShippingMethod.Price
	}
	return total
}
