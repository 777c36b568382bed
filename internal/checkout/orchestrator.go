package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/address"
	"github.com/moldova-direct/storefront/internal/models"
)

// ShippingLookup returns the available shipping methods for a committed
// address, ordered by preference. The first element is the implicit default.
type ShippingLookup interface {
	MethodsFor(ctx context.Context, addr models.Address) ([]models.ShippingMethod, error)
}

// Confirmation is the successful outcome of order placement.
type Confirmation struct {
	OrderID     string `json:"orderId"`
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirectUrl"`
}

// OrderPlacer issues the order-creation request against the storefront
// backend.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, session *models.CheckoutSession) (*Confirmation, error)
}

// CartAccess is the slice of the cart store the orchestrator needs.
type CartAccess interface {
	Snapshot() models.CartSnapshot
	IsEmpty() bool
	Lock(checkoutSessionID string)
	Unlock()
	Clear()
}

// Orchestrator is the facade for one checkout attempt. It owns the checkout
// session, drives progressive disclosure, and issues the terminal
// order-creation call with an at-most-one-order-per-session guarantee.
type Orchestrator struct {
	mu               sync.Mutex
	session          *models.CheckoutSession
	phase            Phase
	disclosure       Disclosure
	availableMethods []models.ShippingMethod
	prefill          *models.Address
	confirmation     *Confirmation
	placing          bool

	cart     CartAccess
	shipping ShippingLookup
	orders   OrderPlacer
	clock    clock.Clock
	logger   *zap.Logger
}

// New creates an orchestrator for a non-empty cart.
func New(cartStore CartAccess, identity address.Identity, shipping ShippingLookup, orders OrderPlacer, clk clock.Clock, logger *zap.Logger) (*Orchestrator, error) {
	session, err := models.NewCheckoutSession(cartStore.Snapshot(), identity.Mode(), identity.UserID, clk.Now())
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		session:  session,
		phase:    PhaseAddress,
		cart:     cartStore,
		shipping: shipping,
		orders:   orders,
		clock:    clk,
		logger:   logger,
	}, nil
}

// Session returns the working checkout session. Owned by the orchestrator;
// callers must treat it as read-only.
func (o *Orchestrator) Session() *models.CheckoutSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Phase returns the current checkout phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// SectionVisible reports progressive disclosure for a form section.
func (o *Orchestrator) SectionVisible(section Section) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disclosure.Visible(section)
}

// AvailableMethods returns the shipping methods from the most recent lookup.
func (o *Orchestrator) AvailableMethods() []models.ShippingMethod {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.ShippingMethod(nil), o.availableMethods...)
}

// PrefilledAddress returns the editable, uncommitted address set by the
// express "edit" path, if any.
func (o *Orchestrator) PrefilledAddress() *models.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prefill
}

// PrefillAddress stores an address for form pre-fill without committing it.
// Used when the shopper chooses to edit their saved details.
func (o *Orchestrator) PrefillAddress(addr models.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prefill = &addr
}

// FillAddress validates and commits the shipping address, then looks up the
// shipping methods for it. On validation failure nothing is committed and the
// field-level errors are returned.
func (o *Orchestrator) FillAddress(ctx context.Context, addr models.Address) error {
	o.mu.Lock()
	if o.session.Expired(o.clock.Now()) {
		o.mu.Unlock()
		return models.ErrSessionExpired
	}
	if errs := addr.Validate(); errs != nil {
		o.mu.Unlock()
		return errs
	}
	o.mu.Unlock()

	methods, err := o.shipping.MethodsFor(ctx, addr)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.session.Address = &addr
	o.session.Renew(o.clock.Now())
	o.disclosure.Unlock(SectionShipping)
	if o.phase < PhaseShipping {
		o.phase = PhaseShipping
	}

	if err != nil {
		// Address stays committed; the method list can be re-fetched.
		o.availableMethods = nil
		return fmt.Errorf("shipping method lookup failed: %w", err)
	}
	o.availableMethods = methods

	// A previously selected method may no longer apply to the new address.
	if o.session.ShippingMethod != nil && !containsMethod(methods, o.session.ShippingMethod.ID) {
		o.session.ShippingMethod = nil
	}
	return nil
}

// SelectShippingMethod commits a method from the most recent lookup.
// References outside that list fail with ErrInvalidShippingMethod.
func (o *Orchestrator) SelectShippingMethod(methodID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Expired(o.clock.Now()) {
		return models.ErrSessionExpired
	}
	if o.session.Address == nil {
		return ErrNoCommittedAddress
	}

	for _, method := range o.availableMethods {
		if method.ID == methodID {
			selected := method
			o.session.ShippingMethod = &selected
			o.session.Renew(o.clock.Now())
			o.disclosure.Unlock(SectionPayment)
			if o.phase < PhasePayment {
				o.phase = PhasePayment
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidShippingMethod, methodID)
}

// SelectPayment commits a payment selection. An unresolved selection (e.g. a
// credit card without cardholder name or token) is rejected with field-level
// errors and nothing is committed.
func (o *Orchestrator) SelectPayment(selection models.PaymentSelection) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Expired(o.clock.Now()) {
		return models.ErrSessionExpired
	}
	if !selection.Resolved() {
		return paymentFieldErrors(selection)
	}

	o.session.Payment = selection
	o.session.Renew(o.clock.Now())
	o.disclosure.Unlock(SectionReview)
	if o.phase < PhaseReview {
		o.phase = PhaseReview
	}
	return nil
}

// AcceptTerms sets the terms flag.
func (o *Orchestrator) AcceptTerms() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.TermsAccepted = true
}

// AcceptPrivacy sets the privacy flag.
func (o *Orchestrator) AcceptPrivacy() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.PrivacyAccepted = true
}

// CanPlaceOrder reports whether all order preconditions hold.
func (o *Orchestrator) CanPlaceOrder() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readyLocked()
}

func (o *Orchestrator) readyLocked() bool {
	return o.session.Address != nil &&
		o.session.ShippingMethod != nil &&
		o.session.Payment.Resolved() &&
		o.session.Terms()
}

// PlaceOrder issues the order-creation request. At most one order is created
// per session: a repeat call after success returns the prior confirmation.
// On failure the session is left in its pre-call state and the reason is
// returned verbatim.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*Confirmation, error) {
	o.mu.Lock()
	if o.confirmation != nil {
		confirmation := o.confirmation
		o.mu.Unlock()
		return confirmation, nil
	}
	if o.placing {
		o.mu.Unlock()
		return nil, ErrOrderInFlight
	}
	if o.session.Expired(o.clock.Now()) {
		o.mu.Unlock()
		return nil, models.ErrSessionExpired
	}
	if !o.readyLocked() {
		o.mu.Unlock()
		return nil, ErrOrderNotReady
	}

	o.placing = true
	o.session.Cart = o.cart.Snapshot()
	session := o.session
	o.mu.Unlock()

	o.cart.Lock(session.ID)
	confirmation, err := o.orders.PlaceOrder(ctx, session)

	o.mu.Lock()
	o.placing = false
	if err != nil {
		o.mu.Unlock()
		o.cart.Unlock()
		return nil, err
	}

	o.confirmation = confirmation
	if completeErr := o.session.Complete(); completeErr != nil {
		o.logger.Warn("session completion transition rejected", zap.Error(completeErr))
	}
	o.phase = PhaseCompleted
	o.mu.Unlock()

	o.cart.Clear()
	o.logger.Info("order placed",
		zap.String("sessionId", session.ID),
		zap.String("orderId", confirmation.OrderID),
		zap.String("reference", confirmation.Reference))
	return confirmation, nil
}

// ApplyExpressDefaults commits the saved address and preferred shipping
// method in one step and jumps to the payment phase, bypassing the usual
// section gating. When no preferred method is on file the first method from
// the lookup is used. Any failure leaves the session untouched.
func (o *Orchestrator) ApplyExpressDefaults(ctx context.Context, addr models.Address, preferredMethodID string) error {
	if errs := addr.Validate(); errs != nil {
		return fmt.Errorf("saved address is no longer valid: %w", errs)
	}

	methods, err := o.shipping.MethodsFor(ctx, addr)
	if err != nil {
		return fmt.Errorf("shipping method lookup failed: %w", err)
	}
	if len(methods) == 0 {
		return ErrPreferredMethodUnavailable
	}

	selected := methods[0]
	if preferredMethodID != "" {
		found := false
		for _, method := range methods {
			if method.ID == preferredMethodID {
				selected = method
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrPreferredMethodUnavailable, preferredMethodID)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.Expired(o.clock.Now()) {
		return models.ErrSessionExpired
	}

	o.session.Address = &addr
	o.session.ShippingMethod = &selected
	o.session.Renew(o.clock.Now())
	o.availableMethods = methods
	o.disclosure.Unlock(SectionPayment)
	if o.phase < PhasePayment {
		o.phase = PhasePayment
	}
	return nil
}

// Abandon discards the checkout session. Only the cart survives, in its
// cookie.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.session.Abandon(); err != nil {
		o.logger.Debug("abandon skipped", zap.Error(err))
	}
}

func containsMethod(methods []models.ShippingMethod, id string) bool {
	for _, method := range methods {
		if method.ID == id {
			return true
		}
	}
	return false
}

func paymentFieldErrors(selection models.PaymentSelection) models.FieldErrors {
	errs := models.FieldErrors{}
	switch selection.Kind {
	case models.PaymentKindCreditCard:
		if selection.CardholderName == "" {
			errs["cardholderName"] = "is required"
		}
		if selection.CardToken == "" {
			errs["cardToken"] = "is required"
		}
	default:
		errs["kind"] = "payment method is required"
	}
	return errs
}
