package address

import (
	"context"

	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
)

// Identity is the current shopper: an authenticated user id, or nothing for a
// guest.
type Identity struct {
	UserID string
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{}
}

// Authenticated returns an identity for a signed-in user.
func Authenticated(userID string) Identity {
	return Identity{UserID: userID}
}

// IsGuest reports whether no user is signed in.
func (i Identity) IsGuest() bool {
	return i.UserID == ""
}

// Mode maps the identity to a checkout mode.
func (i Identity) Mode() models.CheckoutMode {
	if i.IsGuest() {
		return models.ModeGuest
	}
	return models.ModeAuthenticated
}

// ExpressEligibility is derived fresh on every checkout entry and never
// cached across sessions.
type ExpressEligibility struct {
	HasSavedAddress            bool
	HasPreferredShippingMethod bool
}

// Resolution is the resolver output: eligibility flags plus the data express
// checkout would apply.
type Resolution struct {
	Eligibility       ExpressEligibility
	DefaultAddress    *models.Address
	PreferredMethodID string
}

// AddressBook looks up a user's saved addresses.
type AddressBook interface {
	DefaultAddress(ctx context.Context, userID string, addrType models.AddressType) (*models.Address, error)
}

// OrderHistory looks up a user's shipping preference from past orders.
// Returns an empty id when the user has no order history.
type OrderHistory interface {
	PreferredShippingMethodID(ctx context.Context, userID string) (string, error)
}

// Resolver determines express eligibility for the current identity.
type Resolver struct {
	book    AddressBook
	history OrderHistory
	logger  *zap.Logger
}

// NewResolver creates an address resolver.
func NewResolver(book AddressBook, history OrderHistory, logger *zap.Logger) *Resolver {
	return &Resolver{
		book:    book,
		history: history,
		logger:  logger,
	}
}

// Resolve computes express eligibility and the default address for an
// identity. Guests always resolve to all-false/nil, regardless of any express
// query flag the URL may carry. Lookup failures degrade to "not eligible"
// rather than blocking checkout.
func (r *Resolver) Resolve(ctx context.Context, identity Identity) Resolution {
	if identity.IsGuest() {
		return Resolution{}
	}

	addr, err := r.book.DefaultAddress(ctx, identity.UserID, models.AddressTypeShipping)
	if err != nil {
		r.logger.Warn("address lookup failed, express checkout disabled",
			zap.String("userId", identity.UserID), zap.Error(err))
		return Resolution{}
	}
	if addr == nil {
		return Resolution{}
	}

	resolution := Resolution{
		Eligibility:    ExpressEligibility{HasSavedAddress: true},
		DefaultAddress: addr,
	}

	methodID, err := r.history.PreferredShippingMethodID(ctx, identity.UserID)
	if err != nil {
		r.logger.Warn("order history lookup failed, preferred method unavailable",
			zap.String("userId", identity.UserID), zap.Error(err))
		return resolution
	}
	if methodID != "" {
		resolution.Eligibility.HasPreferredShippingMethod = true
		resolution.PreferredMethodID = methodID
	}

	return resolution
}
