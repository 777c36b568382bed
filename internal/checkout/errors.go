package checkout

import "errors"

// Checkout errors
var (
	// ErrInvalidShippingMethod is returned when the selected method does not
	// belong to the most recent lookup for the committed address. Retryable
	// after re-fetching the current method list.
	ErrInvalidShippingMethod = errors.New("shipping method is not available for the committed address")

	// ErrNoCommittedAddress is returned when shipping is selected before an
	// address has been committed.
	ErrNoCommittedAddress = errors.New("no committed shipping address")

	// ErrOrderNotReady is returned by PlaceOrder when address, shipping,
	// payment or the terms/privacy flags are missing.
	ErrOrderNotReady = errors.New("order preconditions not met")

	// ErrOrderInFlight is returned when PlaceOrder is called while a prior
	// call is still outstanding.
	ErrOrderInFlight = errors.New("order placement already in progress")

	// ErrPreferredMethodUnavailable is returned when express apply cannot
	// find the preferred shipping method in the current lookup.
	ErrPreferredMethodUnavailable = errors.New("preferred shipping method is no longer available")
)
