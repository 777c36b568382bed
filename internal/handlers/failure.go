package handlers

import (
	"errors"
	"net/http"

	"github.com/moldova-direct/storefront/internal/checkout"
	"github.com/moldova-direct/storefront/internal/models"
	"github.com/moldova-direct/storefront/internal/services"
)

// checkoutFailure maps a checkout error to an HTTP status and a user-facing
// message. External failures keep their reason verbatim so the shopper sees
// what actually went wrong before retrying.
func checkoutFailure(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrSessionExpired):
		return http.StatusGone, "Your checkout session expired. Please start checkout again."
	case errors.Is(err, models.ErrEmptyCart):
		return http.StatusConflict, "Your cart is empty."
	case errors.Is(err, checkout.ErrNoCommittedAddress):
		return http.StatusConflict, "A shipping address is required before selecting a shipping method."
	case errors.Is(err, checkout.ErrInvalidShippingMethod):
		return http.StatusConflict, "The selected shipping method is no longer available. Please choose again."
	case errors.Is(err, checkout.ErrPreferredMethodUnavailable):
		return http.StatusConflict, "Your usual shipping method is not available for this address."
	case errors.Is(err, checkout.ErrOrderNotReady):
		return http.StatusConflict, "Please complete address, shipping, payment and accept the terms first."
	case errors.Is(err, checkout.ErrOrderInFlight):
		return http.StatusConflict, "Your order is already being placed."
	case errors.Is(err, services.ErrOrderAlreadyPlaced):
		return http.StatusConflict, "An order was already placed for this checkout."
	case errors.Is(err, services.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "Your payment was declined. Please check your payment details and try again."
	default:
		return http.StatusBadGateway, "We couldn't place your order: " + err.Error()
	}
}
