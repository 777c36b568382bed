package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
	"github.com/moldova-direct/storefront/internal/repository"
)

// OrderGetter looks up placed orders for the confirmation page.
type OrderGetter interface {
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
}

// ConfirmationHandler serves the order summary shown after checkout.
type ConfirmationHandler struct {
	orders OrderGetter
	logger *zap.Logger
}

// NewConfirmationHandler creates a new confirmation handler.
func NewConfirmationHandler(orders OrderGetter, logger *zap.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		orders: orders,
		logger: logger,
	}
}

// OrderView is the order payload for the confirmation page.
type OrderView struct {
	Reference       string                `json:"reference"`
	Status          string                `json:"status"`
	Items           []models.CartItem     `json:"items"`
	ShippingAddress models.Address        `json:"shippingAddress"`
	ShippingMethod  models.ShippingMethod `json:"shippingMethod"`
	PaymentKind     string                `json:"paymentKind"`
	Subtotal        int64                 `json:"subtotal"`
	ShippingCost    int64                 `json:"shippingCost"`
	Total           int64                 `json:"total"`
	FormattedTotal  string                `json:"formattedTotal"`
	Currency        string                `json:"currency"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// ServeHTTP handles GET /api/orders/{reference}.
func (h *ConfirmationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		sendErrorResponse(w, "missing order reference", http.StatusBadRequest, h.logger)
		return
	}

	order, err := h.orders.GetOrderByReference(r.Context(), reference)
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendErrorResponse(w, "order not found", http.StatusNotFound, h.logger)
		return
	}
	if err != nil {
		h.logger.Error("order lookup failed", zap.String("reference", reference), zap.Error(err))
		sendErrorResponse(w, "failed to load order", http.StatusInternalServerError, h.logger)
		return
	}

	sendJSON(w, http.StatusOK, OrderView{
		Reference:       order.Reference,
		Status:          string(order.Status),
		Items:           order.Items,
		ShippingAddress: order.ShippingAddress,
		ShippingMethod:  order.ShippingMethod,
		PaymentKind:     string(order.Payment.Kind),
		Subtotal:        order.Subtotal,
		ShippingCost:    order.ShippingCost,
		Total:           order.Total,
		FormattedTotal:  order.FormattedTotal(),
		Currency:        order.Currency,
		CreatedAt:       order.CreatedAt,
	}, h.logger)
}
