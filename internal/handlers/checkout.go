package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/address"
	"github.com/moldova-direct/storefront/internal/cart"
	"github.com/moldova-direct/storefront/internal/checkout"
	"github.com/moldova-direct/storefront/internal/express"
	"github.com/moldova-direct/storefront/internal/models"
)

// userIDHeader carries the authenticated user id, injected by the auth layer
// in front of this service. Absent means guest checkout.
const userIDHeader = "X-User-Id"

// CheckoutHandler drives checkout sessions over HTTP. Each started checkout
// holds an orchestrator, an express controller and a cart store seeded from
// the cart cookie, keyed by session id.
type CheckoutHandler struct {
	resolver *address.Resolver
	shipping checkout.ShippingLookup
	orders   checkout.OrderPlacer
	codec    cart.CookieCodec
	clock    clock.Clock
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*activeCheckout
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(resolver *address.Resolver, shipping checkout.ShippingLookup, orders checkout.OrderPlacer, clk clock.Clock, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		resolver: resolver,
		shipping: shipping,
		orders:   orders,
		clock:    clk,
		logger:   logger,
		sessions: make(map[string]*activeCheckout),
	}
}

type activeCheckout struct {
	orchestrator *checkout.Orchestrator
	express      *express.Controller
	cart         *cart.Store
	navigator    *paymentNavigator
}

// paymentNavigator records the jump to the payment step; the API client reads
// it from the state payload instead of being redirected server-side.
type paymentNavigator struct {
	mu    sync.Mutex
	fired bool
}

func (n *paymentNavigator) NavigateToPayment() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fired = true
}

func (n *paymentNavigator) Navigated() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fired
}

// Routes returns the checkout sub-router.
func (h *CheckoutHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.start)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.state)
		r.Delete("/", h.abandon)
		r.Post("/address", h.fillAddress)
		r.Post("/shipping", h.selectShipping)
		r.Post("/payment", h.selectPayment)
		r.Post("/terms", h.acceptTerms)
		r.Post("/order", h.placeOrder)
		r.Route("/express", func(r chi.Router) {
			r.Get("/", h.expressState)
			r.Post("/use", h.useExpress)
			r.Post("/cancel", h.cancelExpress)
			r.Post("/edit", h.editExpress)
		})
	})
	return r
}

// CheckoutStateView is the full checkout state payload.
type CheckoutStateView struct {
	SessionID        string                  `json:"sessionId"`
	Phase            string                  `json:"phase"`
	Sections         map[string]bool         `json:"sections"`
	AvailableMethods []models.ShippingMethod `json:"availableMethods"`
	CanPlaceOrder    bool                    `json:"canPlaceOrder"`
	Express          ExpressView             `json:"express"`
	PrefillAddress   *models.Address         `json:"prefillAddress,omitempty"`
}

// ExpressView is the express banner state payload.
type ExpressView struct {
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
	Navigated bool    `json:"navigated"`
	Error     string  `json:"error,omitempty"`
}

func (h *CheckoutHandler) view(ac *activeCheckout) CheckoutStateView {
	return CheckoutStateView{
		SessionID: ac.orchestrator.Session().ID,
		Phase:     ac.orchestrator.Phase().String(),
		Sections: map[string]bool{
			"address":  ac.orchestrator.SectionVisible(checkout.SectionAddress),
			"shipping": ac.orchestrator.SectionVisible(checkout.SectionShipping),
			"payment":  ac.orchestrator.SectionVisible(checkout.SectionPayment),
			"review":   ac.orchestrator.SectionVisible(checkout.SectionReview),
		},
		AvailableMethods: ac.orchestrator.AvailableMethods(),
		CanPlaceOrder:    ac.orchestrator.CanPlaceOrder(),
		Express:          h.expressView(ac),
		PrefillAddress:   ac.orchestrator.PrefilledAddress(),
	}
}

func (h *CheckoutHandler) expressView(ac *activeCheckout) ExpressView {
	view := ExpressView{
		State:     ac.express.State().String(),
		Progress:  ac.express.Progress(),
		Navigated: ac.navigator.Navigated(),
	}
	if err := ac.express.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}

func (h *CheckoutHandler) start(w http.ResponseWriter, r *http.Request) {
	identity := address.Guest()
	if userID := r.Header.Get(userIDHeader); userID != "" {
		identity = address.Authenticated(userID)
	}
	if identity.IsGuest() && r.URL.Query().Get("express") == "1" {
		// Express is derived from the identity, never from the URL.
		h.logger.Debug("ignoring express flag on guest checkout entry")
	}

	adapter := cart.NewMemoryAdapter()
	if c, err := r.Cookie(cart.CookieName); err == nil {
		snapshot, err := h.codec.Decode(c)
		if err != nil {
			h.logger.Warn("discarding unreadable cart cookie", zap.Error(err))
		} else if err := adapter.Save(*snapshot); err != nil {
			h.logger.Warn("failed to seed cart from cookie", zap.Error(err))
		}
	}
	store := cart.NewStore(adapter, h.clock, h.logger)
	store.Load()

	orchestrator, err := checkout.New(store, identity, h.shipping, h.orders, h.clock, h.logger)
	if err != nil {
		status, message := checkoutFailure(err)
		sendErrorResponse(w, message, status, h.logger)
		return
	}

	navigator := &paymentNavigator{}
	controller := express.NewController(orchestrator, navigator, h.clock, h.logger)
	controller.Evaluate(h.resolver.Resolve(r.Context(), identity))

	ac := &activeCheckout{
		orchestrator: orchestrator,
		express:      controller,
		cart:         store,
		navigator:    navigator,
	}

	h.mu.Lock()
	h.sessions[orchestrator.Session().ID] = ac
	h.mu.Unlock()

	h.logger.Info("checkout started",
		zap.String("sessionId", orchestrator.Session().ID),
		zap.String("mode", string(identity.Mode())))
	sendJSON(w, http.StatusCreated, h.view(ac), h.logger)
}

// lookup finds the active checkout for the request's session id.
func (h *CheckoutHandler) lookup(w http.ResponseWriter, r *http.Request) (*activeCheckout, bool) {
	sessionID := chi.URLParam(r, "sessionID")

	h.mu.Lock()
	ac, ok := h.sessions[sessionID]
	h.mu.Unlock()

	if !ok {
		sendErrorResponse(w, "unknown checkout session", http.StatusNotFound, h.logger)
		return nil, false
	}
	return ac, true
}

func (h *CheckoutHandler) state(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

func (h *CheckoutHandler) abandon(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	h.mu.Lock()
	ac, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if !ok {
		sendErrorResponse(w, "unknown checkout session", http.StatusNotFound, h.logger)
		return
	}

	ac.express.Dispose()
	ac.orchestrator.Abandon()
	ac.cart.Dispose()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) fillAddress(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var addr models.Address
	if !decodeBody(w, r, &addr, h.logger) {
		return
	}

	if err := ac.orchestrator.FillAddress(r.Context(), addr); err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

type selectShippingRequest struct {
	MethodID string `json:"methodId"`
}

func (h *CheckoutHandler) selectShipping(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req selectShippingRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := ac.orchestrator.SelectShippingMethod(req.MethodID); err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

type selectPaymentRequest struct {
	Kind           string `json:"kind"`
	CardholderName string `json:"cardholderName"`
	CardToken      string `json:"cardToken"`
}

func (h *CheckoutHandler) selectPayment(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req selectPaymentRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	selection := models.PaymentSelection{
		Kind:           models.PaymentKind(req.Kind),
		CardholderName: req.CardholderName,
		CardToken:      req.CardToken,
	}
	if err := ac.orchestrator.SelectPayment(selection); err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

type acceptTermsRequest struct {
	Terms   bool `json:"terms"`
	Privacy bool `json:"privacy"`
}

func (h *CheckoutHandler) acceptTerms(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req acceptTermsRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if req.Terms {
		ac.orchestrator.AcceptTerms()
	}
	if req.Privacy {
		ac.orchestrator.AcceptPrivacy()
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

// PlaceOrderResponse carries the confirmation of a successful order.
type PlaceOrderResponse struct {
	OrderID     string `json:"orderId"`
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirectUrl"`
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	confirmation, err := ac.orchestrator.PlaceOrder(r.Context())
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	// The cart is cleared with the order; the client cookie goes with it.
	http.SetCookie(w, h.codec.ExpiredCookie())
	sendJSON(w, http.StatusOK, PlaceOrderResponse{
		OrderID:     confirmation.OrderID,
		Reference:   confirmation.Reference,
		RedirectURL: confirmation.RedirectURL,
	}, h.logger)
}

func (h *CheckoutHandler) expressState(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, h.expressView(ac), h.logger)
}

func (h *CheckoutHandler) useExpress(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := ac.express.UseExpress(r.Context()); err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

func (h *CheckoutHandler) cancelExpress(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ac.express.Cancel()
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

func (h *CheckoutHandler) editExpress(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if addr := ac.express.Edit(); addr != nil {
		ac.orchestrator.PrefillAddress(*addr)
	}
	sendJSON(w, http.StatusOK, h.view(ac), h.logger)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var fieldErrs models.FieldErrors
	if errors.As(err, &fieldErrs) {
		sendFieldErrors(w, fieldErrs, h.logger)
		return
	}
	status, message := checkoutFailure(err)
	sendErrorResponse(w, message, status, h.logger)
}
