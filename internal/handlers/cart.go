package handlers

import (
	"errors"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/cart"
	"github.com/moldova-direct/storefront/internal/models"
)

// CartHandler is the cookie boundary of the cart. Each request rebuilds a
// store from the request cookie, applies the mutation and flushes the new
// snapshot into the response cookie, so the cart survives across requests
// without server-side state.
type CartHandler struct {
	codec  cart.CookieCodec
	clock  clock.Clock
	logger *zap.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(clk clock.Clock, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		clock:  clk,
		logger: logger,
	}
}

// Routes returns the cart sub-router.
func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{productRef}", h.updateItem)
	r.Delete("/items/{productRef}", h.removeItem)
	return r
}

// cookieAdapter persists cart snapshots through the request/response cookie
// pair of a single HTTP exchange.
type cookieAdapter struct {
	codec cart.CookieCodec
	r     *http.Request
	w     http.ResponseWriter
}

func (a *cookieAdapter) Load() (*models.CartSnapshot, error) {
	c, err := a.r.Cookie(cart.CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a.codec.Decode(c)
}

func (a *cookieAdapter) Save(snapshot models.CartSnapshot) error {
	c, err := a.codec.Encode(snapshot)
	if err != nil {
		return err
	}
	http.SetCookie(a.w, c)
	return nil
}

func (a *cookieAdapter) Clear() error {
	http.SetCookie(a.w, a.codec.ExpiredCookie())
	return nil
}

// storeFor builds a request-scoped cart store seeded from the cart cookie.
func (h *CartHandler) storeFor(w http.ResponseWriter, r *http.Request) *cart.Store {
	store := cart.NewStore(&cookieAdapter{codec: h.codec, r: r, w: w}, h.clock, h.logger)
	store.Load()
	return store
}

// CartView is the cart payload returned by all cart endpoints.
type CartView struct {
	Items     []models.CartItem `json:"items"`
	Subtotal  int64             `json:"subtotal"`
	ItemCount int               `json:"itemCount"`
}

func cartView(store *cart.Store) CartView {
	snapshot := store.Snapshot()
	return CartView{
		Items:     snapshot.Items,
		Subtotal:  snapshot.Subtotal(),
		ItemCount: snapshot.ItemCount(),
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, cartView(h.storeFor(w, r)), h.logger)
}

type addItemRequest struct {
	ProductRef string `json:"productRef"`
	Quantity   int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	product, ok := productByRef(req.ProductRef)
	if !ok {
		sendErrorResponse(w, "unknown product", http.StatusNotFound, h.logger)
		return
	}

	store := h.storeFor(w, r)
	if err := store.AddItem(product.Ref, product.Price, req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}

	// The response cookie must carry the new state immediately; the debounce
	// only exists within a page life, not across HTTP exchanges.
	store.ForceImmediateSave()
	sendJSON(w, http.StatusOK, cartView(store), h.logger)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	store := h.storeFor(w, r)
	if err := store.UpdateQuantity(chi.URLParam(r, "productRef"), req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}

	store.ForceImmediateSave()
	sendJSON(w, http.StatusOK, cartView(store), h.logger)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	store := h.storeFor(w, r)
	if err := store.RemoveItem(chi.URLParam(r, "productRef")); err != nil {
		h.writeCartError(w, err)
		return
	}

	store.ForceImmediateSave()
	sendJSON(w, http.StatusOK, cartView(store), h.logger)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	store := h.storeFor(w, r)
	store.Clear()
	sendJSON(w, http.StatusOK, cartView(store), h.logger)
}

func (h *CartHandler) writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity):
		sendErrorResponse(w, "quantity must not be negative", http.StatusUnprocessableEntity, h.logger)
	case errors.Is(err, models.ErrCartLocked):
		sendErrorResponse(w, "cart is locked while an order is being placed", http.StatusConflict, h.logger)
	default:
		h.logger.Error("cart mutation failed", zap.Error(err))
		sendErrorResponse(w, "cart update failed", http.StatusInternalServerError, h.logger)
	}
}
