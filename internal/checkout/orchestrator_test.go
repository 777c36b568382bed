package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/address"
	"github.com/moldova-direct/storefront/internal/cart"
	"github.com/moldova-direct/storefront/internal/models"
)

type mockShipping struct {
	MethodsForFunc func(ctx context.Context, addr models.Address) ([]models.ShippingMethod, error)
	calls          int
}

func (m *mockShipping) MethodsFor(ctx context.Context, addr models.Address) ([]models.ShippingMethod, error) {
	m.calls++
	if m.MethodsForFunc != nil {
		return m.MethodsForFunc(ctx, addr)
	}
	return catalogMethods(), nil
}

type mockOrders struct {
	PlaceOrderFunc func(ctx context.Context, session *models.CheckoutSession) (*Confirmation, error)
	calls          int
}

func (m *mockOrders) PlaceOrder(ctx context.Context, session *models.CheckoutSession) (*Confirmation, error) {
	m.calls++
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(ctx, session)
	}
	return &Confirmation{
		OrderID:     "order-1",
		Reference:   "MD-1",
		RedirectURL: "/checkout/confirmation",
	}, nil
}

func catalogMethods() []models.ShippingMethod {
	return []models.ShippingMethod{
		{ID: "standard", Name: "Standard", Price: 500, EstimatedDays: 3},
		{ID: "express", Name: "Express", Price: 999, EstimatedDays: 1},
	}
}

func validAddress() models.Address {
	return models.Address{
		FirstName:  "Test",
		LastName:   "User",
		Street:     "123 Test Street",
		City:       "Madrid",
		PostalCode: "28001",
		Country:    "ES",
		Type:       models.AddressTypeShipping,
	}
}

type fixture struct {
	orchestrator *Orchestrator
	cart         *cart.Store
	shipping     *mockShipping
	orders       *mockOrders
	clock        *clock.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewMock()
	store := cart.NewStore(cart.NewMemoryAdapter(), clk, zap.NewNop())
	require.NoError(t, store.AddItem("wine-feteasca", 1250, 2))

	shipping := &mockShipping{}
	orders := &mockOrders{}

	orchestrator, err := New(store, address.Guest(), shipping, orders, clk, zap.NewNop())
	require.NoError(t, err)

	return &fixture{
		orchestrator: orchestrator,
		cart:         store,
		shipping:     shipping,
		orders:       orders,
		clock:        clk,
	}
}

// walk the fixture through address, shipping, payment and terms.
func (f *fixture) readyToPlace(t *testing.T) {
	t.Helper()
	require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
	require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))
	require.NoError(t, f.orchestrator.SelectPayment(models.CashPayment()))
	f.orchestrator.AcceptTerms()
	f.orchestrator.AcceptPrivacy()
}

func TestNewRequiresNonEmptyCart(t *testing.T) {
	clk := clock.NewMock()
	empty := cart.NewStore(cart.NewMemoryAdapter(), clk, zap.NewNop())

	_, err := New(empty, address.Guest(), &mockShipping{}, &mockOrders{}, clk, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrEmptyCart)
}

func TestFillAddress(t *testing.T) {
	t.Run("invalid address commits nothing", func(t *testing.T) {
		f := newFixture(t)

		addr := validAddress()
		addr.City = ""
		err := f.orchestrator.FillAddress(context.Background(), addr)

		var fieldErrs models.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "city")
		assert.Nil(t, f.orchestrator.Session().Address)
		assert.False(t, f.orchestrator.SectionVisible(SectionShipping))
		assert.Equal(t, 0, f.shipping.calls, "no lookup for an invalid address")
	})

	t.Run("commit unlocks shipping and fetches methods", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		assert.NotNil(t, f.orchestrator.Session().Address)
		assert.True(t, f.orchestrator.SectionVisible(SectionShipping))
		assert.Equal(t, PhaseShipping, f.orchestrator.Phase())
		assert.Len(t, f.orchestrator.AvailableMethods(), 2)
	})

	t.Run("lookup failure keeps address committed", func(t *testing.T) {
		f := newFixture(t)
		f.shipping.MethodsForFunc = func(context.Context, models.Address) ([]models.ShippingMethod, error) {
			return nil, errors.New("shipping backend unavailable")
		}

		err := f.orchestrator.FillAddress(context.Background(), validAddress())
		assert.Error(t, err)
		assert.NotNil(t, f.orchestrator.Session().Address)
		assert.Empty(t, f.orchestrator.AvailableMethods())
	})

	t.Run("re-editing address never hides later sections", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))
		require.True(t, f.orchestrator.SectionVisible(SectionPayment))

		edited := validAddress()
		edited.Street = "456 Other Street"
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), edited))

		assert.True(t, f.orchestrator.SectionVisible(SectionAddress))
		assert.True(t, f.orchestrator.SectionVisible(SectionShipping))
		assert.True(t, f.orchestrator.SectionVisible(SectionPayment), "disclosure is monotonic")
	})

	t.Run("address change drops a method missing from the new lookup", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		require.NoError(t, f.orchestrator.SelectShippingMethod("express"))

		f.shipping.MethodsForFunc = func(context.Context, models.Address) ([]models.ShippingMethod, error) {
			return catalogMethods()[:1], nil // standard only
		}
		edited := validAddress()
		edited.Country = "MD"
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), edited))

		assert.Nil(t, f.orchestrator.Session().ShippingMethod)
	})
}

func TestSelectShippingMethod(t *testing.T) {
	t.Run("requires committed address", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.orchestrator.SelectShippingMethod("standard"), ErrNoCommittedAddress)
	})

	t.Run("stale reference fails", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))

		err := f.orchestrator.SelectShippingMethod("carrier-pigeon")
		assert.ErrorIs(t, err, ErrInvalidShippingMethod)
		assert.Nil(t, f.orchestrator.Session().ShippingMethod)
	})

	t.Run("commit unlocks payment", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))

		assert.Equal(t, "standard", f.orchestrator.Session().ShippingMethod.ID)
		assert.True(t, f.orchestrator.SectionVisible(SectionPayment))
		assert.Equal(t, PhasePayment, f.orchestrator.Phase())
	})
}

func TestSelectPayment(t *testing.T) {
	t.Run("incomplete credit card reports field errors", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))

		err := f.orchestrator.SelectPayment(models.CreditCardPayment("Test User", ""))
		var fieldErrs models.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "cardToken")
		assert.False(t, f.orchestrator.Session().Payment.Resolved())
		assert.False(t, f.orchestrator.SectionVisible(SectionReview))
	})

	t.Run("resolved payment unlocks review", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
		require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))
		require.NoError(t, f.orchestrator.SelectPayment(models.CreditCardPayment("Test User", "tok_visa")))

		assert.True(t, f.orchestrator.SectionVisible(SectionReview))
		assert.Equal(t, PhaseReview, f.orchestrator.Phase())
	})
}

func TestPlaceOrderPreconditions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
	require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))
	require.NoError(t, f.orchestrator.SelectPayment(models.CashPayment()))

	// Terms and privacy are both required.
	_, err := f.orchestrator.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrOrderNotReady)

	f.orchestrator.AcceptTerms()
	_, err = f.orchestrator.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, ErrOrderNotReady)

	f.orchestrator.AcceptPrivacy()
	assert.True(t, f.orchestrator.CanPlaceOrder())
}

func TestPlaceOrder(t *testing.T) {
	t.Run("success completes session and clears cart", func(t *testing.T) {
		f := newFixture(t)
		f.readyToPlace(t)

		confirmation, err := f.orchestrator.PlaceOrder(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/checkout/confirmation", confirmation.RedirectURL)
		assert.Equal(t, models.SessionCompleted, f.orchestrator.Session().Status)
		assert.Equal(t, PhaseCompleted, f.orchestrator.Phase())
		assert.True(t, f.cart.IsEmpty())
	})

	t.Run("repeat call does not create a duplicate order", func(t *testing.T) {
		f := newFixture(t)
		f.readyToPlace(t)

		first, err := f.orchestrator.PlaceOrder(context.Background())
		require.NoError(t, err)

		second, err := f.orchestrator.PlaceOrder(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, f.orders.calls, "at most one order per session")
	})

	t.Run("failure preserves session for retry", func(t *testing.T) {
		f := newFixture(t)
		f.readyToPlace(t)

		f.orders.PlaceOrderFunc = func(context.Context, *models.CheckoutSession) (*Confirmation, error) {
			return nil, errors.New("card declined")
		}
		_, err := f.orchestrator.PlaceOrder(context.Background())
		require.EqualError(t, err, "card declined", "failure reason surfaced verbatim")

		assert.Equal(t, models.SessionActive, f.orchestrator.Session().Status)
		assert.False(t, f.cart.IsEmpty())

		// User-initiated retry succeeds.
		f.orders.PlaceOrderFunc = nil
		confirmation, err := f.orchestrator.PlaceOrder(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, confirmation)
		assert.Equal(t, 2, f.orders.calls)
	})

	t.Run("cart is locked during placement", func(t *testing.T) {
		f := newFixture(t)
		f.readyToPlace(t)

		f.orders.PlaceOrderFunc = func(ctx context.Context, session *models.CheckoutSession) (*Confirmation, error) {
			assert.ErrorIs(t, f.cart.AddItem("p2", 100, 1), models.ErrCartLocked)
			return &Confirmation{OrderID: "order-1", Reference: "MD-1", RedirectURL: "/checkout/confirmation"}, nil
		}
		_, err := f.orchestrator.PlaceOrder(context.Background())
		require.NoError(t, err)
	})
}

func TestApplyExpressDefaults(t *testing.T) {
	saved := validAddress()
	saved.ID = "addr-1"

	t.Run("preferred method applied, phase jumps to payment", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.ApplyExpressDefaults(context.Background(), saved, "standard"))
		assert.Equal(t, "standard", f.orchestrator.Session().ShippingMethod.ID)
		assert.Equal(t, saved.ID, f.orchestrator.Session().Address.ID)
		assert.Equal(t, PhasePayment, f.orchestrator.Phase())
		assert.True(t, f.orchestrator.SectionVisible(SectionPayment))
	})

	t.Run("no preference falls back to first method", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.orchestrator.ApplyExpressDefaults(context.Background(), saved, ""))
		assert.Equal(t, "standard", f.orchestrator.Session().ShippingMethod.ID)
	})

	t.Run("unavailable preferred method leaves session untouched", func(t *testing.T) {
		f := newFixture(t)

		err := f.orchestrator.ApplyExpressDefaults(context.Background(), saved, "discontinued")
		assert.ErrorIs(t, err, ErrPreferredMethodUnavailable)
		assert.Nil(t, f.orchestrator.Session().Address)
		assert.Nil(t, f.orchestrator.Session().ShippingMethod)
		assert.Equal(t, PhaseAddress, f.orchestrator.Phase())
	})

	t.Run("lookup failure leaves session untouched", func(t *testing.T) {
		f := newFixture(t)
		f.shipping.MethodsForFunc = func(context.Context, models.Address) ([]models.ShippingMethod, error) {
			return nil, errors.New("shipping backend unavailable")
		}

		err := f.orchestrator.ApplyExpressDefaults(context.Background(), saved, "standard")
		assert.Error(t, err)
		assert.Nil(t, f.orchestrator.Session().Address)
		assert.Equal(t, PhaseAddress, f.orchestrator.Phase())
	})
}

func TestSessionExpiry(t *testing.T) {
	f := newFixture(t)

	f.clock.Add(31 * time.Minute)

	assert.ErrorIs(t, f.orchestrator.FillAddress(context.Background(), validAddress()), models.ErrSessionExpired)
	assert.ErrorIs(t, f.orchestrator.SelectShippingMethod("standard"), models.ErrSessionExpired)
	_, err := f.orchestrator.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestOperationsRenewSession(t *testing.T) {
	f := newFixture(t)

	// Stay active by operating within the window.
	f.clock.Add(29 * time.Minute)
	require.NoError(t, f.orchestrator.FillAddress(context.Background(), validAddress()))
	f.clock.Add(29 * time.Minute)
	require.NoError(t, f.orchestrator.SelectShippingMethod("standard"))
	f.clock.Add(29 * time.Minute)
	require.NoError(t, f.orchestrator.SelectPayment(models.CashPayment()))
}
