package cart

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldova-direct/storefront/internal/models"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := CookieCodec{}
	snapshot := models.CartSnapshot{
		Items: []models.CartItem{
			{ProductRef: "wine-feteasca", UnitPrice: 1250, Quantity: 2},
			{ProductRef: "wine-rara", UnitPrice: 1800, Quantity: 1},
		},
		SessionID:     "cart-abc",
		LastSyncAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		SchemaVersion: models.CartSchemaVersion,
	}

	cookie, err := codec.Encode(snapshot)
	require.NoError(t, err)

	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, 30*24*60*60, cookie.MaxAge, "expiry measured in days")
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	decoded, err := codec.Decode(cookie)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Items, decoded.Items)
	assert.Equal(t, snapshot.SessionID, decoded.SessionID)
	assert.True(t, snapshot.LastSyncAt.Equal(decoded.LastSyncAt))
}

func TestCookieCodecSchemaVersionMismatch(t *testing.T) {
	codec := CookieCodec{}
	snapshot := models.CartSnapshot{
		Items:         []models.CartItem{{ProductRef: "p1", UnitPrice: 100, Quantity: 1}},
		SchemaVersion: models.CartSchemaVersion + 1,
	}

	cookie, err := codec.Encode(snapshot)
	require.NoError(t, err)

	_, err = codec.Decode(cookie)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)
}

func TestCookieCodecMalformedPayload(t *testing.T) {
	codec := CookieCodec{}

	_, err := codec.Decode(&http.Cookie{
		Name:  CookieName,
		Value: url.QueryEscape("{not valid json"),
	})
	assert.Error(t, err)
}

func TestCookieCodecExpiredCookie(t *testing.T) {
	cookie := CookieCodec{}.ExpiredCookie()
	assert.Equal(t, CookieName, cookie.Name)
	assert.Negative(t, cookie.MaxAge)
}
