package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/moldova-direct/storefront/internal/models"
)

// CookieName is the cart persistence cookie.
const CookieName = "moldova_direct_cart"

// cookieMaxAgeDays is the cart cookie lifetime. Expiry is measured in days.
const cookieMaxAgeDays = 30

// ErrSchemaVersionMismatch signals a snapshot persisted by an incompatible
// cart version. Callers treat it as "no snapshot" rather than an error.
var ErrSchemaVersionMismatch = errors.New("cart snapshot schema version mismatch")

// CookieCodec translates cart snapshots to and from the URL-encoded JSON
// cookie shared across page views.
type CookieCodec struct{}

// Encode serializes a snapshot into the cart cookie.
func (CookieCodec) Encode(snapshot models.CartSnapshot) (*http.Cookie, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(string(payload)),
		Path:     "/",
		MaxAge:   cookieMaxAgeDays * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode parses the cart cookie back into a snapshot. A version mismatch
// yields ErrSchemaVersionMismatch; malformed payloads yield a parse error.
// Both are treated fail-open by the store.
func (CookieCodec) Decode(cookie *http.Cookie) (*models.CartSnapshot, error) {
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape cart cookie: %w", err)
	}

	var snapshot models.CartSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse cart cookie: %w", err)
	}

	if snapshot.SchemaVersion != models.CartSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrSchemaVersionMismatch, snapshot.SchemaVersion, models.CartSchemaVersion)
	}

	return &snapshot, nil
}

// ExpiredCookie returns a cookie that deletes the cart on the client.
func (CookieCodec) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	}
}
