package models

import (
	"errors"
	"time"
)

// CartSchemaVersion is the snapshot format version. Snapshots persisted with a
// different version are discarded on load rather than migrated.
const CartSchemaVersion = 1

// Cart domain errors
var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrCartLocked      = errors.New("cart is locked by an active checkout session")
)

// CartItem is a single cart line: a product reference plus quantity.
// Prices are stored in euro cents.
type CartItem struct {
	ProductRef string `json:"productRef"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
}

// LineTotal returns unit price times quantity for this line.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// CartSnapshot is the unit of cart persistence. It is what gets serialized
// into the cart cookie and read back on the next page view.
type CartSnapshot struct {
	Items         []CartItem `json:"items"`
	SessionID     string     `json:"sessionId"`
	LastSyncAt    time.Time  `json:"lastSyncAt"`
	SchemaVersion int        `json:"schemaVersion"`
}

// Subtotal returns the sum of line totals over all items.
func (s CartSnapshot) Subtotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func (s CartSnapshot) ItemCount() int {
	count := 0
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty returns true when the snapshot holds no items.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
