package models

// ShippingMethod is an immutable catalog entity supplied by the shipping
// lookup. Checkout holds a selection by ID, never a mutated copy.
type ShippingMethod struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	EstimatedDays int    `json:"estimatedDays"`
}
