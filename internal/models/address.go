package models

import "strings"

// AddressType distinguishes shipping, billing and dual-purpose addresses.
type AddressType string

// Address types
const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeBoth     AddressType = "both"
)

// FieldErrors maps a field name to a validation message. It is returned by
// validation methods so callers can report errors per field instead of
// collapsing them into a single string.
type FieldErrors map[string]string

// Error implements the error interface by joining field messages.
func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Address is a customer shipping or billing address. ID is empty until the
// address has been persisted.
type Address struct {
	ID         string      `json:"id,omitempty"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Company    string      `json:"company,omitempty"`
	Street     string      `json:"street"`
	City       string      `json:"city"`
	PostalCode string      `json:"postalCode"`
	Province   string      `json:"province,omitempty"`
	Country    string      `json:"country"`
	Phone      string      `json:"phone,omitempty"`
	Type       AddressType `json:"type"`
	IsDefault  bool        `json:"isDefault"`
}

// Validate checks the required fields. An address must pass this check before
// it can be committed to a checkout session. Returns nil when valid.
func (a Address) Validate() FieldErrors {
	errs := FieldErrors{}

	required := []struct {
		field string
		value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"street", a.Street},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs[r.field] = "is required"
		}
	}

	if a.Country != "" && len(a.Country) != 2 {
		errs["country"] = "must be a 2-letter ISO code"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DisplayLine formats the address as a single line for banners and summaries.
func (a Address) DisplayLine() string {
	parts := []string{a.Street, a.City, a.PostalCode, a.Country}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
