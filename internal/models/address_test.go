package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressValidate(t *testing.T) {
	valid := Address{
		FirstName:  "Test",
		LastName:   "User",
		Street:     "123 Test Street",
		City:       "Madrid",
		PostalCode: "28001",
		Country:    "ES",
		Type:       AddressTypeShipping,
	}

	tests := []struct {
		name       string
		mutate     func(*Address)
		wantFields []string
	}{
		{
			name:   "valid address",
			mutate: func(a *Address) {},
		},
		{
			name:       "missing first name",
			mutate:     func(a *Address) { a.FirstName = "" },
			wantFields: []string{"firstName"},
		},
		{
			name:       "whitespace street",
			mutate:     func(a *Address) { a.Street = "   " },
			wantFields: []string{"street"},
		},
		{
			name:       "missing several fields",
			mutate:     func(a *Address) { a.City = ""; a.PostalCode = ""; a.Country = "" },
			wantFields: []string{"city", "postalCode", "country"},
		},
		{
			name:       "country not ISO code",
			mutate:     func(a *Address) { a.Country = "Spain" },
			wantFields: []string{"country"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := valid
			tt.mutate(&addr)

			errs := addr.Validate()
			if len(tt.wantFields) == 0 {
				assert.Nil(t, errs)
				return
			}

			assert.Len(t, errs, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.Contains(t, errs, field)
			}
		})
	}

	// Optional fields never fail validation.
	addr := valid
	addr.Company = ""
	addr.Province = ""
	addr.Phone = ""
	assert.Nil(t, addr.Validate())
}

func TestAddressDisplayLine(t *testing.T) {
	addr := Address{Street: "123 Test Street", City: "Madrid", PostalCode: "28001", Country: "ES"}
	assert.Equal(t, "123 Test Street, Madrid, 28001, ES", addr.DisplayLine())

	partial := Address{Street: "123 Test Street", Country: "ES"}
	assert.Equal(t, "123 Test Street, ES", partial.DisplayLine())
}
