package services

import (
	"context"

	"github.com/moldova-direct/storefront/internal/models"
)

// expressZone lists the countries with a courier partner for next-day
// delivery. Standard shipping is available everywhere the store sells.
var expressZone = map[string]bool{
	"ES": true,
	"PT": true,
	"FR": true,
	"DE": true,
	"IT": true,
	"RO": true,
	"MD": true,
}

// ShippingService resolves the shipping methods available for a delivery
// address. The first method returned is the implicit default.
type ShippingService struct{}

// NewShippingService creates a shipping service backed by the static
// carrier catalog.
func NewShippingService() *ShippingService {
	return &ShippingService{}
}

// MethodsFor returns the methods that can deliver to the given address,
// cheapest first.
func (s *ShippingService) MethodsFor(_ context.Context, addr models.Address) ([]models.ShippingMethod, error) {
	methods := []models.ShippingMethod{
		{ID: "standard", Name: "Standard Shipping", Price: 500, EstimatedDays: 3},
	}
	if expressZone[addr.Country] {
		methods = append(methods, models.ShippingMethod{
			ID: "express", Name: "Express Shipping", Price: 999, EstimatedDays: 1,
		})
	}
	return methods, nil
}
