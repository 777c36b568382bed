//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"

	"github.com/moldova-direct/storefront/internal/models"
	"github.com/moldova-direct/storefront/internal/repository/testutil"
)

func testAddress(isDefault bool) *models.Address {
	return &models.Address{
		FirstName:  "Test",
		LastName:   "User",
		Street:     "123 Test Street",
		City:       "Madrid",
		PostalCode: "28001",
		Country:    "ES",
		Type:       models.AddressTypeShipping,
		IsDefault:  isDefault,
	}
}

func TestAddressRepository_DefaultAddress_Empty_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewAddressRepositoryWithDB(testDB.DB)

	addr, err := repo.DefaultAddress(context.Background(), "user-1", models.AddressTypeShipping)
	if err != nil {
		t.Fatalf("DefaultAddress() error = %v", err)
	}
	if addr != nil {
		t.Errorf("Expected nil for a user without saved addresses, got %+v", addr)
	}
}

func TestAddressRepository_SaveAndGet_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewAddressRepositoryWithDB(testDB.DB)
	ctx := context.Background()

	saved := testAddress(true)
	if err := repo.SaveAddress(ctx, "user-1", saved); err != nil {
		t.Fatalf("SaveAddress() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("SaveAddress should assign an id")
	}

	addr, err := repo.DefaultAddress(ctx, "user-1", models.AddressTypeShipping)
	if err != nil {
		t.Fatalf("DefaultAddress() error = %v", err)
	}
	if addr == nil {
		t.Fatal("Expected the saved default address, got nil")
	}
	if addr.ID != saved.ID {
		t.Errorf("ID mismatch: got %v, want %v", addr.ID, saved.ID)
	}
	if addr.City != "Madrid" || addr.Country != "ES" {
		t.Errorf("Address fields mismatch: got %+v", addr)
	}

	// Another user's addresses stay invisible.
	other, err := repo.DefaultAddress(ctx, "user-2", models.AddressTypeShipping)
	if err != nil {
		t.Fatalf("DefaultAddress() error = %v", err)
	}
	if other != nil {
		t.Errorf("Expected nil for another user, got %+v", other)
	}
}

func TestAddressRepository_NewDefaultDemotesOld_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewAddressRepositoryWithDB(testDB.DB)
	ctx := context.Background()

	first := testAddress(true)
	if err := repo.SaveAddress(ctx, "user-1", first); err != nil {
		t.Fatalf("Failed to save first address: %v", err)
	}

	second := testAddress(true)
	second.Street = "456 Other Street"
	if err := repo.SaveAddress(ctx, "user-1", second); err != nil {
		t.Fatalf("Failed to save second address: %v", err)
	}

	addr, err := repo.DefaultAddress(ctx, "user-1", models.AddressTypeShipping)
	if err != nil {
		t.Fatalf("DefaultAddress() error = %v", err)
	}
	if addr == nil {
		t.Fatal("Expected a default address, got nil")
	}
	if addr.ID != second.ID {
		t.Errorf("Expected the new address to be default, got %v", addr.ID)
	}
	if addr.Street != "456 Other Street" {
		t.Errorf("Street mismatch: got %v", addr.Street)
	}
}
