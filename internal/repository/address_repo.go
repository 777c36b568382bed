package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moldova-direct/storefront/internal/database"
	"github.com/moldova-direct/storefront/internal/models"
)

// AddressRepository handles database operations for saved addresses
type AddressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new address repository
func NewAddressRepository() *AddressRepository {
	return &AddressRepository{
		db: database.DB,
	}
}

// NewAddressRepositoryWithDB creates a new address repository with a specific database connection
func NewAddressRepositoryWithDB(db *sql.DB) *AddressRepository {
	return &AddressRepository{
		db: db,
	}
}

// DefaultAddress returns the user's default address of the given type, or nil
// when none is saved.
func (r *AddressRepository) DefaultAddress(ctx context.Context, userID string, addrType models.AddressType) (*models.Address, error) {
	query := `
		SELECT id, first_name, last_name, COALESCE(company, ''), street, city,
		       postal_code, COALESCE(province, ''), country, COALESCE(phone, ''),
		       type, is_default
		FROM addresses
		WHERE user_id = $1 AND type = $2 AND is_default
	`

	addr := &models.Address{}
	err := r.db.QueryRowContext(ctx, query, userID, addrType).Scan(
		&addr.ID,
		&addr.FirstName,
		&addr.LastName,
		&addr.Company,
		&addr.Street,
		&addr.City,
		&addr.PostalCode,
		&addr.Province,
		&addr.Country,
		&addr.Phone,
		&addr.Type,
		&addr.IsDefault,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default address: %w", err)
	}
	return addr, nil
}

// SaveAddress inserts a saved address for a user. Marking it default demotes
// the previous default of the same type in the same transaction.
func (r *AddressRepository) SaveAddress(ctx context.Context, userID string, addr *models.Address) error {
	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if addr.IsDefault {
		unset := `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND type = $2 AND is_default`
		if _, err := tx.ExecContext(ctx, unset, userID, addr.Type); err != nil {
			return fmt.Errorf("failed to demote previous default: %w", err)
		}
	}

	insert := `
		INSERT INTO addresses (
			id, user_id, first_name, last_name, company, street, city,
			postal_code, province, country, phone, type, is_default,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	`
	now := time.Now()
	if _, err := tx.ExecContext(ctx, insert,
		addr.ID,
		userID,
		addr.FirstName,
		addr.LastName,
		nullIfEmpty(addr.Company),
		addr.Street,
		addr.City,
		addr.PostalCode,
		nullIfEmpty(addr.Province),
		addr.Country,
		nullIfEmpty(addr.Phone),
		addr.Type,
		addr.IsDefault,
		now,
	); err != nil {
		return fmt.Errorf("failed to save address: %w", err)
	}

	return tx.Commit()
}
