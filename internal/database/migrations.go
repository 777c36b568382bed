package database

import (
	"fmt"
	"log"
)

// RunMigrations creates the necessary database tables
func RunMigrations() error {
	if DB == nil {
		return fmt.Errorf("database connection not initialized")
	}

	// Create addresses table
	createAddressesTable := `
	CREATE TABLE IF NOT EXISTS addresses (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		company VARCHAR(255),
		street VARCHAR(255) NOT NULL,
		city VARCHAR(255) NOT NULL,
		postal_code VARCHAR(32) NOT NULL,
		province VARCHAR(255),
		country CHAR(2) NOT NULL,
		phone VARCHAR(64),
		type VARCHAR(16) NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_default
		ON addresses(user_id, type) WHERE is_default;
	`

	if _, err := DB.Exec(createAddressesTable); err != nil {
		return fmt.Errorf("failed to create addresses table: %w", err)
	}

	// Create orders table. The unique session index backs the
	// one-order-per-checkout-session guarantee at the storage level;
	// failed and cancelled orders drop out of it so the shopper can retry.
	createOrdersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		reference VARCHAR(255) UNIQUE NOT NULL,
		session_id VARCHAR(255) NOT NULL,
		user_id VARCHAR(255),
		items JSONB NOT NULL,
		shipping_address JSONB NOT NULL,
		shipping_method_id VARCHAR(64) NOT NULL,
		shipping_method_name VARCHAR(255) NOT NULL,
		shipping_cost INTEGER NOT NULL,
		payment_kind VARCHAR(32) NOT NULL,
		payment_ref VARCHAR(255),
		subtotal INTEGER NOT NULL,
		total INTEGER NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_session
		ON orders(session_id) WHERE status NOT IN ('failed', 'cancelled');
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
	`

	if _, err := DB.Exec(createOrdersTable); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}
