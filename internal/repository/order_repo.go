package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moldova-direct/storefront/internal/database"
	"github.com/moldova-direct/storefront/internal/models"
)

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		db: database.DB,
	}
}

// NewOrderRepositoryWithDB creates a new order repository with a specific database connection
func NewOrderRepositoryWithDB(db *sql.DB) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

// CreateOrder inserts a new order. The unique session index rejects a second
// order for the same checkout session.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	shippingAddress, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, reference, session_id, user_id, items, shipping_address,
			shipping_method_id, shipping_method_name, shipping_cost,
			payment_kind, payment_ref, subtotal, total, currency, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.Reference,
		order.SessionID,
		nullIfEmpty(order.UserID),
		items,
		shippingAddress,
		order.ShippingMethod.ID,
		order.ShippingMethod.Name,
		order.ShippingCost,
		string(order.Payment.Kind),
		nullIfEmpty(order.PaymentRef),
		order.Subtotal,
		order.Total,
		order.Currency,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrderByReference retrieves an order by its reference
func (r *OrderRepository) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	query := `
		SELECT id, reference, session_id, COALESCE(user_id, ''), items,
		       shipping_address, shipping_method_id, shipping_method_name,
		       shipping_cost, payment_kind, COALESCE(payment_ref, ''),
		       subtotal, total, currency, status, created_at, updated_at
		FROM orders
		WHERE reference = $1
	`

	order := &models.Order{}
	var items, shippingAddress []byte
	var paymentKind string
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&order.ID,
		&order.Reference,
		&order.SessionID,
		&order.UserID,
		&items,
		&shippingAddress,
		&order.ShippingMethod.ID,
		&order.ShippingMethod.Name,
		&order.ShippingCost,
		&paymentKind,
		&order.PaymentRef,
		&order.Subtotal,
		&order.Total,
		&order.Currency,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shippingAddress, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}
	order.ShippingMethod.Price = order.ShippingCost
	order.Payment.Kind = models.PaymentKind(paymentKind)
	return order, nil
}

// UpdateOrderStatus updates the status and payment reference of an order
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, reference string, status models.OrderStatus, paymentRef string) error {
	query := `
		UPDATE orders
		SET status = $1, payment_ref = $2, updated_at = $3
		WHERE reference = $4
	`

	result, err := r.db.ExecContext(ctx, query, status, nullIfEmpty(paymentRef), time.Now(), reference)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// PreferredShippingMethodID returns the shipping method of the user's most
// recent confirmed order, or an empty id when there is no order history.
func (r *OrderRepository) PreferredShippingMethodID(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT shipping_method_id
		FROM orders
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var methodID string
	err := r.db.QueryRowContext(ctx, query, userID, models.OrderStatusConfirmed).Scan(&methodID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preferred shipping method: %w", err)
	}
	return methodID, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
