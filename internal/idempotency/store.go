package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store reserves order-creation keys so a checkout session can create at
// most one order, even across server instances. Reservations are released
// when order creation fails so the shopper can retry.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a redis-backed idempotency store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key builds the reservation key for a checkout session.
func (s *Store) Key(checkoutSessionID string) string {
	return fmt.Sprintf("order:session:%s", checkoutSessionID)
}

// Reserve claims the key. Returns false when another order creation already
// holds it.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees a reservation after a failed order creation.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
