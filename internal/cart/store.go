package cart

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
)

// saveDebounce is the trailing-edge debounce window for persisting cart
// mutations. Every mutation resets the timer; only the final state of a burst
// is written.
const saveDebounce = 1000 * time.Millisecond

// Store is the single source of truth for cart contents within one page life.
// Persistence is cookie-backed behind PersistenceAdapter, so the in-memory
// state stays authoritative even when a write fails.
type Store struct {
	mu          sync.Mutex
	items       []models.CartItem
	sessionID   string
	lockedBy    string
	pendingSave bool
	saveTimer   *clock.Timer
	disposed    bool

	adapter PersistenceAdapter
	clock   clock.Clock
	logger  *zap.Logger
}

// NewStore creates a cart store with injected persistence, clock and logger.
func NewStore(adapter PersistenceAdapter, clk clock.Clock, logger *zap.Logger) *Store {
	return &Store{
		sessionID: uuid.New().String(),
		adapter:   adapter,
		clock:     clk,
		logger:    logger,
	}
}

// Load reads the persisted snapshot into the store. Missing, malformed or
// version-mismatched snapshots result in an empty cart, never an error.
func (s *Store) Load() {
	snapshot, err := s.adapter.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("discarding incompatible cart snapshot", zap.Error(err))
		s.items = nil
		return
	}
	if snapshot == nil {
		s.items = nil
		return
	}

	s.items = append([]models.CartItem(nil), snapshot.Items...)
	if snapshot.SessionID != "" {
		s.sessionID = snapshot.SessionID
	}
}

// AddItem appends a line or increments an existing one, then schedules a
// debounced save. A non-positive quantity is a documented no-op.
func (s *Store) AddItem(productRef string, unitPrice int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.logger.Debug("ignoring add with non-positive quantity",
			zap.String("productRef", productRef), zap.Int("quantity", quantity))
		return nil
	}
	if s.lockedBy != "" {
		return models.ErrCartLocked
	}

	for i := range s.items {
		if s.items[i].ProductRef == productRef {
			s.items[i].Quantity += quantity
			s.scheduleSaveLocked()
			return nil
		}
	}

	s.items = append(s.items, models.CartItem{
		ProductRef: productRef,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
	})
	s.scheduleSaveLocked()
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero removes the line; a
// negative quantity is rejected. Updating an absent line is a no-op.
func (s *Store) UpdateQuantity(productRef string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 0 {
		return models.ErrInvalidQuantity
	}
	if s.lockedBy != "" {
		return models.ErrCartLocked
	}

	for i := range s.items {
		if s.items[i].ProductRef == productRef {
			if quantity == 0 {
				s.items = append(s.items[:i], s.items[i+1:]...)
			} else {
				s.items[i].Quantity = quantity
			}
			s.scheduleSaveLocked()
			return nil
		}
	}
	return nil
}

// RemoveItem removes a line. Absent lines are a no-op.
func (s *Store) RemoveItem(productRef string) error {
	return s.UpdateQuantity(productRef, 0)
}

// Subtotal recomputes the sum of unit price times quantity on every read.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Subtotal()
}

// ItemCount returns the total number of units in the cart.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().ItemCount()
}

// Snapshot returns a copy of the current cart state.
func (s *Store) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IsEmpty reports whether the cart holds no items.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Lock reserves the cart for a checkout session. Mutations fail with
// ErrCartLocked until Unlock or Clear.
func (s *Store) Lock(checkoutSessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedBy = checkoutSessionID
}

// Unlock releases a checkout lock.
func (s *Store) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockedBy = ""
}

// ForceImmediateSave bypasses the debounce and writes synchronously. Required
// before any navigation that needs the new state readable on the next page.
func (s *Store) ForceImmediateSave() {
	s.mu.Lock()
	s.cancelPendingSaveLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.write(snapshot)
}

// Clear empties the cart and persists the empty state immediately. Called on
// checkout completion and explicit cart clearing.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.lockedBy = ""
	s.cancelPendingSaveLocked()
	s.mu.Unlock()

	if err := s.adapter.Clear(); err != nil {
		s.logger.Warn("failed to clear persisted cart", zap.Error(err))
	}
}

// Dispose cancels any pending debounced save. Save-on-dispose is best-effort
// by design; callers that need durability call ForceImmediateSave first.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.cancelPendingSaveLocked()
}

func (s *Store) snapshotLocked() models.CartSnapshot {
	return models.CartSnapshot{
		Items:         append([]models.CartItem(nil), s.items...),
		SessionID:     s.sessionID,
		LastSyncAt:    s.clock.Now(),
		SchemaVersion: models.CartSchemaVersion,
	}
}

// scheduleSaveLocked resets the trailing-edge debounce timer. Must be called
// with the mutex held.
func (s *Store) scheduleSaveLocked() {
	if s.disposed {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.pendingSave = true
	s.saveTimer = s.clock.AfterFunc(saveDebounce, s.flush)
}

// cancelPendingSaveLocked invalidates any scheduled flush so a stale timer
// that already fired cannot write. Must be called with the mutex held.
func (s *Store) cancelPendingSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.pendingSave = false
}

// flush runs on the debounce timer goroutine.
func (s *Store) flush() {
	s.mu.Lock()
	if !s.pendingSave {
		s.mu.Unlock()
		return
	}
	s.pendingSave = false
	s.saveTimer = nil
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.write(snapshot)
}

// write persists a snapshot. Failures are logged and swallowed: the in-memory
// cart stays authoritative for the current page life.
func (s *Store) write(snapshot models.CartSnapshot) {
	if err := s.adapter.Save(snapshot); err != nil {
		s.logger.Warn("failed to persist cart snapshot",
			zap.String("sessionId", snapshot.SessionID),
			zap.Int("items", len(snapshot.Items)),
			zap.Error(err))
	}
}
