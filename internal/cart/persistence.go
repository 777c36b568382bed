package cart

import (
	"sync"

	"github.com/moldova-direct/storefront/internal/models"
)

// PersistenceAdapter is the narrow interface the store writes snapshots
// through. The production adapter is cookie-backed; tests use MemoryAdapter.
type PersistenceAdapter interface {
	Save(snapshot models.CartSnapshot) error
	Load() (*models.CartSnapshot, error)
	Clear() error
}

// MemoryAdapter keeps the snapshot in process memory. It backs unit tests and
// the in-process e2e server, where each browser "tab" gets its own adapter.
type MemoryAdapter struct {
	mu       sync.Mutex
	snapshot *models.CartSnapshot
	saves    int
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

// Save stores a copy of the snapshot.
func (a *MemoryAdapter) Save(snapshot models.CartSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	copied := snapshot
	copied.Items = append([]models.CartItem(nil), snapshot.Items...)
	a.snapshot = &copied
	a.saves++
	return nil
}

// Load returns the stored snapshot, or nil when nothing has been saved.
func (a *MemoryAdapter) Load() (*models.CartSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snapshot == nil {
		return nil, nil
	}
	copied := *a.snapshot
	copied.Items = append([]models.CartItem(nil), a.snapshot.Items...)
	return &copied, nil
}

// Clear discards the stored snapshot.
func (a *MemoryAdapter) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshot = nil
	return nil
}

// SaveCount returns how many writes the adapter has received. Used by tests
// asserting the debounce collapses bursts into a single write.
func (a *MemoryAdapter) SaveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}
