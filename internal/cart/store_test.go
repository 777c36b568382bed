package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moldova-direct/storefront/internal/models"
)

// mockAdapter is a func-field persistence mock for failure injection.
type mockAdapter struct {
	SaveFunc  func(models.CartSnapshot) error
	LoadFunc  func() (*models.CartSnapshot, error)
	ClearFunc func() error
}

func (m *mockAdapter) Save(s models.CartSnapshot) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(s)
	}
	return nil
}

func (m *mockAdapter) Load() (*models.CartSnapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return nil, nil
}

func (m *mockAdapter) Clear() error {
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return nil
}

func newTestStore() (*Store, *MemoryAdapter, *clock.Mock) {
	adapter := NewMemoryAdapter()
	clk := clock.NewMock()
	store := NewStore(adapter, clk, zap.NewNop())
	return store, adapter, clk
}

func TestStoreSubtotal(t *testing.T) {
	tests := []struct {
		name string
		ops  func(s *Store)
		want int64
	}{
		{
			name: "empty cart",
			ops:  func(s *Store) {},
			want: 0,
		},
		{
			name: "single line",
			ops: func(s *Store) {
				require.NoError(t, s.AddItem("p1", 1250, 2))
			},
			want: 2500,
		},
		{
			name: "add merges existing line",
			ops: func(s *Store) {
				require.NoError(t, s.AddItem("p1", 1250, 1))
				require.NoError(t, s.AddItem("p1", 1250, 2))
			},
			want: 3750,
		},
		{
			name: "update then remove",
			ops: func(s *Store) {
				require.NoError(t, s.AddItem("p1", 1000, 1))
				require.NoError(t, s.AddItem("p2", 500, 4))
				require.NoError(t, s.UpdateQuantity("p1", 3))
				require.NoError(t, s.RemoveItem("p2"))
			},
			want: 3000,
		},
		{
			name: "quantity zero removes line",
			ops: func(s *Store) {
				require.NoError(t, s.AddItem("p1", 1000, 2))
				require.NoError(t, s.AddItem("p2", 700, 1))
				require.NoError(t, s.UpdateQuantity("p1", 0))
			},
			want: 700,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _ := newTestStore()
			tt.ops(store)
			assert.Equal(t, tt.want, store.Subtotal())
		})
	}
}

func TestStoreAddItemPermissiveQuantity(t *testing.T) {
	store, _, _ := newTestStore()

	// Non-positive quantities are a documented no-op, not an error.
	require.NoError(t, store.AddItem("p1", 1000, 0))
	require.NoError(t, store.AddItem("p1", 1000, -3))
	assert.True(t, store.IsEmpty())
}

func TestStoreUpdateQuantity(t *testing.T) {
	store, _, _ := newTestStore()
	require.NoError(t, store.AddItem("p1", 1000, 2))

	assert.ErrorIs(t, store.UpdateQuantity("p1", -1), models.ErrInvalidQuantity)
	assert.Equal(t, 2, store.ItemCount(), "failed update must not change state")

	// Updating an absent line is a no-op.
	require.NoError(t, store.UpdateQuantity("missing", 5))
	assert.Equal(t, 2, store.ItemCount())
}

func TestStoreDebouncedSave(t *testing.T) {
	t.Run("burst collapses to one write", func(t *testing.T) {
		store, adapter, clk := newTestStore()

		require.NoError(t, store.AddItem("p1", 1000, 1))
		clk.Add(300 * time.Millisecond)
		require.NoError(t, store.AddItem("p2", 500, 2))
		clk.Add(300 * time.Millisecond)
		require.NoError(t, store.UpdateQuantity("p1", 4))

		// Inside the window: nothing written yet.
		assert.Equal(t, 0, adapter.SaveCount())

		clk.Add(saveDebounce)
		assert.Equal(t, 1, adapter.SaveCount())

		snapshot, err := adapter.Load()
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, int64(5000), snapshot.Subtotal(), "write reflects final state of the burst")
	})

	t.Run("each mutation resets the timer", func(t *testing.T) {
		store, adapter, clk := newTestStore()

		require.NoError(t, store.AddItem("p1", 1000, 1))
		clk.Add(900 * time.Millisecond)
		require.NoError(t, store.AddItem("p2", 500, 1))
		clk.Add(900 * time.Millisecond)
		assert.Equal(t, 0, adapter.SaveCount(), "timer restarted by second mutation")

		clk.Add(100 * time.Millisecond)
		assert.Equal(t, 1, adapter.SaveCount())
	})

	t.Run("separate bursts produce separate writes", func(t *testing.T) {
		store, adapter, clk := newTestStore()

		require.NoError(t, store.AddItem("p1", 1000, 1))
		clk.Add(saveDebounce)
		require.NoError(t, store.AddItem("p2", 500, 1))
		clk.Add(saveDebounce)

		assert.Equal(t, 2, adapter.SaveCount())
	})
}

func TestStoreForceImmediateSave(t *testing.T) {
	store, adapter, clk := newTestStore()

	require.NoError(t, store.AddItem("p1", 1000, 2))
	store.ForceImmediateSave()
	assert.Equal(t, 1, adapter.SaveCount())

	// The cancelled debounce timer must not produce a second write.
	clk.Add(2 * saveDebounce)
	assert.Equal(t, 1, adapter.SaveCount())
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	adapter := NewMemoryAdapter()
	clk := clock.NewMock()

	store := NewStore(adapter, clk, zap.NewNop())
	require.NoError(t, store.AddItem("wine-feteasca", 1250, 2))
	require.NoError(t, store.AddItem("wine-rara", 1800, 1))
	store.ForceImmediateSave()

	// Fresh page view: new store, same persistence.
	reloaded := NewStore(adapter, clk, zap.NewNop())
	reloaded.Load()

	assert.Equal(t, store.Subtotal(), reloaded.Subtotal())
	assert.Equal(t, store.ItemCount(), reloaded.ItemCount())
	assert.Equal(t, store.Snapshot().Items, reloaded.Snapshot().Items)
	assert.Equal(t, store.Snapshot().SessionID, reloaded.Snapshot().SessionID)
}

func TestStoreLoadFailOpen(t *testing.T) {
	t.Run("adapter error yields empty cart", func(t *testing.T) {
		adapter := &mockAdapter{
			LoadFunc: func() (*models.CartSnapshot, error) {
				return nil, errors.New("corrupt cookie")
			},
		}
		store := NewStore(adapter, clock.NewMock(), zap.NewNop())
		store.Load()
		assert.True(t, store.IsEmpty())
	})

	t.Run("missing snapshot yields empty cart", func(t *testing.T) {
		store := NewStore(NewMemoryAdapter(), clock.NewMock(), zap.NewNop())
		store.Load()
		assert.True(t, store.IsEmpty())
	})
}

func TestStoreWriteFailureIsSwallowed(t *testing.T) {
	adapter := &mockAdapter{
		SaveFunc: func(models.CartSnapshot) error {
			return errors.New("cookie size limit exceeded")
		},
	}
	store := NewStore(adapter, clock.NewMock(), zap.NewNop())

	require.NoError(t, store.AddItem("p1", 1000, 1))
	store.ForceImmediateSave()

	// In-memory cart stays authoritative for the current page life.
	assert.Equal(t, int64(1000), store.Subtotal())
}

func TestStoreLock(t *testing.T) {
	store, _, _ := newTestStore()
	require.NoError(t, store.AddItem("p1", 1000, 1))

	store.Lock("session-1")
	assert.ErrorIs(t, store.AddItem("p2", 500, 1), models.ErrCartLocked)
	assert.ErrorIs(t, store.UpdateQuantity("p1", 3), models.ErrCartLocked)

	store.Unlock()
	require.NoError(t, store.AddItem("p2", 500, 1))
}

func TestStoreClear(t *testing.T) {
	store, adapter, clk := newTestStore()
	require.NoError(t, store.AddItem("p1", 1000, 1))
	store.ForceImmediateSave()

	store.Clear()
	assert.True(t, store.IsEmpty())

	snapshot, err := adapter.Load()
	require.NoError(t, err)
	assert.Nil(t, snapshot, "persisted snapshot cleared")

	// No stale debounce write resurrects the cart.
	clk.Add(2 * saveDebounce)
	assert.True(t, store.IsEmpty())
}

func TestStoreDisposeCancelsPendingSave(t *testing.T) {
	store, adapter, clk := newTestStore()

	require.NoError(t, store.AddItem("p1", 1000, 1))
	store.Dispose()

	clk.Add(2 * saveDebounce)
	assert.Equal(t, 0, adapter.SaveCount(), "save-on-dispose is best-effort, pending flush cancelled")
}
