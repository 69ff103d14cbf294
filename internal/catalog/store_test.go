package catalog

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/inboxpilot/internal/model"
)

func newTestStore() *Store {
	return NewStore([]model.Product{
		{ID: "p1", Name: "Widget", Price: 10.0, Quantity: 5},
		{ID: "p2", Name: "Gadget", Price: 25.0, Quantity: 2},
	})
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	store := newTestStore()

	snap := store.Snapshot()
	snap[0].Quantity = 999

	p, ok := store.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 5, p.Quantity)
}

func TestStoreAddReplacesExisting(t *testing.T) {
	store := newTestStore()

	store.Add(model.Product{ID: "p1", Name: "Widget v2", Price: 12.0, Quantity: 8})

	p, ok := store.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Widget v2", p.Name)
	assert.Len(t, store.Snapshot(), 2)
}

func TestStoreSetQuantity(t *testing.T) {
	store := newTestStore()

	require.NoError(t, store.SetQuantity("p2", 7))
	p, _ := store.Get("p2")
	assert.Equal(t, 7, p.Quantity)

	require.NoError(t, store.SetQuantity("p2", -3))
	p, _ = store.Get("p2")
	assert.Equal(t, 0, p.Quantity)

	assert.Error(t, store.SetQuantity("ghost", 1))
}

func TestStoreDecrement(t *testing.T) {
	store := newTestStore()

	tests := []struct {
		name        string
		id          string
		qty         int
		wantApplied int
		wantStock   int
	}{
		{name: "normal decrement", id: "p1", qty: 2, wantApplied: 2, wantStock: 3},
		{name: "clamped to stock", id: "p1", qty: 10, wantApplied: 3, wantStock: 0},
		{name: "already empty", id: "p1", qty: 1, wantApplied: 0, wantStock: 0},
		{name: "unknown product", id: "ghost", qty: 1, wantApplied: 0, wantStock: 0},
		{name: "non-positive quantity", id: "p2", qty: 0, wantApplied: 0, wantStock: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied := store.Decrement(tt.id, tt.qty)
			assert.Equal(t, tt.wantApplied, applied)
			if p, ok := store.Get(tt.id); ok {
				assert.Equal(t, tt.wantStock, p.Quantity)
			}
		})
	}
}

func TestLedgerAppliesOnce(t *testing.T) {
	store := newTestStore()
	ledger := NewLedger(store, newTestLogger())

	sold := []model.SoldItem{{ProductID: "p1", Quantity: 2}}

	applied := ledger.Apply("decision-1", sold)
	require.Len(t, applied, 1)
	assert.Equal(t, 2, applied[0].Quantity)

	p, _ := store.Get("p1")
	assert.Equal(t, 3, p.Quantity)

	// Same decision id again: stock must not move.
	assert.Nil(t, ledger.Apply("decision-1", sold))
	p, _ = store.Get("p1")
	assert.Equal(t, 3, p.Quantity)

	assert.True(t, ledger.Applied("decision-1"))
	assert.False(t, ledger.Applied("decision-2"))
}

func TestLedgerClampsToStock(t *testing.T) {
	store := newTestStore()
	ledger := NewLedger(store, newTestLogger())

	applied := ledger.Apply("decision-1", []model.SoldItem{{ProductID: "p2", Quantity: 9}})
	require.Len(t, applied, 1)
	assert.Equal(t, 2, applied[0].Quantity)

	p, _ := store.Get("p2")
	assert.Equal(t, 0, p.Quantity)
}

func TestLedgerSkipsUnknownProducts(t *testing.T) {
	store := newTestStore()
	ledger := NewLedger(store, newTestLogger())

	applied := ledger.Apply("decision-1", []model.SoldItem{
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "p1", Quantity: 1},
	})

	require.Len(t, applied, 1)
	assert.Equal(t, "p1", applied[0].ProductID)
}
