package snapshot

import (
	"context"

	"invtracker/internal/inventory"
)

const (
	report_load    = "store.load"
	report_persist = "store.persist"
	report_db      = "db.query"
)

// Store is where the snapshot lives between runs.
//
// note: fault injection point
type Store interface {
	// Load returns the last persisted snapshot, an absent snapshot is empty.
	Load(ctx context.Context) (*inventory.Snapshot, error)
	// Persist replaces the stored snapshot with snap.
	Persist(ctx context.Context, snap *inventory.Snapshot) error
}

// MemoryStore keeps the snapshot in memory, it counts how often Persist was
// called.
type MemoryStore struct {
	Snapshot *inventory.Snapshot
	Persists int
}

func (m *MemoryStore) Load(ctx context.Context) (*inventory.Snapshot, error) {
	if m.Snapshot == nil {
		return inventory.NewSnapshot(), nil
	}
	return clone(m.Snapshot), nil
}

func (m *MemoryStore) Persist(ctx context.Context, snap *inventory.Snapshot) error {
	m.Snapshot = clone(snap)
	m.Persists++
	return nil
}

func clone(snap *inventory.Snapshot) *inventory.Snapshot {
	out := inventory.NewSnapshot()
	for loc, bySku := range snap.Map() {
		out.AddLocation(loc)
		for sku, byStore := range bySku {
			out.AddSKU(loc, sku)
			for store, qty := range byStore {
				out.Set(loc, sku, store, qty)
			}
		}
	}
	return out
}

// ReadOnlyStore loads from the wrapped store and discards every Persist.
type ReadOnlyStore struct {
	Store
}

func (ReadOnlyStore) Persist(ctx context.Context, snap *inventory.Snapshot) error {
	return nil
}
