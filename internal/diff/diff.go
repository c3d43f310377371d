package diff

import (
	"invtracker/internal/catalog"
	"invtracker/internal/inventory"
)

// Batch records every observation of a product at a location into snap, in
// the order they were fetched, and returns the resulting change records.
//
// Only the observed stores are visited, a tracked store that is missing from
// observations keeps its last quantity and produces nothing.
func Batch(
	snap *inventory.Snapshot,
	location string,
	product catalog.Product,
	observations []inventory.Observation,
) []inventory.ChangeRecord {
	var changes []inventory.ChangeRecord
	for _, o := range observations {
		record, changed := snap.Record(location, product.SKU, o.Store, o.Quantity)
		if !changed {
			continue
		}
		record.DisplayName = product.Name
		changes = append(changes, record)
	}
	return changes
}

// Snapshots compares every quantity of next against prev. Unlike Batch, a
// store missing from prev is a change from NotTracked, and prev is left
// untouched. Names are resolved through cat.
func Snapshots(prev, next *inventory.Snapshot, cat catalog.Catalog) []inventory.ChangeRecord {
	var changes []inventory.ChangeRecord
	for _, e := range next.Entries() {
		old := prev.Lookup(e.Location, e.SKU, e.Store)
		if qty, tracked := old.Get(); tracked && qty == e.Quantity {
			continue
		}
		changes = append(changes, inventory.ChangeRecord{
			Location:    e.Location,
			SKU:         e.SKU,
			DisplayName: cat.Name(e.SKU),
			Store:       e.Store,
			Old:         old,
			New:         e.Quantity,
		})
	}
	return changes
}
