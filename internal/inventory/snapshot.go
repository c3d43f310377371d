package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Observation is one (store, quantity) data point fetched for a SKU at a location.
type Observation struct {
	Store    string
	Quantity int
}

// ChangeRecord is produced when a previously tracked store reports a different quantity.
type ChangeRecord struct {
	Location    string   `json:"location"`
	SKU         string   `json:"sku"`
	DisplayName string   `json:"product"`
	Store       string   `json:"store"`
	Old         Quantity `json:"oldQty"`
	New         int      `json:"newQty"`
}

type skus = map[string]stores
type stores = map[string]int

// Snapshot is the last known quantity of every (location, sku, store). A
// store missing under a sku was never observed, which is different from a
// store tracked at zero.
//
// Snapshot is not safe for concurrent use, it is owned by a single run.
type Snapshot struct {
	locations map[string]skus
}

func NewSnapshot() *Snapshot {
	return &Snapshot{locations: map[string]skus{}}
}

// Lookup returns the tracked quantity of a store or NotTracked.
func (s *Snapshot) Lookup(location, sku, store string) Quantity {
	qty, ok := s.locations[location][sku][store]
	if !ok {
		return NotTracked()
	}
	return Tracked(qty)
}

// Set unconditionally tracks qty for the store.
func (s *Snapshot) Set(location, sku, store string, qty int) {
	bySku, ok := s.locations[location]
	if !ok {
		bySku = skus{}
		s.locations[location] = bySku
	}
	byStore, ok := bySku[sku]
	if !ok {
		byStore = stores{}
		bySku[sku] = byStore
	}
	byStore[store] = qty
}

// Record applies a single observation. The quantity is always written. A
// ChangeRecord is returned only when the store was already tracked with a
// different quantity, a first sighting only establishes the baseline.
// DisplayName is left empty for the caller to fill in.
func (s *Snapshot) Record(location, sku, store string, qty int) (ChangeRecord, bool) {
	old := s.Lookup(location, sku, store)
	s.Set(location, sku, store, qty)

	prev, tracked := old.Get()
	if !tracked || prev == qty {
		return ChangeRecord{}, false
	}
	return ChangeRecord{
		Location: location,
		SKU:      sku,
		Store:    store,
		Old:      old,
		New:      qty,
	}, true
}

// Locations returns the tracked locations in sorted order.
func (s *Snapshot) Locations() []string {
	out := make([]string, 0, len(s.locations))
	for loc := range s.locations {
		out = append(out, loc)
	}
	slices.Sort(out)
	return out
}

// SKUs returns the tracked skus of a location in sorted order.
func (s *Snapshot) SKUs(location string) []string {
	bySku := s.locations[location]
	out := make([]string, 0, len(bySku))
	for sku := range bySku {
		out = append(out, sku)
	}
	slices.Sort(out)
	return out
}

// Entry is a single tracked quantity.
type Entry struct {
	Location string
	SKU      string
	Store    string
	Quantity int
}

// Entries returns every tracked quantity sorted by location, sku and store.
func (s *Snapshot) Entries() []Entry {
	var out []Entry
	for _, loc := range s.Locations() {
		for _, sku := range s.SKUs(loc) {
			byStore := s.locations[loc][sku]
			names := make([]string, 0, len(byStore))
			for name := range byStore {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				out = append(out, Entry{
					Location: loc,
					SKU:      sku,
					Store:    name,
					Quantity: byStore[name],
				})
			}
		}
	}
	return out
}

// Map returns a deep copy of the snapshot as nested maps.
func (s *Snapshot) Map() map[string]map[string]map[string]int {
	out := make(map[string]map[string]map[string]int, len(s.locations))
	for loc, bySku := range s.locations {
		skuCopy := make(map[string]map[string]int, len(bySku))
		for sku, byStore := range bySku {
			storeCopy := make(map[string]int, len(byStore))
			for store, qty := range byStore {
				storeCopy[store] = qty
			}
			skuCopy[sku] = storeCopy
		}
		out[loc] = skuCopy
	}
	return out
}

// MarshalJSON always writes the nested {location: {sku: {store: qty}}} shape.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.locations)
}

var (
	ErrNegativeQuantity = errors.New("negative quantity")
	ErrLegacyShape      = errors.New("single location snapshot requires a default location")
	ErrMixedShape       = errors.New("snapshot mixes single and multi location entries")
)

// DecodeSnapshot parses a persisted snapshot. Both the nested shape and the
// legacy single location shape {sku: {store: qty}} are accepted, the latter is
// attributed to legacyLocation. Empty input is an empty snapshot. A document
// whose inner maps are all empty is read as the legacy shape when it does
// not contain legacyLocation as a key.
func DecodeSnapshot(data []byte, legacyLocation string) (*Snapshot, error) {
	snap := NewSnapshot()
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}

	var raw map[string]map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, err
	}

	nested, legacy := false, false
	for _, inner := range raw {
		for _, value := range inner {
			trimmed := bytes.TrimSpace(value)
			if len(trimmed) > 0 && trimmed[0] == '{' {
				nested = true
			} else {
				legacy = true
			}
		}
	}
	if nested && legacy {
		return nil, ErrMixedShape
	}
	if !nested && !legacy && legacyLocation != "" {
		// every inner map is empty, so the shape cannot be told apart by
		// value. A document that does not mention the legacy location is
		// the single location shape.
		_, mentioned := raw[legacyLocation]
		legacy = len(raw) > 0 && !mentioned
	}

	if legacy {
		if legacyLocation == "" {
			return nil, ErrLegacyShape
		}
		for sku, byStore := range raw {
			if len(byStore) == 0 {
				snap.AddSKU(legacyLocation, sku)
			}
			for store, value := range byStore {
				err := snap.setRaw(legacyLocation, sku, store, value)
				if err != nil {
					return nil, err
				}
			}
		}
		return snap, nil
	}

	for loc, bySku := range raw {
		snap.AddLocation(loc)
		for sku, value := range bySku {
			var byStore map[string]json.RawMessage
			err := json.Unmarshal(value, &byStore)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", loc, sku, err)
			}
			snap.AddSKU(loc, sku)
			for store, qty := range byStore {
				err := snap.setRaw(loc, sku, store, qty)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return snap, nil
}

// AddLocation tracks a location without any skus.
func (s *Snapshot) AddLocation(location string) {
	if _, ok := s.locations[location]; !ok {
		s.locations[location] = skus{}
	}
}

// AddSKU tracks a sku without any stores.
func (s *Snapshot) AddSKU(location, sku string) {
	s.AddLocation(location)
	if _, ok := s.locations[location][sku]; !ok {
		s.locations[location][sku] = stores{}
	}
}

func (s *Snapshot) setRaw(location, sku, store string, value json.RawMessage) error {
	var qty int
	err := json.Unmarshal(value, &qty)
	if err != nil {
		return fmt.Errorf("%s/%s/%s: %w", location, sku, store, err)
	}
	if qty < 0 {
		return fmt.Errorf("%s/%s/%s: %w", location, sku, store, ErrNegativeQuantity)
	}
	s.Set(location, sku, store, qty)
	return nil
}
