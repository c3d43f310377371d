package diff

import (
	"encoding/json"
	"testing"

	"invtracker/internal/catalog"
	"invtracker/internal/inventory"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var stagg = catalog.Product{Name: "Stagg Jr.", SKU: "A"}

func snapshotOf(t *testing.T, raw string) *inventory.Snapshot {
	t.Helper()
	snap, err := inventory.DecodeSnapshot([]byte(raw), "")
	require.NoError(t, err)
	return snap
}

func TestBatch(t *testing.T) {
	testCases := []struct {
		name         string
		prior        string
		observations []inventory.Observation
		expected     []inventory.ChangeRecord
		after        map[string]map[string]map[string]int
	}{
		{
			name:         "empty snapshot establishes baseline",
			prior:        `{}`,
			observations: []inventory.Observation{{Store: "X", Quantity: 5}},
			after:        map[string]map[string]map[string]int{"75204": {"A": {"X": 5}}},
		},
		{
			name:         "unchanged quantity",
			prior:        `{"75204": {"A": {"X": 5}}}`,
			observations: []inventory.Observation{{Store: "X", Quantity: 5}},
			after:        map[string]map[string]map[string]int{"75204": {"A": {"X": 5}}},
		},
		{
			name:         "changed quantity",
			prior:        `{"75204": {"A": {"X": 5}}}`,
			observations: []inventory.Observation{{Store: "X", Quantity: 8}},
			expected: []inventory.ChangeRecord{{
				Location:    "75204",
				SKU:         "A",
				DisplayName: "Stagg Jr.",
				Store:       "X",
				Old:         inventory.Tracked(5),
				New:         8,
			}},
			after: map[string]map[string]map[string]int{"75204": {"A": {"X": 8}}},
		},
		{
			name:         "disappeared store is invisible",
			prior:        `{"75204": {"A": {"X": 5}}}`,
			observations: nil,
			after:        map[string]map[string]map[string]int{"75204": {"A": {"X": 5}}},
		},
		{
			name:  "fetch order is preserved",
			prior: `{"75204": {"A": {"X": 1, "Y": 1, "Z": 1}}}`,
			observations: []inventory.Observation{
				{Store: "Z", Quantity: 0},
				{Store: "New", Quantity: 4},
				{Store: "X", Quantity: 2},
				{Store: "Y", Quantity: 1},
			},
			expected: []inventory.ChangeRecord{
				{Location: "75204", SKU: "A", DisplayName: "Stagg Jr.", Store: "Z", Old: inventory.Tracked(1), New: 0},
				{Location: "75204", SKU: "A", DisplayName: "Stagg Jr.", Store: "X", Old: inventory.Tracked(1), New: 2},
			},
			after: map[string]map[string]map[string]int{"75204": {"A": {"X": 2, "Y": 1, "Z": 0, "New": 4}}},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			snap := snapshotOf(t, test.prior)
			changes := Batch(snap, "75204", stagg, test.observations)

			if diff := cmp.Diff(test.expected, changes, cmp.AllowUnexported(inventory.Quantity{})); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(test.after, snap.Map()); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestBatchTwiceYieldsOneChange(t *testing.T) {
	snap := snapshotOf(t, `{"75204": {"A": {"X": 5}}}`)
	observations := []inventory.Observation{{Store: "X", Quantity: 6}}

	require.Len(t, Batch(snap, "75204", stagg, observations), 1)
	require.Empty(t, Batch(snap, "75204", stagg, observations))
}

func TestSnapshots(t *testing.T) {
	prev := snapshotOf(t, `{
		"75204": {"A": {"X": 5, "Y": 2}, "B": {"X": 1}},
		"77002": {"A": {"Q": 0}}
	}`)
	next := snapshotOf(t, `{
		"75204": {"A": {"X": 5, "Y": 3}, "B": {"X": 0, "W": 9}},
		"77002": {"A": {"Q": 4}},
		"78701": {"C": {"R": 1}}
	}`)
	cat := catalog.New([]catalog.Product{stagg, {Name: "Blantons Gold", SKU: "B"}})

	changes := Snapshots(prev, next, cat)
	expected := []inventory.ChangeRecord{
		{Location: "75204", SKU: "A", DisplayName: "Stagg Jr.", Store: "Y", Old: inventory.Tracked(2), New: 3},
		{Location: "75204", SKU: "B", DisplayName: "Blantons Gold", Store: "W", Old: inventory.NotTracked(), New: 9},
		{Location: "75204", SKU: "B", DisplayName: "Blantons Gold", Store: "X", Old: inventory.Tracked(1), New: 0},
		{Location: "77002", SKU: "A", DisplayName: "Stagg Jr.", Store: "Q", Old: inventory.Tracked(0), New: 4},
		{Location: "78701", SKU: "C", DisplayName: "C", Store: "R", Old: inventory.NotTracked(), New: 1},
	}
	if diff := cmp.Diff(expected, changes, cmp.AllowUnexported(inventory.Quantity{})); diff != "" {
		t.Fatal(diff)
	}

	// prev is only read
	require.False(t, prev.Lookup("78701", "C", "R").IsTracked())
	require.Equal(t, []string{"75204", "77002"}, prev.Locations())
}

func TestSnapshotsNewStore(t *testing.T) {
	prev := snapshotOf(t, `{"75204": {"A": {"X": 5}}}`)
	next := snapshotOf(t, `{"75204": {"A": {"X": 5, "Y": 3}}}`)

	changes := Snapshots(prev, next, catalog.New([]catalog.Product{stagg}))
	require.Len(t, changes, 1)
	require.Equal(t, "Y", changes[0].Store)
	require.False(t, changes[0].Old.IsTracked())

	encoded, err := json.Marshal(changes)
	require.NoError(t, err)
	require.JSONEq(t, `[{
		"location": "75204",
		"sku": "A",
		"product": "Stagg Jr.",
		"store": "Y",
		"oldQty": null,
		"newQty": 3
	}]`, string(encoded))
}
