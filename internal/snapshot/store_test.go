package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"invtracker/internal/chrono"
	"invtracker/internal/db"
	"invtracker/internal/inventory"
	"invtracker/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sample() *inventory.Snapshot {
	snap := inventory.NewSnapshot()
	snap.Set("75204", "008800401858", "Spec's Uptown", 3)
	snap.Set("75204", "008800401858", "Spec's Frisco", 0)
	snap.AddSKU("75204", "008024400939")
	snap.Set("77002", "008800402773", "Unknown", 12)
	snap.AddLocation("78701")
	return snap
}

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty.Entries())

	original := sample()
	require.NoError(t, store.Persist(ctx, original))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(original.Map(), loaded.Map()); diff != "" {
		t.Fatal(diff)
	}

	// a store that disappears from the snapshot disappears from storage
	next := inventory.NewSnapshot()
	next.Set("75204", "008800401858", "Spec's Uptown", 4)
	require.NoError(t, store.Persist(ctx, next))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(next.Map(), loaded.Map()); diff != "" {
		t.Fatal(diff)
	}
}

func TestMemoryStore(t *testing.T) {
	store := &MemoryStore{}
	testStoreRoundTrip(t, store)
	require.Equal(t, 2, store.Persists)

	// mutating a loaded snapshot does not leak into the store
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	loaded.Set("75204", "008800401858", "Spec's Uptown", 99)
	require.Equal(t, 4, store.Snapshot.Map()["75204"]["008800401858"]["Spec's Uptown"])
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "inventory.json")
	testStoreRoundTrip(t, NewFileStore(path, "", &telemetry.Recorder{}))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStoreLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	err := os.WriteFile(path, []byte(`{"008800401858": {"Spec's Uptown": 3}}`), 0644)
	require.NoError(t, err)

	ctx := context.Background()
	store := NewFileStore(path, "75204", &telemetry.Recorder{})

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, inventory.Tracked(3), snap.Lookup("75204", "008800401858", "Spec's Uptown"))

	// persisting upgrades the document to the nested shape
	require.NoError(t, store.Persist(ctx, snap))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"75204": {"008800401858": {"Spec's Uptown": 3}}}`, string(data))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	err := os.WriteFile(path, []byte(`{"75204": [1, 2]}`), 0644)
	require.NoError(t, err)

	rec := &telemetry.Recorder{}
	_, err = NewFileStore(path, "75204", rec).Load(context.Background())
	require.Error(t, err)
	require.Len(t, rec.Reports("broken"), 1)
	require.Equal(t, "snapshot: store.load", rec.Reports("broken")[0].ID)
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	testStoreRoundTrip(t, NewSQLStore(database, chrono.FixedTime(now), &telemetry.Recorder{}))

	rows, err := db.New(database).ListStoreQuantities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, now.Unix(), rows[0].UpdatedAt)
}

func TestFileStorePersistReplacesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"99999": {}}`), 0644))

	store := NewFileStore(path, "", &telemetry.Recorder{})
	require.NoError(t, store.Persist(context.Background(), sample()))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"75204", "77002", "78701"}, loaded.Locations())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
