package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"invtracker/internal/assert"
	"invtracker/internal/inventory"
	"invtracker/internal/telemetry"

	"github.com/google/renameio/v2"
)

// FileStore persists the snapshot as a json document.
type FileStore struct {
	path           string
	legacyLocation string
	tel            telemetry.API
}

// NewFileStore creates a FileStore at path. Documents in the single location
// shape are attributed to legacyLocation.
func NewFileStore(path, legacyLocation string, tel telemetry.API) FileStore {
	assert.NotEmptyStr("path", path)
	assert.NotNil("tel", tel)

	return FileStore{
		path:           path,
		legacyLocation: legacyLocation,
		tel:            telemetry.NewScopedAPI("snapshot", tel),
	}
}

func (s FileStore) Load(ctx context.Context) (*inventory.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.tel.ReportDebug("no snapshot, starting empty", s.path)
		return inventory.NewSnapshot(), nil
	}
	if err != nil {
		s.tel.ReportBroken(report_load, err, s.path)
		return nil, err
	}

	snap, err := inventory.DecodeSnapshot(data, s.legacyLocation)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", s.path, err)
		s.tel.ReportBroken(report_load, err)
		return nil, err
	}
	return snap, nil
}

// Persist replaces the document atomically, a crash leaves either the old or
// the new document.
func (s FileStore) Persist(ctx context.Context, snap *inventory.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.tel.ReportBroken(report_persist, err)
		return err
	}

	err = writeAtomic(s.path, data)
	if err != nil {
		s.tel.ReportBroken(report_persist, err, s.path)
		return err
	}
	s.tel.ReportDebug("persisted snapshot", s.path, len(data))
	return nil
}

func writeAtomic(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0644)
}
