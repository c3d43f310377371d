package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"invtracker/internal/assert"
	"invtracker/internal/chrono"
	"invtracker/internal/db"
	"invtracker/internal/inventory"
	"invtracker/internal/telemetry"
)

// SQLStore keeps the snapshot in a sqlite (or libsql) database.
type SQLStore struct {
	db     *db.Queries
	makeTx db.MakeTx
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewSQLStore(database *sql.DB, time chrono.TimeAPI, tel telemetry.API) SQLStore {
	assert.NotNil("database", database)
	assert.NotNil("time", time)
	assert.NotNil("tel", tel)

	return SQLStore{
		db:     db.New(database),
		makeTx: db.NewMakeTx(database),
		time:   time,
		tel:    telemetry.NewScopedAPI("snapshot", tel),
	}
}

func (s SQLStore) Load(ctx context.Context) (*inventory.Snapshot, error) {
	snap := inventory.NewSnapshot()

	locations, err := s.db.ListLocations(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "ListLocations")
		return nil, err
	}
	for _, loc := range locations {
		snap.AddLocation(loc)
	}

	skus, err := s.db.ListSkus(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "ListSkus")
		return nil, err
	}
	for _, row := range skus {
		snap.AddSKU(row.Location, row.Sku)
	}

	quantities, err := s.db.ListStoreQuantities(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "ListStoreQuantities")
		return nil, err
	}
	for _, row := range quantities {
		if row.Quantity < 0 {
			err := fmt.Errorf("%s/%s/%s: %w", row.Location, row.Sku, row.Store, inventory.ErrNegativeQuantity)
			s.tel.ReportBroken(report_load, err)
			return nil, err
		}
		snap.Set(row.Location, row.Sku, row.Store, int(row.Quantity))
	}

	return snap, nil
}

// Persist overwrites every stored row inside a single transaction.
func (s SQLStore) Persist(ctx context.Context, snap *inventory.Snapshot) error {
	now := s.time.Now().Unix()

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.DeleteStoreQuantities(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "DeleteStoreQuantities")
		return err
	}
	err = tx.DeleteSkus(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "DeleteSkus")
		return err
	}
	err = tx.DeleteLocations(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db, err, "DeleteLocations")
		return err
	}

	for _, loc := range snap.Locations() {
		err = tx.CreateLocation(ctx, loc)
		if err != nil {
			s.tel.ReportBroken(report_db, err, "CreateLocation", loc)
			return err
		}
		for _, sku := range snap.SKUs(loc) {
			param := db.CreateSkuParams{Location: loc, Sku: sku}
			err = tx.CreateSku(ctx, param)
			if err != nil {
				s.tel.ReportBroken(report_db, err, "CreateSku", param)
				return err
			}
		}
	}

	for _, entry := range snap.Entries() {
		param := db.CreateStoreQuantityParams{
			Location:  entry.Location,
			Sku:       entry.SKU,
			Store:     entry.Store,
			Quantity:  int64(entry.Quantity),
			UpdatedAt: now,
		}
		err = tx.CreateStoreQuantity(ctx, param)
		if err != nil {
			s.tel.ReportBroken(report_db, err, "CreateStoreQuantity", param)
			return err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_persist, fmt.Errorf("commit: %w", err))
		return err
	}
	return nil
}
