package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const deleteStoreQuantities = `delete from store_quantity`

func (q *Queries) DeleteStoreQuantities(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteStoreQuantities)
	return err
}

const deleteSkus = `delete from tracked_sku`

func (q *Queries) DeleteSkus(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSkus)
	return err
}

const deleteLocations = `delete from tracked_location`

func (q *Queries) DeleteLocations(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteLocations)
	return err
}

const createLocation = `insert into tracked_location(location) values (?)`

func (q *Queries) CreateLocation(ctx context.Context, location string) error {
	_, err := q.db.ExecContext(ctx, createLocation, location)
	return err
}

const createSku = `insert into tracked_sku(location, sku) values (?, ?)`

type CreateSkuParams struct {
	Location string
	Sku      string
}

func (q *Queries) CreateSku(ctx context.Context, arg CreateSkuParams) error {
	_, err := q.db.ExecContext(ctx, createSku, arg.Location, arg.Sku)
	return err
}

const createStoreQuantity = `
insert into store_quantity(location, sku, store, quantity, updated_at)
values (?, ?, ?, ?, ?)
`

type CreateStoreQuantityParams struct {
	Location  string
	Sku       string
	Store     string
	Quantity  int64
	UpdatedAt int64
}

func (q *Queries) CreateStoreQuantity(ctx context.Context, arg CreateStoreQuantityParams) error {
	_, err := q.db.ExecContext(ctx, createStoreQuantity,
		arg.Location,
		arg.Sku,
		arg.Store,
		arg.Quantity,
		arg.UpdatedAt,
	)
	return err
}

const listLocations = `select location from tracked_location order by location`

func (q *Queries) ListLocations(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLocations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, err
		}
		items = append(items, location)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSkus = `select location, sku from tracked_sku order by location, sku`

type ListSkusRow struct {
	Location string
	Sku      string
}

func (q *Queries) ListSkus(ctx context.Context) ([]ListSkusRow, error) {
	rows, err := q.db.QueryContext(ctx, listSkus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSkusRow
	for rows.Next() {
		var i ListSkusRow
		if err := rows.Scan(&i.Location, &i.Sku); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStoreQuantities = `
select location, sku, store, quantity, updated_at from store_quantity
order by location, sku, store
`

type StoreQuantity struct {
	Location  string
	Sku       string
	Store     string
	Quantity  int64
	UpdatedAt int64
}

func (q *Queries) ListStoreQuantities(ctx context.Context) ([]StoreQuantity, error) {
	rows, err := q.db.QueryContext(ctx, listStoreQuantities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StoreQuantity
	for rows.Next() {
		var i StoreQuantity
		if err := rows.Scan(
			&i.Location,
			&i.Sku,
			&i.Store,
			&i.Quantity,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
