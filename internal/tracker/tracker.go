// Package tracker runs a single inventory check: load the snapshot, fetch and
// diff every product at every location, persist, then report.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"invtracker/internal/assert"
	"invtracker/internal/catalog"
	"invtracker/internal/diff"
	"invtracker/internal/inventory"
	"invtracker/internal/notify"
	"invtracker/internal/report"
	"invtracker/internal/snapshot"
	"invtracker/internal/telemetry"

	"github.com/mazen160/go-random"
)

const (
	report_run      = "tracker.run"
	report_fetch    = "tracker.fetch"
	report_deliver  = "tracker.deliver"
	report_changes  = "tracker.changes"
	report_failures = "tracker.fetch-failures"
)

// Fetcher returns the stores that carry sku around location.
//
// note: fault injection point
type Fetcher interface {
	Fetch(ctx context.Context, sku, location string) ([]inventory.Observation, error)
}

type Tracker struct {
	config   Config
	fetcher  Fetcher
	store    snapshot.Store
	notifier notify.Notifier
	tel      telemetry.API
}

// New validates config, an invalid config fails with ErrMissingConfig
// before anything is fetched.
func New(
	config Config,
	fetcher Fetcher,
	store snapshot.Store,
	notifier notify.Notifier,
	tel telemetry.API,
) (Tracker, error) {
	assert.NotNil("fetcher", fetcher)
	assert.NotNil("store", store)
	assert.NotNil("notifier", notifier)
	assert.NotNil("tel", tel)

	err := config.Validate()
	if err != nil {
		return Tracker{}, err
	}
	return Tracker{
		config:   config,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		tel:      telemetry.NewScopedAPI("tracker", tel),
	}, nil
}

// LocationReport is what was sent (or attempted) for a location.
type LocationReport struct {
	Location    string
	Destination string
	// HasChanges is true when the report was routed to the location's own
	// destination.
	HasChanges bool
	Messages   []string
}

type Result struct {
	RunID   string
	Changes []inventory.ChangeRecord
	Reports []LocationReport
	// FetchFailures counts the products that could not be checked.
	FetchFailures int
	// DeliveryErr joins every failed send, the snapshot is persisted
	// regardless.
	DeliveryErr error
}

// Run performs one full check. The returned error is only set when the
// snapshot could not be loaded or persisted, in which case nothing is sent.
// Delivery failures are reported through Result.DeliveryErr.
func (t Tracker) Run(ctx context.Context) (Result, error) {
	err := t.config.Validate()
	if err != nil {
		return Result{}, err
	}

	runId, err := random.String(8)
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}
	result := Result{RunID: runId}
	t.tel.ReportDebug("run started", runId, len(t.config.Locations), t.config.Catalog.Len())

	snap, err := t.store.Load(ctx)
	if err != nil {
		t.tel.ReportBroken(report_run, fmt.Errorf("load snapshot: %w", err), runId)
		return result, err
	}

	groups := make([][]report.Group, len(t.config.Locations))
	for i, loc := range t.config.Locations {
		groups[i] = t.checkLocation(ctx, snap, loc.PostalCode)
		for _, g := range groups[i] {
			result.Changes = append(result.Changes, g.Changes...)
			if g.Err != nil {
				result.FetchFailures++
			}
		}
	}

	err = t.store.Persist(ctx, snap)
	if err != nil {
		t.tel.ReportBroken(report_run, fmt.Errorf("persist snapshot: %w", err), runId)
		return result, err
	}

	t.tel.ReportCount(report_changes, int64(len(result.Changes)))
	t.tel.ReportCount(report_failures, int64(result.FetchFailures))

	var deliveryErrs []error
	composer := report.Composer{MaxLength: t.config.MaxLength}
	products := t.config.Catalog.Products()
	for i, loc := range t.config.Locations {
		lr := LocationReport{
			Location:    loc.PostalCode,
			Destination: t.config.NoChangeDestination,
			HasChanges:  report.HasChanges(groups[i]),
			Messages:    composer.Compose(loc.PostalCode, groups[i], products),
		}
		if lr.HasChanges {
			lr.Destination = loc.Destination
		}
		result.Reports = append(result.Reports, lr)

		for _, msg := range lr.Messages {
			err := t.notifier.Send(ctx, lr.Destination, msg)
			if err != nil {
				err = fmt.Errorf("send report of %s to %s: %w", loc.PostalCode, lr.Destination, err)
				t.tel.ReportBroken(report_deliver, err, runId)
				deliveryErrs = append(deliveryErrs, err)
			}
		}
	}
	result.DeliveryErr = errors.Join(deliveryErrs...)

	telemetry.RecordPerfStats(ctx, t.tel)
	t.tel.ReportDebug("run finished", runId, len(result.Changes), result.FetchFailures)
	return result, nil
}

// checkLocation fetches and diffs every catalog product at location, one
// product at a time. A failed fetch leaves the product's snapshot untouched.
func (t Tracker) checkLocation(ctx context.Context, snap *inventory.Snapshot, location string) []report.Group {
	snap.AddLocation(location)

	var groups []report.Group
	for _, product := range t.config.Catalog.Products() {
		groups = append(groups, t.checkProduct(ctx, snap, location, product))
	}
	return groups
}

func (t Tracker) checkProduct(
	ctx context.Context,
	snap *inventory.Snapshot,
	location string,
	product catalog.Product,
) report.Group {
	observations, err := t.fetcher.Fetch(ctx, product.SKU, location)
	if err != nil {
		t.tel.ReportWarning(report_fetch, err, product.SKU, location)
		return report.Group{Product: product, Err: err}
	}

	snap.AddSKU(location, product.SKU)
	return report.Group{
		Product: product,
		Changes: diff.Batch(snap, location, product, observations),
	}
}
