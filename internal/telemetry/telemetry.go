package telemetry

import (
	"fmt"
)

// API is what every component of the tracker reports through. Production
// wires it to slog and otel, tests wire it to a Recorder so a report can be
// asserted like any other output.
//
// Report ids name the component, never the failing line. The snapshot store
// failing to read its file is `store.load`, whether the open or the
// decode failed; the error itself says which. Ids are lowercase, with
// underscores inside a component name and dashes inside a method name
// (`client.fetch-nonce`). Packages keep their ids in `report_...` constants
// and leave the package prefix to ScopedAPI.
type API interface {
	// ReportBroken reports a failure someone has to look at, e.g. a store
	// that cannot persist or a product whose availability could not be read.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something odd that the run survived, e.g. a
	// response without a quantity.
	ReportWarning(id string, params ...any)
	// ReportDebug is dropped outside of development.
	ReportDebug(msg string, params ...any)
	// ReportCount records a gauge, each call is a point in time and calls are
	// never summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace. Nested scopes read outermost
// first: NewScopedAPI("tracker", NewScopedAPI("specs", tel)) reports
// `specs: tracker: <id>`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
