package tracker

import (
	"errors"
	"fmt"

	"invtracker/internal/catalog"
)

// ErrMissingConfig is returned before any work is done when a destination
// is missing.
var ErrMissingConfig = errors.New("missing config")

// Location is a tracked postal code and the destination its change reports
// are sent to.
type Location struct {
	PostalCode  string
	Destination string
}

type Config struct {
	Locations []Location
	// NoChangeDestination receives the report of every location that has
	// nothing to report.
	NoChangeDestination string
	Catalog             catalog.Catalog
	// MaxLength is the message size limit, 0 means report.DefaultMaxLength.
	MaxLength int
}

func (c Config) Validate() error {
	seen := map[string]bool{}
	for i, loc := range c.Locations {
		if loc.PostalCode == "" {
			return fmt.Errorf("%w: location %d has no postal code", ErrMissingConfig, i)
		}
		if loc.Destination == "" {
			return fmt.Errorf("%w: location %s has no destination", ErrMissingConfig, loc.PostalCode)
		}
		if seen[loc.PostalCode] {
			return fmt.Errorf("location %s is listed more than once", loc.PostalCode)
		}
		seen[loc.PostalCode] = true
	}
	if c.NoChangeDestination == "" {
		return fmt.Errorf("%w: no destination for reports without changes", ErrMissingConfig)
	}
	return nil
}
