// Package filter selects applications for export.
package filter

import (
	"path/filepath"

	"github.com/stintapp/stint/pkg/tracker"
)

// Criteria defines export filtering criteria.
// All filters are ANDed together - an application must match ALL criteria
// to pass.
type Criteria struct {
	SinceTimestampMs int64          // Unix timestamp in milliseconds, 0 = no bound
	UntilTimestampMs int64          // Unix timestamp in milliseconds, 0 = no bound
	Status           tracker.Status // Exact status match, empty = all
	CompanyGlob      string         // Glob pattern for company name, empty = all
}

// Matches returns true if the application matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(app *tracker.Application) bool {
	// A pending creation time cannot prove membership in a bounded window
	if (c.SinceTimestampMs > 0 || c.UntilTimestampMs > 0) && app.CreatedAtMs == 0 {
		return false
	}
	if c.SinceTimestampMs > 0 && app.CreatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && app.CreatedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.Status != "" && app.Status != c.Status {
		return false
	}

	// Company filtering - glob pattern matching
	if c.CompanyGlob != "" {
		matched, err := filepath.Match(c.CompanyGlob, app.Company)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.Status != "" ||
		c.CompanyGlob != ""
}

// Apply returns the applications that match the criteria, in their
// original order.
func Apply(apps []tracker.Application, c *Criteria) []tracker.Application {
	out := make([]tracker.Application, 0, len(apps))
	for i := range apps {
		if c.Matches(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out
}
