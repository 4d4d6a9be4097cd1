// Package view derives what the dashboard renders from the cached
// application set. Derive is a pure transform over a snapshot: it filters
// by status, matches free-text search, sorts, and tallies per-status
// counts. It never mutates its input, never fails and never performs I/O,
// which is what keeps it testable without a live store behind it.
package view

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stintapp/stint/pkg/tracker"
)

// StatusFilter selects which statuses pass the filter stage: FilterAll or
// the string form of exactly one status.
type StatusFilter string

// FilterAll passes every record regardless of status.
const FilterAll StatusFilter = "all"

// ParseStatusFilter validates a user-supplied filter value. The empty
// string means no filter was chosen and maps to FilterAll.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if raw == "" || raw == string(FilterAll) {
		return FilterAll, nil
	}
	if err := tracker.Status(raw).Validate(); err != nil {
		return "", fmt.Errorf("invalid status filter %q (valid: %s)", raw, strings.Join(filterNames(), ", "))
	}
	return StatusFilter(raw), nil
}

func filterNames() []string {
	names := []string{string(FilterAll)}
	for _, s := range tracker.Statuses() {
		names = append(names, string(s))
	}
	return names
}

// Order is one of the four supported sort orders.
type Order string

const (
	// OrderNewest sorts by creation time descending. Records still waiting
	// for a server timestamp sort as time zero, at the very end.
	OrderNewest Order = "newest"

	// OrderOldest sorts by creation time ascending.
	OrderOldest Order = "oldest"

	// OrderCompanyAZ sorts by company name ascending, case-insensitively
	// and locale-aware.
	OrderCompanyAZ Order = "company-az"

	// OrderCompanyZA is the reverse of OrderCompanyAZ.
	OrderCompanyZA Order = "company-za"
)

// Orders returns all sort orders in display order.
func Orders() []Order {
	return []Order{OrderNewest, OrderOldest, OrderCompanyAZ, OrderCompanyZA}
}

// ParseOrder validates a user-supplied sort value. The empty string maps
// to OrderNewest, the dashboard default.
func ParseOrder(raw string) (Order, error) {
	if raw == "" {
		return OrderNewest, nil
	}
	for _, o := range Orders() {
		if Order(raw) == o {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid sort order %q (valid: %s)", raw, strings.Join(orderNames(), ", "))
}

func orderNames() []string {
	names := make([]string, 0, len(Orders()))
	for _, o := range Orders() {
		names = append(names, string(o))
	}
	return names
}

// Query is the user-controlled selection state feeding Derive.
type Query struct {
	Filter StatusFilter `json:"filter"`
	Search string       `json:"search"`
	Sort   Order        `json:"sort"`
}

// DefaultQuery is the dashboard's initial selection: all statuses, no
// search, newest first.
func DefaultQuery() Query {
	return Query{Filter: FilterAll, Sort: OrderNewest}
}

// Tally is the per-status record count over the whole cached set. It is
// computed before filter and search so the filter chips always show
// totals, not the size of the currently visible subset.
type Tally struct {
	Total    int                    `json:"total"`
	ByStatus map[tracker.Status]int `json:"by_status"`
}

// State is the derived view: the ordered records to render plus the tally
// for the filter chips.
type State struct {
	Applications []tracker.Application `json:"applications"`
	Counts       Tally                 `json:"counts"`
}

// Derive computes the view state for one snapshot and one query.
// The input slice is left untouched; the returned slice is freshly
// allocated and never nil.
func Derive(apps []tracker.Application, q Query) State {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	filtered := make([]tracker.Application, 0, len(apps))
	for _, a := range apps {
		if matchesFilter(a, q.Filter) && matchesSearch(a, needle) {
			filtered = append(filtered, a)
		}
	}

	sortApplications(filtered, q.Sort)

	return State{
		Applications: filtered,
		Counts:       tally(apps),
	}
}

// matchesFilter reports whether a record passes the status filter.
// Statuses are coerced the same way the read path coerces them, so a
// record carrying an unrecognized status behaves as applied here too.
func matchesFilter(a tracker.Application, filter StatusFilter) bool {
	if filter == FilterAll {
		return true
	}
	return tracker.CoerceStatus(string(a.Status)) == tracker.Status(filter)
}

// matchesSearch reports whether a record matches the normalized search
// term. The term is matched against company, role and notes joined with
// single spaces, so a multi-word term may span field boundaries.
func matchesSearch(a tracker.Application, needle string) bool {
	if needle == "" {
		return true
	}
	haystack := strings.ToLower(a.Company + " " + a.Role + " " + a.Notes)
	return strings.Contains(haystack, needle)
}

// tally counts records per status over the unfiltered set. Every status
// appears as a key even at zero, and unknown statuses count as applied,
// so the per-status counts always sum to Total.
func tally(apps []tracker.Application) Tally {
	byStatus := make(map[tracker.Status]int, len(tracker.Statuses()))
	for _, s := range tracker.Statuses() {
		byStatus[s] = 0
	}
	for _, a := range apps {
		byStatus[tracker.CoerceStatus(string(a.Status))]++
	}
	return Tally{Total: len(apps), ByStatus: byStatus}
}

// sortApplications orders records in place. Ties on the sort key fall
// back to ID ascending, so equal-key records render in one deterministic
// order no matter how the snapshot arrived.
func sortApplications(apps []tracker.Application, order Order) {
	switch order {
	case OrderOldest:
		sort.Slice(apps, func(i, j int) bool {
			if apps[i].CreatedAtMs != apps[j].CreatedAtMs {
				return apps[i].CreatedAtMs < apps[j].CreatedAtMs
			}
			return apps[i].ID < apps[j].ID
		})
	case OrderCompanyAZ, OrderCompanyZA:
		// Loose collation ignores case, width and diacritics, so "acme"
		// and "Acme" compare equal and fall through to the tie-break.
		col := collate.New(language.Und, collate.Loose)
		descending := order == OrderCompanyZA
		sort.Slice(apps, func(i, j int) bool {
			cmp := col.CompareString(apps[i].Company, apps[j].Company)
			if cmp != 0 {
				if descending {
					return cmp > 0
				}
				return cmp < 0
			}
			return apps[i].ID < apps[j].ID
		})
	default:
		sort.Slice(apps, func(i, j int) bool {
			if apps[i].CreatedAtMs != apps[j].CreatedAtMs {
				return apps[i].CreatedAtMs > apps[j].CreatedAtMs
			}
			return apps[i].ID < apps[j].ID
		})
	}
}
