package tracker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Application represents one internship application owned by a user.
// Applications are stored as Redis hashes scoped under the owning user's
// namespace; ownership is expressed by key path, not by a field on the record.
type Application struct {
	ID          string `json:"id"`            // UUID - assigned by the store on creation, immutable
	Company     string `json:"company"`       // Non-empty after trimming
	Role        string `json:"role"`          // Non-empty after trimming
	Status      Status `json:"status"`        // Closed enumeration, defaults to "applied"
	Notes       string `json:"notes"`         // Optional free text
	CreatedAtMs int64  `json:"created_at_ms"` // Unix milliseconds, assigned by the store at creation; 0 until acknowledged
}

// Status is the stage an application has reached.
type Status string

const (
	// StatusApplied is the initial stage and the default for new records
	StatusApplied Status = "applied"

	// StatusOnlineAssessment indicates a take-home or online test was received
	StatusOnlineAssessment Status = "online_assessment"

	// StatusInterview indicates the application reached an interview round
	StatusInterview Status = "interview"

	// StatusOffer indicates an offer was extended
	StatusOffer Status = "offer"

	// StatusRejected indicates the application was declined
	StatusRejected Status = "rejected"
)

// Statuses returns all valid statuses in display order.
// The order is stable and used for count summaries and filter chips.
func Statuses() []Status {
	return []Status{
		StatusApplied,
		StatusOnlineAssessment,
		StatusInterview,
		StatusOffer,
		StatusRejected,
	}
}

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusApplied, StatusOnlineAssessment, StatusInterview,
		StatusOffer, StatusRejected:
		return nil
	default:
		return fmt.Errorf("unknown status: %q", s)
	}
}

// CoerceStatus maps a raw stored value to a valid Status.
// Unrecognized or missing values become StatusApplied. This is applied at
// read time only - writes with an invalid status are rejected by validation,
// so invalid values are never persisted by this package.
func CoerceStatus(raw string) Status {
	s := Status(raw)
	if err := s.Validate(); err != nil {
		return StatusApplied
	}
	return s
}

// ChangeKind labels what happened to an application in a change event.
type ChangeKind string

const (
	// ChangeCreated indicates a new application was written
	ChangeCreated ChangeKind = "created"

	// ChangeUpdated indicates an existing application's fields were overwritten
	ChangeUpdated ChangeKind = "updated"

	// ChangeDeleted indicates an application was removed
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is the payload published on a user's application events
// channel after every successful mutation. It carries the affected record
// in full so observers can log it without a read-back; subscribers still
// re-read the whole set for their snapshot.
type ChangeEvent struct {
	Kind        ChangeKind  `json:"kind"`
	Application Application `json:"application"`
}

// Draft holds the user-editable fields of an application.
// A Draft is what create and edit submissions carry; the store assigns
// ID and CreatedAtMs and never lets a draft touch them.
type Draft struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	Status  Status `json:"status"`
	Notes   string `json:"notes"`
}

// Normalized returns a copy of the draft with company, role and notes
// trimmed and an empty status defaulted to StatusApplied.
func (d Draft) Normalized() Draft {
	d.Company = strings.TrimSpace(d.Company)
	d.Role = strings.TrimSpace(d.Role)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Status == "" {
		d.Status = StatusApplied
	}
	return d
}

// Validate checks that the draft can be persisted.
// Callers should normalize first; validation does not trim.
// Returns a *ValidationError naming the offending field.
func (d Draft) Validate() error {
	if d.Company == "" {
		return &ValidationError{Field: "company", Reason: "cannot be empty"}
	}
	if d.Role == "" {
		return &ValidationError{Field: "role", Reason: "cannot be empty"}
	}
	if err := d.Status.Validate(); err != nil {
		return &ValidationError{Field: "status", Reason: err.Error()}
	}
	return nil
}

// Validate checks if the Application has valid field values.
func (a *Application) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid application ID: not a valid UUID")
	}

	if a.Company == "" {
		return fmt.Errorf("company cannot be empty")
	}

	if a.Role == "" {
		return fmt.Errorf("role cannot be empty")
	}

	if err := a.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
