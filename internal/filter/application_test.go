package filter

import (
	"testing"

	"github.com/stintapp/stint/pkg/tracker"
)

func app(company string, status tracker.Status, createdAtMs int64) tracker.Application {
	return tracker.Application{
		ID:          "id-" + company,
		Company:     company,
		Role:        "Intern",
		Status:      status,
		CreatedAtMs: createdAtMs,
	}
}

func TestCriteria_Matches_TimeWindow(t *testing.T) {
	a := app("Acme", tracker.StatusApplied, 5000)

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"no bounds", Criteria{}, true},
		{"inside window", Criteria{SinceTimestampMs: 1000, UntilTimestampMs: 9000}, true},
		{"before since", Criteria{SinceTimestampMs: 6000}, false},
		{"after until", Criteria{UntilTimestampMs: 4000}, false},
		{"on since boundary", Criteria{SinceTimestampMs: 5000}, true},
		{"on until boundary", Criteria{UntilTimestampMs: 5000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Matches(&a); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriteria_Matches_PendingCreationTime(t *testing.T) {
	pending := app("Acme", tracker.StatusApplied, 0)

	if c := (Criteria{}); !c.Matches(&pending) {
		t.Error("pending record should match unbounded criteria")
	}
	if c := (Criteria{SinceTimestampMs: 1000}); c.Matches(&pending) {
		t.Error("pending record should not match a since bound")
	}
	if c := (Criteria{UntilTimestampMs: 1000}); c.Matches(&pending) {
		t.Error("pending record should not match an until bound")
	}
}

func TestCriteria_Matches_Status(t *testing.T) {
	offer := app("Acme", tracker.StatusOffer, 5000)

	if c := (Criteria{Status: tracker.StatusOffer}); !c.Matches(&offer) {
		t.Error("matching status should pass")
	}
	if c := (Criteria{Status: tracker.StatusRejected}); c.Matches(&offer) {
		t.Error("different status should fail")
	}
}

func TestCriteria_Matches_CompanyGlob(t *testing.T) {
	a := app("Zen Gardens", tracker.StatusApplied, 5000)

	tests := []struct {
		glob string
		want bool
	}{
		{"Zen*", true},
		{"*Gardens", true},
		{"Acme*", false},
		{"[", false}, // malformed pattern matches nothing
	}

	for _, tt := range tests {
		c := Criteria{CompanyGlob: tt.glob}
		if got := c.Matches(&a); got != tt.want {
			t.Errorf("glob %q: Matches() = %v, want %v", tt.glob, got, tt.want)
		}
	}
}

func TestCriteria_Matches_CombinesAllCriteria(t *testing.T) {
	a := app("Acme", tracker.StatusOffer, 5000)

	c := Criteria{
		SinceTimestampMs: 1000,
		UntilTimestampMs: 9000,
		Status:           tracker.StatusOffer,
		CompanyGlob:      "Acme",
	}
	if !c.Matches(&a) {
		t.Error("record matching every criterion should pass")
	}

	c.Status = tracker.StatusRejected
	if c.Matches(&a) {
		t.Error("one failing criterion should reject the record")
	}
}

func TestCriteria_HasFilters(t *testing.T) {
	if (&Criteria{}).HasFilters() {
		t.Error("empty criteria should report no filters")
	}
	if !(&Criteria{SinceTimestampMs: 1}).HasFilters() {
		t.Error("since bound should count as a filter")
	}
	if !(&Criteria{Status: tracker.StatusOffer}).HasFilters() {
		t.Error("status should count as a filter")
	}
	if !(&Criteria{CompanyGlob: "A*"}).HasFilters() {
		t.Error("company glob should count as a filter")
	}
}

func TestApply(t *testing.T) {
	apps := []tracker.Application{
		app("Acme", tracker.StatusApplied, 1000),
		app("Zen Gardens", tracker.StatusOffer, 2000),
		app("Nimbus", tracker.StatusOffer, 3000),
	}

	got := Apply(apps, &Criteria{Status: tracker.StatusOffer})

	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Company != "Zen Gardens" || got[1].Company != "Nimbus" {
		t.Errorf("expected original order preserved, got %q then %q", got[0].Company, got[1].Company)
	}

	// The input slice is untouched
	if len(apps) != 3 {
		t.Errorf("input slice length changed to %d", len(apps))
	}
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, &Criteria{Status: tracker.StatusOffer})
	if got == nil {
		t.Error("expected a non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}
