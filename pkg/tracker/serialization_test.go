package tracker

import (
	"fmt"
	"reflect"
	"strconv"
	"testing"

	"github.com/google/uuid"
)

// TestApplicationRoundTrip tests that serialization and deserialization maintains perfect fidelity
func TestApplicationRoundTrip(t *testing.T) {
	original := &Application{
		ID:          uuid.New().String(),
		Company:     "Acme",
		Role:        "SWE Intern",
		Status:      StatusInterview,
		Notes:       "onsite scheduled",
		CreatedAtMs: 1700000000000,
	}

	hash := ApplicationToHash(original)

	// Convert hash to string map (simulating Redis storage)
	stringHash := make(map[string]string)
	for k, v := range hash {
		stringHash[k] = toString(v)
	}

	result := HashToApplication(stringHash)

	// Verify perfect round-trip
	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", original, result)
	}
}

// TestApplicationRoundTrip_EmptyNotes tests round-trip with defaulted optional fields
func TestApplicationRoundTrip_EmptyNotes(t *testing.T) {
	original := &Application{
		ID:          uuid.New().String(),
		Company:     "Zen Systems",
		Role:        "Data Intern",
		Status:      StatusApplied,
		Notes:       "",
		CreatedAtMs: 1700000000001,
	}

	hash := ApplicationToHash(original)

	stringHash := make(map[string]string)
	for k, v := range hash {
		stringHash[k] = toString(v)
	}

	result := HashToApplication(stringHash)

	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip with empty notes failed:\noriginal: %+v\nresult:   %+v", original, result)
	}
}

// TestHashToApplication_UnknownStatusCoerced tests read-time coercion of a bad stored status
func TestHashToApplication_UnknownStatusCoerced(t *testing.T) {
	hash := map[string]string{
		"id":            uuid.New().String(),
		"company":       "Acme",
		"role":          "Intern",
		"status":        "ghosted", // Not in the enumeration
		"notes":         "",
		"created_at_ms": "1700000000000",
	}

	result := HashToApplication(hash)

	if result.Status != StatusApplied {
		t.Errorf("unknown status should coerce to %q, got %q", StatusApplied, result.Status)
	}
}

// TestHashToApplication_MissingStatusCoerced tests that an absent status field reads as applied
func TestHashToApplication_MissingStatusCoerced(t *testing.T) {
	hash := map[string]string{
		"id":      uuid.New().String(),
		"company": "Acme",
		"role":    "Intern",
	}

	result := HashToApplication(hash)

	if result.Status != StatusApplied {
		t.Errorf("missing status should coerce to %q, got %q", StatusApplied, result.Status)
	}
}

// TestHashToApplication_MissingTimestamp tests that an absent created_at_ms reads as zero
func TestHashToApplication_MissingTimestamp(t *testing.T) {
	hash := map[string]string{
		"id":      uuid.New().String(),
		"company": "Acme",
		"role":    "Intern",
		"status":  "applied",
	}

	result := HashToApplication(hash)

	if result.CreatedAtMs != 0 {
		t.Errorf("missing created_at_ms should read as 0, got %d", result.CreatedAtMs)
	}
}

// TestHashToApplication_MalformedTimestamp tests that a garbage created_at_ms reads as zero
func TestHashToApplication_MalformedTimestamp(t *testing.T) {
	hash := map[string]string{
		"id":            uuid.New().String(),
		"company":       "Acme",
		"role":          "Intern",
		"status":        "offer",
		"created_at_ms": "yesterday",
	}

	result := HashToApplication(hash)

	if result.CreatedAtMs != 0 {
		t.Errorf("malformed created_at_ms should read as 0, got %d", result.CreatedAtMs)
	}
	if result.Status != StatusOffer {
		t.Errorf("status should be unaffected by timestamp tolerance, got %q", result.Status)
	}
}

// Helper function to convert interface{} to string (simulates Redis storage)
func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
