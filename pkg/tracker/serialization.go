package tracker

import "strconv"

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores documents as string-to-string maps (hashes). Every application
// field is scalar, so the mapping is direct - no JSON-encoded fields.
//
// Reads are tolerant: a missing or unrecognized status is coerced to
// "applied" and a missing or malformed created_at_ms becomes 0 (not yet
// acknowledged). Old or hand-edited documents therefore never make a read
// fail; writes remain strict via Draft.Validate.

// ApplicationToHash converts an Application struct to a Redis hash format.
func ApplicationToHash(a *Application) map[string]interface{} {
	return map[string]interface{}{
		"id":            a.ID,
		"company":       a.Company,
		"role":          a.Role,
		"status":        string(a.Status),
		"notes":         a.Notes,
		"created_at_ms": a.CreatedAtMs,
	}
}

// HashToApplication converts a Redis hash to an Application struct.
// Never fails; see the read-tolerance note above.
func HashToApplication(hash map[string]string) *Application {
	// Missing or malformed timestamps read as 0, which sorts as oldest
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	return &Application{
		ID:          hash["id"],
		Company:     hash["company"],
		Role:        hash["role"],
		Status:      CoerceStatus(hash["status"]),
		Notes:       hash["notes"],
		CreatedAtMs: createdAtMs,
	}
}
