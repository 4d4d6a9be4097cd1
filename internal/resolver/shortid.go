// Package resolver maps short application ID prefixes to full UUIDs, so
// CLI users can type the 8 characters the table shows instead of a whole
// UUID.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/stintapp/stint/pkg/tracker"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

// ResolveApplicationID resolves a short ID prefix to a full UUID within
// one user's collection. Returns the full UUID if exactly one record
// matches; a NotFoundError or AmbiguousError otherwise.
//
// Three cases are handled:
// 1. Input is already a full UUID (36 chars, 4 hyphens): verify it exists
// 2. Input is shorter than MinShortIDLength: validation error
// 3. Input is a prefix: match it against the user's records
func ResolveApplicationID(ctx context.Context, client *tracker.Client, userID, shortID string) (string, error) {
	if len(shortID) == 36 && strings.Count(shortID, "-") == 4 {
		_, err := client.Get(ctx, userID, shortID)
		if err != nil {
			if tracker.IsNotFound(err) {
				return "", &NotFoundError{ShortID: shortID}
			}
			return "", fmt.Errorf("failed to verify application existence: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	// A user's collection is small, so listing it beats maintaining a
	// separate prefix index in Redis.
	apps, err := client.List(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to search for application: %w", err)
	}

	var matches []string
	for _, a := range apps {
		if strings.HasPrefix(a.ID, shortID) {
			matches = append(matches, a.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no applications matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no applications found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple applications matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d applications", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message for ambiguous
// short IDs, listing up to 10 matching UUIDs.
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d applications:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the application."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
