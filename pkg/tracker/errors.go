package tracker

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StoreError is the single error kind reported for any failed store
// operation. Network faults, permission problems and missing records all
// collapse into it - callers surface a generic message and leave their
// local state unchanged apart from an error flag. The cause remains
// reachable through Unwrap for logging and for IsNotFound.
type StoreError struct {
	Op  string // "create", "update", "delete", "get", "list", "subscribe"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError checks if an error is a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// ValidationError indicates a submission that must not reach the store:
// an empty company or role after trimming, or a status outside the
// enumeration. It is raised locally, before any Redis call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if the error chain contains the Redis "key not
// found" error (redis.Nil). Store errors wrap their cause, so this sees
// through a *StoreError returned by Get, Update or Delete.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
