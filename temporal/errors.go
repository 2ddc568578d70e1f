/*
errors.go - Centralized error types for the temporal table

PURPOSE:
  All table errors in one place for consistency and discoverability.
  Callers should wrap these errors with additional context.

ERROR CATEGORIES:
  1. Registration errors - Duplicate or missing columns
  2. Append errors - Misordered effective dates
  3. Lookup errors - Dates before the first effective range

USAGE:
  Callers match with errors.Is():

    if errors.Is(err, temporal.ErrDateOutOfRange) {
        // date precedes the key's first schedule entry
    }

  or extract context with errors.As():

    var oor *temporal.DateOutOfRangeError
    if errors.As(err, &oor) {
        log.Printf("no value for %v at %s", oor.Key, oor.Date)
    }

SEE ALSO:
  - table.go: The table operations returning these errors
*/
package temporal

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateKey is returned when registering a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key registration")

	// ErrUnknownKey is returned when appending to or looking up a key that
	// was never registered.
	ErrUnknownKey = errors.New("unknown key")

	// ErrDateOrder is returned when an appended effective date is not
	// strictly after the key's current last entry.
	ErrDateOrder = errors.New("misordered effective date")

	// ErrDateOutOfRange is returned when a lookup date precedes the key's
	// first effective date.
	ErrDateOutOfRange = errors.New("date out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateKeyError reports a second registration of the same key.
type DuplicateKeyError struct {
	Key any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %v is already registered", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// UnknownKeyError reports an operation on an unregistered key.
type UnknownKeyError struct {
	Key any
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("key %v is not registered", e.Key)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// DateOrderError reports an append whose start date does not advance the
// key's schedule.
type DateOrderError struct {
	Key   any
	Last  time.Time // start of the key's current last entry
	Start time.Time // rejected start date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("start %s for key %v is not after current last start %s",
		e.Start.Format("2006-01-02"), e.Key, e.Last.Format("2006-01-02"))
}

func (e *DateOrderError) Unwrap() error { return ErrDateOrder }

// DateOutOfRangeError reports a lookup date before the key's first entry.
type DateOutOfRangeError struct {
	Key   any
	First time.Time // start of the key's first entry (zero if none)
	Date  time.Time // rejected lookup date
}

func (e *DateOutOfRangeError) Error() string {
	return fmt.Sprintf("date %s precedes first effective date %s for key %v",
		e.Date.Format("2006-01-02"), e.First.Format("2006-01-02"), e.Key)
}

func (e *DateOutOfRangeError) Unwrap() error { return ErrDateOutOfRange }
