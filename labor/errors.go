/*
errors.go - Error taxonomy for the labor pipeline

PURPOSE:
  Distinguishes the three failure scopes of the pipeline:

  1. Row-level ingestion errors (bad date, bad multiplier, short row):
     recovered locally - the row is skipped, a diagnostic is recorded,
     ingestion continues.
  2. Calculation errors (missing rate or percentage for a shift's
     key/date): abort that JOB's calculation. Other jobs proceed. This
     asymmetry with row-skip is historical behavior, preserved for
     compatibility.
  3. Batch-fatal errors (unreadable row source, malformed schedule
     tables): abort the whole run. Structural table errors surface as
     temporal package errors.

SEE ALSO:
  - temporal/errors.go: Structural table errors
  - diag.go: Where recovered errors are recorded
*/
package labor

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedDate is returned when a row's date text does not match
	// the fixed day-month-year layout.
	ErrMalformedDate = errors.New("malformed date")

	// ErrMalformedMultiplier is returned when a row's multiplier text is
	// present but not numeric.
	ErrMalformedMultiplier = errors.New("malformed multiplier")

	// ErrInvalidRow is returned when a row fails structural validation
	// (missing required fields, negative hours).
	ErrInvalidRow = errors.New("invalid row")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RowError scopes a recoverable failure to one input row.
type RowError struct {
	Row int // 1-based source row number, 0 if unknown
	Err error
}

func (e *RowError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return e.Err.Error()
}

func (e *RowError) Unwrap() error { return e.Err }

// CalcError reports a failed rate or percentage lookup during
// calculation. It aborts the enclosing job's run.
type CalcError struct {
	Address string
	Worker  string
	Class   string
	Date    time.Time
	Err     error
}

func (e *CalcError) Error() string {
	return fmt.Sprintf("job %q: cannot price shift for %q (class %q) on %s: %v",
		e.Address, e.Worker, e.Class, e.Date.Format("2006-01-02"), e.Err)
}

func (e *CalcError) Unwrap() error { return e.Err }
