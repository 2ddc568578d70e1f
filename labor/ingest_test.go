package labor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/labor"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// sliceSource is an in-memory ShiftSource.
type sliceSource struct {
	rows []labor.RawShift
	err  error
}

func (s *sliceSource) Shifts(context.Context) ([]labor.RawShift, error) {
	return s.rows, s.err
}

func row(worker, address, date, task string, hours float64, class, multiplier string) labor.RawShift {
	return labor.RawShift{
		Worker:         worker,
		Address:        address,
		DateText:       date,
		Task:           task,
		Hours:          hours,
		Class:          class,
		MultiplierText: multiplier,
	}
}

func ingest(t *testing.T, rows ...labor.RawShift) ([]*labor.Job, *labor.Diagnostics) {
	t.Helper()
	diag := labor.NewDiagnostics()
	b := labor.NewBuilder(diag)
	require.NoError(t, b.Ingest(context.Background(), &sliceSource{rows: rows}))
	return b.Jobs(), diag
}

// =============================================================================
// GROUPING
// =============================================================================

func TestIngest_GroupsByJobAndWeek(t *testing.T) {
	// GIVEN: rows for two addresses, one spanning two ISO weeks
	// WHEN: ingested
	// THEN: two jobs; the first with two week buckets
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "08-Mar-2021", "Framing", 8, "5", ""),
		row("Bob", "9 Elm Ave", "01-Mar-2021", "Paint", 6, "5", ""),
	)

	require.Len(t, jobs, 2)
	assert.Equal(t, "12 Oak St", jobs[0].Address)
	assert.Equal(t, "9 Elm Ave", jobs[1].Address)
	assert.Len(t, jobs[0].Weeks, 2)
	assert.Len(t, jobs[1].Weeks, 1)
}

func TestIngest_WeekIdentity_IsISOWeekAndYear(t *testing.T) {
	// Jan 1 2021 falls in ISO week 53 of week-based year 2020.
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Jan-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "04-Jan-2021", "Framing", 8, "5", ""),
	)

	require.Len(t, jobs, 1)
	require.Len(t, jobs[0].Weeks, 2)
	assert.Equal(t, labor.WeekKey{Week: 53, Year: 2020}, jobs[0].Weeks[0].WeekKey)
	assert.Equal(t, labor.WeekKey{Week: 1, Year: 2021}, jobs[0].Weeks[1].WeekKey)
}

func TestIngest_WeekPresentationAttributes(t *testing.T) {
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "10-Mar-2021", "Framing", 8, "5", ""),
	)

	w := jobs[0].Weeks[0]
	assert.Equal(t, "Mar", w.Month)
	assert.Equal(t, 2, w.WeekOfMonth, "day 10 is in the second aligned week")
}

func TestIngest_AddressMatchIsCaseSensitive(t *testing.T) {
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 OAK ST", "01-Mar-2021", "Framing", 8, "5", ""),
	)

	assert.Len(t, jobs, 2, "differently-cased addresses are distinct jobs")
}

// =============================================================================
// DEDUP
// =============================================================================

func TestIngest_DuplicateRows_YieldOneShift(t *testing.T) {
	// GIVEN: two rows identical in (day, hours, class, worker, task)
	// WHEN: both are ingested
	// THEN: exactly one shift remains in the hierarchy
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
	)

	require.Len(t, jobs, 1)
	require.Len(t, jobs[0].Weeks, 1)
	assert.Len(t, jobs[0].Weeks[0].Shifts, 1)
}

func TestIngest_DifferentMultiplier_StillDeduplicated(t *testing.T) {
	// GIVEN: same worker/job/date/task/hours/class, multiplier "" vs "1.5"
	// WHEN: both are ingested
	// THEN: they collapse to one shift and the FIRST-SEEN multiplier wins.
	// This is the intended merge behavior, not data loss: multiplier is
	// deliberately excluded from shift identity.
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", "1.5"),
	)

	shifts := jobs[0].Weeks[0].Shifts
	require.Len(t, shifts, 1)
	assert.True(t, shifts[0].Multiplier.Equal(one()), "first-seen row is retained")
}

func TestIngest_DifferentHours_NotDeduplicated(t *testing.T) {
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 4, "5", ""),
	)

	assert.Len(t, jobs[0].Weeks[0].Shifts, 2)
}

// =============================================================================
// ROW-LEVEL FAILURES
// =============================================================================

func TestIngest_MalformedDate_RowSkipped(t *testing.T) {
	// GIVEN: one bad row between two good rows
	// WHEN: ingested
	// THEN: the bad row is skipped, a diagnostic is recorded, the rest land
	jobs, diag := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "2021-03-02", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "03-Mar-2021", "Framing", 8, "5", ""),
	)

	assert.Len(t, jobs[0].Weeks[0].Shifts, 2)
	require.Len(t, diag.Lines(), 1)
	assert.Contains(t, diag.Lines()[0], "malformed date")
}

func TestIngest_MalformedMultiplier_RowSkipped(t *testing.T) {
	jobs, diag := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", "fast"),
	)

	assert.Empty(t, jobs)
	require.Len(t, diag.Lines(), 1)
	assert.Contains(t, diag.Lines()[0], "malformed multiplier")
}

func TestIngest_MissingFields_RowSkipped(t *testing.T) {
	jobs, diag := ingest(t,
		row("", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
		row("Alice", "12 Oak St", "01-Mar-2021", "", 8, "5", ""),
	)

	assert.Empty(t, jobs)
	assert.Len(t, diag.Lines(), 2)
}

func TestIngest_EmptyMultiplier_DefaultsToOne(t *testing.T) {
	jobs, _ := ingest(t,
		row("Alice", "12 Oak St", "01-Mar-2021", "Framing", 8, "5", ""),
	)

	assert.True(t, jobs[0].Weeks[0].Shifts[0].Multiplier.Equal(one()))
}

func TestIngest_SourceFailure_IsBatchFatal(t *testing.T) {
	diag := labor.NewDiagnostics()
	b := labor.NewBuilder(diag)

	err := b.Ingest(context.Background(), &sliceSource{err: errors.New("file unreadable")})
	assert.Error(t, err)
	assert.Empty(t, b.Jobs())
}

func TestAdd_ReturnsRowError(t *testing.T) {
	b := labor.NewBuilder(labor.NewDiagnostics())

	bad := row("Alice", "12 Oak St", "garbage", "Framing", 8, "5", "")
	bad.Row = 17
	err := b.Add(bad)

	var rowErr *labor.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 17, rowErr.Row)
	assert.ErrorIs(t, err, labor.ErrMalformedDate)
}
