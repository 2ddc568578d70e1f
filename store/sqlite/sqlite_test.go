package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/materials"
	"github.com/warp/labor-engine/store/sqlite"
	"github.com/warp/labor-engine/temporal"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func jan(day int) time.Time {
	return time.Date(2021, time.January, day, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_RoundTrip_PreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := labor.RawShift{Worker: "Alice", Address: "12 Oak St", DateText: "01-Mar-2021", Task: "Framing", Hours: 8, Class: "5"}
	second := labor.RawShift{Worker: "Bob", Address: "9 Elm Ave", DateText: "02-Mar-2021", Task: "Paint", Hours: 4, Class: "7", MultiplierText: "1.5"}
	require.NoError(t, store.InsertShift(ctx, first))
	require.NoError(t, store.InsertShift(ctx, second))

	rows, err := store.Shifts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].Worker)
	assert.Equal(t, "Bob", rows[1].Worker)
	assert.Equal(t, "1.5", rows[1].MultiplierText)
	assert.Positive(t, rows[0].Row, "row id carried for diagnostics")
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestSalarySchedule_BuildsTemporalTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertSalaryRate(ctx, "Alice", jan(1), decimal.NewFromInt(10)))
	require.NoError(t, store.InsertSalaryRate(ctx, "Alice", time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(12)))
	require.NoError(t, store.InsertSalaryRate(ctx, "Bob", jan(1), decimal.NewFromInt(20)))

	tbl, err := store.SalarySchedule(ctx)
	require.NoError(t, err)

	v, err := tbl.Lookup("Alice", time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(10)))

	v, err = tbl.Lookup("Alice", time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(12)))

	_, err = tbl.Lookup("Ghost", jan(1))
	assert.ErrorIs(t, err, temporal.ErrUnknownKey)
}

func TestClassSchedule_FractionValuesSurvive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertClassRate(ctx, "5", jan(1), decimal.RequireFromString("0.10")))

	tbl, err := store.ClassSchedule(ctx)
	require.NoError(t, err)

	v, err := tbl.Lookup("5", time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.RequireFromString("0.10")), "fractions round-trip exactly as decimal strings")
}

// =============================================================================
// RECEIPTS
// =============================================================================

func TestReceipts_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertReceipt(ctx, materials.RawReceipt{
		Address: "12 Oak St", Vendor: "Acme Lumber", DateText: "01-Mar-2021",
		AmountText: "50.25", WeekEndingText: "05-Mar-2021",
	}))

	rows, err := store.Receipts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Lumber", rows[0].Vendor)
	assert.Equal(t, "50.25", rows[0].AmountText)
	assert.Equal(t, "05-Mar-2021", rows[0].WeekEndingText)
}
