package temporal_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/temporal"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rateTable(t *testing.T) *temporal.Table[string, decimal.Decimal] {
	t.Helper()
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))
	require.NoError(t, tbl.Append("alice", decimal.NewFromInt(10), date(2021, time.January, 1)))
	require.NoError(t, tbl.Append("alice", decimal.NewFromInt(12), date(2021, time.June, 1)))
	require.NoError(t, tbl.Append("alice", decimal.NewFromInt(15), date(2022, time.January, 1)))
	return tbl
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegister_Duplicate_Rejected(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))

	err := tbl.Register("alice")
	assert.ErrorIs(t, err, temporal.ErrDuplicateKey)

	var dup *temporal.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "alice", dup.Key)
}

func TestAppend_UnregisteredKey_Rejected(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()

	err := tbl.Append("ghost", decimal.NewFromInt(9), date(2021, time.January, 1))
	assert.ErrorIs(t, err, temporal.ErrUnknownKey)
}

// =============================================================================
// APPEND ORDERING
// =============================================================================

func TestAppend_SameStartDate_Rejected(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))
	require.NoError(t, tbl.Append("alice", decimal.NewFromInt(10), date(2021, time.January, 1)))

	err := tbl.Append("alice", decimal.NewFromInt(11), date(2021, time.January, 1))
	assert.ErrorIs(t, err, temporal.ErrDateOrder)
}

func TestAppend_EarlierStartDate_Rejected(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))
	require.NoError(t, tbl.Append("alice", decimal.NewFromInt(10), date(2021, time.June, 1)))

	err := tbl.Append("alice", decimal.NewFromInt(11), date(2021, time.March, 1))
	assert.ErrorIs(t, err, temporal.ErrDateOrder)

	var ord *temporal.DateOrderError
	require.ErrorAs(t, err, &ord)
	assert.Equal(t, date(2021, time.June, 1), ord.Last)
	assert.Equal(t, date(2021, time.March, 1), ord.Start)
}

func TestAppend_FirstEntry_AlwaysSucceeds(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))
	assert.NoError(t, tbl.Append("alice", decimal.NewFromInt(10), date(1995, time.July, 4)))
	assert.Equal(t, 1, tbl.Len("alice"))
}

// =============================================================================
// LOOKUP
// =============================================================================

func TestLookup_StartBoundary_IsInclusive(t *testing.T) {
	// GIVEN: rate changes to 12 on June 1
	// WHEN: looking up exactly June 1
	// THEN: the new entry applies, not the previous one
	tbl := rateTable(t)

	v, err := tbl.Lookup("alice", date(2021, time.June, 1))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(12)), "boundary date belongs to the entry starting there")
}

func TestLookup_WithinRange(t *testing.T) {
	tbl := rateTable(t)

	v, err := tbl.Lookup("alice", date(2021, time.March, 15))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(10)))
}

func TestLookup_AfterLastEntry_OpenEnded(t *testing.T) {
	// The last entry persists until superseded: far-future dates resolve
	// to the most recent value.
	tbl := rateTable(t)

	v, err := tbl.Lookup("alice", date(2030, time.December, 31))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(15)))
}

func TestLookup_BeforeFirstEntry_OutOfRange(t *testing.T) {
	tbl := rateTable(t)

	_, err := tbl.Lookup("alice", date(2020, time.December, 31))
	assert.ErrorIs(t, err, temporal.ErrDateOutOfRange)

	var oor *temporal.DateOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, date(2021, time.January, 1), oor.First)
}

func TestLookup_UnknownKey(t *testing.T) {
	tbl := rateTable(t)

	_, err := tbl.Lookup("bob", date(2021, time.March, 1))
	assert.ErrorIs(t, err, temporal.ErrUnknownKey)
}

func TestLookup_RegisteredButEmptyKey_OutOfRange(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))

	_, err := tbl.Lookup("alice", date(2021, time.March, 1))
	assert.ErrorIs(t, err, temporal.ErrDateOutOfRange)
}

func TestLookup_NonMonotonicDates(t *testing.T) {
	// Lookups may arrive in any order relative to load order.
	tbl := rateTable(t)

	queries := []struct {
		at   time.Time
		want int64
	}{
		{date(2022, time.March, 1), 15},
		{date(2021, time.February, 1), 10},
		{date(2021, time.November, 30), 12},
		{date(2021, time.May, 31), 10},
		{date(2023, time.January, 1), 15},
	}
	for _, q := range queries {
		v, err := tbl.Lookup("alice", q.at)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.NewFromInt(q.want)), "lookup at %s", q.at.Format("2006-01-02"))
	}
}

func TestLookup_TimeOfDayIgnored(t *testing.T) {
	// Ranges compare by calendar day: a mid-day timestamp on the boundary
	// date still resolves to the entry starting that day.
	tbl := rateTable(t)

	v, err := tbl.Lookup("alice", time.Date(2021, time.June, 1, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(12)))
}

func TestKeys_ReturnsRegistered(t *testing.T) {
	tbl := temporal.New[string, decimal.Decimal]()
	require.NoError(t, tbl.Register("alice"))
	require.NoError(t, tbl.Register("bob"))

	assert.ElementsMatch(t, []string{"alice", "bob"}, tbl.Keys())
}

func TestWalk_VisitsEveryEntryInStartOrder(t *testing.T) {
	tbl := rateTable(t)

	var starts []time.Time
	tbl.Walk(func(key string, start time.Time, value decimal.Decimal) {
		assert.Equal(t, "alice", key)
		starts = append(starts, start)
	})

	require.Len(t, starts, 3)
	assert.Equal(t, date(2021, time.January, 1), starts[0])
	assert.Equal(t, date(2021, time.June, 1), starts[1])
	assert.Equal(t, date(2022, time.January, 1), starts[2])
}
