/*
Package temporal provides an effective-dated lookup table.

PURPOSE:
  Answers "which value was in effect for key K on date D?" for values
  that change at discrete effective dates: pay rates per worker,
  compensation percentages per wage class, or any other schedule that
  persists until superseded.

KEY CONCEPTS:
  - Each key owns an independent, append-only sequence of (start, value)
    entries ordered by strictly increasing start date.
  - An entry has no explicit end date: its effective range runs from its
    own start (inclusive) to the next entry's start (exclusive). The
    last entry is effective indefinitely into the future.
  - Keys must be registered before values can be appended.

LIFECYCLE:
  Built once per run by a loader, then read-only. Lookups may arrive in
  any date order; each is a binary search over the key's entries.

USAGE:
  rates := temporal.New[string, decimal.Decimal]()
  _ = rates.Register("alice")
  _ = rates.Append("alice", decimal.NewFromInt(10), jan1)
  rate, err := rates.Lookup("alice", mar1)

SEE ALSO:
  - errors.go: Sentinel and structured errors returned here
*/
package temporal

import (
	"sort"
	"time"
)

// =============================================================================
// TABLE - keyed, effective-dated schedules
// =============================================================================

type entry[V any] struct {
	start time.Time
	value V
}

// Table maps (key, date) to the value in effect on that date.
// Not safe for concurrent mutation; safe for concurrent lookups once
// construction is complete.
type Table[K comparable, V any] struct {
	columns map[K][]entry[V]
}

// New returns an empty table.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{columns: make(map[K][]entry[V])}
}

// Register declares a key so entries can be appended to it.
// Registration is explicit: appending to an unknown key is an error,
// which catches misspelled identities in the schedule source.
func (t *Table[K, V]) Register(key K) error {
	if _, ok := t.columns[key]; ok {
		return &DuplicateKeyError{Key: key}
	}
	t.columns[key] = nil
	return nil
}

// Append adds a new entry effective from start. The previous last entry,
// if any, implicitly ends at start (exclusive). The first entry for a
// key always succeeds; later entries must strictly advance the date.
func (t *Table[K, V]) Append(key K, value V, start time.Time) error {
	entries, ok := t.columns[key]
	if !ok {
		return &UnknownKeyError{Key: key}
	}
	start = dateOnly(start)
	if n := len(entries); n > 0 && !start.After(entries[n-1].start) {
		return &DateOrderError{Key: key, Last: entries[n-1].start, Start: start}
	}
	t.columns[key] = append(entries, entry[V]{start: start, value: value})
	return nil
}

// Lookup returns the value whose effective range contains date.
// The range is inclusive of the entry's own start and exclusive of the
// next entry's start; the last entry extends indefinitely (schedules
// persist until superseded). Dates before the first entry fail with
// DateOutOfRangeError.
func (t *Table[K, V]) Lookup(key K, date time.Time) (V, error) {
	var zero V
	entries, ok := t.columns[key]
	if !ok {
		return zero, &UnknownKeyError{Key: key}
	}
	date = dateOnly(date)
	if len(entries) == 0 || date.Before(entries[0].start) {
		oor := &DateOutOfRangeError{Key: key, Date: date}
		if len(entries) > 0 {
			oor.First = entries[0].start
		}
		return zero, oor
	}
	// Last entry whose start is on or before date.
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].start.After(date)
	})
	return entries[i-1].value, nil
}

// Keys returns all registered keys in unspecified order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, len(t.columns))
	for k := range t.columns {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries appended for key.
func (t *Table[K, V]) Len(key K) int {
	return len(t.columns[key])
}

// Walk visits every entry of every key in ascending start order per
// key. Key order is unspecified.
func (t *Table[K, V]) Walk(fn func(key K, start time.Time, value V)) {
	for key, entries := range t.columns {
		for _, e := range entries {
			fn(key, e.start, e.value)
		}
	}
}

// dateOnly truncates to midnight UTC so ranges compare by calendar day.
func dateOnly(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
