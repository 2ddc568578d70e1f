/*
Package labor turns flat shift rows into per-job financial reports.

PURPOSE:
  This package contains the core report pipeline: the shift record model,
  the hierarchy builder that groups rows into Job → Week → Day buckets
  while merging duplicates, the calculation engine that prices each shift
  against effective-dated rate schedules, and the rollup engine that
  produces day, week, job, and per-task totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: One worker's entry for one day on one job
  - Week: ISO-week bucket of shifts with computed day/task totals
  - Job: One client/address owning a set of weeks
  - ShiftKey/WeekKey: Immutable value keys used directly in maps

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money flows
  2. Value identity: buckets are resolved by composite value keys, not
     reference scans
  3. Ownership: a shift belongs to exactly one week, a week to exactly
     one job; the computed tree is read-only for renderers

IDENTITY QUIRK (preserved deliberately):
  Shift identity is (day, hours, class, worker, task). Date and
  multiplier are NOT part of identity, so two otherwise-identical rows
  entered under different multiplier contexts collapse to the first-seen
  row. This is the historical dedup policy and is kept for compatibility;
  do not "fix" it without product-owner review.

SEE ALSO:
  - ingest.go: Hierarchy builder consuming raw rows
  - calc.go: Calculation engine
  - rollup.go: Day/week/job/task totals
*/
package labor

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT - one activity record
// =============================================================================

// Shift is a single priced unit of work. Amount, Charge, and Tax are
// undefined until the calculation engine populates them.
type Shift struct {
	Day        int       // day of month, 1-31
	Date       time.Time // full date
	Worker     string
	Task       string
	Hours      decimal.Decimal // non-negative duration
	Class      string          // wage-class code
	Multiplier decimal.Decimal // pay multiplier, defaults to 1

	// Populated by the calculation engine.
	Amount decimal.Decimal // rate * hours * multiplier
	Charge decimal.Decimal // compensation withholding, cent-truncated
	Tax    decimal.Decimal // fixed-rate tax, cent-truncated
}

// ShiftKey is the shift's natural identity. Date and Multiplier are
// deliberately excluded (see the package comment). Hours is carried as
// its canonical decimal string so the key stays comparable.
type ShiftKey struct {
	Day    int
	Hours  string
	Class  string
	Worker string
	Task   string
}

// Key returns the value identity used for dedup within a week.
func (s *Shift) Key() ShiftKey {
	return ShiftKey{
		Day:    s.Day,
		Hours:  s.Hours.String(),
		Class:  s.Class,
		Worker: s.Worker,
		Task:   s.Task,
	}
}

// =============================================================================
// WEEK - ISO-week bucket
// =============================================================================

// WeekTotalDay is the reserved DayTotals key holding the whole-week
// total. Real days of month are 1-31, so 0 can never collide.
const WeekTotalDay = 0

// TaskTotalRow is the synthetic per-task worker row summing all named
// workers under that task.
const TaskTotalRow = "Total"

// TaskCell is one task-totals entry: hours worked and the combined
// amount + charge + tax.
type TaskCell struct {
	Hours decimal.Decimal
	Total decimal.Decimal
}

func (c TaskCell) add(o TaskCell) TaskCell {
	return TaskCell{Hours: c.Hours.Add(o.Hours), Total: c.Total.Add(o.Total)}
}

// WeekKey identifies a week by ISO week number and week-based year.
type WeekKey struct {
	Week int // ISO week of year
	Year int // ISO week-based year
}

// Week groups the shifts of one ISO week. Month and WeekOfMonth are
// presentation attributes only and take no part in identity.
type Week struct {
	WeekKey
	Month       string // e.g. "Mar"
	WeekOfMonth int    // aligned week of month, 1-based

	Shifts []*Shift // insertion order
	index  map[ShiftKey]*Shift

	// Populated by the rollup engine.
	DayTotals  map[int]Figures             // keyed by day of month; WeekTotalDay holds the week total
	TaskTotals map[string]map[string]TaskCell // task → worker → cell, plus TaskTotalRow
}

func newWeek(key WeekKey, month string, weekOfMonth int) *Week {
	return &Week{
		WeekKey:     key,
		Month:       month,
		WeekOfMonth: weekOfMonth,
		index:       make(map[ShiftKey]*Shift),
	}
}

// resolve returns the existing shift equal to s, or adds s and returns
// it. The incoming row is discarded on a hit: durations are never
// merged, the first-seen shift wins.
func (w *Week) resolve(s *Shift) *Shift {
	if existing, ok := w.index[s.Key()]; ok {
		return existing
	}
	w.Shifts = append(w.Shifts, s)
	w.index[s.Key()] = s
	return s
}

// ShiftsByDate returns the week's shifts ordered by date for rendering.
// The underlying insertion order is left untouched.
func (w *Week) ShiftsByDate() []*Shift {
	out := make([]*Shift, len(w.Shifts))
	copy(out, w.Shifts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Days returns the real days present in DayTotals in ascending order,
// excluding the reserved week-total sentinel.
func (w *Week) Days() []int {
	days := make([]int, 0, len(w.DayTotals))
	for d := range w.DayTotals {
		if d != WeekTotalDay {
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}

// =============================================================================
// JOB - one client/address
// =============================================================================

// Job owns every week recorded for one client address. Address matching
// is case-sensitive and exact.
type Job struct {
	Address string

	Weeks []*Week // insertion order
	index map[WeekKey]*Week

	// Populated by the rollup engine.
	TaskTotals map[string]map[string]TaskCell
	Totals     Figures         // elementwise sum of week totals
	Overall    decimal.Decimal // amount + charge + tax across the job
}

func newJob(address string) *Job {
	return &Job{Address: address, index: make(map[WeekKey]*Week)}
}

// week resolves or creates the bucket for key.
func (j *Job) week(key WeekKey, month string, weekOfMonth int) *Week {
	if w, ok := j.index[key]; ok {
		return w
	}
	w := newWeek(key, month, weekOfMonth)
	j.Weeks = append(j.Weeks, w)
	j.index[key] = w
	return w
}

// WeeksNewestFirst returns the job's weeks ordered most-recent-first,
// the order reports are rendered in.
func (j *Job) WeeksNewestFirst() []*Week {
	out := make([]*Week, len(j.Weeks))
	copy(out, j.Weeks)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Year != out[b].Year {
			return out[a].Year > out[b].Year
		}
		return out[a].Week > out[b].Week
	})
	return out
}
