/*
ingest.go - Hierarchy builder: flat rows in, Job → Week → Shift tree out

PURPOSE:
  Consumes raw field tuples from a ShiftSource and groups them into the
  job/week hierarchy, merging exact duplicate shifts. Each row is
  validated, dated, and routed; any row-level failure is recorded in the
  Diagnostics accumulator and the batch continues. Only a failing source
  aborts ingestion.

ROW FORMAT:
  worker, address, date text (02-Jan-2006), task, hours, wage class,
  optional multiplier text (empty = 1.0).

CONCURRENCY:
  Ingestion mutates shared maps and must stay single-threaded. The
  resulting jobs share no mutable state with each other, so calculation
  and rollup may fan out per job afterwards.

SEE ALSO:
  - types.go: The buckets built here
  - calc.go: Pricing of the built tree
*/
package labor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/temporal"
)

// DateLayout is the fixed day-month-year format of row dates,
// e.g. "01-Mar-2021".
const DateLayout = "02-Jan-2006"

// =============================================================================
// SOURCE CONTRACTS
// =============================================================================

// RawShift is one flat input tuple before parsing.
type RawShift struct {
	Worker         string  `validate:"required"`
	Address        string  `validate:"required"`
	DateText       string  `validate:"required"`
	Task           string  `validate:"required"`
	Hours          float64 `validate:"gte=0"`
	Class          string  `validate:"required"`
	MultiplierText string  // empty defaults to 1.0

	Row int // 1-based source row for diagnostics, 0 if unknown
}

// ShiftSource supplies the ordered raw rows of one run. A returned error
// is batch-fatal: nothing downstream is produced.
type ShiftSource interface {
	Shifts(ctx context.Context) ([]RawShift, error)
}

// RateSource supplies the two effective-dated schedules. Loaders fail
// explicitly (duplicate key, misordered date) rather than deliver a
// table violating the schedule invariants.
type RateSource interface {
	// SalarySchedule is keyed by worker identity, values are hourly rates.
	SalarySchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error)

	// ClassSchedule is keyed by wage-class code, values are compensation
	// percentages as fractions (0.10 = 10%).
	ClassSchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error)
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder accumulates rows into the job hierarchy.
type Builder struct {
	jobs     []*Job // insertion order
	index    map[string]*Job
	validate *validator.Validate
	diag     *Diagnostics
}

func NewBuilder(diag *Diagnostics) *Builder {
	return &Builder{
		index:    make(map[string]*Job),
		validate: validator.New(),
		diag:     diag,
	}
}

// Ingest drains src. Row-level failures are recorded and skipped; a
// source failure aborts the batch.
func (b *Builder) Ingest(ctx context.Context, src ShiftSource) error {
	rows, err := src.Shifts(ctx)
	if err != nil {
		return fmt.Errorf("reading shift rows: %w", err)
	}
	for _, raw := range rows {
		if err := b.Add(raw); err != nil {
			b.diag.Add("skipped %v", err)
		}
	}
	return nil
}

// Add routes one raw row into the hierarchy. The returned error is
// always row-scoped; callers decide whether to record it.
func (b *Builder) Add(raw RawShift) error {
	if err := b.validate.Struct(raw); err != nil {
		return &RowError{Row: raw.Row, Err: fmt.Errorf("%w: %v", ErrInvalidRow, err)}
	}

	date, err := time.Parse(DateLayout, raw.DateText)
	if err != nil {
		return &RowError{Row: raw.Row, Err: fmt.Errorf("%w: %q", ErrMalformedDate, raw.DateText)}
	}

	multiplier := decimal.NewFromInt(1)
	if raw.MultiplierText != "" {
		multiplier, err = decimal.NewFromString(raw.MultiplierText)
		if err != nil {
			return &RowError{Row: raw.Row, Err: fmt.Errorf("%w: %q", ErrMalformedMultiplier, raw.MultiplierText)}
		}
	}

	job := b.job(raw.Address)
	year, week := date.ISOWeek()
	bucket := job.week(
		WeekKey{Week: week, Year: year},
		date.Format("Jan"),
		alignedWeekOfMonth(date),
	)

	bucket.resolve(&Shift{
		Day:        date.Day(),
		Date:       date,
		Worker:     raw.Worker,
		Task:       raw.Task,
		Hours:      decimal.NewFromFloat(raw.Hours),
		Class:      raw.Class,
		Multiplier: multiplier,
	})
	return nil
}

// Jobs returns the built hierarchy in first-seen order.
func (b *Builder) Jobs() []*Job {
	return b.jobs
}

func (b *Builder) job(address string) *Job {
	if j, ok := b.index[address]; ok {
		return j
	}
	j := newJob(address)
	b.jobs = append(b.jobs, j)
	b.index[address] = j
	return j
}

// alignedWeekOfMonth counts 7-day blocks from the 1st: days 1-7 are
// week 1, 8-14 week 2, and so on. Presentation only.
func alignedWeekOfMonth(d time.Time) int {
	return (d.Day()-1)/7 + 1
}
