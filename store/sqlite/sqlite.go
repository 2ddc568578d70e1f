/*
Package sqlite provides a SQLite-backed implementation of the pipeline
source interfaces.

PURPOSE:
  Holds the three inputs of a run - shift rows, the two rate schedules,
  and receipt rows - in one database, and serves them through
  labor.ShiftSource, labor.RateSource, and materials.ReceiptSource.
  The schedule loaders build temporal tables directly, so malformed
  schedule data (duplicate worker, misordered effective dates) fails
  the load explicitly rather than surfacing later as wrong numbers.

KEY TABLES:
  shifts:       Raw shift rows in source order
  salary_rates: (worker, effective_from, rate), one row per rate change
  class_rates:  (class, effective_from, rate), percentages as fractions
  receipts:     Raw receipt rows with their week-ending date

DATES:
  Shift and receipt dates keep the pipeline's day-month-year text form
  (02-Jan-2006) and are parsed during ingestion, preserving row-level
  skip behavior for bad values. Schedule effective dates are stored as
  ISO text (2006-01-02) and must be valid: a schedule is structural
  input, not row data.

USAGE:
  store, err := sqlite.New("./labor.db")
  if err != nil { ... }
  defer store.Close()
  runner := pipeline.NewRunner(cfg, log, pipeline.Sources{
      Rates: store, Shifts: store, Receipts: store,
  })

SEE ALSO:
  - labor/ingest.go: Source contracts served here
  - temporal/table.go: Tables built by the schedule loaders
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/materials"
	"github.com/warp/labor-engine/temporal"
)

const isoDate = "2006-01-02"

// Store implements the pipeline source interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		worker     TEXT NOT NULL,
		address    TEXT NOT NULL,
		worked_on  TEXT NOT NULL,
		task       TEXT NOT NULL,
		hours      REAL NOT NULL,
		class      TEXT NOT NULL,
		multiplier TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS salary_rates (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		worker         TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		rate           TEXT NOT NULL,
		UNIQUE (worker, effective_from)
	);
	CREATE INDEX IF NOT EXISTS idx_salary_rates_worker_date
		ON salary_rates (worker, effective_from);

	CREATE TABLE IF NOT EXISTS class_rates (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		class          TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		rate           TEXT NOT NULL,
		UNIQUE (class, effective_from)
	);
	CREATE INDEX IF NOT EXISTS idx_class_rates_class_date
		ON class_rates (class, effective_from);

	CREATE TABLE IF NOT EXISTS receipts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		address     TEXT NOT NULL,
		vendor      TEXT NOT NULL,
		spent_on    TEXT NOT NULL,
		amount      TEXT NOT NULL,
		week_ending TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SOURCE IMPLEMENTATIONS
// =============================================================================

// Shifts returns the raw shift rows in insertion order.
func (s *Store) Shifts(ctx context.Context) ([]labor.RawShift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker, address, worked_on, task, hours, class, multiplier
		FROM shifts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying shifts: %w", err)
	}
	defer rows.Close()

	var out []labor.RawShift
	for rows.Next() {
		var r labor.RawShift
		if err := rows.Scan(&r.Row, &r.Worker, &r.Address, &r.DateText, &r.Task, &r.Hours, &r.Class, &r.MultiplierText); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SalarySchedule builds the pay-rate table keyed by worker identity.
func (s *Store) SalarySchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error) {
	return s.schedule(ctx, `
		SELECT worker, effective_from, rate
		FROM salary_rates ORDER BY worker, effective_from`)
}

// ClassSchedule builds the compensation-percentage table keyed by
// wage-class code. Values are fractions (0.10 = 10%).
func (s *Store) ClassSchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error) {
	return s.schedule(ctx, `
		SELECT class, effective_from, rate
		FROM class_rates ORDER BY class, effective_from`)
}

func (s *Store) schedule(ctx context.Context, query string) (*temporal.Table[string, decimal.Decimal], error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	tbl := temporal.New[string, decimal.Decimal]()
	for rows.Next() {
		var key, from, rate string
		if err := rows.Scan(&key, &from, &rate); err != nil {
			return nil, err
		}
		start, err := time.Parse(isoDate, from)
		if err != nil {
			return nil, fmt.Errorf("schedule date %q for key %q: %w", from, key, err)
		}
		value, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("schedule rate %q for key %q: %w", rate, key, err)
		}
		if tbl.Len(key) == 0 {
			if err := tbl.Register(key); err != nil {
				return nil, err
			}
		}
		if err := tbl.Append(key, value, start); err != nil {
			return nil, err
		}
	}
	return tbl, rows.Err()
}

// Receipts returns the raw receipt rows in insertion order.
func (s *Store) Receipts(ctx context.Context) ([]materials.RawReceipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, vendor, spent_on, amount, week_ending
		FROM receipts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying receipts: %w", err)
	}
	defer rows.Close()

	var out []materials.RawReceipt
	for rows.Next() {
		var r materials.RawReceipt
		if err := rows.Scan(&r.Row, &r.Address, &r.Vendor, &r.DateText, &r.AmountText, &r.WeekEndingText); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// SEED WRITES - used by the seed command and tests
// =============================================================================

// InsertShift appends one raw shift row.
func (s *Store) InsertShift(ctx context.Context, r labor.RawShift) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (worker, address, worked_on, task, hours, class, multiplier)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Worker, r.Address, r.DateText, r.Task, r.Hours, r.Class, r.MultiplierText)
	return err
}

// InsertSalaryRate records one pay-rate change for a worker.
func (s *Store) InsertSalaryRate(ctx context.Context, worker string, from time.Time, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_rates (worker, effective_from, rate) VALUES (?, ?, ?)`,
		worker, from.Format(isoDate), rate.String())
	return err
}

// InsertClassRate records one percentage change for a wage class.
func (s *Store) InsertClassRate(ctx context.Context, class string, from time.Time, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO class_rates (class, effective_from, rate) VALUES (?, ?, ?)`,
		class, from.Format(isoDate), rate.String())
	return err
}

// InsertReceipt appends one raw receipt row.
func (s *Store) InsertReceipt(ctx context.Context, r materials.RawReceipt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts (address, vendor, spent_on, amount, week_ending)
		VALUES (?, ?, ?, ?, ?)`,
		r.Address, r.Vendor, r.DateText, r.AmountText, r.WeekEndingText)
	return err
}
