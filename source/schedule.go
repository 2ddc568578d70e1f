/*
schedule.go - CSV schedule loaders for the two effective-dated tables

PURPOSE:

	Parses schedule files into temporal tables. A schedule file is laid
	out like the rate grid it came from: one column per key, one row per
	effective date, blank cells meaning no change for that key. Unlike
	shift rows, schedule cells are structural input: any malformed date
	or value, duplicate key column, or misordered date row fails the
	whole load.

SEE ALSO:
  - temporal/table.go: The tables built here
  - labor/calc.go: Consumer of the built tables
*/
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/temporal"
)

// SalarySchedule builds the pay-rate table keyed by worker identity
// from the salaries file.
func (f Files) SalarySchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error) {
	return loadSchedule(f.Salaries)
}

// ClassSchedule builds the compensation-percentage table keyed by
// wage-class code from the classes file. Values are fractions
// (0.10 = 10%).
func (f Files) ClassSchedule(ctx context.Context) (*temporal.Table[string, decimal.Decimal], error) {
	return loadSchedule(f.Classes)
}

func loadSchedule(path string) (*temporal.Table[string, decimal.Decimal], error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	// Header: label cell, then one key per column.
	keys := records[0].fields[1:]
	tbl := temporal.New[string, decimal.Decimal]()
	for i := range keys {
		keys[i] = cell(records[0].fields, i+1)
		if err := tbl.Register(keys[i]); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", path, err)
		}
	}

	for _, rec := range records[1:] {
		dateText := cell(rec.fields, 0)
		start, err := time.Parse(labor.DateLayout, dateText)
		if err != nil {
			return nil, fmt.Errorf("schedule %s line %d: effective date %q: %w", path, rec.line, dateText, err)
		}
		for i, key := range keys {
			text := cell(rec.fields, i+1)
			if text == "" {
				continue
			}
			value, err := decimal.NewFromString(text)
			if err != nil {
				return nil, fmt.Errorf("schedule %s line %d: value %q for %q: %w", path, rec.line, text, key, err)
			}
			if err := tbl.Append(key, value, start); err != nil {
				return nil, fmt.Errorf("schedule %s line %d: %w", path, rec.line, err)
			}
		}
	}
	return tbl, nil
}
