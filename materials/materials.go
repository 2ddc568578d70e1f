/*
Package materials aggregates purchase receipts into weekly vendor reports.

PURPOSE:
  The second, structurally similar pipeline next to labor: flat receipt
  rows (address, vendor, date, amount) are grouped into week-ending
  buckets, ordered for rendering, and rolled up per address and vendor
  with synthetic "Total" rows - the same bucket/rollup pattern as the
  labor package on a flat two-level grouping.

ROW HANDLING:
  Row-level parse failures are recorded in the shared labor.Diagnostics
  accumulator and skipped; a failing source aborts the batch, matching
  the labor pipeline's failure scopes.
*/
package materials

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/labor"
)

// ErrMalformedAmount is returned when a receipt's amount text is not
// numeric.
var ErrMalformedAmount = errors.New("malformed amount")

// =============================================================================
// MODEL
// =============================================================================

// RawReceipt is one flat input tuple before parsing. Dates use the same
// fixed day-month-year layout as shift rows; the amount stays text until
// parse so a bad value skips the row instead of failing the batch.
type RawReceipt struct {
	Address        string
	Vendor         string
	DateText       string
	AmountText     string
	WeekEndingText string

	Row int // 1-based source row for diagnostics, 0 if unknown
}

// Receipt is one parsed purchase.
type Receipt struct {
	Address string
	Vendor  string
	Date    time.Time
	Amount  decimal.Decimal
}

// ReceiptSource supplies the raw receipt rows of one run. A returned
// error is batch-fatal.
type ReceiptSource interface {
	Receipts(ctx context.Context) ([]RawReceipt, error)
}

// TotalRow is the synthetic vendor key summing all vendors of an address.
const TotalRow = "Total"

// WeekBucket holds one week-ending date's receipts, ordered by
// (address, vendor, date, amount), plus per-address vendor totals.
type WeekBucket struct {
	Ending   time.Time
	Receipts []Receipt

	// VendorTotals maps address → vendor → summed amount, with a
	// synthetic TotalRow entry per address.
	VendorTotals map[string]map[string]decimal.Decimal
}

// Report is the full materials rollup, weeks ordered newest first.
type Report struct {
	Weeks []*WeekBucket
}

// =============================================================================
// BUILD
// =============================================================================

// BuildReport drains src into weekly buckets and rolls them up.
func BuildReport(ctx context.Context, src ReceiptSource, diag *labor.Diagnostics) (*Report, error) {
	rows, err := src.Receipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading receipt rows: %w", err)
	}

	buckets := make(map[time.Time]*WeekBucket)
	for _, raw := range rows {
		receipt, ending, err := parse(raw)
		if err != nil {
			diag.Add("skipped %v", err)
			continue
		}
		b, ok := buckets[ending]
		if !ok {
			b = &WeekBucket{Ending: ending}
			buckets[ending] = b
		}
		b.Receipts = append(b.Receipts, receipt)
	}

	report := &Report{}
	for _, b := range buckets {
		b.rollup()
		report.Weeks = append(report.Weeks, b)
	}
	sort.Slice(report.Weeks, func(i, j int) bool {
		return report.Weeks[i].Ending.After(report.Weeks[j].Ending)
	})
	return report, nil
}

func parse(raw RawReceipt) (Receipt, time.Time, error) {
	if raw.Address == "" || raw.Vendor == "" {
		return Receipt{}, time.Time{}, &labor.RowError{Row: raw.Row, Err: fmt.Errorf("%w: missing address or vendor", labor.ErrInvalidRow)}
	}
	date, err := time.Parse(labor.DateLayout, raw.DateText)
	if err != nil {
		return Receipt{}, time.Time{}, &labor.RowError{Row: raw.Row, Err: fmt.Errorf("%w: %q", labor.ErrMalformedDate, raw.DateText)}
	}
	ending, err := time.Parse(labor.DateLayout, raw.WeekEndingText)
	if err != nil {
		return Receipt{}, time.Time{}, &labor.RowError{Row: raw.Row, Err: fmt.Errorf("%w: week ending %q", labor.ErrMalformedDate, raw.WeekEndingText)}
	}
	amount, err := decimal.NewFromString(raw.AmountText)
	if err != nil {
		return Receipt{}, time.Time{}, &labor.RowError{Row: raw.Row, Err: fmt.Errorf("%w: amount %q", ErrMalformedAmount, raw.AmountText)}
	}
	return Receipt{
		Address: raw.Address,
		Vendor:  raw.Vendor,
		Date:    date,
		Amount:  amount,
	}, ending, nil
}

func (b *WeekBucket) rollup() {
	sort.Slice(b.Receipts, func(i, j int) bool {
		a, z := b.Receipts[i], b.Receipts[j]
		if a.Address != z.Address {
			return a.Address < z.Address
		}
		if a.Vendor != z.Vendor {
			return a.Vendor < z.Vendor
		}
		if !a.Date.Equal(z.Date) {
			return a.Date.Before(z.Date)
		}
		return a.Amount.LessThan(z.Amount)
	})

	b.VendorTotals = make(map[string]map[string]decimal.Decimal)
	for _, r := range b.Receipts {
		vendors, ok := b.VendorTotals[r.Address]
		if !ok {
			vendors = make(map[string]decimal.Decimal)
			b.VendorTotals[r.Address] = vendors
		}
		vendors[r.Vendor] = vendors[r.Vendor].Add(r.Amount)
	}
	for _, vendors := range b.VendorTotals {
		var sum decimal.Decimal
		for _, amount := range vendors {
			sum = sum.Add(amount)
		}
		vendors[TotalRow] = sum
	}
}
