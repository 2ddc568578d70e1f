package labor

import "github.com/shopspring/decimal"

// =============================================================================
// MONEY - cent truncation rule and 4-tuple of rollup figures
// =============================================================================

// round2 truncates toward zero at the cent: floor(x*100)/100 for
// non-negative x. This is truncation, NOT standard rounding, and must be
// preserved exactly for numeric parity with historical reports.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

// Figures is the 4-tuple rolled up at day, week, and job scope.
type Figures struct {
	Amount decimal.Decimal
	Hours  decimal.Decimal
	Charge decimal.Decimal
	Tax    decimal.Decimal
}

func (f Figures) Add(o Figures) Figures {
	return Figures{
		Amount: f.Amount.Add(o.Amount),
		Hours:  f.Hours.Add(o.Hours),
		Charge: f.Charge.Add(o.Charge),
		Tax:    f.Tax.Add(o.Tax),
	}
}

// Truncate applies the cent rule elementwise. Aggregation is
// total-then-truncate: exact figures are summed first and truncated once
// at the aggregate, never per shift.
func (f Figures) Truncate() Figures {
	return Figures{
		Amount: round2(f.Amount),
		Hours:  round2(f.Hours),
		Charge: round2(f.Charge),
		Tax:    round2(f.Tax),
	}
}

// Overall is the scalar amount + charge + tax (hours excluded).
func (f Figures) Overall() decimal.Decimal {
	return f.Amount.Add(f.Charge).Add(f.Tax)
}
