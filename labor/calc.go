/*
calc.go - Calculation engine

PURPOSE:
  Prices every shift of a job against the two effective-dated schedules:

    amount = rate(worker, date) * hours * multiplier
    charge = round2(amount * percentage(class, date))
    tax    = round2(amount * taxRate)

  The tax rate is a configurable parameter (historically 7.7%), not a
  hardcoded literal. Percentages are fractions (0.10 = 10%).

FAILURE MODE (preserved asymmetry):
  A failed rate or percentage lookup abandons the WHOLE job's
  calculation for the run - not just the shift - while ingestion skips
  individual bad rows. The result is explicit per job (JobResult with
  either a computed tree or an error), never exception-style control
  flow; the pipeline driver keeps going with other jobs.

ORDER INDEPENDENCE:
  Shifts are priced independently given the immutable tables, so jobs
  can be calculated in any order or in parallel.
*/
package labor

import (
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/temporal"
)

// DefaultTaxRate is the uniform tax fraction observed in historical
// reports. Override via Config/NewCalculator, not by editing this.
var DefaultTaxRate = decimal.NewFromFloat(0.077)

// Calculator prices shifts against immutable rate schedules.
type Calculator struct {
	salaries *temporal.Table[string, decimal.Decimal]
	classes  *temporal.Table[string, decimal.Decimal]
	taxRate  decimal.Decimal
}

// NewCalculator wires the two schedules and the tax fraction. Both
// tables must be fully built before the first call: construction
// strictly precedes calculation.
func NewCalculator(salaries, classes *temporal.Table[string, decimal.Decimal], taxRate decimal.Decimal) *Calculator {
	return &Calculator{salaries: salaries, classes: classes, taxRate: taxRate}
}

// CalculateJob prices every shift in every week of job. On the first
// failed lookup it stops and returns a CalcError naming the probable
// cause; the job's figures are then unusable for this run.
func (c *Calculator) CalculateJob(job *Job) error {
	for _, week := range job.Weeks {
		for _, shift := range week.Shifts {
			if err := c.price(job.Address, shift); err != nil {
				return err
			}
		}
	}
	return nil
}

// JobResult is one job's outcome for a run: a fully priced tree or the
// error that abandoned it. Failed jobs produce no report output but do
// not disturb other jobs.
type JobResult struct {
	Job *Job
	Err error
}

// Calculate prices and rolls up each job sequentially, recording
// failures in diag. The pipeline package provides a parallel variant.
func (c *Calculator) Calculate(jobs []*Job, diag *Diagnostics) []JobResult {
	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		results[i] = JobResult{Job: job, Err: c.Run(job, diag)}
	}
	return results
}

// Run prices one job and, on success, rolls it up. Failures are
// recorded in diag with the probable cause.
func (c *Calculator) Run(job *Job, diag *Diagnostics) error {
	if err := c.CalculateJob(job); err != nil {
		diag.Add("%v", err)
		diag.Add("it is probable that the identity is misspelled or missing from the schedule; job %q produced no report", job.Address)
		return err
	}
	job.Rollup()
	return nil
}

func (c *Calculator) price(address string, s *Shift) error {
	rate, err := c.salaries.Lookup(s.Worker, s.Date)
	if err != nil {
		return &CalcError{Address: address, Worker: s.Worker, Class: s.Class, Date: s.Date, Err: err}
	}
	pct, err := c.classes.Lookup(s.Class, s.Date)
	if err != nil {
		return &CalcError{Address: address, Worker: s.Worker, Class: s.Class, Date: s.Date, Err: err}
	}

	s.Amount = rate.Mul(s.Hours).Mul(s.Multiplier)
	s.Charge = round2(s.Amount.Mul(pct))
	s.Tax = round2(s.Amount.Mul(c.taxRate))
	return nil
}
