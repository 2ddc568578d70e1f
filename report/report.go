/*
Package report renders the computed trees as CSV documents.

PURPOSE:
  A read-only rendering boundary: it walks the priced Job → Week → Shift
  tree (and the materials week buckets) and writes one CSV document per
  job plus one for receipts. Nothing here computes; every number is taken
  from the rollup results and formatted at two decimal places.

LAYOUT (job document):
  Week sections newest first. Each section lists the shift rows in date
  order, then the per-day totals ascending with the whole-week total
  last, then the task totals with their synthetic "Total" rows. The
  document closes with the job totals and the overall figure.

SEE ALSO:
  - labor/rollup.go: Producer of the totals rendered here
  - materials/materials.go: Producer of the receipt rollup
*/
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/materials"
)

// money formats a figure at fixed two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// =============================================================================
// JOB DOCUMENT
// =============================================================================

// WriteJobCSV renders one priced job. The job must have been rolled up;
// an unpriced job renders zeros, it is the caller's responsibility to
// pass completed work.
func WriteJobCSV(w io.Writer, job *labor.Job) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Job", job.Address}); err != nil {
		return err
	}

	for _, week := range job.WeeksNewestFirst() {
		if err := writeWeek(writer, week); err != nil {
			return err
		}
	}

	records := [][]string{
		{},
		{"Job Totals", "Hours", "Amount", "Charge", "Tax"},
		{"", job.Totals.Hours.String(), money(job.Totals.Amount), money(job.Totals.Charge), money(job.Totals.Tax)},
		{"Overall", money(job.Overall)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := writeTaskTotals(writer, "Task Totals (All Weeks)", job.TaskTotals); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

func writeWeek(writer *csv.Writer, week *labor.Week) error {
	header := [][]string{
		{},
		{"Week", fmt.Sprintf("%d/%d", week.Week, week.Year), week.Month, fmt.Sprintf("week %d", week.WeekOfMonth)},
		{"Date", "Worker", "Task", "Class", "Hours", "Multiplier", "Amount", "Charge", "Tax"},
	}
	for _, record := range header {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, s := range week.ShiftsByDate() {
		if err := writer.Write([]string{
			s.Date.Format(labor.DateLayout),
			s.Worker,
			s.Task,
			s.Class,
			s.Hours.String(),
			s.Multiplier.String(),
			money(s.Amount),
			money(s.Charge),
			money(s.Tax),
		}); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{"Day", "Hours", "Amount", "Charge", "Tax"}); err != nil {
		return err
	}
	for _, day := range week.Days() {
		f := week.DayTotals[day]
		if err := writer.Write([]string{
			fmt.Sprintf("%d", day), f.Hours.String(), money(f.Amount), money(f.Charge), money(f.Tax),
		}); err != nil {
			return err
		}
	}
	total := week.DayTotals[labor.WeekTotalDay]
	if err := writer.Write([]string{
		"Week Total", total.Hours.String(), money(total.Amount), money(total.Charge), money(total.Tax),
	}); err != nil {
		return err
	}

	return writeTaskTotals(writer, "Task Totals", week.TaskTotals)
}

// writeTaskTotals renders task → worker cells, tasks and workers each in
// alphabetical order with the synthetic total row last per task.
func writeTaskTotals(writer *csv.Writer, title string, totals map[string]map[string]labor.TaskCell) error {
	header := [][]string{
		{title},
		{"Task", "Worker", "Hours", "Total"},
	}
	for _, record := range header {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	tasks := make([]string, 0, len(totals))
	for task := range totals {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)

	for _, task := range tasks {
		for _, worker := range workerOrder(totals[task]) {
			cell := totals[task][worker]
			if err := writer.Write([]string{
				task, worker, cell.Hours.String(), money(cell.Total),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func workerOrder(cells map[string]labor.TaskCell) []string {
	workers := make([]string, 0, len(cells))
	for worker := range cells {
		if worker != labor.TaskTotalRow {
			workers = append(workers, worker)
		}
	}
	sort.Strings(workers)
	if _, ok := cells[labor.TaskTotalRow]; ok {
		workers = append(workers, labor.TaskTotalRow)
	}
	return workers
}

// =============================================================================
// MATERIALS DOCUMENT
// =============================================================================

// WriteMaterialsCSV renders the receipt rollup, weeks newest first.
func WriteMaterialsCSV(w io.Writer, rep *materials.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	for _, bucket := range rep.Weeks {
		header := [][]string{
			{"Week Ending", bucket.Ending.Format(labor.DateLayout)},
			{"Address", "Vendor", "Date", "Amount"},
		}
		for _, record := range header {
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		for _, r := range bucket.Receipts {
			if err := writer.Write([]string{
				r.Address, r.Vendor, r.Date.Format(labor.DateLayout), money(r.Amount),
			}); err != nil {
				return err
			}
		}
		if err := writeVendorTotals(writer, bucket.VendorTotals); err != nil {
			return err
		}
		if err := writer.Write([]string{}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeVendorTotals(writer *csv.Writer, totals map[string]map[string]decimal.Decimal) error {
	if err := writer.Write([]string{"Vendor Totals"}); err != nil {
		return err
	}

	addresses := make([]string, 0, len(totals))
	for address := range totals {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		vendors := make([]string, 0, len(totals[address]))
		for vendor := range totals[address] {
			if vendor != materials.TotalRow {
				vendors = append(vendors, vendor)
			}
		}
		sort.Strings(vendors)
		vendors = append(vendors, materials.TotalRow)

		for _, vendor := range vendors {
			if err := writer.Write([]string{
				address, vendor, "", money(totals[address][vendor]),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
