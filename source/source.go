/*
Package source provides CSV-file-backed implementations of the pipeline
source interfaces for the command line.

PURPOSE:

	Reads shift rows, the two rate schedules, and receipt rows from plain
	CSV files and serves them through labor.ShiftSource, labor.RateSource,
	and materials.ReceiptSource. Shift and receipt files are row data:
	a cell that fails to parse leaves a marker value in the raw tuple so
	the downstream validator skips that row and records it, while the rest
	of the batch continues. Schedule files are structural input and fail
	the whole load on any malformed cell.

FILE FORMATS:

	Shifts:    header worker,address,date,task,hours,class[,multiplier]
	Receipts:  header address,vendor,date,amount,week_ending
	Schedules: first header cell is a label, remaining cells are keys
	           (worker identities or wage-class codes); each following
	           row is an effective date (02-Jan-2006) and one value per
	           key, blank meaning no change for that key on that date.

	Header columns match by name, not position. Blank lines and lines
	whose cells all start with '#' are ignored.

USAGE:

	files := source.Files{
	    ShiftsFile:   "shifts.csv",
	    Salaries:     "salaries.csv",
	    Classes:      "classes.csv",
	    ReceiptsFile: "receipts.csv", // optional
	}
	runner := pipeline.NewRunner(cfg, log, pipeline.Sources{
	    Rates: files, Shifts: files, Receipts: files,
	})

SEE ALSO:
  - labor/ingest.go: Source contracts served here
  - store/sqlite/sqlite.go: The database-backed counterpart
*/
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/materials"
)

// badHours marks an hours cell that failed to parse. The value fails
// the row validator downstream, turning the bad cell into a recorded
// row skip instead of a batch failure.
const badHours = -1

// Files implements the pipeline source interfaces over CSV files.
type Files struct {
	ShiftsFile   string
	Salaries     string
	Classes      string
	ReceiptsFile string
}

// =============================================================================
// ROW SOURCES
// =============================================================================

// Shifts reads the shift file into raw tuples in file order. Cell-level
// problems are left for the row validator; only an unreadable or
// structurally broken file is an error here.
func (f Files) Shifts(ctx context.Context) ([]labor.RawShift, error) {
	records, err := readRecords(f.ShiftsFile)
	if err != nil {
		return nil, err
	}
	cols, err := headerIndex(records[0], []string{"worker", "address", "date", "task", "hours", "class"}, []string{"multiplier"})
	if err != nil {
		return nil, fmt.Errorf("shift file %s: %w", f.ShiftsFile, err)
	}

	out := make([]labor.RawShift, 0, len(records)-1)
	for _, rec := range records[1:] {
		raw := labor.RawShift{
			Worker:         cell(rec.fields, cols["worker"]),
			Address:        cell(rec.fields, cols["address"]),
			DateText:       cell(rec.fields, cols["date"]),
			Task:           cell(rec.fields, cols["task"]),
			Class:          cell(rec.fields, cols["class"]),
			MultiplierText: cell(rec.fields, cols["multiplier"]),
			Row:            rec.line,
		}
		raw.Hours = badHours
		if text := cell(rec.fields, cols["hours"]); text != "" {
			if hours, err := strconv.ParseFloat(text, 64); err == nil {
				raw.Hours = hours
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

// Receipts reads the receipt file into raw tuples in file order.
// Returns nil when no receipt file is configured.
func (f Files) Receipts(ctx context.Context) ([]materials.RawReceipt, error) {
	if f.ReceiptsFile == "" {
		return nil, nil
	}
	records, err := readRecords(f.ReceiptsFile)
	if err != nil {
		return nil, err
	}
	cols, err := headerIndex(records[0], []string{"address", "vendor", "date", "amount", "week_ending"}, nil)
	if err != nil {
		return nil, fmt.Errorf("receipt file %s: %w", f.ReceiptsFile, err)
	}

	out := make([]materials.RawReceipt, 0, len(records)-1)
	for _, rec := range records[1:] {
		out = append(out, materials.RawReceipt{
			Address:        cell(rec.fields, cols["address"]),
			Vendor:         cell(rec.fields, cols["vendor"]),
			DateText:       cell(rec.fields, cols["date"]),
			AmountText:     cell(rec.fields, cols["amount"]),
			WeekEndingText: cell(rec.fields, cols["week_ending"]),
			Row:            rec.line,
		})
	}
	return out, nil
}

// =============================================================================
// CSV PLUMBING
// =============================================================================

// record keeps the original 1-based file line for diagnostics.
type record struct {
	line   int
	fields []string
}

// readRecords loads a CSV file, dropping blank and comment lines. The
// first returned record is always the header; a file without one is an
// error.
func readRecords(path string) ([]record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var out []record
	line := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		line++
		if blank(fields) {
			continue
		}
		out = append(out, record{line: line, fields: fields})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("reading %s: missing header row", path)
	}
	return out, nil
}

// headerIndex maps lower-cased column names to their positions.
// Required columns must all be present; optional ones map to -1 when
// absent.
func headerIndex(header record, required, optional []string) (map[string]int, error) {
	cols := make(map[string]int, len(required)+len(optional))
	for _, name := range required {
		cols[name] = -1
	}
	for _, name := range optional {
		cols[name] = -1
	}
	for i, name := range header.fields {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, wanted := cols[name]; wanted {
			cols[name] = i
		}
	}
	for _, name := range required {
		if cols[name] < 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func blank(fields []string) bool {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" && !strings.HasPrefix(f, "#") {
			return false
		}
	}
	return true
}
