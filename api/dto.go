/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the computed report tree from the external API contract: decimals are
  rendered as fixed two-decimal strings, never floats, so clients see
  exactly the figures the reports carry.

NAMING CONVENTION:
  - *DTO: Response types returned to clients

TYPES:
  Runs:   RunDTO
  Jobs:   JobSummaryDTO, JobDTO, WeekDTO, ShiftDTO, DayTotalDTO,
          TaskRowDTO, FiguresDTO

SEE ALSO:
  - handlers.go: Uses these types
  - labor/types.go: The tree being projected
*/
package api

import (
	"sort"
	"time"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/pipeline"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RunDTO summarizes one batch run.
type RunDTO struct {
	RunID       string   `json:"run_id"`
	StartedAt   string   `json:"started_at"`
	FinishedAt  string   `json:"finished_at"`
	Jobs        int      `json:"jobs"`
	Abandoned   []string `json:"abandoned"`
	Diagnostics []string `json:"diagnostics"`
}

// JobSummaryDTO is one job's line in the run listing.
type JobSummaryDTO struct {
	Address string `json:"address"`
	Weeks   int    `json:"weeks"`
	Hours   string `json:"hours,omitempty"`
	Overall string `json:"overall,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FiguresDTO carries one rollup 4-tuple as fixed-point strings.
type FiguresDTO struct {
	Hours  string `json:"hours"`
	Amount string `json:"amount"`
	Charge string `json:"charge"`
	Tax    string `json:"tax"`
}

// ShiftDTO is one priced shift row.
type ShiftDTO struct {
	Date       string `json:"date"`
	Worker     string `json:"worker"`
	Task       string `json:"task"`
	Class      string `json:"class"`
	Hours      string `json:"hours"`
	Multiplier string `json:"multiplier"`
	Amount     string `json:"amount"`
	Charge     string `json:"charge"`
	Tax        string `json:"tax"`
}

// DayTotalDTO is one day's totals within a week.
type DayTotalDTO struct {
	Day     int        `json:"day"`
	Figures FiguresDTO `json:"figures"`
}

// TaskRowDTO is one (task, worker) cell of a task-totals block. The
// synthetic "Total" worker row sums the named workers of the task.
type TaskRowDTO struct {
	Task   string `json:"task"`
	Worker string `json:"worker"`
	Hours  string `json:"hours"`
	Total  string `json:"total"`
}

// WeekDTO is one ISO-week section of a job report, shifts date-ordered.
type WeekDTO struct {
	Week        int           `json:"week"`
	Year        int           `json:"year"`
	Month       string        `json:"month"`
	WeekOfMonth int           `json:"week_of_month"`
	Shifts      []ShiftDTO    `json:"shifts"`
	DayTotals   []DayTotalDTO `json:"day_totals"`
	WeekTotal   FiguresDTO    `json:"week_total"`
	TaskTotals  []TaskRowDTO  `json:"task_totals"`
}

// JobDTO is the full computed report of one job, weeks newest first.
type JobDTO struct {
	Address    string       `json:"address"`
	Weeks      []WeekDTO    `json:"weeks"`
	Totals     FiguresDTO   `json:"totals"`
	Overall    string       `json:"overall"`
	TaskTotals []TaskRowDTO `json:"task_totals"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRunDTO(r *pipeline.RunReport) RunDTO {
	abandoned := r.Failed()
	if abandoned == nil {
		abandoned = []string{}
	}
	return RunDTO{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt.Format(time.RFC3339),
		FinishedAt:  r.FinishedAt.Format(time.RFC3339),
		Jobs:        len(r.Jobs),
		Abandoned:   abandoned,
		Diagnostics: r.Diagnostics,
	}
}

func toJobSummaryDTO(res labor.JobResult) JobSummaryDTO {
	dto := JobSummaryDTO{
		Address: res.Job.Address,
		Weeks:   len(res.Job.Weeks),
	}
	if res.Err != nil {
		dto.Error = res.Err.Error()
		return dto
	}
	dto.Hours = res.Job.Totals.Hours.String()
	dto.Overall = res.Job.Overall.StringFixed(2)
	return dto
}

func toFiguresDTO(f labor.Figures) FiguresDTO {
	return FiguresDTO{
		Hours:  f.Hours.String(),
		Amount: f.Amount.StringFixed(2),
		Charge: f.Charge.StringFixed(2),
		Tax:    f.Tax.StringFixed(2),
	}
}

func toJobDTO(job *labor.Job) JobDTO {
	dto := JobDTO{
		Address:    job.Address,
		Weeks:      make([]WeekDTO, 0, len(job.Weeks)),
		Totals:     toFiguresDTO(job.Totals),
		Overall:    job.Overall.StringFixed(2),
		TaskTotals: toTaskRowDTOs(job.TaskTotals),
	}
	for _, week := range job.WeeksNewestFirst() {
		dto.Weeks = append(dto.Weeks, toWeekDTO(week))
	}
	return dto
}

func toWeekDTO(week *labor.Week) WeekDTO {
	dto := WeekDTO{
		Week:        week.Week,
		Year:        week.Year,
		Month:       week.Month,
		WeekOfMonth: week.WeekOfMonth,
		Shifts:      make([]ShiftDTO, 0, len(week.Shifts)),
		WeekTotal:   toFiguresDTO(week.DayTotals[labor.WeekTotalDay]),
		TaskTotals:  toTaskRowDTOs(week.TaskTotals),
	}
	for _, s := range week.ShiftsByDate() {
		dto.Shifts = append(dto.Shifts, ShiftDTO{
			Date:       s.Date.Format(labor.DateLayout),
			Worker:     s.Worker,
			Task:       s.Task,
			Class:      s.Class,
			Hours:      s.Hours.String(),
			Multiplier: s.Multiplier.String(),
			Amount:     s.Amount.StringFixed(2),
			Charge:     s.Charge.StringFixed(2),
			Tax:        s.Tax.StringFixed(2),
		})
	}
	for _, day := range week.Days() {
		dto.DayTotals = append(dto.DayTotals, DayTotalDTO{
			Day:     day,
			Figures: toFiguresDTO(week.DayTotals[day]),
		})
	}
	return dto
}

// toTaskRowDTOs flattens the task → worker map with tasks and workers
// in alphabetical order and the synthetic total row last per task.
func toTaskRowDTOs(totals map[string]map[string]labor.TaskCell) []TaskRowDTO {
	tasks := make([]string, 0, len(totals))
	for task := range totals {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)

	var rows []TaskRowDTO
	for _, task := range tasks {
		workers := make([]string, 0, len(totals[task]))
		for worker := range totals[task] {
			if worker != labor.TaskTotalRow {
				workers = append(workers, worker)
			}
		}
		sort.Strings(workers)
		if _, ok := totals[task][labor.TaskTotalRow]; ok {
			workers = append(workers, labor.TaskTotalRow)
		}
		for _, worker := range workers {
			cell := totals[task][worker]
			rows = append(rows, TaskRowDTO{
				Task:   task,
				Worker: worker,
				Hours:  cell.Hours.String(),
				Total:  cell.Total.StringFixed(2),
			})
		}
	}
	return rows
}
