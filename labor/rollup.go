/*
rollup.go - Bottom-up aggregation of priced shifts

PURPOSE:
  Walks the hierarchy from shifts upward:

  Per week:
    - Day totals: one Figures 4-tuple per distinct day of month.
    - Week total: the day tuples summed exactly, then cent-truncated
      ONCE at the aggregate (total-then-truncate, never sum of
      truncated), stored under the reserved WeekTotalDay key.
    - Task totals: per task, per worker, (hours, amount+charge+tax),
      plus a synthetic "Total" row per task summing the named workers.

  Per job:
    - Job total: elementwise sum of every week's sentinel tuple.
    - Overall: amount + charge + tax (hours excluded).
    - Job task totals: same structure as the week's, accumulated
      independently across all weeks of the job.

CORRECTNESS PROPERTY:
  Every rollup figure equals the arithmetic sum of its constituents
  under the cent rule above; see rollup_test.go.
*/
package labor

// Rollup computes all aggregate figures for the job. Call only after
// every shift has been priced.
func (j *Job) Rollup() {
	for _, w := range j.Weeks {
		w.rollup()
	}

	j.Totals = Figures{}
	for _, w := range j.Weeks {
		j.Totals = j.Totals.Add(w.DayTotals[WeekTotalDay])
	}
	j.Overall = j.Totals.Overall()

	j.TaskTotals = make(map[string]map[string]TaskCell)
	for _, w := range j.Weeks {
		for _, s := range w.Shifts {
			foldTask(j.TaskTotals, s)
		}
	}
	addTaskTotalRows(j.TaskTotals)
}

func (w *Week) rollup() {
	w.rollupDays()
	w.rollupTasks()
}

func (w *Week) rollupDays() {
	w.DayTotals = make(map[int]Figures)
	for _, s := range w.Shifts {
		w.DayTotals[s.Day] = w.DayTotals[s.Day].Add(Figures{
			Amount: s.Amount,
			Hours:  s.Hours,
			Charge: s.Charge,
			Tax:    s.Tax,
		})
	}

	var week Figures
	for day, totals := range w.DayTotals {
		if day == WeekTotalDay {
			continue
		}
		week = week.Add(totals)
	}
	w.DayTotals[WeekTotalDay] = week.Truncate()
}

func (w *Week) rollupTasks() {
	w.TaskTotals = make(map[string]map[string]TaskCell)
	for _, s := range w.Shifts {
		foldTask(w.TaskTotals, s)
	}
	addTaskTotalRows(w.TaskTotals)
}

func foldTask(totals map[string]map[string]TaskCell, s *Shift) {
	workers, ok := totals[s.Task]
	if !ok {
		workers = make(map[string]TaskCell)
		totals[s.Task] = workers
	}
	workers[s.Worker] = workers[s.Worker].add(TaskCell{
		Hours: s.Hours,
		Total: s.Amount.Add(s.Charge).Add(s.Tax),
	})
}

func addTaskTotalRows(totals map[string]map[string]TaskCell) {
	for _, workers := range totals {
		var sum TaskCell
		for _, cell := range workers {
			sum = sum.add(cell)
		}
		workers[TaskTotalRow] = sum
	}
}
