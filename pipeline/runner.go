/*
Package pipeline orchestrates one full batch run.

PURPOSE:
  Drives the stages in order: load the two rate schedules → ingest shift
  rows into the job hierarchy → price and roll up each job → aggregate
  receipts. Each run is a complete recomputation from the input sources;
  no state persists between runs.

FAILURE SCOPES:
  - Schedule loading or an unreadable row source aborts the run.
  - A failed rate/percentage lookup abandons ONE job (it yields an Err
    result and no report output); other jobs complete normally.
  - Bad individual rows are skipped during ingestion.
  All recovered failures accumulate in the Diagnostics and are surfaced
  once in the finished RunReport.

CONCURRENCY:
  Ingestion is single-threaded (it mutates shared maps). After
  ingestion, jobs share no mutable state, so calculation and rollup fan
  out per job via errgroup; the two tables are read-only by then.
*/
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/materials"
)

// =============================================================================
// RUNNER
// =============================================================================

// Sources bundles the input collaborators of one run. Receipts may be
// nil when no materials report is wanted.
type Sources struct {
	Rates    labor.RateSource
	Shifts   labor.ShiftSource
	Receipts materials.ReceiptSource
}

// RunReport is the outcome of one batch run: the computed per-job
// trees (or per-job errors), the optional materials report, and the
// accumulated diagnostics.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Jobs        []labor.JobResult
	Materials   *materials.Report
	Diagnostics []string
}

// Failed returns the addresses of jobs that produced no report.
func (r *RunReport) Failed() []string {
	var out []string
	for _, res := range r.Jobs {
		if res.Err != nil {
			out = append(out, res.Job.Address)
		}
	}
	return out
}

// Runner executes batch runs against a fixed set of sources.
type Runner struct {
	cfg *Config
	log *slog.Logger
	src Sources
}

func NewRunner(cfg *Config, log *slog.Logger, src Sources) *Runner {
	return &Runner{cfg: cfg, log: log, src: src}
}

// Run performs one full batch recomputation.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	diag := labor.NewDiagnostics()
	log := r.log.With("run_id", report.RunID)

	log.Info("loading rate schedules")
	salaries, err := r.src.Rates.SalarySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading salary schedule: %w", err)
	}
	classes, err := r.src.Rates.ClassSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading class schedule: %w", err)
	}

	log.Info("ingesting shift rows")
	builder := labor.NewBuilder(diag)
	if err := builder.Ingest(ctx, r.src.Shifts); err != nil {
		return nil, err
	}
	jobs := builder.Jobs()
	log.Info("hierarchy built", "jobs", len(jobs))

	log.Info("calculating reports")
	calc := labor.NewCalculator(salaries, classes, r.cfg.TaxFraction())
	report.Jobs = make([]labor.JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Jobs[i] = labor.JobResult{Job: job, Err: calc.Run(job, diag)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.src.Receipts != nil {
		log.Info("aggregating receipts")
		report.Materials, err = materials.BuildReport(ctx, r.src.Receipts, diag)
		if err != nil {
			return nil, err
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		log.Warn("jobs abandoned", "addresses", failed)
	}
	diag.Add("run %s complete: %d jobs, %d abandoned", report.RunID, len(jobs), len(report.Failed()))
	report.Diagnostics = diag.Lines()
	report.FinishedAt = time.Now()
	log.Info("run complete", "jobs", len(jobs), "abandoned", len(report.Failed()))
	return report, nil
}
