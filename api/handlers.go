/*
handlers.go - HTTP API handlers over the batch run results

PURPOSE:
  Exposes the report engine via a small REST API: trigger a batch run,
  then read the computed trees of the last completed run. The API holds
  exactly one run in memory; each trigger is a full recomputation that
  replaces it.

ENDPOINTS:
  Runs:
    POST   /api/runs                   Execute a batch run
    GET    /api/runs/last              Summary of the last run

  Jobs (from the last run):
    GET    /api/jobs                   List job summaries
    GET    /api/jobs/{address}         Full computed report of one job
    GET    /api/jobs/{address}/csv     Same report as a CSV document

  Materials (from the last run):
    GET    /api/materials/csv          Receipt rollup as a CSV document

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 404: No run yet, unknown address, no materials in the run
  - 409: The requested job was abandoned during calculation
  - 500: Run execution failure

CONCURRENCY:
  Triggering a run and reading results may interleave; the last-run
  pointer is guarded by a RWMutex. Readers always see a complete run,
  never one mid-flight.

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
  - pipeline/runner.go: The run being exposed
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/pipeline"
	"github.com/warp/labor-engine/report"
)

var (
	errNoRun      = errors.New("No completed run")
	errUnknownJob = errors.New("Job not found")
	errAbandoned  = errors.New("Job was abandoned during calculation")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the runner and the last completed run.
type Handler struct {
	runner *pipeline.Runner

	mu   sync.RWMutex
	last *pipeline.RunReport
}

// NewHandler creates a handler around the given runner.
func NewHandler(runner *pipeline.Runner) *Handler {
	return &Handler{runner: runner}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// TriggerRun executes one batch run and stores it as the last run.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Run failed", err)
		return
	}

	h.mu.Lock()
	h.last = run
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// LastRun returns the summary of the last completed run.
func (h *Handler) LastRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lastRun()
	if !ok {
		writeError(w, http.StatusNotFound, "No completed run", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// =============================================================================
// JOB HANDLERS
// =============================================================================

// ListJobs returns the job summaries of the last run.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lastRun()
	if !ok {
		writeError(w, http.StatusNotFound, "No completed run", nil)
		return
	}

	dtos := make([]JobSummaryDTO, len(run.Jobs))
	for i, res := range run.Jobs {
		dtos[i] = toJobSummaryDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetJob returns the full computed report of one job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	res, status, err := h.jobResult(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, status, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(res.Job))
}

// GetJobCSV renders one job's report as a CSV document.
func (h *Handler) GetJobCSV(w http.ResponseWriter, r *http.Request) {
	res, status, err := h.jobResult(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, status, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="job.csv"`)
	if err := report.WriteJobCSV(w, res.Job); err != nil {
		writeError(w, http.StatusInternalServerError, "Rendering failed", err)
	}
}

// GetMaterialsCSV renders the last run's receipt rollup as CSV.
func (h *Handler) GetMaterialsCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lastRun()
	if !ok {
		writeError(w, http.StatusNotFound, "No completed run", nil)
		return
	}
	if run.Materials == nil {
		writeError(w, http.StatusNotFound, "Run has no materials report", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="materials.csv"`)
	if err := report.WriteMaterialsCSV(w, run.Materials); err != nil {
		writeError(w, http.StatusInternalServerError, "Rendering failed", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) lastRun() (*pipeline.RunReport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.last != nil
}

// jobResult resolves one address within the last run. Abandoned jobs
// are addressable but carry no usable figures, hence 409.
func (h *Handler) jobResult(address string) (labor.JobResult, int, error) {
	run, ok := h.lastRun()
	if !ok {
		return labor.JobResult{}, http.StatusNotFound, errNoRun
	}
	for _, res := range run.Jobs {
		if res.Job.Address != address {
			continue
		}
		if res.Err != nil {
			return labor.JobResult{}, http.StatusConflict, errAbandoned
		}
		return res, http.StatusOK, nil
	}
	return labor.JobResult{}, http.StatusNotFound, errUnknownJob
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
