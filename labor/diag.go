package labor

import (
	"fmt"
	"strings"
	"sync"
)

// =============================================================================
// DIAGNOSTICS - explicit accumulator for human-readable run notes
// =============================================================================

// Diagnostics collects human-readable lines (row skipped, calculation
// failure, completion) across one run. It is threaded explicitly through
// each stage rather than held as ambient state, and surfaced once at the
// end so callers can display a complete summary.
//
// Safe for concurrent use: the per-job calculation fan-out records
// failures from multiple goroutines.
type Diagnostics struct {
	mu    sync.Mutex
	lines []string
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Add records one formatted line.
func (d *Diagnostics) Add(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of everything recorded so far, in order.
func (d *Diagnostics) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Summary joins all lines for a single end-of-run display.
func (d *Diagnostics) Summary() string {
	return strings.Join(d.Lines(), "\n")
}
