package solver

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Summary is the run-summary artifact named in §6 ("Persisted artifacts"):
// one whitespace-separated line appended to {logfile} per solve, modelled
// on fem/summary.go's Summary type (gob/json-encodable, written once per
// run rather than buffered in memory).
type Summary struct {
	Nelem        int     // number of cells
	Threads      int     // parallel.Workers used for this solve
	LinWalltime  float64 // seconds of wall-clock time spent in Krylov solves
	LinCputime   float64 // seconds of CPU time spent in Krylov solves (wall*threads, absent real per-thread accounting)
	AvgLinIters  float64 // mean inner (Krylov) iterations per outer step
	OuterIters   int     // outer steps taken
}

// Append appends one line "nelem threads lin_walltime lin_cputime
// avg_lin_iters outer_iters" to path. A missing path is a no-op: appending
// the run summary is optional hot-path I/O, disabled by default per the
// Design Notes.
func (s Summary) Append(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return chk.Err("solver: cannot open run-summary log %q:\n%v", path, err)
	}
	defer f.Close()
	line := io.Sf("%d %d %.6e %.6e %.6e %d\n",
		s.Nelem, s.Threads, s.LinWalltime, s.LinCputime, s.AvgLinIters, s.OuterIters)
	_, err = f.WriteString(line)
	if err != nil {
		return chk.Err("solver: cannot write run-summary log %q:\n%v", path, err)
	}
	return nil
}
