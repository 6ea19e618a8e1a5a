package solver

// Status is returned by every driver's Solve method. The source declared
// a StatusCode return but had ExplicitSteady's early-exit path return
// void (§9 Open Questions); this repo normalises all three drivers to
// always return a Status, so callers never have to guess which path a
// given solve took.
type Status int

const (
	// OK means the outer convergence tolerance was reached.
	OK Status = iota
	// IterationCapStatus means the outer iteration cap was reached
	// before convergence; U holds the best state reached. Not an error.
	IterationCapStatus
	// NumericalFailure means the solve was aborted with an error.
	// ImplicitSteady returns it after two consecutive Numerical failures
	// in preconditioner setup or the inner solve (§7), after a
	// non-Numerical error from either, on a NaN/Inf residual, and when
	// divergence control trips; ExplicitUnsteady returns it on an invalid
	// global step or a NaN/Inf state.
	NumericalFailure
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case IterationCapStatus:
		return "IterationCapReached"
	case NumericalFailure:
		return "NumericalFailure"
	default:
		return "Unknown"
	}
}
