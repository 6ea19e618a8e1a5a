// Package solver implements components D, E and F (§4.D-F): the explicit
// forward-Euler relaxation, the implicit backward-Euler pseudo-time method
// and the explicit TVD-RK integrator, plus the SolverConfig surface (§3)
// and run-summary/convergence-history persistence (§6) they share.
package solver

import (
	"github.com/pdrersin/FVENS/fvcore/errs"
)

// Preconditioner token values recognised in SolverConfig.Preconditioner.
const (
	PrecNone = "None"
	PrecJ    = "J"
	PrecSGS  = "SGS"
	PrecILU0 = "ILU0"
)

// LinearSolver token values recognised in SolverConfig.LinearSolver.
const (
	LinRichardson = "Richardson"
	LinBCGSTB     = "BCGSTB"
	LinGMRES      = "GMRES"
)

// Config holds the enumerated SolverConfig options of §3: outer/inner
// tolerances and iteration caps, CFL and linear-tolerance ramping, and the
// preconditioner/linear-solver choice. It follows the teacher's
// SetDefault/PostProcess two-phase convention (inp.SolverData in
// inp/sim.go): zero-value JSON decode, then SetDefault fills unset fields,
// then PostProcess validates enum tokens and derives anything computed.
type Config struct {
	Tol     float64 `json:"tol"`     // outer convergence tolerance (relative residual)
	MaxIter int     `json:"maxiter"` // outer iteration cap

	CFLInit    float64 `json:"cflinit"`    // CFL at/below RampStart
	CFLFin     float64 `json:"cflfin"`     // CFL at/above RampEnd
	RampStart  int     `json:"rampstart"`  // outer step at which ramping begins
	RampEnd    int     `json:"rampend"`    // outer step at which ramping completes

	LinTol          float64 `json:"lintol"`          // inner (Krylov) relative tolerance
	LinMaxIterStart int     `json:"linmaxiterstart"` // inner iteration cap at/below RampStart
	LinMaxIterEnd   int     `json:"linmaxiterend"`   // inner iteration cap at/above RampEnd

	RestartVecs int `json:"restart_vecs"` // GMRES restart length k

	Preconditioner string `json:"preconditioner"` // None | J | SGS | ILU0
	LinearSolver   string `json:"linearsolver"`   // Richardson | BCGSTB | GMRES

	LogNRes bool   `json:"lognres"` // append one line per step to {logfile}.conv
	LogFile string `json:"logfile"` // base path for .conv and run-summary logs

	// NdvgMax bounds the supplemented divergence-control feature
	// (SPEC_FULL.md): consecutive outer steps whose residual is strictly
	// greater than the previous step's before ImplicitSteady aborts with
	// Numerical; a step with an equal or smaller residual resets the count.
	// 0 disables the check.
	NdvgMax int `json:"ndvgmax"`
}

// SetDefault fills zero-valued fields with their defaults.
func (c *Config) SetDefault() {
	if c.Tol == 0 {
		c.Tol = 1e-6
	}
	if c.MaxIter == 0 {
		c.MaxIter = 500
	}
	if c.CFLInit == 0 {
		c.CFLInit = 1
	}
	if c.CFLFin == 0 {
		c.CFLFin = c.CFLInit
	}
	if c.LinTol == 0 {
		c.LinTol = 1e-2
	}
	if c.LinMaxIterStart == 0 {
		c.LinMaxIterStart = 20
	}
	if c.LinMaxIterEnd == 0 {
		c.LinMaxIterEnd = c.LinMaxIterStart
	}
	if c.RestartVecs == 0 {
		c.RestartVecs = 30
	}
	if c.Preconditioner == "" {
		c.Preconditioner = PrecNone
	}
	if c.LinearSolver == "" {
		c.LinearSolver = LinGMRES
	}
}

// PostProcess validates the enumerated tokens and non-positive sizes,
// returning a ConfigError (fatal at the driver boundary, per §7) on the
// first problem found.
func (c *Config) PostProcess() error {
	switch c.Preconditioner {
	case PrecNone, PrecJ, PrecSGS, PrecILU0:
	default:
		return errs.Config("solver: unrecognized preconditioner token %q", c.Preconditioner)
	}
	switch c.LinearSolver {
	case LinRichardson, LinBCGSTB, LinGMRES:
	default:
		return errs.Config("solver: unrecognized linearsolver token %q", c.LinearSolver)
	}
	if c.MaxIter <= 0 {
		return errs.Config("solver: maxiter must be positive, got %d", c.MaxIter)
	}
	if c.Tol <= 0 {
		return errs.Config("solver: tol must be positive, got %g", c.Tol)
	}
	if c.CFLInit <= 0 || c.CFLFin <= 0 {
		return errs.Config("solver: cflinit/cflfin must be positive")
	}
	if c.LinTol <= 0 {
		return errs.Config("solver: lintol must be positive, got %g", c.LinTol)
	}
	if c.LinMaxIterStart <= 0 || c.LinMaxIterEnd <= 0 {
		return errs.Config("solver: linmaxiterstart/linmaxiterend must be positive")
	}
	if c.RestartVecs <= 0 {
		return errs.Config("solver: restart_vecs must be positive, got %d", c.RestartVecs)
	}
	return nil
}

// ramped returns the CFL number and inner iteration cap for outer step
// (0-based), per §4.E step 4:
//   step < RampStart：(CFLInit, LinMaxIterStart)
//   RampStart <= step < RampEnd: linear interpolation
//   step >= RampEnd: (CFLFin, LinMaxIterEnd)
// Degenerate RampEnd <= RampStart uses the final values throughout.
func (c *Config) ramped(step int) (cfl float64, linmaxit int) {
	if c.RampEnd <= c.RampStart {
		return c.CFLFin, c.LinMaxIterEnd
	}
	if step < c.RampStart {
		return c.CFLInit, c.LinMaxIterStart
	}
	if step >= c.RampEnd {
		return c.CFLFin, c.LinMaxIterEnd
	}
	frac := float64(step-c.RampStart) / float64(c.RampEnd-c.RampStart)
	cfl = c.CFLInit + frac*(c.CFLFin-c.CFLInit)
	linmaxit = c.LinMaxIterStart + int(frac*float64(c.LinMaxIterEnd-c.LinMaxIterStart)+0.5)
	return
}
