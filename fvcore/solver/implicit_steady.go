package solver

import (
	"context"
	"math"
	"time"

	"github.com/cpmech/gosl/io"

	"github.com/pdrersin/FVENS/fvcore/blocksparse"
	"github.com/pdrersin/FVENS/fvcore/errs"
	"github.com/pdrersin/FVENS/fvcore/krylov"
	"github.com/pdrersin/FVENS/fvcore/parallel"
	"github.com/pdrersin/FVENS/fvcore/precond"
	"github.com/pdrersin/FVENS/fvcore/spatial"
)

// ImplicitSteady is component E (§4.E): backward-Euler pseudo-time with
// ramped CFL/inner-iteration cap, block-Jacobian assembly, preconditioner
// construction and a Krylov inner solve.
type ImplicitSteady struct {
	Spatial spatial.Spatial
	V       int
	Cfg     Config
	Verbose bool

	mesh spatial.Mesh
	n    int

	r, dt, du, rhs []float64
	m              *blocksparse.Matrix
	pc             precond.Preconditioner
	kv             krylov.Solver

	sum Summary
}

// NewImplicitSteady validates cfg and allocates R, Δt, δU and the
// block-sparse Jacobian sized to sp's mesh. It returns a ConfigError if
// cfg names an unrecognized preconditioner or linear-solver token.
func NewImplicitSteady(sp spatial.Spatial, v int, cfg Config) (*ImplicitSteady, error) {
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	mesh := sp.Mesh()
	n := mesh.NCells()
	m := blocksparse.New(n, v)

	d := &ImplicitSteady{
		Spatial: sp,
		V:       v,
		Cfg:     cfg,
		mesh:    mesh,
		n:       n,
		r:       make([]float64, n*v),
		dt:      make([]float64, n),
		du:      make([]float64, n*v),
		rhs:     make([]float64, n*v),
		m:       m,
	}

	switch cfg.Preconditioner {
	case PrecNone:
		d.pc = precond.NoOp{}
	case PrecJ:
		d.pc = precond.NewJacobi(m)
	case PrecSGS:
		d.pc = precond.NewSGS(m)
	case PrecILU0:
		d.pc = precond.NewILU0(m)
	default:
		return nil, errs.Config("ImplicitSteady: unrecognized preconditioner token %q", cfg.Preconditioner)
	}

	switch cfg.LinearSolver {
	case LinRichardson:
		d.kv = krylov.Richardson{}
	case LinBCGSTB:
		d.kv = krylov.BiCGStab{}
	case LinGMRES:
		d.kv = krylov.GMRES{Restart: cfg.RestartVecs}
	default:
		return nil, errs.Config("ImplicitSteady: unrecognized linearsolver token %q", cfg.LinearSolver)
	}

	return d, nil
}

// Solve runs backward-Euler pseudo-time stepping to convergence or
// Cfg.MaxIter, mutating u in place, and returns the terminal Status.
func (d *ImplicitSteady) Solve(u []float64) (Status, error) {
	return d.SolveContext(context.Background(), u)
}

// SolveContext is Solve with an explicit cancellation context, observed
// between outer steps and, by the Krylov solver, between inner iterations
// (never mid-sweep), per §5.
func (d *ImplicitSteady) SolveContext(ctx context.Context, u []float64) (Status, error) {
	n, v := d.n, d.V
	conv := NewConvLog(d.Cfg.LogFile)
	defer conv.Close()

	var initRes, prevRes float64
	var ndiverg int
	var mdFactor = 1.0
	var consecutiveNumerical int
	var linIterSum, linWalltime float64
	status := IterationCapStatus

	outer := 0
	for ; outer < d.Cfg.MaxIter; outer++ {
		select {
		case <-ctx.Done():
			return status, nil
		default:
		}

		for i := range d.r {
			d.r[i] = 0
		}
		d.m.SetAllZero()

		d.Spatial.ComputeResidual(u, d.r, true, d.dt)
		d.Spatial.ComputeJacobian(u, d.m)

		cfl, linmaxit := d.Cfg.ramped(outer)
		cfl *= mdFactor

		parallel.For(n, func(lo, hi int) {
			aug := make([]float64, v*v)
			for i := lo; i < hi; i++ {
				coef := d.mesh.Area(i) / (cfl * d.dt[i])
				for k := range aug {
					aug[k] = 0
				}
				for k := 0; k < v; k++ {
					aug[k*v+k] = coef
				}
				d.m.UpdateDiagBlock(i, aug)
			}
		})
		d.m.FreezePattern()

		for i := 0; i < n*v; i++ {
			d.du[i] = 0
			d.rhs[i] = -d.r[i] // §8 property 5: b = -R so δU = -D^-1 R for diag M
		}

		if err := d.pc.Setup(); err != nil {
			if st, done := d.handleNumerical(err, &consecutiveNumerical); done {
				return st, err
			}
			continue
		}

		t0 := time.Now()
		linIters, err := d.kv.Solve(ctx, d.m, d.pc, d.rhs, d.du, d.Cfg.LinTol, linmaxit)
		linWalltime += time.Since(t0).Seconds()
		if err != nil {
			if st, done := d.handleNumerical(err, &consecutiveNumerical); done {
				return st, err
			}
			continue
		}
		consecutiveNumerical = 0
		linIterSum += float64(linIters)

		for i := 0; i < n*v; i++ {
			u[i] += d.du[i]
		}

		res := residualNormLastVar(d.r, v, n, d.mesh)
		if outer == 0 {
			initRes = res
			prevRes = res
		}

		if d.Cfg.LogNRes {
			rel := res
			if initRes != 0 {
				rel = res / initRes
			}
			if err := conv.Append(outer, rel); err != nil {
				return status, err
			}
		}
		if d.Verbose && outer%50 == 0 {
			io.Pf("ImplicitSteady: step %6d  CFL=%.3e  |R| = %.6e  linit=%d\n", outer, cfl, res, linIters)
		}

		if math.IsNaN(res) || math.IsInf(res, 0) {
			return NumericalFailure, errs.Num("ImplicitSteady: residual is NaN/Inf at step %d", outer)
		}

		if d.Cfg.NdvgMax > 0 && outer > 0 {
			if res > prevRes {
				ndiverg++
				mdFactor *= 0.5
				if ndiverg >= d.Cfg.NdvgMax {
					return NumericalFailure, errs.Num("ImplicitSteady: continuous divergence after %d steps", ndiverg)
				}
			} else {
				ndiverg = 0
				mdFactor = 1.0
			}
		}
		prevRes = res

		if initRes == 0 || res/initRes <= d.Cfg.Tol {
			status = OK
			outer++
			break
		}
	}

	d.sum = Summary{
		Nelem:       n,
		Threads:     parallel.Workers,
		LinWalltime: linWalltime,
		LinCputime:  linWalltime * float64(parallel.Workers),
		AvgLinIters: safeDiv(linIterSum, float64(outer)),
		OuterIters:  outer,
	}
	if err := d.sum.Append(d.Cfg.LogFile); err != nil {
		return status, err
	}
	return status, nil
}

// Summary returns the run summary of the most recent Solve/SolveContext
// call that ran to convergence or to the iteration cap. A call that returns
// early (cancellation or an error) leaves the previous summary in place.
func (d *ImplicitSteady) Summary() Summary { return d.sum }

// handleNumerical applies the §7 propagation policy: a Numerical error is
// recorded and the outer loop gets one more attempt; two in a row abort
// with NumericalFailure. Non-Numerical errors (e.g. Structural) are always
// fatal.
func (d *ImplicitSteady) handleNumerical(err error, consecutive *int) (Status, bool) {
	kind, ok := errs.Of(err)
	if !ok || kind != errs.Numerical {
		return NumericalFailure, true
	}
	*consecutive++
	if *consecutive >= 2 {
		return NumericalFailure, true
	}
	return 0, false
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
