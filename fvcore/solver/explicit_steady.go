package solver

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/pdrersin/FVENS/fvcore/errs"
	"github.com/pdrersin/FVENS/fvcore/parallel"
	"github.com/pdrersin/FVENS/fvcore/spatial"
)

// ExplicitSteady is component D (§4.D): forward-Euler local-time-step
// relaxation to steady state. Per the Open Questions, CFLInit is the sole
// CFL used here — ramping (RampStart/RampEnd/CFLFin) applies only to
// ImplicitSteady and is deliberately not read by this driver.
type ExplicitSteady struct {
	Spatial spatial.Spatial
	V       int // variables per cell
	Cfg     Config
	Verbose bool

	r, dt []float64
}

// NewExplicitSteady allocates R and Δt sized to sp's mesh.
func NewExplicitSteady(sp spatial.Spatial, v int, cfg Config) *ExplicitSteady {
	n := sp.Mesh().NCells()
	return &ExplicitSteady{
		Spatial: sp,
		V:       v,
		Cfg:     cfg,
		r:       make([]float64, n*v),
		dt:      make([]float64, n),
	}
}

// Solve runs forward-Euler relaxation to convergence or Cfg.MaxIter,
// mutating u in place, and returns the terminal Status.
func (d *ExplicitSteady) Solve(u []float64) (Status, error) {
	mesh := d.Spatial.Mesh()
	n, v := mesh.NCells(), d.V
	conv := NewConvLog(d.Cfg.LogFile)
	defer conv.Close()

	var initRes float64
	status := IterationCapStatus
	for step := 0; step < d.Cfg.MaxIter; step++ {
		for i := range d.r {
			d.r[i] = 0
		}
		d.Spatial.ComputeResidual(u, d.r, true, d.dt)

		parallel.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				scale := d.Cfg.CFLInit * d.dt[i] / mesh.Area(i)
				base := i * v
				for k := 0; k < v; k++ {
					u[base+k] -= scale * d.r[base+k]
				}
			}
		})

		res := residualNormLastVar(d.r, v, n, mesh)
		if step == 0 {
			initRes = res
		}

		if d.Cfg.LogNRes {
			rel := res
			if initRes != 0 {
				rel = res / initRes
			}
			if err := conv.Append(step, rel); err != nil {
				return status, err
			}
		}
		if d.Verbose && step%50 == 0 {
			io.Pf("ExplicitSteady: step %6d  |R| = %.6e\n", step, res)
		}

		if initRes == 0 || res/initRes <= d.Cfg.Tol {
			status = OK
			break
		}
		if math.IsNaN(res) || math.IsInf(res, 0) {
			return status, errs.Num("ExplicitSteady: residual is NaN/Inf at step %d", step)
		}
	}
	return status, nil
}

// residualNormLastVar computes sqrt(sum_i R[i,V-1]^2 * area[i]), the
// legacy last-variable-weighted L2 norm §4.D step 4 (preserved exactly:
// §9 Open Questions flags this convention but it is load-bearing for
// bit-equivalence testing).
func residualNormLastVar(r []float64, v, n int, mesh spatial.Mesh) float64 {
	sum := parallel.SumFloat64(n, func(i int) float64 {
		last := r[i*v+v-1]
		return last * last * mesh.Area(i)
	})
	return math.Sqrt(sum)
}
