package solver

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/pdrersin/FVENS/fvcore/errs"
	"github.com/pdrersin/FVENS/fvcore/parallel"
	"github.com/pdrersin/FVENS/fvcore/spatial"
)

// timeEps bounds the "t >= finaltime" comparison in Solve against
// accumulated floating-point drift over many small steps.
const timeEps = 1e-10

// ExplicitUnsteady is component F (§4.F): explicit TVD-RK(1/2/3)
// time-accurate integration with a single global Δt per step (computed at
// stage 0 only, per step 2a), run to a fixed final time rather than to a
// residual tolerance.
type ExplicitUnsteady struct {
	Spatial   spatial.Spatial
	V         int
	Order     int     // 1, 2 or 3
	CFL       float64 // CFL used to derive the global Δt at stage 0
	FinalTime float64
	Verbose   bool

	stages []tvdrkStage

	r, dt, ustage []float64
}

// NewExplicitUnsteady validates order and allocates R, Δt and the stage
// buffer sized to sp's mesh. It returns a ConfigError for any order other
// than 1, 2 or 3.
func NewExplicitUnsteady(sp spatial.Spatial, v, order int, cfl, finalTime float64) (*ExplicitUnsteady, error) {
	stages, err := tvdrkStages(order)
	if err != nil {
		return nil, err
	}
	n := sp.Mesh().NCells()
	return &ExplicitUnsteady{
		Spatial:   sp,
		V:         v,
		Order:     order,
		CFL:       cfl,
		FinalTime: finalTime,
		stages:    stages,
		r:         make([]float64, n*v),
		dt:        make([]float64, n),
		ustage:    make([]float64, n*v),
	}, nil
}

// Solve marches u from t=0 to FinalTime, mutating u in place, and returns
// the terminal Status (always OK or NumericalFailure: there is no outer
// tolerance to fail to reach within an iteration cap).
func (d *ExplicitUnsteady) Solve(u []float64) (Status, error) {
	mesh := d.Spatial.Mesh()
	n, v := mesh.NCells(), d.V
	var t float64
	var dtGlobal float64
	step := 0

	for t < d.FinalTime-timeEps {
		copy(d.ustage, u)

		for s, st := range d.stages {
			for i := range d.r {
				d.r[i] = 0
			}
			wantDt := s == 0
			d.Spatial.ComputeResidual(d.ustage, d.r, wantDt, d.dt)

			if wantDt {
				dtGlobal = parallel.MinFloat64(n, func(i int) float64 { return d.dt[i] })
				if math.IsNaN(dtGlobal) || math.IsInf(dtGlobal, 0) || dtGlobal <= 0 {
					return NumericalFailure, errs.Num("ExplicitUnsteady: invalid global dt %v at step %d", dtGlobal, step)
				}
				if t+dtGlobal > d.FinalTime {
					dtGlobal = d.FinalTime - t
				}
			}

			parallel.For(n, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					scale := dtGlobal * d.CFL / mesh.Area(i)
					base := i * v
					for k := 0; k < v; k++ {
						d.ustage[base+k] = st.alpha*u[base+k] + st.beta*d.ustage[base+k] - st.gamma*scale*d.r[base+k]
					}
				}
			})
		}

		copy(u, d.ustage)
		t += dtGlobal
		step++

		if d.Verbose && step%50 == 0 {
			io.Pf("ExplicitUnsteady: step %6d  t = %.6e  dt = %.6e\n", step, t, dtGlobal)
		}
		for _, x := range u {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return NumericalFailure, errs.Num("ExplicitUnsteady: state is NaN/Inf at step %d (t=%.6e)", step, t)
			}
		}
	}
	return OK, nil
}
