package solver_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdrersin/FVENS/fvcore/errs"
	"github.com/pdrersin/FVENS/fvcore/solver"
	"github.com/pdrersin/FVENS/fvcore/spatial"
)

// buildSPDProblem returns a Linear operator R(U) = A*U - b for an n-cell
// scalar SPD tridiagonal stencil with unit cell area and the given stable
// local time step, plus a zero initial state.
func buildSPDProblem(n int, dtStable float64) (spatial.Spatial, []float64) {
	mesh := spatial.NewUniformMesh(n, 1.0)
	rowPtr := make([]int, n+1)
	var colIdx []int
	var blocks [][]float64
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		rowPtr[i] = len(colIdx)
		if i > 0 {
			colIdx = append(colIdx, i-1)
			blocks = append(blocks, []float64{-1})
		}
		colIdx = append(colIdx, i)
		blocks = append(blocks, []float64{2})
		if i < n-1 {
			colIdx = append(colIdx, i+1)
			blocks = append(blocks, []float64{-1})
		}
		b[i] = 1
	}
	rowPtr[n] = len(colIdx)
	sp := spatial.NewLinear(mesh, 1, rowPtr, colIdx, blocks, b, dtStable)
	return sp, make([]float64, n)
}

func defaultCfg() solver.Config {
	var c solver.Config
	c.SetDefault()
	c.Tol = 1e-9
	return c
}

// TestExplicitSteadyConvergesOnSPD exercises component D (§4.D) against a
// small SPD problem; the relative residual must reach Tol well inside the
// iteration cap.
func TestExplicitSteadyConvergesOnSPD(t *testing.T) {
	sp, u := buildSPDProblem(8, 0.3)
	cfg := defaultCfg()
	cfg.CFLInit = 0.9
	cfg.MaxIter = 5000
	d := solver.NewExplicitSteady(sp, 1, cfg)
	status, err := d.Solve(u)
	require.NoError(t, err)
	require.Equal(t, solver.OK, status)
}

// TestExplicitSteadyHitsIterationCap checks the non-error, non-convergent
// path (S4): too few outer steps leaves the driver at IterationCapStatus,
// with no error.
func TestExplicitSteadyHitsIterationCap(t *testing.T) {
	sp, u := buildSPDProblem(8, 0.3)
	cfg := defaultCfg()
	cfg.CFLInit = 0.9
	cfg.MaxIter = 2
	d := solver.NewExplicitSteady(sp, 1, cfg)
	status, err := d.Solve(u)
	require.NoError(t, err)
	require.Equal(t, solver.IterationCapStatus, status)
}

func TestImplicitSteadyConvergesOnSPD(t *testing.T) {
	sp, u := buildSPDProblem(12, 0.5)
	cfg := defaultCfg()
	cfg.MaxIter = 50
	cfg.CFLInit = 1
	cfg.CFLFin = 50
	cfg.RampStart = 2
	cfg.RampEnd = 8
	cfg.Preconditioner = solver.PrecSGS
	cfg.LinearSolver = solver.LinGMRES
	d, err := solver.NewImplicitSteady(sp, 1, cfg)
	require.NoError(t, err)
	status, err := d.Solve(u)
	require.NoError(t, err)
	require.Equal(t, solver.OK, status)
	require.Greater(t, d.Summary().OuterIters, 0)
}

func TestImplicitSteadyRejectsUnknownPreconditioner(t *testing.T) {
	sp, _ := buildSPDProblem(4, 0.5)
	cfg := defaultCfg()
	cfg.Preconditioner = "bogus"
	_, err := solver.NewImplicitSteady(sp, 1, cfg)
	require.Error(t, err)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	require.Equal(t, errs.ConfigError, kind)
}

func TestImplicitSteadyRejectsUnknownLinearSolver(t *testing.T) {
	sp, _ := buildSPDProblem(4, 0.5)
	cfg := defaultCfg()
	cfg.LinearSolver = "bogus"
	_, err := solver.NewImplicitSteady(sp, 1, cfg)
	require.Error(t, err)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	require.Equal(t, errs.ConfigError, kind)
}

// TestExplicitUnsteadyOrder4Rejected is scenario S6: constructing a
// TVD-RK driver with an unsupported order fails at construction with a
// ConfigError, never reaching Solve.
func TestExplicitUnsteadyOrder4Rejected(t *testing.T) {
	sp, _ := buildSPDProblem(4, 0.1)
	_, err := solver.NewExplicitUnsteady(sp, 1, 4, 0.5, 1.0)
	require.Error(t, err)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	require.Equal(t, errs.ConfigError, kind)
}

// TestExplicitUnsteadyReachesFinalTime runs TVD-RK order 2 on the scalar
// SPD tridiagonal problem: the integrator must march u from t=0 to
// FinalTime without producing NaN/Inf, returning OK.
func TestExplicitUnsteadyReachesFinalTime(t *testing.T) {
	sp, u := buildSPDProblem(10, 0.05)
	d, err := solver.NewExplicitUnsteady(sp, 1, 2, 0.5, 0.2)
	require.NoError(t, err)
	status, err := d.Solve(u)
	require.NoError(t, err)
	require.Equal(t, solver.OK, status)
	for _, x := range u {
		require.False(t, math.IsNaN(x) || math.IsInf(x, 0))
	}
}

func TestExplicitUnsteadyOrder3Stable(t *testing.T) {
	sp, u := buildSPDProblem(6, 0.08)
	d, err := solver.NewExplicitUnsteady(sp, 1, 3, 0.4, 0.1)
	require.NoError(t, err)
	status, err := d.Solve(u)
	require.NoError(t, err)
	require.Equal(t, solver.OK, status)
}

func TestConfigPostProcessRejectsBadTol(t *testing.T) {
	c := solver.Config{Preconditioner: solver.PrecNone, LinearSolver: solver.LinGMRES}
	c.SetDefault()
	c.Tol = -1
	err := c.PostProcess()
	require.Error(t, err)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	require.Equal(t, errs.ConfigError, kind)
}

// TestIdempotenceAtZeroResidual is testable property 1 (§8): for a
// zero-residual initial state, one pseudo-time step leaves U unchanged,
// on both ImplicitSteady and ExplicitSteady.
func TestIdempotenceAtZeroResidual(t *testing.T) {
	mesh := spatial.NewUniformMesh(3, 1.0)
	rowPtr := []int{0, 2, 5, 7}
	colIdx := []int{0, 1, 0, 1, 2, 1, 2}
	blocks := [][]float64{{2}, {-1}, {-1}, {2}, {-1}, {-1}, {2}}
	u0 := []float64{1, 2, 3}
	// b = A*u0 exactly, so R(u0) = A*u0 - b = 0.
	b := []float64{
		2*u0[0] - u0[1],
		-u0[0] + 2*u0[1] - u0[2],
		-u0[1] + 2*u0[2],
	}

	t.Run("ImplicitSteady", func(t *testing.T) {
		sp := spatial.NewLinear(mesh, 1, rowPtr, colIdx, blocks, b, 0.4)
		cfg := defaultCfg()
		cfg.MaxIter = 1
		u := append([]float64(nil), u0...)
		d, err := solver.NewImplicitSteady(sp, 1, cfg)
		require.NoError(t, err)
		_, err = d.Solve(u)
		require.NoError(t, err)
		require.InDeltaSlice(t, u0, u, 1e-9)
	})

	t.Run("ExplicitSteady", func(t *testing.T) {
		sp := spatial.NewLinear(mesh, 1, rowPtr, colIdx, blocks, b, 0.4)
		cfg := defaultCfg()
		cfg.MaxIter = 1
		cfg.CFLInit = 0.5
		u := append([]float64(nil), u0...)
		d := solver.NewExplicitSteady(sp, 1, cfg)
		_, err := d.Solve(u)
		require.NoError(t, err)
		require.InDeltaSlice(t, u0, u, 1e-9)
	})
}

// TestImplicitStepExactOnDiagonalJacobiRichardson is testable property 5
// (§8): with preconditioner=J and linearsolver=Richardson on a diagonal
// assembled matrix M, one outer step produces δU = -D^-1 R exactly.
func TestImplicitStepExactOnDiagonalJacobiRichardson(t *testing.T) {
	mesh := spatial.NewUniformMesh(1, 1.0)
	rowPtr := []int{0, 1}
	colIdx := []int{0}
	blocks := [][]float64{{2}} // A = [2], diagonal-only Jacobian
	b := []float64{3}
	dtStable := 0.5
	sp := spatial.NewLinear(mesh, 1, rowPtr, colIdx, blocks, b, dtStable)

	cfg := defaultCfg()
	cfg.MaxIter = 1
	cfg.CFLInit, cfg.CFLFin = 1, 1
	cfg.RampStart, cfg.RampEnd = 100, 200 // stay at CFLInit for step 0
	cfg.LinTol = 1e-14
	cfg.LinMaxIterStart, cfg.LinMaxIterEnd = 5, 5
	cfg.Preconditioner = solver.PrecJ
	cfg.LinearSolver = solver.LinRichardson

	u0 := 5.0
	u := []float64{u0}
	d, err := solver.NewImplicitSteady(sp, 1, cfg)
	require.NoError(t, err)
	_, err = d.Solve(u)
	require.NoError(t, err)

	r := 2*u0 - 3 // R(u0) = A*u0 - b
	diag := 2.0 + 1.0/(cfg.CFLInit*dtStable)
	wantDelta := -r / diag
	require.InDelta(t, u0+wantDelta, u[0], 1e-9)
}

// TestImplicitSteadyDivergenceControlAborts exercises the supplemented
// divergence-control feature (SPEC_FULL.md): a residual that strictly
// increases every outer step must trip NdvgMax consecutive
// increasing-residual steps and abort with NumericalFailure.
func TestImplicitSteadyDivergenceControlAborts(t *testing.T) {
	sp := &divergingSpatial{mesh: spatial.NewUniformMesh(1, 1.0), diag: 1}
	cfg := defaultCfg()
	cfg.MaxIter = 10
	cfg.NdvgMax = 2
	cfg.Preconditioner = solver.PrecNone
	cfg.LinearSolver = solver.LinRichardson
	cfg.LinMaxIterStart, cfg.LinMaxIterEnd = 1, 1

	d, err := solver.NewImplicitSteady(sp, 1, cfg)
	require.NoError(t, err)
	u := []float64{0}
	status, err := d.Solve(u)
	require.Error(t, err)
	require.Equal(t, solver.NumericalFailure, status)
	kind, ok := errs.Of(err)
	require.True(t, ok)
	require.Equal(t, errs.Numerical, kind)
}

// divergingSpatial is a stub Spatial whose residual magnitude increases
// by one every call regardless of u, used to force the outer divergence
// check in ImplicitSteady without depending on a real unstable operator.
type divergingSpatial struct {
	mesh spatial.Mesh
	step int
	diag float64
}

func (s *divergingSpatial) Mesh() spatial.Mesh { return s.mesh }

func (s *divergingSpatial) ComputeResidual(u, r []float64, wantDt bool, dt []float64) {
	s.step++
	r[0] = float64(s.step)
	if wantDt {
		dt[0] = 1
	}
}

func (s *divergingSpatial) ComputeJacobian(u []float64, m spatial.JacobianSink) {
	m.SetBlock(0, 0, []float64{s.diag})
}

func TestConfigSetDefaultFillsZeroFields(t *testing.T) {
	var c solver.Config
	c.SetDefault()
	require.NoError(t, c.PostProcess())
	require.Equal(t, solver.PrecNone, c.Preconditioner)
	require.Equal(t, solver.LinGMRES, c.LinearSolver)
	require.Greater(t, c.MaxIter, 0)
}
