// Package spatial declares the external collaborators consumed by the
// pseudo-time drivers (§6 of the specification): Mesh and Spatial. The real
// mesh reading, topology, and flux-function discretization are out of
// scope (§1) — callers supply their own Spatial. This package also ships
// Linear, a reference Spatial used to exercise the drivers' testable
// properties (§8) against a textbook linear operator R(U) = A*U - b.
package spatial

// Mesh is the minimal topology view a Spatial (and, indirectly, a driver)
// needs. It is immutable during a solve.
type Mesh interface {
	NCells() int
	Area(i int) float64
}

// Spatial produces the cell-wise residual (and, for implicit steps, the
// Jacobian) that the pseudo-time drivers march to steady state or a
// terminal physical time. U and R are row-major N*V buffers and dt is a
// length-N buffer, all owned by the caller of ComputeResidual; Spatial must
// not retain or reallocate them.
type Spatial interface {
	Mesh() Mesh

	// ComputeResidual sets R[i*v+k] to the spatial divergence at cell i,
	// variable k. If wantDt, it also fills dt[i] with a stable local
	// pseudo-time step for cell i.
	ComputeResidual(u, r []float64, wantDt bool, dt []float64)

	// ComputeJacobian fills/overwrites the block entries of m to reflect
	// the linearization of ComputeResidual at u. No allocation is
	// performed once m's sparsity pattern is frozen.
	ComputeJacobian(u []float64, m JacobianSink)
}

// JacobianSink is the subset of blocksparse.Matrix that Spatial
// implementations are allowed to mutate while assembling a Jacobian. It is
// satisfied by *blocksparse.Matrix.
type JacobianSink interface {
	SetBlock(i, j int, b []float64) error
	UpdateDiagBlock(i int, b []float64)
}

// simpleMesh is a trivial Mesh of N cells with a uniform cell area, enough
// to drive Linear and the property/scenario tests in §8.
type simpleMesh struct {
	n    int
	area float64
}

// NewUniformMesh returns a Mesh of n cells each with the given area.
func NewUniformMesh(n int, area float64) Mesh {
	return &simpleMesh{n: n, area: area}
}

func (m *simpleMesh) NCells() int        { return m.n }
func (m *simpleMesh) Area(i int) float64 { return m.area }
