package spatial

// Linear is a reference Spatial implementing R(U) = A*U - b for a fixed
// block-sparse A, used to exercise the pseudo-time drivers against the
// textbook properties and scenarios of §8 (SPD convergence, TVD-RK
// stability, the scalar upwind-advection scenario S1) without pulling in a
// real flux/discretization package, which is out of scope per §1.
type Linear struct {
	mesh   Mesh
	v      int       // variables per cell
	rowPtr []int     // length NCells+1; neighbor range for row i is [rowPtr[i], rowPtr[i+1])
	colIdx []int     // column (neighbor cell) index for each entry, row-major
	blocks [][]float64 // one V*V row-major block per entry of colIdx
	b      []float64   // length NCells*V
	dt     float64     // uniform stable local time step returned for every cell
}

// NewLinear builds a Linear operator over mesh with v variables per cell.
// rowPtr/colIdx describe the fixed block-CSR sparsity pattern (including the
// diagonal entry for every row); blocks holds one V*V row-major dense block
// per colIdx entry, in the same order. b is the right-hand side (may be
// nil, treated as zero). dtStable is the fixed per-cell stable step
// ComputeResidual reports.
func NewLinear(mesh Mesh, v int, rowPtr, colIdx []int, blocks [][]float64, b []float64, dtStable float64) *Linear {
	n := mesh.NCells()
	if b == nil {
		b = make([]float64, n*v)
	}
	return &Linear{mesh: mesh, v: v, rowPtr: rowPtr, colIdx: colIdx, blocks: blocks, b: b, dt: dtStable}
}

func (l *Linear) Mesh() Mesh { return l.mesh }

func (l *Linear) ComputeResidual(u, r []float64, wantDt bool, dt []float64) {
	n := l.mesh.NCells()
	v := l.v
	for i := 0; i < n; i++ {
		for k := 0; k < v; k++ {
			r[i*v+k] = -l.b[i*v+k]
		}
		for e := l.rowPtr[i]; e < l.rowPtr[i+1]; e++ {
			j := l.colIdx[e]
			blk := l.blocks[e]
			for row := 0; row < v; row++ {
				var acc float64
				for col := 0; col < v; col++ {
					acc += blk[row*v+col] * u[j*v+col]
				}
				r[i*v+row] += acc
			}
		}
	}
	if wantDt {
		for i := 0; i < n; i++ {
			dt[i] = l.dt
		}
	}
}

func (l *Linear) ComputeJacobian(u []float64, m JacobianSink) {
	n := l.mesh.NCells()
	for i := 0; i < n; i++ {
		for e := l.rowPtr[i]; e < l.rowPtr[i+1]; e++ {
			j := l.colIdx[e]
			m.SetBlock(i, j, l.blocks[e])
		}
	}
}
