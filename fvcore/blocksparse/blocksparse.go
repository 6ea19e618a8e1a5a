// Package blocksparse implements a fixed-structure block-CSR matrix
// (component A, §4.A): the sparsity pattern is fixed after the first full
// assembly, values are dense V×V blocks, and Apply/DiagonalInverseApply are
// parallelized over block rows using fvcore/parallel.
package blocksparse

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pdrersin/FVENS/fvcore/errs"
	"github.com/pdrersin/FVENS/fvcore/parallel"
)

// Matrix is a square NV×NV block-sparse matrix with block size V×V stored
// as block CSR. The zero value is not usable; construct with New.
type Matrix struct {
	n int // number of block rows/cols (cells)
	v int // block size

	frozen bool

	cols  [][]int     // cols[i] = column indices of row i, in first-insertion order
	vals  [][][]float64 // vals[i][e] = v*v row-major block for cols[i][e]
	index []map[int]int // index[i][j] = e such that cols[i][e] == j
}

// New allocates an n×n block matrix with block size v, empty (no nonzero
// slots yet; the pattern is open until FreezePattern is called).
func New(n, v int) *Matrix {
	if n <= 0 || v <= 0 {
		panic("blocksparse: n and v must be positive")
	}
	m := &Matrix{
		n:     n,
		v:     v,
		cols:  make([][]int, n),
		vals:  make([][][]float64, n),
		index: make([]map[int]int, n),
	}
	for i := range m.index {
		m.index[i] = make(map[int]int)
	}
	return m
}

// N returns the number of block rows/columns (cells).
func (m *Matrix) N() int { return m.n }

// V returns the block size.
func (m *Matrix) V() int { return m.v }

// NNZ returns the number of nonzero blocks.
func (m *Matrix) NNZ() int {
	total := 0
	for _, c := range m.cols {
		total += len(c)
	}
	return total
}

// SetAllZero zeroes every stored block's values but preserves the pattern.
func (m *Matrix) SetAllZero() {
	parallel.For(m.n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for _, blk := range m.vals[i] {
				for k := range blk {
					blk[k] = 0
				}
			}
		}
	})
}

// SetBlock writes b (a V*V row-major dense block) into slot (i,j),
// overwriting any previous value. While the pattern is open (before the
// first FreezePattern), a missing slot is created. Once frozen, SetBlock on
// a missing slot fails with a Structural error.
func (m *Matrix) SetBlock(i, j int, b []float64) error {
	m.checkBounds(i, j)
	m.checkBlockLen(b)
	if e, ok := m.index[i][j]; ok {
		copy(m.vals[i][e], b)
		return nil
	}
	if m.frozen {
		return errs.Struct("blocksparse: SetBlock(%d,%d) on frozen pattern with no existing slot", i, j)
	}
	m.appendSlot(i, j, b)
	return nil
}

// UpdateDiagBlock adds b (a V*V row-major dense block) to the diagonal
// block of row i. The diagonal slot is created on first use if the pattern
// is still open; per the fixed invariant that every row has a diagonal
// block, calling this after the pattern has been frozen with no existing
// diagonal slot indicates a broken invariant upstream and panics.
func (m *Matrix) UpdateDiagBlock(i int, b []float64) {
	if i < 0 || i >= m.n {
		panic("blocksparse: row index out of range")
	}
	m.checkBlockLen(b)
	if e, ok := m.index[i][i]; ok {
		blk := m.vals[i][e]
		for k := range blk {
			blk[k] += b[k]
		}
		return
	}
	if m.frozen {
		panic("blocksparse: UpdateDiagBlock on frozen pattern with no diagonal slot for row")
	}
	m.appendSlot(i, i, b)
}

// FreezePattern disallows further structural mutation: subsequent SetBlock
// calls on an existing slot still overwrite it, but on a missing slot fail
// with Structural. Freezing is idempotent.
func (m *Matrix) FreezePattern() {
	m.frozen = true
}

// Frozen reports whether the pattern has been frozen.
func (m *Matrix) Frozen() bool { return m.frozen }

// Row returns the (unsorted-by-caller, fixed-order) column indices and
// blocks of row i. The returned slices alias internal storage and must not
// be mutated or retained past the next structural change.
func (m *Matrix) Row(i int) (cols []int, blocks [][]float64) {
	return m.cols[i], m.vals[i]
}

// Block returns a copy of the block at (i,j), or (nil, false) if no such
// slot exists.
func (m *Matrix) Block(i, j int) ([]float64, bool) {
	e, ok := m.index[i][j]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(m.vals[i][e]))
	copy(out, m.vals[i][e])
	return out, true
}

// Apply computes y <- M*x, parallelized over block rows.
func (m *Matrix) Apply(x, y []float64) {
	v := m.v
	parallel.For(m.n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			acc := make([]float64, v)
			cols, blocks := m.cols[i], m.vals[i]
			for e, j := range cols {
				blk := blocks[e]
				for row := 0; row < v; row++ {
					var s float64
					for col := 0; col < v; col++ {
						s += blk[row*v+col] * x[j*v+col]
					}
					acc[row] += s
				}
			}
			copy(y[i*v:(i+1)*v], acc)
		}
	})
}

// DiagonalInverseApply computes y[i] <- diag(i)^-1 * x[i] for every row,
// inverting each V×V diagonal block on the fly. It returns a Numerical
// error, wrapping the first singular pivot encountered, if any diagonal
// block is not invertible to working precision.
func (m *Matrix) DiagonalInverseApply(x, y []float64) error {
	v := m.v
	chunkErrs := make([]error, parallel.NumChunks(m.n))
	parallel.ForChunk(m.n, func(c, lo, hi int) {
		for i := lo; i < hi; i++ {
			blk, ok := m.Block(i, i)
			if !ok {
				if chunkErrs[c] == nil {
					chunkErrs[c] = errs.Struct("blocksparse: row %d has no diagonal block", i)
				}
				continue
			}
			sol, err := solveBlock(v, blk, x[i*v:(i+1)*v])
			if err != nil {
				if chunkErrs[c] == nil {
					chunkErrs[c] = errs.Num("blocksparse: singular diagonal block at row %d: %v", i, err)
				}
				continue
			}
			copy(y[i*v:(i+1)*v], sol)
		}
	})
	for _, err := range chunkErrs {
		if err != nil {
			return err
		}
	}
	return nil
}

// solveBlock solves the v×v dense system blk*x = rhs (blk row-major) and
// returns x, or an error if blk is singular to working precision.
func solveBlock(v int, blk, rhs []float64) ([]float64, error) {
	if v == 1 {
		if blk[0] == 0 {
			return nil, errs.Num("1x1 diagonal block is zero")
		}
		return []float64{rhs[0] / blk[0]}, nil
	}
	a := mat.NewDense(v, v, append([]float64(nil), blk...))
	b := mat.NewVecDense(v, append([]float64(nil), rhs...))
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, err
	}
	out := make([]float64, v)
	for i := 0; i < v; i++ {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

func (m *Matrix) appendSlot(i, j int, b []float64) {
	blk := make([]float64, len(b))
	copy(blk, b)
	m.index[i][j] = len(m.cols[i])
	m.cols[i] = append(m.cols[i], j)
	m.vals[i] = append(m.vals[i], blk)
}

func (m *Matrix) checkBounds(i, j int) {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic("blocksparse: block index out of range")
	}
}

func (m *Matrix) checkBlockLen(b []float64) {
	if len(b) != m.v*m.v {
		panic("blocksparse: block has wrong length")
	}
}
