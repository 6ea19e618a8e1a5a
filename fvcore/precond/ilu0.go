package precond

import (
	"gonum.org/v1/gonum/mat"
)

// ILU0 is the incomplete block-LU factorization with the sparsity pattern
// of M (§4.B): factors are stored in-place in a sibling buffer (the
// preconditioner's own row storage, mirroring M's pattern) and Apply
// performs a forward then a backward block-triangular solve. Setup fails
// with a Numerical error if any pivot block is singular to working
// precision.
type ILU0 struct {
	M Matrix
	v int

	// cols[i]/blocks[i] mirror M's row pattern; after Setup, blocks[i][e]
	// holds L_ij for e with cols[i][e] < i, and U_ij for cols[i][e] >= i.
	cols   [][]int
	blocks [][][]float64
	index  []map[int]int
}

func NewILU0(m Matrix) *ILU0 {
	return &ILU0{M: m, v: m.V()}
}

func (f *ILU0) Setup() error {
	n, v := f.M.N(), f.v
	f.cols = make([][]int, n)
	f.blocks = make([][][]float64, n)
	f.index = make([]map[int]int, n)
	for i := 0; i < n; i++ {
		cols, blocks := f.M.Row(i)
		f.cols[i] = append([]int(nil), cols...)
		f.index[i] = make(map[int]int, len(cols))
		rowBlocks := make([][]float64, len(blocks))
		for e, blk := range blocks {
			rowBlocks[e] = append([]float64(nil), blk...)
			f.index[i][cols[e]] = e
		}
		f.blocks[i] = rowBlocks
	}

	for i := 0; i < n; i++ {
		// Process the sub-diagonal entries of row i in increasing column
		// order, eliminating against already-factorized pivot rows.
		for _, k := range sortedBelow(f.cols[i], i) {
			dk, err := f.diagInverse(k)
			if err != nil {
				return errSingular(k, err)
			}
			aik := f.blocks[i][f.index[i][k]]
			lik := matMul(v, aik, dk)
			copy(aik, lik)

			for j, e := range f.index[i] {
				if j <= k {
					continue
				}
				ke, ok := f.index[k][j]
				if !ok {
					continue // ILU(0): drop fill-in outside the pattern
				}
				ukj := f.blocks[k][ke]
				sub := matMul(v, lik, ukj)
				aij := f.blocks[i][e]
				for t := range aij {
					aij[t] -= sub[t]
				}
			}
		}
		// The diagonal block, after eliminations above, is U_ii; verify
		// it is invertible now so Apply never has to fail mid-sweep.
		if _, err := f.diagInverse(i); err != nil {
			return errSingular(i, err)
		}
	}
	return nil
}

func (f *ILU0) Apply(r, z []float64) error {
	n, v := f.M.N(), f.v
	y := make([]float64, n*v)

	// Forward solve (L+I) y = r; L has implicit unit diagonal.
	for i := 0; i < n; i++ {
		rhs := make([]float64, v)
		copy(rhs, r[i*v:(i+1)*v])
		for e, j := range f.cols[i] {
			if j >= i {
				continue
			}
			subtractBlockMul(rhs, f.blocks[i][e], y[j*v:(j+1)*v], v)
		}
		copy(y[i*v:(i+1)*v], rhs)
	}

	// Backward solve U z = y.
	for i := n - 1; i >= 0; i-- {
		rhs := make([]float64, v)
		copy(rhs, y[i*v:(i+1)*v])
		for e, j := range f.cols[i] {
			if j <= i {
				continue
			}
			subtractBlockMul(rhs, f.blocks[i][e], z[j*v:(j+1)*v], v)
		}
		uii := f.blocks[i][f.index[i][i]]
		sol, err := solveDense(v, uii, rhs)
		if err != nil {
			return errSingular(i, err)
		}
		copy(z[i*v:(i+1)*v], sol)
	}
	return nil
}

// diagInverse returns the inverse of the current (i,i) block.
func (f *ILU0) diagInverse(i int) ([]float64, error) {
	e, ok := f.index[i][i]
	if !ok {
		return nil, errNoDiagPlain
	}
	return matInv(f.v, f.blocks[i][e])
}

var errNoDiagPlain = errNoDiag(-1)

// sortedBelow returns the entries of cols that are < pivot, in ascending
// order.
func sortedBelow(cols []int, pivot int) []int {
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if c < pivot {
			out = append(out, c)
		}
	}
	// insertion sort: rows carry few neighbours, so this stays cheap and
	// avoids pulling in sort.Slice for a handful of elements.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func matMul(v int, a, b []float64) []float64 {
	out := make([]float64, v*v)
	for r := 0; r < v; r++ {
		for c := 0; c < v; c++ {
			var s float64
			for m := 0; m < v; m++ {
				s += a[r*v+m] * b[m*v+c]
			}
			out[r*v+c] = s
		}
	}
	return out
}

func matInv(v int, blk []float64) ([]float64, error) {
	if v == 1 {
		if blk[0] == 0 {
			return nil, errNoPivot
		}
		return []float64{1 / blk[0]}, nil
	}
	a := mat.NewDense(v, v, append([]float64(nil), blk...))
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, err
	}
	out := make([]float64, v*v)
	for r := 0; r < v; r++ {
		for c := 0; c < v; c++ {
			out[r*v+c] = inv.At(r, c)
		}
	}
	return out, nil
}
