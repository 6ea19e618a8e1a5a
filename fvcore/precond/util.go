package precond

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pdrersin/FVENS/fvcore/errs"
)

// solveDense solves the v×v dense system blk*x = rhs (blk row-major) and
// returns x, or an error if blk is singular to working precision.
func solveDense(v int, blk, rhs []float64) ([]float64, error) {
	if v == 1 {
		if blk[0] == 0 {
			return nil, errNoPivot
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

var errNoPivot = errs.Num("1x1 pivot block is zero")

func errNoDiag(i int) error {
	return errs.Struct("precond: row %d has no diagonal block", i)
}

func errSingular(i int, cause error) error {
	return errs.Num("precond: singular pivot block at row %d: %v", i, cause)
}
