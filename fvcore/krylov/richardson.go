package krylov

import (
	"context"

	"github.com/pdrersin/FVENS/fvcore/precond"
)

// Richardson implements stationary Richardson iteration with no Krylov
// acceleration: x <- x + Prec(b - M*x).
type Richardson struct{}

func (Richardson) Solve(ctx context.Context, a Operator, pc precond.Preconditioner, b, x []float64, tol float64, maxit int) (int, error) {
	n := len(b)
	r := make([]float64, n)
	z := make([]float64, n)

	residual(a, b, x, r)
	r0 := norm2(r)
	if r0 == 0 {
		return 0, nil
	}

	it := 0
	for ; it < maxit; it++ {
		if norm2(r)/r0 <= tol {
			break
		}
		if cancelled(ctx) {
			break
		}
		if err := pc.Apply(r, z); err != nil {
			return it, err
		}
		for i := 0; i < n; i++ {
			x[i] += z[i]
		}
		residual(a, b, x, r)
	}
	return it, nil
}
