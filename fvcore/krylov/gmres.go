package krylov

import (
	"context"
	"math"

	"github.com/pdrersin/FVENS/fvcore/precond"
)

// GMRES implements right-preconditioned restarted GMRES(k): Arnoldi with
// modified Gram-Schmidt builds an orthonormal Krylov basis of
// A*M^-1, Givens rotations maintain an upper-triangular R and a running
// residual bound, and on restart the current x is reconstructed and the
// method re-enters. Restart length is k = Restart (0 means no limit: use
// maxit).
type GMRES struct {
	Restart int
}

func (g GMRES) Solve(ctx context.Context, a Operator, pc precond.Preconditioner, b, x []float64, tol float64, maxit int) (int, error) {
	n := len(b)
	m := g.Restart
	if m <= 0 || m > maxit {
		m = maxit
	}
	if m <= 0 {
		m = 1
	}

	v := make([][]float64, m+1)
	for i := range v {
		v[i] = make([]float64, n)
	}
	z := make([][]float64, m)
	for i := range z {
		z[i] = make([]float64, n)
	}
	h := make([][]float64, m+1)
	for i := range h {
		h[i] = make([]float64, m)
	}
	cs := make([]float64, m)
	sn := make([]float64, m)
	g_ := make([]float64, m+1)

	r := make([]float64, n)
	residual(a, b, x, r)
	r0 := norm2(r)
	if r0 == 0 {
		return 0, nil
	}

	total := 0
	for total < maxit {
		residual(a, b, x, r)
		beta := norm2(r)
		if beta/r0 <= tol {
			break
		}
		for i := range v[0] {
			v[0][i] = r[i] / beta
		}
		for i := range g_ {
			g_[i] = 0
		}
		g_[0] = beta

		k := 0
		converged := false
		for ; k < m && total < maxit; k++ {
			total++
			if cancelled(ctx) {
				converged = true // stop cleanly with current best
				break
			}
			if err := pc.Apply(v[k], z[k]); err != nil {
				return total, err
			}
			w := make([]float64, n)
			a.Apply(z[k], w)

			for i := 0; i <= k; i++ {
				h[i][k] = dot(v[i], w)
				axpy(-h[i][k], v[i], w)
			}
			hNext := norm2(w)
			h[k+1][k] = hNext
			if hNext > 1e-300 {
				for i := range w {
					v[k+1][i] = w[i] / hNext
				}
			}

			for i := 0; i < k; i++ {
				hik, hik1 := h[i][k], h[i+1][k]
				h[i][k] = cs[i]*hik + sn[i]*hik1
				h[i+1][k] = -sn[i]*hik + cs[i]*hik1
			}
			denom := math.Hypot(h[k][k], h[k+1][k])
			if denom == 0 {
				cs[k], sn[k] = 1, 0
			} else {
				cs[k] = h[k][k] / denom
				sn[k] = h[k+1][k] / denom
			}
			h[k][k] = cs[k]*h[k][k] + sn[k]*h[k+1][k]
			h[k+1][k] = 0

			g_[k+1] = -sn[k] * g_[k]
			g_[k] = cs[k] * g_[k]

			if math.Abs(g_[k+1])/r0 <= tol {
				k++
				converged = true
				break
			}
		}
		if k == 0 {
			break
		}

		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			s := g_[i]
			for j := i + 1; j < k; j++ {
				s -= h[i][j] * y[j]
			}
			if h[i][i] == 0 {
				y[i] = 0
				continue
			}
			y[i] = s / h[i][i]
		}
		for i := 0; i < k; i++ {
			axpy(y[i], z[i], x)
		}

		if converged {
			break
		}
	}
	return total, nil
}
