package krylov

import (
	"context"
	"math"

	"github.com/pdrersin/FVENS/fvcore/precond"
)

const breakdownTol = 1e-300

// BiCGStab implements preconditioned BiConjugate Gradient Stabilized, with
// breakdown guards: when rho or omega collapses to (near) zero, the shadow
// vector is reinitialised and the iteration restarts rather than aborting.
// Final returned iterate has residual <= initial, though the method may
// oscillate in between.
type BiCGStab struct{}

func (BiCGStab) Solve(ctx context.Context, a Operator, pc precond.Preconditioner, b, x []float64, tol float64, maxit int) (int, error) {
	n := len(b)
	r := make([]float64, n)
	rt := make([]float64, n)
	p := make([]float64, n)
	v := make([]float64, n)
	phat := make([]float64, n)
	shat := make([]float64, n)
	s := make([]float64, n)
	t := make([]float64, n)

	residual(a, b, x, r)
	r0 := norm2(r)
	if r0 == 0 {
		return 0, nil
	}
	copy(rt, r)

	rho, rhoPrev, alpha, omega := 1.0, 1.0, 0.0, 1.0
	for i := range p {
		p[i] = 0
		v[i] = 0
	}

	it := 0
	for ; it < maxit; it++ {
		if norm2(r)/r0 <= tol {
			break
		}
		if cancelled(ctx) {
			break
		}

		rho = dot(rt, r)
		if math.Abs(rho) < breakdownTol {
			// Breakdown: restart with a fresh shadow vector.
			copy(rt, r)
			rho = dot(rt, r)
			rhoPrev, omega = 1, 1
			for i := range p {
				p[i] = 0
				v[i] = 0
			}
		}
		beta := (rho / rhoPrev) * (alpha / omega)
		for i := 0; i < n; i++ {
			p[i] = r[i] + beta*(p[i]-omega*v[i])
		}
		if err := pc.Apply(p, phat); err != nil {
			return it, err
		}
		a.Apply(phat, v)

		rtv := dot(rt, v)
		if rtv == 0 {
			copy(rt, r)
			rhoPrev, omega = 1, 1
			continue
		}
		alpha = rho / rtv
		for i := 0; i < n; i++ {
			s[i] = r[i] - alpha*v[i]
		}
		if norm2(s)/r0 <= tol {
			for i := 0; i < n; i++ {
				x[i] += alpha * phat[i]
			}
			it++
			break
		}

		if err := pc.Apply(s, shat); err != nil {
			return it, err
		}
		a.Apply(shat, t)
		tt := dot(t, t)
		if tt == 0 {
			for i := 0; i < n; i++ {
				x[i] += alpha * phat[i]
			}
			it++
			break
		}
		omega = dot(t, s) / tt

		for i := 0; i < n; i++ {
			x[i] += alpha*phat[i] + omega*shat[i]
			r[i] = s[i] - omega*t[i]
		}

		if math.Abs(omega) < breakdownTol {
			copy(rt, r)
			rhoPrev, omega = 1, 1
			continue
		}
		rhoPrev = rho
	}
	return it, nil
}
