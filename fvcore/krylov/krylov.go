// Package krylov implements component C (§4.C): a preconditioned Krylov
// inner solve over a linear operator exposed by a block-sparse matrix (or,
// per the Design Notes matrix-free option, a finite-differenced operator),
// with the stopping criterion ||r_k||/||r_0|| <= tol. A solver always
// returns the best iterate reached; it never fails on non-convergence —
// it returns maxit and lets the driver decide (an IterationCap, not an
// error).
package krylov

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pdrersin/FVENS/fvcore/precond"
)

// Operator is a linear operator y <- A*x, exposed by *blocksparse.Matrix's
// Apply method or by a matrix-free finite-difference approximation.
type Operator interface {
	Apply(x, y []float64)
}

// Solver is the capability set for a Krylov method (§4.C, Design Notes
// "dispatch via tagged variant or virtual interface").
type Solver interface {
	// Solve approximates A*x = b starting from the current contents of x
	// (used as the initial guess), to relative residual tol, in at most
	// maxit iterations. It returns the number of iterations actually
	// performed. ctx, if non-nil, is checked between iterations (never
	// mid-sweep) and causes an early return with the best iterate so far.
	Solve(ctx context.Context, a Operator, pc precond.Preconditioner, b, x []float64, tol float64, maxit int) (iterations int, err error)
}

func dot(a, b []float64) float64 { return floats.Dot(a, b) }

func norm2(a []float64) float64 { return math.Sqrt(dot(a, a)) }

func axpy(alpha float64, x, y []float64) { floats.AddScaled(y, alpha, x) }

// residual computes r <- b - A*x.
func residual(a Operator, b, x, r []float64) {
	a.Apply(x, r)
	for i := range r {
		r[i] = b[i] - r[i]
	}
}

// cancelled reports whether ctx has been cancelled, without blocking.
func cancelled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
