// Package precond implements the preconditioner set of component B
// (§4.B): {NoOp, Jacobi, Symmetric Gauss-Seidel, ILU(0)}, each exposing
// Setup (invoked once per pseudo-time step, after the Jacobian is
// reassembled) and Apply (invoked inside the Krylov loop) to approximate
// z ≈ M^-1 r.
package precond

// Preconditioner is the capability set every preconditioner exposes to the
// Krylov solvers.
type Preconditioner interface {
	// Setup refreshes any cached factorization from the matrix's current
	// values. Called once per pseudo-time step, after reassembly.
	Setup() error

	// Apply computes z ≈ M^-1 r.
	Apply(r, z []float64) error
}

// NoOp is the identity preconditioner: z <- r.
type NoOp struct{}

func (NoOp) Setup() error { return nil }

func (NoOp) Apply(r, z []float64) error {
	copy(z, r)
	return nil
}
