package precond

// SGS is the symmetric Gauss-Seidel preconditioner (§4.B): a forward sweep
// solving (D+L)*y = r followed by a backward sweep solving
// (D+U)*z = D*y, i.e. z[i] = y[i] - D_i^-1 * sum_{j>i} M_ij*z[j]. Both
// sweeps are strictly ordered by row index; this baseline implementation
// runs them serially, as the spec allows ("implementers may colour rows
// for parallelism provided colour classes respect the dependency").
type SGS struct {
	M Matrix
	v int

	y []float64 // forward-sweep intermediate, reused across Apply calls
}

func NewSGS(m Matrix) *SGS {
	return &SGS{M: m, v: m.V(), y: make([]float64, m.N()*m.V())}
}

func (s *SGS) Setup() error { return nil }

func (s *SGS) Apply(r, z []float64) error {
	n, v := s.M.N(), s.v

	// Forward sweep: y[i] = D_i^-1 (r[i] - sum_{j<i} M_ij y[j]).
	for i := 0; i < n; i++ {
		rhs := make([]float64, v)
		copy(rhs, r[i*v:(i+1)*v])
		cols, blocks := s.M.Row(i)
		for e, j := range cols {
			if j >= i {
				continue
			}
			subtractBlockMul(rhs, blocks[e], s.y[j*v:(j+1)*v], v)
		}
		diag, ok := s.M.Block(i, i)
		if !ok {
			return errNoDiag(i)
		}
		sol, err := solveDense(v, diag, rhs)
		if err != nil {
			return errSingular(i, err)
		}
		copy(s.y[i*v:(i+1)*v], sol)
	}

	// Backward sweep: z[i] = y[i] - D_i^-1 * sum_{j>i} M_ij z[j].
	for i := n - 1; i >= 0; i-- {
		acc := make([]float64, v)
		cols, blocks := s.M.Row(i)
		for e, j := range cols {
			if j <= i {
				continue
			}
			addBlockMul(acc, blocks[e], z[j*v:(j+1)*v], v)
		}
		diag, ok := s.M.Block(i, i)
		if !ok {
			return errNoDiag(i)
		}
		corr, err := solveDense(v, diag, acc)
		if err != nil {
			return errSingular(i, err)
		}
		for k := 0; k < v; k++ {
			z[i*v+k] = s.y[i*v+k] - corr[k]
		}
	}
	return nil
}

func subtractBlockMul(dst, blk, x []float64, v int) {
	for row := 0; row < v; row++ {
		var s float64
		for col := 0; col < v; col++ {
			s += blk[row*v+col] * x[col]
		}
		dst[row] -= s
	}
}

func addBlockMul(dst, blk, x []float64, v int) {
	for row := 0; row < v; row++ {
		var s float64
		for col := 0; col < v; col++ {
			s += blk[row*v+col] * x[col]
		}
		dst[row] += s
	}
}
