package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BlockTridiag is a block-tridiagonal matrix of N square blocks of size B,
// the Jacobian structure produced by a nearest-neighbor stencil over N
// cells with B coupled unknowns per cell. Lower[0] and Upper[N-1] are
// unused.
type BlockTridiag struct {
	N, B  int
	Lower []*mat.Dense
	Diag  []*mat.Dense
	Upper []*mat.Dense
}

// NewBlockTridiag allocates zeroed blocks for an N-cell, B-channel system.
func NewBlockTridiag(n, b int) *BlockTridiag {
	m := &BlockTridiag{
		N:     n,
		B:     b,
		Lower: make([]*mat.Dense, n),
		Diag:  make([]*mat.Dense, n),
		Upper: make([]*mat.Dense, n),
	}
	for i := 0; i < n; i++ {
		m.Lower[i] = mat.NewDense(b, b, nil)
		m.Diag[i] = mat.NewDense(b, b, nil)
		m.Upper[i] = mat.NewDense(b, b, nil)
	}
	return m
}

// Solve runs the block Thomas algorithm: forward elimination with a block
// LU factorization per cell, then back substitution. Near-linear in N. The
// input rhs is not modified.
func (m *BlockTridiag) Solve(rhs []float64) ([]float64, error) {
	if len(rhs) != m.N*m.B {
		return nil, fmt.Errorf("rhs length %d does not match system size %d", len(rhs), m.N*m.B)
	}
	n, b := m.N, m.B

	// cPrime[i] = Dhat_i^{-1} Upper_i, yPrime[i] = Dhat_i^{-1} (rhs_i - Lower_i yPrime_{i-1})
	cPrime := make([]*mat.Dense, n)
	yPrime := make([]*mat.VecDense, n)

	var lu mat.LU
	work := mat.NewDense(b, b, nil)

	for i := 0; i < n; i++ {
		work.Copy(m.Diag[i])
		if i > 0 {
			// Dhat_i = Diag_i - Lower_i cPrime_{i-1}
			var tmp mat.Dense
			tmp.Mul(m.Lower[i], cPrime[i-1])
			work.Sub(work, &tmp)
		}
		lu.Factorize(work)

		rvec := mat.NewVecDense(b, append([]float64(nil), rhs[i*b:(i+1)*b]...))
		if i > 0 {
			var tmp mat.VecDense
			tmp.MulVec(m.Lower[i], yPrime[i-1])
			rvec.SubVec(rvec, &tmp)
		}
		yPrime[i] = mat.NewVecDense(b, nil)
		if err := lu.SolveVecTo(yPrime[i], false, rvec); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if i < n-1 {
			cPrime[i] = mat.NewDense(b, b, nil)
			if err := lu.SolveTo(cPrime[i], false, m.Upper[i]); err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
		}
	}

	x := make([]float64, n*b)
	copy(x[(n-1)*b:], yPrime[n-1].RawVector().Data)
	for i := n - 2; i >= 0; i-- {
		var tmp mat.VecDense
		tmp.MulVec(cPrime[i], mat.NewVecDense(b, x[(i+1)*b:(i+2)*b]))
		for k := 0; k < b; k++ {
			x[i*b+k] = yPrime[i].AtVec(k) - tmp.AtVec(k)
		}
	}
	return x, nil
}

// Dense expands the banded structure into a full matrix for the fallback
// solve and for testing.
func (m *BlockTridiag) Dense() *mat.Dense {
	size := m.N * m.B
	out := mat.NewDense(size, size, nil)
	for i := 0; i < m.N; i++ {
		for a := 0; a < m.B; a++ {
			for c := 0; c < m.B; c++ {
				out.Set(i*m.B+a, i*m.B+c, m.Diag[i].At(a, c))
				if i > 0 {
					out.Set(i*m.B+a, (i-1)*m.B+c, m.Lower[i].At(a, c))
				}
				if i < m.N-1 {
					out.Set(i*m.B+a, (i+1)*m.B+c, m.Upper[i].At(a, c))
				}
			}
		}
	}
	return out
}

// SolveDense solves the system with a dense LU factorization, the
// correctness fallback when the block elimination hits a singular pivot.
func (m *BlockTridiag) SolveDense(rhs []float64) ([]float64, error) {
	if len(rhs) != m.N*m.B {
		return nil, fmt.Errorf("rhs length %d does not match system size %d", len(rhs), m.N*m.B)
	}
	var lu mat.LU
	lu.Factorize(m.Dense())
	out := mat.NewVecDense(len(rhs), nil)
	if err := lu.SolveVecTo(out, false, mat.NewVecDense(len(rhs), append([]float64(nil), rhs...))); err != nil {
		return nil, err
	}
	return out.RawVector().Data, nil
}
