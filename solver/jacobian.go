package solver

import (
	"github.com/theo-brown/torax/ad"
)

// AssembleJacobian decodes the colored derivative directions of a residual
// evaluated on a SeedTrial vector into the block-tridiagonal Jacobian
// dR/dx. Direction j mod 3*nc holds the derivative with respect to column
// j; within any row's stencil (three consecutive cells) all columns map to
// distinct directions, so the decode is exact for nearest-neighbor models.
func (d *Discretizer) AssembleJacobian(res ad.Vec) *BlockTridiag {
	n := d.Mesh.NumCells
	nc := len(d.Active)
	span := 3 * nc
	jac := NewBlockTridiag(n, nc)
	for i := 0; i < n; i++ {
		for a := 0; a < nc; a++ {
			r := res[i*nc+a]
			for b := 0; b < nc; b++ {
				if i > 0 {
					jac.Lower[i].Set(a, b, r.Deriv(((i-1)*nc+b)%span))
				}
				jac.Diag[i].Set(a, b, r.Deriv((i*nc+b)%span))
				if i < n-1 {
					jac.Upper[i].Set(a, b, r.Deriv(((i+1)*nc+b)%span))
				}
			}
		}
	}
	return jac
}

// ParamGradient extracts derivative direction dir of the residual as a
// plain vector, the dR/dp column a sensitivity solve feeds to the linear
// solver.
func ParamGradient(res ad.Vec, dir int) []float64 {
	out := make([]float64, len(res))
	for i, r := range res {
		out[i] = r.Deriv(dir)
	}
	return out
}
