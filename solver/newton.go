package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
)

// Params tunes the Newton iteration.
type Params struct {
	// Convergence: the scaled RMS residual error must fall below one,
	// where each row is scaled by AbsTol + RelTol*(magnitude of that
	// row's time-difference term).
	RelTol float64
	AbsTol float64

	MaxIters      int
	MaxBacktracks int

	// ExtraDirs widens every seeded dual by this many caller-owned
	// derivative directions (parameter seeds in sensitivity runs) so that
	// model parameters carrying those directions combine with consistent
	// widths. The Newton iteration itself never reads them.
	ExtraDirs int
}

// DefaultParams are conservative settings suitable for stiff diffusion.
func DefaultParams() Params {
	return Params{RelTol: 1e-7, AbsTol: 1e-10, MaxIters: 30, MaxBacktracks: 8}
}

// Diagnostics is plain control data about one solve: never differentiated,
// kept apart from the converged state (which is).
type Diagnostics struct {
	Iterations  int
	Backtracks  int
	ResidualErr float64
}

// Result is the tagged outcome of one nonlinear solve: either a converged
// next-step vector with diagnostics, or a failure with the error that ended
// the iteration. A failed Result carries no state, so an invalid iterate
// can never leak downstream.
type Result struct {
	X         []float64
	Converged bool
	Diag      Diagnostics
	Err       error
}

// Solve finds the next-step unknown vector zeroing the residual, starting
// from x0 (normally the packed old state). old is the dual view of the
// previous accepted state; extra derivative directions it carries (for
// sensitivity runs) do not influence the solve itself, which seeds only the
// colored Jacobian directions.
func (d *Discretizer) Solve(old *transport.State, bc profiles.BoundarySet,
	x0 []float64, t, dt float64, p Params) Result {
	if p.MaxIters <= 0 {
		return Result{Err: fmt.Errorf("MaxIters must be positive, got %d", p.MaxIters)}
	}
	denoms := d.rowScales(old, bc, dt, p)
	x := append([]float64(nil), x0...)
	xNew := make([]float64, len(x))
	neg := make([]float64, len(x))

	var diag Diagnostics
	for it := 0; it < p.MaxIters; it++ {
		diag.Iterations = it
		res, err := d.Residual(old, bc, d.SeedTrial(x, p.ExtraDirs), t, dt)
		if err != nil {
			return Result{Diag: diag, Err: err}
		}
		if !res.IsFinite() {
			return Result{Diag: diag, Err: ErrNumericalInvalidity}
		}
		vals := res.Values()
		e := rmsErr(vals, denoms)
		diag.ResidualErr = e
		if e < 1 {
			return Result{X: x, Converged: true, Diag: diag}
		}

		jac := d.AssembleJacobian(res)
		floats.ScaleTo(neg, -1, vals)
		step, serr := jac.Solve(neg)
		if serr != nil {
			// Singular pivot in the block elimination: fall back to the
			// dense factorization before giving up.
			if step, serr = jac.SolveDense(neg); serr != nil {
				return Result{Diag: diag, Err: fmt.Errorf("%w: %v", ErrSingularJacobian, serr)}
			}
		}
		if !finiteSlice(step) {
			return Result{Diag: diag, Err: ErrNumericalInvalidity}
		}

		// Backtracking line search: halve the Newton step until the scaled
		// residual error decreases.
		lambda := 1.0
		accepted := false
		for bt := 0; bt <= p.MaxBacktracks; bt++ {
			floats.AddScaledTo(xNew, x, lambda, step)
			trialRes, terr := d.Residual(old, bc, ad.ConstVec(xNew), t, dt)
			if terr == nil && trialRes.IsFinite() {
				if rmsErr(trialRes.Values(), denoms) < e {
					copy(x, xNew)
					accepted = true
					break
				}
			}
			lambda /= 2
			diag.Backtracks++
		}
		if !accepted {
			return Result{Diag: diag, Err: ErrNonConvergence}
		}
	}
	diag.Iterations = p.MaxIters
	return Result{Diag: diag, Err: ErrNonConvergence}
}

// rowScales builds the per-row convergence denominators: AbsTol plus
// RelTol times the magnitude of the row's time-difference term, or of the
// pinned value for a Dirichlet replacement row.
func (d *Discretizer) rowScales(old *transport.State, bc profiles.BoundarySet,
	dt float64, p Params) []float64 {
	m := d.Mesh
	n := m.NumCells
	nc := len(d.Active)
	out := make([]float64, n*nc)
	for k, c := range d.Active {
		uOld := old.Channel(c)
		// Channel-mean magnitude floors the per-cell scale so rows where
		// the profile passes through zero are not held to an absolute test.
		var mean float64
		for i := 0; i < n; i++ {
			mean += math.Abs(uOld[i].V)
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			scale := m.Volumes[i] * math.Max(math.Abs(uOld[i].V), mean) / dt
			out[i*nc+k] = p.AbsTol + p.RelTol*scale
		}
		if bc[c].Kind == profiles.EdgeValue {
			out[(n-1)*nc+k] = p.AbsTol + p.RelTol*(math.Abs(bc[c].Value)+1)
		}
	}
	return out
}

func rmsErr(r, denom []float64) float64 {
	var sum float64
	for i, v := range r {
		e := v / denom[i]
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(r)))
}

func finiteSlice(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
