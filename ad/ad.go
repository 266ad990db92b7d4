// Package ad implements forward-mode automatic differentiation on dual
// numbers. A Num carries a value together with its derivatives along a fixed
// set of seed directions; arithmetic on Nums propagates both exactly. The
// solver uses colored seed directions to recover banded Jacobians from a
// single residual evaluation (see Seed and the solver package).
package ad

import "math"

// Num is a dual number: a value plus derivatives with respect to the seed
// directions of the enclosing computation. A Num with a nil derivative slice
// is a constant. All non-constant Nums participating in one computation must
// share the same derivative width.
type Num struct {
	V float64
	D []float64
}

// Const returns a constant (zero-derivative) dual.
func Const(v float64) Num {
	return Num{V: v}
}

// Seed returns a dual with value v and a unit derivative along direction idx
// out of width seed directions.
func Seed(v float64, idx, width int) Num {
	d := make([]float64, width)
	d[idx] = 1
	return Num{V: v, D: d}
}

// Deriv returns the derivative along direction idx, zero for constants.
func (a Num) Deriv(idx int) float64 {
	if a.D == nil {
		return 0
	}
	return a.D[idx]
}

// IsFinite reports whether the value and every derivative component are
// finite.
func (a Num) IsFinite() bool {
	if math.IsNaN(a.V) || math.IsInf(a.V, 0) {
		return false
	}
	for _, d := range a.D {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}

// binary combines the derivative parts of a and b with the chain-rule
// weights da and db.
func binary(v float64, a, b Num, da, db float64) Num {
	if a.D == nil && b.D == nil {
		return Num{V: v}
	}
	var d []float64
	switch {
	case a.D == nil:
		d = make([]float64, len(b.D))
		for i := range d {
			d[i] = db * b.D[i]
		}
	case b.D == nil:
		d = make([]float64, len(a.D))
		for i := range d {
			d[i] = da * a.D[i]
		}
	default:
		d = make([]float64, len(a.D))
		for i := range d {
			d[i] = da*a.D[i] + db*b.D[i]
		}
	}
	return Num{V: v, D: d}
}

// unary applies the chain-rule weight da to the derivative part of a.
func unary(v float64, a Num, da float64) Num {
	if a.D == nil {
		return Num{V: v}
	}
	d := make([]float64, len(a.D))
	for i := range d {
		d[i] = da * a.D[i]
	}
	return Num{V: v, D: d}
}

func Add(a, b Num) Num { return binary(a.V+b.V, a, b, 1, 1) }
func Sub(a, b Num) Num { return binary(a.V-b.V, a, b, 1, -1) }
func Mul(a, b Num) Num { return binary(a.V*b.V, a, b, b.V, a.V) }

func Div(a, b Num) Num {
	inv := 1 / b.V
	return binary(a.V*inv, a, b, inv, -a.V*inv*inv)
}

func Neg(a Num) Num { return unary(-a.V, a, -1) }

// Scale multiplies a by the plain scalar s.
func Scale(s float64, a Num) Num { return unary(s * a.V, a, s) }

// AddConst shifts a by the plain scalar s.
func AddConst(s float64, a Num) Num { return unary(s+a.V, a, 1) }

func Sqrt(a Num) Num {
	v := math.Sqrt(a.V)
	return unary(v, a, 0.5/v)
}

func Exp(a Num) Num {
	v := math.Exp(a.V)
	return unary(v, a, v)
}

func Log(a Num) Num { return unary(math.Log(a.V), a, 1/a.V) }

// Pow raises a to the plain scalar power p.
func Pow(a Num, p float64) Num {
	return unary(math.Pow(a.V, p), a, p*math.Pow(a.V, p-1))
}

// Abs propagates the subgradient sign(a) away from zero and zero at zero.
func Abs(a Num) Num {
	switch {
	case a.V > 0:
		return a
	case a.V < 0:
		return Neg(a)
	default:
		return unary(0, a, 0)
	}
}

// Max selects the larger argument; ties take a, so derivative information
// follows the first operand at the kink.
func Max(a, b Num) Num {
	if b.V > a.V {
		return b
	}
	return a
}

// Min selects the smaller argument; ties take a.
func Min(a, b Num) Num {
	if b.V < a.V {
		return b
	}
	return a
}
