package ad

// Vec is an ordered sequence of duals, typically one per mesh cell or face.
type Vec []Num

// ConstVec lifts a plain slice into constants.
func ConstVec(vs []float64) Vec {
	out := make(Vec, len(vs))
	for i, v := range vs {
		out[i] = Const(v)
	}
	return out
}

// SeedVec lifts vs into duals where entry i carries a unit derivative along
// direction color(i) out of width directions. Distinct entries may share a
// direction (coloring); the caller guarantees that shared entries never
// appear in the same dependency set.
func SeedVec(vs []float64, width int, color func(i int) int) Vec {
	out := make(Vec, len(vs))
	for i, v := range vs {
		out[i] = Seed(v, color(i), width)
	}
	return out
}

// Values strips the derivative parts.
func (x Vec) Values() []float64 {
	out := make([]float64, len(x))
	for i, a := range x {
		out[i] = a.V
	}
	return out
}

// IsFinite reports whether every entry is finite in value and derivatives.
func (x Vec) IsFinite() bool {
	for _, a := range x {
		if !a.IsFinite() {
			return false
		}
	}
	return true
}
