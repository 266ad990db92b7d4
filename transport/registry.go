package transport

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
)

// Params maps model parameter names to dual values. Plain runs use
// ConstParams; sensitivity runs seed exactly one entry.
type Params map[string]ad.Num

// ConstParams lifts plain floats into constant duals.
func ConstParams(vals map[string]float64) Params {
	p := make(Params, len(vals))
	for k, v := range vals {
		p[k] = ad.Const(v)
	}
	return p
}

func (p Params) get(name string, def float64) ad.Num {
	if v, ok := p[name]; ok {
		return v
	}
	return ad.Const(def)
}

// BuildModel constructs a named transport model from its parameters,
// falling back to model defaults for parameters not present.
func BuildModel(name string, p Params) (Model, error) {
	switch name {
	case "constant":
		return NewConstantModel(
			p.get("chi_ion", 1.0),
			p.get("chi_electron", 1.0),
			p.get("particle_d", 0.5),
			p.get("particle_v", -0.2),
			p.get("flux_eta", 1.0),
		)
	case "critical_gradient":
		return NewCriticalGradientModel(
			p.get("chi_floor", 0.5),
			p.get("stiffness", 2.0),
			p.get("threshold", 2.0),
			p.get("elec_ratio", 1.0),
			p.get("d_ratio", 0.25),
			p.get("pinch_v", -0.2),
			p.get("flux_eta", 1.0),
		)
	}
	return nil, fmt.Errorf("unknown transport model %q", name)
}
