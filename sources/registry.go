package sources

import (
	"fmt"

	"github.com/theo-brown/torax/transport"
)

// BuildSource constructs a named source model from its parameters, falling
// back to model defaults for parameters not present.
func BuildSource(name string, p transport.Params) (Source, error) {
	get := func(key string, def float64) float64 {
		if v, ok := p[key]; ok {
			return v.V
		}
		return def
	}
	switch name {
	case "generic_heat":
		power, ok := p["power"]
		if !ok {
			return nil, fmt.Errorf("source %s: missing required parameter power", name)
		}
		return NewGaussianHeat(power, get("location", 0.0), get("width", 0.25), get("ion_fraction", 0.5))
	case "gas_puff":
		rate, ok := p["rate"]
		if !ok {
			return nil, fmt.Errorf("source %s: missing required parameter rate", name)
		}
		return NewGasPuff(rate, get("width", 0.05))
	case "ohmic_heat":
		scale, ok := p["scale"]
		if !ok {
			return nil, fmt.Errorf("source %s: missing required parameter scale", name)
		}
		return NewOhmicHeat(scale)
	}
	return nil, fmt.Errorf("unknown source model %q", name)
}
