// Package profiles holds the radial plasma profiles evolved by the solver
// (ion temperature, electron temperature, electron density, poloidal flux)
// together with their boundary conditions. A State is immutable once built:
// each accepted timestep replaces it wholesale.
package profiles

import "math"

// Profile is one physical quantity on cell centers.
type Profile []float64

// Clone returns an independent copy.
func (p Profile) Clone() Profile {
	c := make(Profile, len(p))
	copy(c, p)
	return c
}

// IsFinite reports whether every entry is a finite number.
func (p Profile) IsFinite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NonNegative reports whether every entry is >= 0.
func (p Profile) NonNegative() bool {
	for _, v := range p {
		if v < 0 {
			return false
		}
	}
	return true
}

// Channel identifies one of the four coupled transport equations.
type Channel uint8

const (
	IonHeat Channel = iota
	ElectronHeat
	Density
	PoloidalFlux

	NumChannels = 4
)

// String returns the channel name used in configs and diagnostics.
func (c Channel) String() string {
	switch c {
	case IonHeat:
		return "ion_heat"
	case ElectronHeat:
		return "electron_heat"
	case Density:
		return "density"
	case PoloidalFlux:
		return "poloidal_flux"
	}
	return "unknown"
}

// ChannelFromName maps a config name back to its Channel.
func ChannelFromName(name string) (Channel, bool) {
	for c := IonHeat; c < NumChannels; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
