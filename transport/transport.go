// Package transport defines the coefficient-evaluator contract of the
// solver: given the plasma state on a mesh, a Model produces per-equation
// diffusivities and convective velocities on cell faces. Models evaluate in
// dual arithmetic (package ad) so the solver can differentiate the residual
// through them exactly.
package transport

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
)

// State is the dual-valued view of the plasma profiles a model evaluates
// at. Evolved channels carry derivative seeds; frozen channels are
// constants. Read-only by convention.
type State struct {
	Time float64

	IonTemp      ad.Vec
	ElectronTemp ad.Vec
	ElectronDens ad.Vec
	PolFlux      ad.Vec
}

// ConstView lifts a plain state into constant duals, the view used by
// plain (non-sensitivity) solves.
func ConstView(s *profiles.State) *State {
	return &State{
		Time:         s.Time,
		IonTemp:      ad.ConstVec(s.IonTemp),
		ElectronTemp: ad.ConstVec(s.ElectronTemp),
		ElectronDens: ad.ConstVec(s.ElectronDens),
		PolFlux:      ad.ConstVec(s.PolFlux),
	}
}

// Channel returns the dual profile of the given equation.
func (s *State) Channel(c profiles.Channel) ad.Vec {
	switch c {
	case profiles.IonHeat:
		return s.IonTemp
	case profiles.ElectronHeat:
		return s.ElectronTemp
	case profiles.Density:
		return s.ElectronDens
	case profiles.PoloidalFlux:
		return s.PolFlux
	}
	panic(fmt.Sprintf("invalid channel %d", c))
}

// ChannelCoeffs are the transport coefficients of one equation on the face
// grid (length NumCells+1).
type ChannelCoeffs struct {
	Diffusivity ad.Vec
	Velocity    ad.Vec
}

// Coefficients carries one ChannelCoeffs per equation.
type Coefficients [profiles.NumChannels]ChannelCoeffs

// Model is the coefficient evaluator contract. Evaluate must be pure: no
// retained references, no mutation of its inputs, and every output dual
// derived from the state duals so the result stays differentiable. It is
// called at least once per nonlinear iteration.
type Model interface {
	Name() string
	Evaluate(s *State, mesh *geometry.Mesh, t float64) (Coefficients, error)
}
