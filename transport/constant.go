package transport

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
)

// ConstantModel applies state-independent diffusivities and a fixed inward
// particle pinch. Parameters are duals so a sensitivity run can seed any of
// them; plain runs construct them with ad.Const.
type ConstantModel struct {
	ChiIon      ad.Num // ion heat diffusivity
	ChiElectron ad.Num // electron heat diffusivity
	ParticleD   ad.Num // particle diffusivity
	ParticleV   ad.Num // particle convection, negative is inward
	FluxEta     ad.Num // poloidal flux diffusivity (resistive)
}

// NewConstantModel validates the diffusivities (they must be positive;
// convection may take either sign).
func NewConstantModel(chiIon, chiElectron, particleD, particleV, fluxEta ad.Num) (*ConstantModel, error) {
	for name, v := range map[string]ad.Num{
		"chi_ion": chiIon, "chi_electron": chiElectron,
		"particle_d": particleD, "flux_eta": fluxEta,
	} {
		if v.V <= 0 {
			return nil, fmt.Errorf("constant transport: %s must be positive, got %g", name, v.V)
		}
	}
	return &ConstantModel{
		ChiIon:      chiIon,
		ChiElectron: chiElectron,
		ParticleD:   particleD,
		ParticleV:   particleV,
		FluxEta:     fluxEta,
	}, nil
}

func (m *ConstantModel) Name() string { return "constant" }

// Evaluate fills every face with the fixed coefficients.
func (m *ConstantModel) Evaluate(s *State, mesh *geometry.Mesh, t float64) (Coefficients, error) {
	nf := mesh.NumCells + 1
	fill := func(v ad.Num) ad.Vec {
		out := make(ad.Vec, nf)
		for i := range out {
			out[i] = v
		}
		return out
	}
	zero := fill(ad.Const(0))

	var c Coefficients
	c[profiles.IonHeat] = ChannelCoeffs{Diffusivity: fill(m.ChiIon), Velocity: zero}
	c[profiles.ElectronHeat] = ChannelCoeffs{Diffusivity: fill(m.ChiElectron), Velocity: zero}
	c[profiles.Density] = ChannelCoeffs{Diffusivity: fill(m.ParticleD), Velocity: fill(m.ParticleV)}
	c[profiles.PoloidalFlux] = ChannelCoeffs{Diffusivity: fill(m.FluxEta), Velocity: zero}
	return c, nil
}
