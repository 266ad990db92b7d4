package sources

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
)

// OhmicHeat models resistive heating by the plasma current: the current
// density is reconstructed from the evolving poloidal flux and dissipated
// with a Spitzer-like resistivity eta ~ Te^(-3/2). This couples the flux
// channel into the electron heat channel.
type OhmicHeat struct {
	Scale ad.Num // overall resistive heating scale [MW m^-3 per unit j^2 eta]
}

// NewOhmicHeat validates the heating scale.
func NewOhmicHeat(scale ad.Num) (*OhmicHeat, error) {
	if scale.V < 0 {
		return nil, fmt.Errorf("ohmic heat: scale must be non-negative, got %g", scale.V)
	}
	return &OhmicHeat{Scale: scale}, nil
}

func (o *OhmicHeat) Name() string { return "ohmic_heat" }

// Profiles deposits Scale * eta(Te) * j(psi)^2 into the electron channel.
// The stencil of cell i spans cells i-1..i+1 through the flux gradient, so
// the coupling stays inside the solver's block-tridiagonal structure.
func (o *OhmicHeat) Profiles(s *transport.State, mesh *geometry.Mesh, t float64) (Set, error) {
	n := mesh.NumCells
	grad := transport.FaceGrad(s.PolFlux, mesh.Drho)

	elec := make(ad.Vec, n)
	for i := 0; i < n; i++ {
		// j ~ d/drho (rho dpsi/drho) / rho
		inner := ad.Scale(mesh.FaceCenters[i], grad[i])
		outer := ad.Scale(mesh.FaceCenters[i+1], grad[i+1])
		j := ad.Scale(1/(mesh.Drho*mesh.CellCenters[i]), ad.Sub(outer, inner))

		te := ad.Max(s.ElectronTemp[i], ad.Const(0.05))
		eta := ad.Pow(te, -1.5)
		elec[i] = ad.Mul(o.Scale, ad.Mul(eta, ad.Mul(j, j)))
	}
	var out Set
	out[profiles.ElectronHeat] = elec
	return out, nil
}
