package sources

import (
	"fmt"
	"math"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
)

// GasPuff models edge particle fuelling with an exponential penetration
// profile from the last closed surface inward.
type GasPuff struct {
	Rate  ad.Num  // total particle source [1e20 s^-1]
	Width float64 // e-folding penetration depth in rho
}

// NewGasPuff validates the fuelling parameters.
func NewGasPuff(rate ad.Num, width float64) (*GasPuff, error) {
	if rate.V < 0 {
		return nil, fmt.Errorf("gas puff: rate must be non-negative, got %g", rate.V)
	}
	if width <= 0 {
		return nil, fmt.Errorf("gas puff: width must be positive, got %g", width)
	}
	return &GasPuff{Rate: rate, Width: width}, nil
}

func (g *GasPuff) Name() string { return "gas_puff" }

// Profiles deposits Rate into the density channel, concentrated at the edge.
func (g *GasPuff) Profiles(s *transport.State, mesh *geometry.Mesh, t float64) (Set, error) {
	shape := make([]float64, mesh.NumCells)
	for i, rho := range mesh.CellCenters {
		shape[i] = math.Exp(-(1 - rho) / g.Width)
	}
	shape = normalizedShape(shape, mesh)

	dens := make(ad.Vec, mesh.NumCells)
	for i, v := range shape {
		dens[i] = ad.Scale(v, g.Rate)
	}
	var out Set
	out[profiles.Density] = dens
	return out, nil
}
