package sources

import (
	"fmt"
	"math"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
)

// GaussianHeat models generic auxiliary heating (NBI, ECRH) with a Gaussian
// deposition profile in rho, split between the ion and electron channels.
type GaussianHeat struct {
	Power       ad.Num  // total injected power [MW]
	Location    float64 // deposition center in rho
	Width       float64 // Gaussian width in rho
	IonFraction float64 // share deposited on ions, in [0, 1]
}

// NewGaussianHeat validates the deposition shape.
func NewGaussianHeat(power ad.Num, location, width, ionFraction float64) (*GaussianHeat, error) {
	if power.V < 0 {
		return nil, fmt.Errorf("gaussian heat: power must be non-negative, got %g", power.V)
	}
	if width <= 0 {
		return nil, fmt.Errorf("gaussian heat: width must be positive, got %g", width)
	}
	if location < 0 || location > 1 {
		return nil, fmt.Errorf("gaussian heat: location %g outside [0, 1]", location)
	}
	if ionFraction < 0 || ionFraction > 1 {
		return nil, fmt.Errorf("gaussian heat: ion fraction %g outside [0, 1]", ionFraction)
	}
	return &GaussianHeat{Power: power, Location: location, Width: width, IonFraction: ionFraction}, nil
}

func (g *GaussianHeat) Name() string { return "generic_heat" }

// Profiles deposits Power across the mesh with unit volume integral.
func (g *GaussianHeat) Profiles(s *transport.State, mesh *geometry.Mesh, t float64) (Set, error) {
	shape := make([]float64, mesh.NumCells)
	for i, rho := range mesh.CellCenters {
		d := (rho - g.Location) / g.Width
		shape[i] = math.Exp(-0.5 * d * d)
	}
	shape = normalizedShape(shape, mesh)

	ion := make(ad.Vec, mesh.NumCells)
	elec := make(ad.Vec, mesh.NumCells)
	for i, v := range shape {
		ion[i] = ad.Scale(v*g.IonFraction, g.Power)
		elec[i] = ad.Scale(v*(1-g.IonFraction), g.Power)
	}
	var out Set
	out[profiles.IonHeat] = ion
	out[profiles.ElectronHeat] = elec
	return out, nil
}
