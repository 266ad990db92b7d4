package transport

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
)

// CriticalGradientModel is a stiff critical-gradient closure: heat
// transport stays at a floor below a threshold in the normalized ion
// temperature gradient R/L_Ti and grows linearly in the excess above it.
// The electron channel and the particle channel scale off the ion
// diffusivity, which couples all evolved channels through the ion
// temperature profile.
type CriticalGradientModel struct {
	ChiFloor  ad.Num // minimum diffusivity everywhere
	Stiffness ad.Num // growth per unit of super-critical gradient
	Threshold ad.Num // critical R/L_Ti
	ElecRatio ad.Num // chi_e / chi_i
	DRatio    ad.Num // particle D / chi_i
	PinchV    ad.Num // fixed inward particle convection
	FluxEta   ad.Num // poloidal flux diffusivity (resistive)
}

// NewCriticalGradientModel validates the closure parameters.
func NewCriticalGradientModel(floor, stiffness, threshold, elecRatio, dRatio, pinchV, fluxEta ad.Num) (*CriticalGradientModel, error) {
	for name, v := range map[string]ad.Num{
		"chi_floor": floor, "stiffness": stiffness, "threshold": threshold,
		"elec_ratio": elecRatio, "d_ratio": dRatio, "flux_eta": fluxEta,
	} {
		if v.V <= 0 {
			return nil, fmt.Errorf("critical-gradient transport: %s must be positive, got %g", name, v.V)
		}
	}
	return &CriticalGradientModel{
		ChiFloor:  floor,
		Stiffness: stiffness,
		Threshold: threshold,
		ElecRatio: elecRatio,
		DRatio:    dRatio,
		PinchV:    pinchV,
		FluxEta:   fluxEta,
	}, nil
}

func (m *CriticalGradientModel) Name() string { return "critical_gradient" }

// Evaluate computes chi_i per face from the local normalized gradient
// R/L_Ti = -R0 dTi/dr / Ti, then derives the other channels from it.
func (m *CriticalGradientModel) Evaluate(s *State, mesh *geometry.Mesh, t float64) (Coefficients, error) {
	nf := mesh.NumCells + 1
	tiFace := FaceAvg(s.IonTemp)
	tiGrad := FaceGrad(s.IonTemp, mesh.Drho*mesh.MinorRadius)

	chiIon := make(ad.Vec, nf)
	chiElec := make(ad.Vec, nf)
	partD := make(ad.Vec, nf)
	partV := make(ad.Vec, nf)
	fluxEta := make(ad.Vec, nf)
	zero := ad.Const(0)
	for f := 0; f < nf; f++ {
		// Temperatures are clipped away from zero so the logarithmic
		// gradient stays finite near a cold edge.
		ti := ad.Max(tiFace[f], ad.Const(1e-3))
		rlti := ad.Div(ad.Scale(-mesh.MajorRadius, tiGrad[f]), ti)
		excess := ad.Max(ad.Sub(rlti, m.Threshold), zero)
		chiIon[f] = ad.Add(m.ChiFloor, ad.Mul(m.Stiffness, excess))
		chiElec[f] = ad.Mul(m.ElecRatio, chiIon[f])
		partD[f] = ad.Mul(m.DRatio, chiIon[f])
		partV[f] = m.PinchV
		fluxEta[f] = m.FluxEta
	}

	var c Coefficients
	zeros := make(ad.Vec, nf)
	for i := range zeros {
		zeros[i] = zero
	}
	c[profiles.IonHeat] = ChannelCoeffs{Diffusivity: chiIon, Velocity: zeros}
	c[profiles.ElectronHeat] = ChannelCoeffs{Diffusivity: chiElec, Velocity: zeros}
	c[profiles.Density] = ChannelCoeffs{Diffusivity: partD, Velocity: partV}
	c[profiles.PoloidalFlux] = ChannelCoeffs{Diffusivity: fluxEta, Velocity: zeros}
	return c, nil
}
