package solver

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/sources"
	"github.com/theo-brown/torax/transport"
)

// UpwindTie selects which cell value convects through a face when the face
// velocity is exactly zero and the upwind direction is ambiguous.
type UpwindTie uint8

const (
	// TieInner convects the axis-side cell value at zero velocity.
	TieInner UpwindTie = iota
	// TieOuter convects the edge-side cell value at zero velocity.
	TieOuter
)

// Discretizer assembles the theta-blended, flux-conservative finite-volume
// residual of the coupled transport equations. It is a pure function of its
// inputs: no state survives between Residual calls.
//
// The unknown vector is cell-major over the active channels:
// x[cell*len(Active)+k] holds channel Active[k] at cell. Transport and
// source models must keep a nearest-neighbor stencil (cell i influenced by
// cells i-1..i+1 only) so the Jacobian recovered from colored seeds is
// exact.
type Discretizer struct {
	Mesh    *geometry.Mesh
	Active  []profiles.Channel
	Model   transport.Model
	Sources []sources.Source
	Theta   float64
	Tie     UpwindTie
}

// NewDiscretizer validates the equation set and blending factor.
func NewDiscretizer(mesh *geometry.Mesh, active []profiles.Channel, model transport.Model,
	srcs []sources.Source, theta float64, tie UpwindTie) (*Discretizer, error) {
	if mesh == nil || model == nil {
		return nil, fmt.Errorf("discretizer needs a mesh and a transport model")
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("at least one equation must be active")
	}
	seen := map[profiles.Channel]bool{}
	for _, c := range active {
		if c >= profiles.NumChannels {
			return nil, fmt.Errorf("invalid channel %d", c)
		}
		if seen[c] {
			return nil, fmt.Errorf("channel %s listed twice", c)
		}
		seen[c] = true
	}
	if theta < 0 || theta > 1 {
		return nil, fmt.Errorf("theta %g outside [0, 1]", theta)
	}
	return &Discretizer{Mesh: mesh, Active: active, Model: model, Sources: srcs,
		Theta: theta, Tie: tie}, nil
}

// NumUnknowns is the length of the packed unknown vector.
func (d *Discretizer) NumUnknowns() int { return d.Mesh.NumCells * len(d.Active) }

// Width is the dual derivative width: 3*len(Active) colored directions for
// the block-tridiagonal Jacobian plus extra caller directions (parameter
// seeds for sensitivity runs).
func (d *Discretizer) Width(extra int) int { return 3*len(d.Active) + extra }

// SeedTrial lifts a packed trial vector into duals with colored seeds:
// column j seeds direction j mod 3*len(Active). Columns sharing a direction
// are at least three cells apart, outside any row's stencil.
func (d *Discretizer) SeedTrial(x []float64, extra int) ad.Vec {
	span := 3 * len(d.Active)
	return ad.SeedVec(x, span+extra, func(i int) int { return i % span })
}

// trialView builds the dual state seen by the models: active channels from
// the trial vector, frozen channels carried from the old view.
func (d *Discretizer) trialView(old *transport.State, x ad.Vec, t float64) *transport.State {
	n := d.Mesh.NumCells
	nc := len(d.Active)
	view := &transport.State{
		Time:         t,
		IonTemp:      old.IonTemp,
		ElectronTemp: old.ElectronTemp,
		ElectronDens: old.ElectronDens,
		PolFlux:      old.PolFlux,
	}
	for k, c := range d.Active {
		vec := make(ad.Vec, n)
		for i := 0; i < n; i++ {
			vec[i] = x[i*nc+k]
		}
		switch c {
		case profiles.IonHeat:
			view.IonTemp = vec
		case profiles.ElectronHeat:
			view.ElectronTemp = vec
		case profiles.Density:
			view.ElectronDens = vec
		case profiles.PoloidalFlux:
			view.PolFlux = vec
		}
	}
	return view
}

// upwind picks the convected cell value by the face velocity sign,
// deferring to the tie policy at exactly zero.
func (d *Discretizer) upwind(uInner, uOuter, v ad.Num) ad.Num {
	switch {
	case v.V > 0:
		return uInner
	case v.V < 0:
		return uOuter
	case d.Tie == TieOuter:
		return uOuter
	default:
		return uInner
	}
}

// faceFluxes computes the transported flux through every face of one
// channel: diffusive -D du/drho plus convective v*u(upwind), scaled by the
// face area. The axis face carries no flux through its zero area; the edge
// face honors the boundary condition.
func (d *Discretizer) faceFluxes(u ad.Vec, cc transport.ChannelCoeffs, bc profiles.BoundaryCondition) ad.Vec {
	m := d.Mesh
	n := m.NumCells
	inv := 1 / m.Drho
	flux := make(ad.Vec, n+1)
	flux[0] = ad.Const(0)
	for f := 1; f < n; f++ {
		diff := ad.Scale(-inv, ad.Mul(cc.Diffusivity[f], ad.Sub(u[f], u[f-1])))
		conv := ad.Mul(cc.Velocity[f], d.upwind(u[f-1], u[f], cc.Velocity[f]))
		flux[f] = ad.Scale(m.Areas[f], ad.Add(diff, conv))
	}
	switch bc.Kind {
	case profiles.EdgeGradient:
		diff := ad.Scale(-bc.Value, cc.Diffusivity[n])
		conv := ad.Mul(cc.Velocity[n], u[n-1])
		flux[n] = ad.Scale(m.Areas[n], ad.Add(diff, conv))
	case profiles.EdgeFlux:
		// Value is the total transported flux through the edge face.
		flux[n] = ad.Const(bc.Value)
	default:
		// EdgeValue replaces the last cell's equation outright; the edge
		// flux never enters a surviving row.
		flux[n] = ad.Const(0)
	}
	return flux
}

// operator accumulates the spatial operator of one channel per cell:
// flux out minus flux in minus the volumetric source, all volume-scaled.
func (d *Discretizer) operator(u ad.Vec, cc transport.ChannelCoeffs, src ad.Vec,
	bc profiles.BoundaryCondition) ad.Vec {
	m := d.Mesh
	n := m.NumCells
	flux := d.faceFluxes(u, cc, bc)
	op := make(ad.Vec, n)
	for i := 0; i < n; i++ {
		op[i] = ad.Sub(flux[i+1], flux[i])
		if src != nil {
			op[i] = ad.Sub(op[i], ad.Scale(m.Volumes[i], src[i]))
		}
	}
	return op
}

// Residual evaluates the theta-blended residual at the trial vector x. old
// is the dual view of the previous accepted state (constants in a plain
// solve, parameter-seeded in a sensitivity solve); bc is attached to the
// state whose step this is. t is the time of the old state, so the trial
// state lives at t+dt. The root of the returned vector is the next state.
func (d *Discretizer) Residual(old *transport.State, bc profiles.BoundarySet,
	x ad.Vec, t, dt float64) (ad.Vec, error) {
	m := d.Mesh
	n := m.NumCells
	nc := len(d.Active)
	if len(x) != n*nc {
		return nil, fmt.Errorf("trial vector length %d does not match %d unknowns", len(x), n*nc)
	}

	trial := d.trialView(old, x, t+dt)
	coeffs, err := d.Model.Evaluate(trial, m, t+dt)
	if err != nil {
		return nil, fmt.Errorf("transport model %s: %w", d.Model.Name(), err)
	}
	srcs, err := sources.Sum(d.Sources, trial, m, t+dt)
	if err != nil {
		return nil, err
	}

	var coeffsOld transport.Coefficients
	var srcsOld sources.Set
	if d.Theta < 1 {
		if coeffsOld, err = d.Model.Evaluate(old, m, t); err != nil {
			return nil, fmt.Errorf("transport model %s at old state: %w", d.Model.Name(), err)
		}
		if srcsOld, err = sources.Sum(d.Sources, old, m, t); err != nil {
			return nil, err
		}
	}

	res := make(ad.Vec, n*nc)
	invDt := 1 / dt
	for k, c := range d.Active {
		u := trial.Channel(c)
		uOld := old.Channel(c)
		op := d.operator(u, coeffs[c], srcs[c], bc[c])
		var opOld ad.Vec
		if d.Theta < 1 {
			opOld = d.operator(uOld, coeffsOld[c], srcsOld[c], bc[c])
		}
		for i := 0; i < n; i++ {
			r := ad.Scale(m.Volumes[i]*invDt, ad.Sub(u[i], uOld[i]))
			r = ad.Add(r, ad.Scale(d.Theta, op[i]))
			if d.Theta < 1 {
				r = ad.Add(r, ad.Scale(1-d.Theta, opOld[i]))
			}
			res[i*nc+k] = r
		}
		if bc[c].Kind == profiles.EdgeValue {
			res[(n-1)*nc+k] = ad.AddConst(-bc[c].Value, u[n-1])
		}
	}
	return res, nil
}
