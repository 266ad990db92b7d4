package stepper

import (
	"context"
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/solver"
	"github.com/theo-brown/torax/transport"
)

// SeedDir returns the derivative direction and total width a model
// parameter must be seeded with (ad.Seed(value, dir, width)) to be the
// target of a sensitivity run over the given equation set. The first
// 3*len(active) directions belong to the Jacobian coloring; the parameter
// occupies the one extra direction.
func SeedDir(active []profiles.Channel) (dir, width int) {
	return 3 * len(active), 3*len(active) + 1
}

// Sensitivity carries d(state)/d(parameter) for every accepted state,
// packed like the solver unknown vector (cell-major over Active). Entry i
// aligns with Trajectory.States[i+1]; the initial state's sensitivity is
// identically zero.
type Sensitivity struct {
	Active  []profiles.Channel
	Vectors [][]float64
}

// Final returns the sensitivity of the last accepted state, or zeros if no
// step was accepted.
func (s *Sensitivity) Final(n int) []float64 {
	if len(s.Vectors) == 0 {
		return make([]float64, n*len(s.Active))
	}
	return s.Vectors[len(s.Vectors)-1]
}

// Value extracts d(channel at cell)/d(parameter) from a packed vector.
func (s *Sensitivity) Value(vec []float64, c profiles.Channel, cell int) float64 {
	for k, ac := range s.Active {
		if ac == c {
			return vec[cell*len(s.Active)+k]
		}
	}
	return 0
}

// RunSensitivity advances like Run while additionally propagating the
// derivative of the state with respect to one scalar model parameter. The
// caller must have built the transport model and sources with that
// parameter seeded per SeedDir over d.Active; everything else stays plain.
//
// Per accepted step the derivative follows from the implicit function
// theorem at the converged root: J dx_new = -(dF/dx_old dx_old/dp + dF/dp),
// where the right-hand side is a single forward-mode evaluation with the
// old state carrying its accumulated seeds. Iteration counts and step-size
// decisions are control flow and are never differentiated.
func (d *Driver) RunSensitivity(ctx context.Context, initial *profiles.State) (*Trajectory, *Sensitivity, error) {
	hook := &sensStepper{
		out: &Sensitivity{Active: d.Active},
	}
	for c := range hook.sens {
		hook.sens[c] = make([]float64, initial.NumCells())
	}
	dd := *d
	dd.Newton.ExtraDirs = 1
	traj, err := dd.run(ctx, hook, initial)
	return traj, hook.out, err
}

type sensStepper struct {
	// sens holds d(profile)/d(parameter) per channel at the last accepted
	// state; frozen channels stay at their initial (zero) sensitivity.
	sens [profiles.NumChannels][]float64
	out  *Sensitivity
}

func (h *sensStepper) solve(d *Driver, disc *solver.Discretizer, state *profiles.State, dt float64) solver.Result {
	dir, width := SeedDir(d.Active)
	return disc.Solve(h.seededView(state, dir, width), state.Boundary,
		state.Pack(d.Active), state.Time, dt, d.Newton)
}

func (h *sensStepper) accepted(d *Driver, disc *solver.Discretizer, old *profiles.State, x []float64, dt float64) error {
	dir, width := SeedDir(d.Active)
	res, err := disc.Residual(h.seededView(old, dir, width), old.Boundary,
		disc.SeedTrial(x, 1), old.Time, dt)
	if err != nil {
		return fmt.Errorf("sensitivity residual: %w", err)
	}
	if !res.IsFinite() {
		return fmt.Errorf("sensitivity residual: %w", solver.ErrNumericalInvalidity)
	}
	jac := disc.AssembleJacobian(res)
	rhs := solver.ParamGradient(res, dir)
	for i := range rhs {
		rhs[i] = -rhs[i]
	}
	s, err := jac.Solve(rhs)
	if err != nil {
		if s, err = jac.SolveDense(rhs); err != nil {
			return fmt.Errorf("sensitivity linear solve: %w", err)
		}
	}

	nc := len(d.Active)
	for k, c := range d.Active {
		for i := range h.sens[c] {
			h.sens[c][i] = s[i*nc+k]
		}
	}
	h.out.Vectors = append(h.out.Vectors, s)
	return nil
}

// seededView lifts a state into duals whose extra direction carries the
// accumulated parameter sensitivity of each profile value.
func (h *sensStepper) seededView(s *profiles.State, dir, width int) *transport.State {
	lift := func(p profiles.Profile, sens []float64) ad.Vec {
		out := make(ad.Vec, len(p))
		for i, v := range p {
			dvec := make([]float64, width)
			dvec[dir] = sens[i]
			out[i] = ad.Num{V: v, D: dvec}
		}
		return out
	}
	return &transport.State{
		Time:         s.Time,
		IonTemp:      lift(s.IonTemp, h.sens[profiles.IonHeat]),
		ElectronTemp: lift(s.ElectronTemp, h.sens[profiles.ElectronHeat]),
		ElectronDens: lift(s.ElectronDens, h.sens[profiles.Density]),
		PolFlux:      lift(s.PolFlux, h.sens[profiles.PoloidalFlux]),
	}
}
