package stepper

import (
	"context"
	"fmt"
	"math"

	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/solver"
	"github.com/theo-brown/torax/sources"
	"github.com/theo-brown/torax/transport"
)

// Driver orchestrates the evolution loop: per cycle it requests the mesh,
// proposes a timestep, runs the Newton solve, and commits or retries. Steps
// are strictly sequential; the driver owns the State and everything else
// sees read-only views.
type Driver struct {
	Geometry geometry.Provider
	Model    transport.Model
	Sources  []sources.Source
	Active   []profiles.Channel
	Theta    float64
	Tie      solver.UpwindTie

	Newton  solver.Params
	Control ControllerConfig

	FinalTime float64
	MaxSteps  int // 0 means no budget

	// Verbose prints a progress line per accepted step.
	Verbose bool
}

// Trajectory is the ordered series of accepted states with the per-cycle
// records. States[0] is the initial state; Records[i] describes the cycle
// that produced States[i+1].
type Trajectory struct {
	States  []*profiles.State
	Records []Record
}

// Final is the last accepted state.
func (tr *Trajectory) Final() *profiles.State {
	return tr.States[len(tr.States)-1]
}

func (d *Driver) validate() error {
	if d.Geometry == nil || d.Model == nil {
		return fmt.Errorf("driver needs a geometry provider and a transport model")
	}
	if d.FinalTime <= 0 {
		return fmt.Errorf("final time must be positive, got %g", d.FinalTime)
	}
	return d.Control.Validate()
}

// Run advances the initial state to FinalTime. The returned trajectory is
// valid even on error: a terminal failure or cancellation preserves
// everything accepted so far, with the failing cycle's record appended.
// Cancellation is cooperative and checked once per cycle boundary.
func (d *Driver) Run(ctx context.Context, initial *profiles.State) (*Trajectory, error) {
	return d.run(ctx, plainStepper{}, initial)
}

func (d *Driver) run(ctx context.Context, hook stepHook, initial *profiles.State) (*Trajectory, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	traj := &Trajectory{States: []*profiles.State{initial}}
	ctl := &controller{cfg: d.Control}

	state := initial
	var prev Record
	hasPrev := false

	for step := 0; state.Time < d.FinalTime-1e-12*d.FinalTime; step++ {
		if err := ctx.Err(); err != nil {
			return traj, fmt.Errorf("evolution canceled at step %d (t=%.6g): %w", step, state.Time, err)
		}
		if d.MaxSteps > 0 && step >= d.MaxSteps {
			break
		}

		mesh, err := d.Geometry.Mesh(state.Time)
		if err != nil {
			return traj, fmt.Errorf("geometry at t=%.6g: %w", state.Time, err)
		}
		disc, err := solver.NewDiscretizer(mesh, d.Active, d.Model, d.Sources, d.Theta, d.Tie)
		if err != nil {
			return traj, err
		}

		// PROPOSE: grow or shrink from the previous cycle, capped by the
		// explicit stability bound and the remaining simulated time.
		dt := ctl.propose(prev, hasPrev)
		if d.Theta < 1 {
			maxD, derr := d.maxDiffusivity(state, mesh)
			if derr != nil {
				return traj, derr
			}
			dt = math.Min(dt, ctl.stabilityBound(d.Theta, mesh.Drho, maxD))
		}
		if remaining := d.FinalTime - state.Time; dt > remaining {
			dt = remaining
		}

		// SOLVE with REJECT/retry: halve dt on non-convergence until it
		// would cross DtMin, which is terminal.
		retries := 0
		for {
			res := hook.solve(d, disc, state, dt)
			if res.Converged {
				// ACCEPT
				old := state
				state = state.Unpack(res.X, d.Active, state.Time+dt)
				prev = Record{Step: step, Time: state.Time, Dt: dt,
					Iterations: res.Diag.Iterations, Retries: retries, Accepted: true}
				hasPrev = true
				traj.States = append(traj.States, state)
				traj.Records = append(traj.Records, prev)
				if err := hook.accepted(d, disc, old, res.X, dt); err != nil {
					return traj, err
				}
				if d.Verbose {
					fmt.Printf("step %4d  t=%10.6f  dt=%.3e  iters=%2d  retries=%d\n",
						step, state.Time, dt, res.Diag.Iterations, retries)
				}
				break
			}
			next, ok := ctl.halve(dt)
			if !ok {
				// TERMINAL_FAILURE: surface the failure with the trajectory
				// intact; the last accepted state is still its tail.
				traj.Records = append(traj.Records, Record{Step: step, Time: state.Time,
					Dt: dt, Iterations: res.Diag.Iterations, Retries: retries})
				return traj, &StepError{Step: step, Time: state.Time, Dt: dt,
					Wrapped: fmt.Errorf("%w: %v", ErrTerminalFailure, res.Err)}
			}
			dt = next
			retries++
		}
	}
	return traj, nil
}

// maxDiffusivity evaluates the transport model at the current state and
// returns the largest diffusivity over the active channels' faces.
func (d *Driver) maxDiffusivity(state *profiles.State, mesh *geometry.Mesh) (float64, error) {
	coeffs, err := d.Model.Evaluate(transport.ConstView(state), mesh, state.Time)
	if err != nil {
		return 0, fmt.Errorf("transport model %s: %w", d.Model.Name(), err)
	}
	var maxD float64
	for _, c := range d.Active {
		for _, v := range coeffs[c].Diffusivity {
			if v.V > maxD {
				maxD = v.V
			}
		}
	}
	return maxD, nil
}

// stepHook abstracts what happens inside one solve so the sensitivity
// runner can piggyback on the same PROPOSE/SOLVE/ACCEPT/REJECT loop.
// accepted receives the pre-step state and the converged unknown vector.
type stepHook interface {
	solve(d *Driver, disc *solver.Discretizer, state *profiles.State, dt float64) solver.Result
	accepted(d *Driver, disc *solver.Discretizer, old *profiles.State, x []float64, dt float64) error
}

type plainStepper struct{}

func (plainStepper) solve(d *Driver, disc *solver.Discretizer, state *profiles.State, dt float64) solver.Result {
	return disc.Solve(transport.ConstView(state), state.Boundary, state.Pack(d.Active),
		state.Time, dt, d.Newton)
}

func (plainStepper) accepted(*Driver, *solver.Discretizer, *profiles.State, []float64, float64) error {
	return nil
}
