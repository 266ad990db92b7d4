// Package stepper drives the transport evolution: the adaptive timestep
// controller that grows, shrinks and retries steps around the Newton
// solver, and the evolution loop that accumulates the trajectory of
// accepted states.
package stepper

import (
	"errors"
	"fmt"
)

// ErrTerminalFailure means the controller reduced dt below its configured
// minimum without the solver converging; the run halts with the trajectory
// preserved up to the last accepted state.
var ErrTerminalFailure = errors.New("stepper: timestep underflow without convergence")

// StepError wraps a failure with the cycle it occurred in.
type StepError struct {
	Step    int
	Time    float64
	Dt      float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, dt=%.3g): %v", e.Step, e.Time, e.Dt, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }
