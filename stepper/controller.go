package stepper

import (
	"fmt"
	"math"
)

// ControllerConfig bounds and shapes the adaptive timestep.
type ControllerConfig struct {
	DtInitial float64
	DtMin     float64
	DtMax     float64

	// Growth (> 1) multiplies the step after a quick convergence, Shrink
	// (in (0, 1]) after a slow one. QuickIters is the Newton iteration
	// count at or below which a step counts as quick.
	Growth     float64
	Shrink     float64
	QuickIters int

	// CFLSafety is the fraction of the explicit-component stability bound
	// the step may use when theta < 1.
	CFLSafety float64
}

// DefaultControllerConfig is a conservative starting point.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		DtInitial:  1e-2,
		DtMin:      1e-8,
		DtMax:      1e-1,
		Growth:     1.25,
		Shrink:     0.5,
		QuickIters: 5,
		CFLSafety:  0.9,
	}
}

// Validate rejects inconsistent bounds before the loop starts.
func (c ControllerConfig) Validate() error {
	if c.DtMin <= 0 || c.DtMax <= 0 || c.DtInitial <= 0 {
		return fmt.Errorf("timestep bounds must be positive: initial=%g, min=%g, max=%g",
			c.DtInitial, c.DtMin, c.DtMax)
	}
	if c.DtMin > c.DtMax {
		return fmt.Errorf("dt_min %g exceeds dt_max %g", c.DtMin, c.DtMax)
	}
	if c.DtInitial < c.DtMin || c.DtInitial > c.DtMax {
		return fmt.Errorf("dt_initial %g outside [%g, %g]", c.DtInitial, c.DtMin, c.DtMax)
	}
	if c.Growth <= 1 {
		return fmt.Errorf("growth factor must exceed 1, got %g", c.Growth)
	}
	if c.Shrink <= 0 || c.Shrink > 1 {
		return fmt.Errorf("shrink factor must be in (0, 1], got %g", c.Shrink)
	}
	if c.QuickIters < 0 {
		return fmt.Errorf("quick_iters must be non-negative, got %d", c.QuickIters)
	}
	if c.CFLSafety <= 0 || c.CFLSafety > 1 {
		return fmt.Errorf("cfl_safety must be in (0, 1], got %g", c.CFLSafety)
	}
	return nil
}

// Record is the per-cycle diagnostic: the step size used, the Newton
// iteration count, how many rejected attempts preceded acceptance, and
// whether the cycle was ultimately accepted. Plain control data, never
// differentiated.
type Record struct {
	Step       int
	Time       float64 // simulation time after the step
	Dt         float64
	Iterations int
	Retries    int
	Accepted   bool
}

// controller implements the PROPOSE part of the step state machine; the
// SOLVE/ACCEPT/REJECT transitions live in the driver loop.
type controller struct {
	cfg ControllerConfig
}

// propose picks the trial dt for the next cycle from the previous accepted
// record: grow after quick convergence, shrink after slow, always inside
// [DtMin, DtMax].
func (c *controller) propose(prev Record, hasPrev bool) float64 {
	if !hasPrev {
		return c.clamp(c.cfg.DtInitial)
	}
	dt := prev.Dt
	if prev.Iterations <= c.cfg.QuickIters {
		dt *= c.cfg.Growth
	} else {
		dt *= c.cfg.Shrink
	}
	return c.clamp(dt)
}

func (c *controller) clamp(dt float64) float64 {
	return math.Min(c.cfg.DtMax, math.Max(c.cfg.DtMin, dt))
}

// halve cuts a rejected step in half; ok is false once dt cannot shrink
// further without crossing DtMin, the terminal-failure condition.
func (c *controller) halve(dt float64) (next float64, ok bool) {
	if dt <= c.cfg.DtMin {
		return dt, false
	}
	return math.Max(dt/2, c.cfg.DtMin), true
}

// stabilityBound is the CFL-like explicit diffusion limit. Fully implicit
// schemes are unconditionally stable, so the bound is infinite at theta=1.
func (c *controller) stabilityBound(theta, drho, maxDiffusivity float64) float64 {
	if theta >= 1 || maxDiffusivity <= 0 {
		return math.Inf(1)
	}
	return c.cfg.CFLSafety * drho * drho / (2 * (1 - theta) * maxDiffusivity)
}
