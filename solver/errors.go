// Package solver contains the implicit transport-equation core: the
// finite-volume discretizer assembling the theta-blended residual, the
// block-tridiagonal Jacobian machinery, and the damped Newton iteration
// that zeroes the residual each timestep.
package solver

import "errors"

// Solve failure modes. The timestep controller recovers from both by
// retrying with a smaller step.
var (
	// ErrNonConvergence marks a Newton solve that exhausted its iteration
	// or backtracking budget without meeting the tolerance.
	ErrNonConvergence = errors.New("solver: Newton iteration did not converge")

	// ErrNumericalInvalidity marks a residual or Jacobian evaluation that
	// produced NaN or Inf; treated as an immediate solve failure.
	ErrNumericalInvalidity = errors.New("solver: non-finite residual or Jacobian")

	// ErrSingularJacobian marks a Jacobian the linear solver could not
	// factorize, even with the dense fallback.
	ErrSingularJacobian = errors.New("solver: singular Jacobian")
)
