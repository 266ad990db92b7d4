package geometry

import (
	"fmt"
	"math"
)

// CircularConfig parameterizes an analytic circular-cross-section
// equilibrium: concentric circular flux surfaces around the magnetic axis.
type CircularConfig struct {
	NumCells      int
	MajorRadius   float64 // R0 [m]
	MinorRadius   float64 // a [m]
	ToroidalField float64 // B0 [T]
	Elongation    float64 // kappa, 1 for a true circle
}

// CircularProvider builds the mesh for a circular equilibrium. The metrics
// are time-independent, so the mesh is constructed once and shared.
type CircularProvider struct {
	mesh *Mesh
}

// NewCircularProvider validates the configuration and precomputes the mesh.
func NewCircularProvider(cfg CircularConfig) (*CircularProvider, error) {
	if cfg.NumCells < 2 {
		return nil, fmt.Errorf("circular geometry needs at least 2 cells, got %d", cfg.NumCells)
	}
	if cfg.MajorRadius <= 0 || cfg.MinorRadius <= 0 {
		return nil, fmt.Errorf("radii must be positive: R0=%g, a=%g", cfg.MajorRadius, cfg.MinorRadius)
	}
	if cfg.MinorRadius >= cfg.MajorRadius {
		return nil, fmt.Errorf("minor radius %g must be smaller than major radius %g",
			cfg.MinorRadius, cfg.MajorRadius)
	}
	if cfg.ToroidalField <= 0 {
		return nil, fmt.Errorf("toroidal field must be positive, got %g", cfg.ToroidalField)
	}
	kappa := cfg.Elongation
	if kappa == 0 {
		kappa = 1
	}
	if kappa < 1 {
		return nil, fmt.Errorf("elongation must be >= 1, got %g", kappa)
	}

	n := cfg.NumCells
	drho := 1.0 / float64(n)
	centers := make([]float64, n)
	faces := make([]float64, n+1)
	volumes := make([]float64, n)
	areas := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		faces[i] = float64(i) * drho
	}
	for i := 0; i < n; i++ {
		centers[i] = (float64(i) + 0.5) * drho
	}

	// Flux-surface volume V(rho) = 2 pi^2 R0 kappa (a rho)^2; the cell
	// volume is the shell between adjacent faces. The face area element is
	// dV/drho = 4 pi^2 R0 kappa a^2 rho, zero at the axis by construction.
	vol := func(rho float64) float64 {
		r := cfg.MinorRadius * rho
		return 2 * math.Pi * math.Pi * cfg.MajorRadius * kappa * r * r
	}
	for i := 0; i < n; i++ {
		volumes[i] = vol(faces[i+1]) - vol(faces[i])
	}
	for i := 0; i <= n; i++ {
		areas[i] = 4 * math.Pi * math.Pi * cfg.MajorRadius * kappa *
			cfg.MinorRadius * cfg.MinorRadius * faces[i]
	}

	mesh, err := NewMesh(centers, faces, volumes, areas)
	if err != nil {
		return nil, fmt.Errorf("circular mesh construction: %w", err)
	}
	mesh.MajorRadius = cfg.MajorRadius
	mesh.MinorRadius = cfg.MinorRadius
	mesh.ToroidalField = cfg.ToroidalField
	mesh.PhiBoundary = math.Pi * cfg.MinorRadius * cfg.MinorRadius * cfg.ToroidalField * kappa
	return &CircularProvider{mesh: mesh}, nil
}

// Mesh returns the precomputed circular mesh; t is ignored because the
// analytic equilibrium is stationary.
func (p *CircularProvider) Mesh(t float64) (*Mesh, error) {
	return p.mesh, nil
}
