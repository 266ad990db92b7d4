package profiles

import "fmt"

// EdgeKind tags the edge (rho=1) boundary condition of one equation. The
// core (rho=0) boundary is always the zero-gradient symmetry condition,
// enforced by construction through the zero-area axis face.
type EdgeKind uint8

const (
	// EdgeValue pins the edge cell to a fixed value (Dirichlet).
	EdgeValue EdgeKind = iota
	// EdgeGradient pins the gradient across the edge face (Neumann).
	EdgeGradient
	// EdgeFlux pins the total transported flux through the edge face.
	EdgeFlux
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeValue:
		return "value"
	case EdgeGradient:
		return "gradient"
	case EdgeFlux:
		return "flux"
	}
	return "unknown"
}

// EdgeKindFromName maps a config tag to its EdgeKind.
func EdgeKindFromName(name string) (EdgeKind, error) {
	for k := EdgeValue; k <= EdgeFlux; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unsupported boundary condition tag %q", name)
}

// BoundaryCondition is the edge constraint of one equation, attached to the
// State for its whole lifecycle and never mutated mid-step.
type BoundaryCondition struct {
	Kind  EdgeKind
	Value float64
}

// BoundarySet carries one edge condition per channel.
type BoundarySet [NumChannels]BoundaryCondition
