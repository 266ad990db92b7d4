// Package geometry supplies the 1D radial mesh and flux-surface metrics that
// the transport solver discretizes on. A Provider turns an equilibrium
// description (analytic or file-based) into a Mesh; the solver only ever
// consumes the Mesh and treats it as immutable for the duration of a step.
package geometry

import "fmt"

// Mesh is a uniform finite-volume grid on the normalized radial coordinate
// rho in [0, 1], with N cell centers and N+1 cell faces. Volumes and Areas
// are the flux-surface volume elements per cell and surface-area elements
// per face derived from the equilibrium.
type Mesh struct {
	NumCells int

	// CellCenters has length NumCells, FaceCenters length NumCells+1.
	// Both are strictly increasing; FaceCenters spans [0, 1].
	CellCenters []float64
	FaceCenters []float64
	Drho        float64

	// Volumes (per cell) and Areas (per face) are strictly positive except
	// for the axis face area, which is zero so no flux crosses rho=0.
	Volumes []float64
	Areas   []float64

	// Equilibrium scalars used by derived quantities and physics models.
	MajorRadius   float64 // R0 [m]
	MinorRadius   float64 // a [m]
	ToroidalField float64 // B0 [T]
	PhiBoundary   float64 // toroidal flux at the last closed surface [Wb]
}

// NewMesh validates the metric arrays and assembles a Mesh. The axis face
// area must be zero, interior coordinates strictly increasing, and every
// volume element strictly positive.
func NewMesh(centers, faces, volumes, areas []float64) (*Mesh, error) {
	n := len(centers)
	if n < 2 {
		return nil, fmt.Errorf("mesh needs at least 2 cells, got %d", n)
	}
	if len(faces) != n+1 {
		return nil, fmt.Errorf("face count %d does not match %d cells", len(faces), n)
	}
	if len(volumes) != n || len(areas) != n+1 {
		return nil, fmt.Errorf("metric lengths (%d volumes, %d areas) do not match mesh size %d",
			len(volumes), len(areas), n)
	}
	for i := 1; i < n; i++ {
		if centers[i] <= centers[i-1] {
			return nil, fmt.Errorf("cell centers not strictly increasing at index %d", i)
		}
	}
	for i := 1; i <= n; i++ {
		if faces[i] <= faces[i-1] {
			return nil, fmt.Errorf("face centers not strictly increasing at index %d", i)
		}
	}
	for i, v := range volumes {
		if v <= 0 {
			return nil, fmt.Errorf("non-positive volume element %g at cell %d", v, i)
		}
	}
	if areas[0] != 0 {
		return nil, fmt.Errorf("axis face area must be zero, got %g", areas[0])
	}
	for i := 1; i <= n; i++ {
		if areas[i] <= 0 {
			return nil, fmt.Errorf("non-positive area element %g at face %d", areas[i], i)
		}
	}
	return &Mesh{
		NumCells:    n,
		CellCenters: centers,
		FaceCenters: faces,
		Drho:        faces[1] - faces[0],
		Volumes:     volumes,
		Areas:       areas,
	}, nil
}

// TotalVolume is the plasma volume enclosed by the last closed surface.
func (m *Mesh) TotalVolume() float64 {
	var sum float64
	for _, v := range m.Volumes {
		sum += v
	}
	return sum
}

// Provider produces the mesh for a given simulation time. Geometry may
// evolve between timesteps but never within one; the driver requests a mesh
// once per cycle.
type Provider interface {
	Mesh(t float64) (*Mesh, error)
}
