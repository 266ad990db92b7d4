package profiles

import (
	"fmt"
	"math"

	"github.com/theo-brown/torax/geometry"
)

// Mu0 is the vacuum permeability [H/m].
const Mu0 = 4e-7 * math.Pi

// InitialConditions sets up the t=0 profiles. Temperatures and density are
// linear in rho between core and edge values; the poloidal flux follows a
// peaked current profile j ~ (1 - rho^2)^CurrentPeaking scaled to carry
// PlasmaCurrent in total.
type InitialConditions struct {
	IonTempCore, IonTempEdge           float64 // [keV]
	ElectronTempCore, ElectronTempEdge float64 // [keV]
	DensityCore, DensityEdge           float64 // [1e20 m^-3]

	// LineAvgDensity, when positive, rescales the density profile so its
	// volume average matches this target.
	LineAvgDensity float64

	PlasmaCurrent  float64 // Ip [MA]
	CurrentPeaking float64 // nu exponent of the initial current profile
}

// NewInitialState builds the t=0 State on the given mesh.
func NewInitialState(mesh *geometry.Mesh, ic InitialConditions, bc BoundarySet) (*State, error) {
	if ic.IonTempCore < ic.IonTempEdge || ic.ElectronTempCore < ic.ElectronTempEdge {
		return nil, fmt.Errorf("core temperatures (%g, %g) must not be below edge values (%g, %g)",
			ic.IonTempCore, ic.ElectronTempCore, ic.IonTempEdge, ic.ElectronTempEdge)
	}
	if ic.DensityEdge <= 0 || ic.DensityCore < ic.DensityEdge {
		return nil, fmt.Errorf("density bounds invalid: core=%g, edge=%g", ic.DensityCore, ic.DensityEdge)
	}
	if ic.PlasmaCurrent <= 0 {
		return nil, fmt.Errorf("plasma current must be positive, got %g", ic.PlasmaCurrent)
	}
	n := mesh.NumCells
	linear := func(core, edge float64) Profile {
		p := make(Profile, n)
		for i, rho := range mesh.CellCenters {
			p[i] = core + (edge-core)*rho
		}
		return p
	}
	ti := linear(ic.IonTempCore, ic.IonTempEdge)
	te := linear(ic.ElectronTempCore, ic.ElectronTempEdge)
	ne := linear(ic.DensityCore, ic.DensityEdge)

	if ic.LineAvgDensity > 0 {
		var weighted, vol float64
		for i, v := range mesh.Volumes {
			weighted += ne[i] * v
			vol += v
		}
		scale := ic.LineAvgDensity * vol / weighted
		for i := range ne {
			ne[i] *= scale
		}
	}

	psi := initialPolFlux(mesh, ic.PlasmaCurrent, ic.CurrentPeaking)
	return NewState(0, ti, te, ne, psi, bc)
}

// initialPolFlux integrates a peaked current profile twice to obtain psi.
// In the cylindrical approximation dpsi/drho = mu0 R0 I_enc(rho) / rho with
// I_enc the current enclosed inside rho.
func initialPolFlux(mesh *geometry.Mesh, ipMA, nu float64) Profile {
	n := mesh.NumCells
	a := mesh.MinorRadius

	// Unnormalized enclosed current on faces: I(rho) ~ int j(rho') rho' drho'.
	enc := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		rho := mesh.CellCenters[i-1]
		j := math.Pow(1-rho*rho, nu)
		enc[i] = enc[i-1] + j*rho*mesh.Drho
	}
	// Scale so the edge face carries the requested total current in amperes.
	scale := ipMA * 1e6 / enc[n]

	psi := make(Profile, n)
	var acc float64
	for i := 0; i < n; i++ {
		// Gradient at the inner face of cell i; the axis face contributes
		// nothing since no current is enclosed at rho=0.
		var grad float64
		if i > 0 {
			rho := mesh.FaceCenters[i]
			grad = Mu0 * mesh.MajorRadius * scale * enc[i] / (rho * a)
		}
		if i == 0 {
			acc = 0
		} else {
			acc += grad * mesh.Drho
		}
		psi[i] = acc
	}
	return psi
}
