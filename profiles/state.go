package profiles

import "fmt"

// State is the full plasma state at one instant: the four profiles on a
// common mesh, their boundary conditions, and the simulation time. Owned by
// the evolution driver; everything else receives it read-only.
type State struct {
	Time float64

	IonTemp      Profile // [keV]
	ElectronTemp Profile // [keV]
	ElectronDens Profile // [1e20 m^-3]
	PolFlux      Profile // [Wb]

	Boundary BoundarySet
}

// NewState validates profile lengths and physical invariants.
func NewState(t float64, ti, te, ne, psi Profile, bc BoundarySet) (*State, error) {
	n := len(ti)
	if n == 0 || len(te) != n || len(ne) != n || len(psi) != n {
		return nil, fmt.Errorf("profile lengths differ: Ti=%d, Te=%d, ne=%d, psi=%d",
			len(ti), len(te), len(ne), len(psi))
	}
	for name, p := range map[string]Profile{"Ti": ti, "Te": te, "ne": ne, "psi": psi} {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%s contains non-finite values", name)
		}
	}
	for name, p := range map[string]Profile{"Ti": ti, "Te": te, "ne": ne} {
		if !p.NonNegative() {
			return nil, fmt.Errorf("%s contains negative values", name)
		}
	}
	return &State{Time: t, IonTemp: ti, ElectronTemp: te, ElectronDens: ne, PolFlux: psi,
		Boundary: bc}, nil
}

// NumCells is the mesh size the profiles live on.
func (s *State) NumCells() int { return len(s.IonTemp) }

// Channel returns the profile evolved by the given equation.
func (s *State) Channel(c Channel) Profile {
	switch c {
	case IonHeat:
		return s.IonTemp
	case ElectronHeat:
		return s.ElectronTemp
	case Density:
		return s.ElectronDens
	case PoloidalFlux:
		return s.PolFlux
	}
	panic(fmt.Sprintf("invalid channel %d", c))
}

// Pack concatenates the active channels into a single unknown vector in
// cell-major order: x[cell*len(active)+k] holds channel active[k] at cell.
// Cell-major ordering keeps the coupled Jacobian block-tridiagonal.
func (s *State) Pack(active []Channel) []float64 {
	n := s.NumCells()
	nc := len(active)
	x := make([]float64, n*nc)
	for k, c := range active {
		p := s.Channel(c)
		for i := 0; i < n; i++ {
			x[i*nc+k] = p[i]
		}
	}
	return x
}

// Unpack builds the successor state at time t from the solved unknown
// vector, carrying over profiles of channels that were not evolved.
func (s *State) Unpack(x []float64, active []Channel, t float64) *State {
	n := s.NumCells()
	nc := len(active)
	next := &State{
		Time:         t,
		IonTemp:      s.IonTemp.Clone(),
		ElectronTemp: s.ElectronTemp.Clone(),
		ElectronDens: s.ElectronDens.Clone(),
		PolFlux:      s.PolFlux.Clone(),
		Boundary:     s.Boundary,
	}
	for k, c := range active {
		p := next.Channel(c)
		for i := 0; i < n; i++ {
			p[i] = x[i*nc+k]
		}
	}
	return next
}
