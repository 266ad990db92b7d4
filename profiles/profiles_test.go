package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theo-brown/torax/geometry"
)

func testMesh(t *testing.T, n int) *geometry.Mesh {
	t.Helper()
	p, err := geometry.NewCircularProvider(geometry.CircularConfig{
		NumCells:      n,
		MajorRadius:   6.2,
		MinorRadius:   2.0,
		ToroidalField: 5.3,
	})
	require.NoError(t, err)
	m, err := p.Mesh(0)
	require.NoError(t, err)
	return m
}

func TestChannelNames(t *testing.T) {
	for c := IonHeat; c < NumChannels; c++ {
		got, ok := ChannelFromName(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ChannelFromName("momentum")
	assert.False(t, ok)
}

func TestEdgeKindNames(t *testing.T) {
	for _, name := range []string{"value", "gradient", "flux"} {
		k, err := EdgeKindFromName(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	_, err := EdgeKindFromName("periodic")
	assert.Error(t, err)
}

func TestNewStateValidation(t *testing.T) {
	good := Profile{1, 2, 3}
	_, err := NewState(0, good, good, good, good, BoundarySet{})
	require.NoError(t, err)

	_, err = NewState(0, good, Profile{1, 2}, good, good, BoundarySet{})
	assert.Error(t, err)

	_, err = NewState(0, Profile{1, -2, 3}, good, good, good, BoundarySet{})
	assert.Error(t, err)

	_, err = NewState(0, good, good, good, Profile{1, 2, -3}, BoundarySet{})
	assert.NoError(t, err, "poloidal flux may be negative")
}

func TestPackUnpackRoundTrip(t *testing.T) {
	s, err := NewState(0,
		Profile{10, 8, 6}, Profile{9, 7, 5}, Profile{1, 0.9, 0.8}, Profile{0, 0.1, 0.3},
		BoundarySet{})
	require.NoError(t, err)

	active := []Channel{IonHeat, Density}
	x := s.Pack(active)
	require.Len(t, x, 6)
	// Cell-major: cell 0 carries (Ti[0], ne[0]).
	assert.InDeltaSlice(t, []float64{10, 1, 8, 0.9, 6, 0.8}, x, 1e-15)

	for i := range x {
		x[i] *= 2
	}
	next := s.Unpack(x, active, 1.5)
	assert.InDelta(t, 1.5, next.Time, 1e-15)
	assert.InDeltaSlice(t, []float64{20, 16, 12}, next.IonTemp, 1e-15)
	assert.InDeltaSlice(t, []float64{2, 1.8, 1.6}, next.ElectronDens, 1e-15)
	// Non-evolved channels carried over untouched.
	assert.InDeltaSlice(t, []float64{9, 7, 5}, next.ElectronTemp, 1e-15)
	// Original state untouched.
	assert.InDeltaSlice(t, []float64{10, 8, 6}, s.IonTemp, 1e-15)
}

func TestInitialStateProfiles(t *testing.T) {
	mesh := testMesh(t, 30)
	ic := InitialConditions{
		IonTempCore: 15, IonTempEdge: 1,
		ElectronTempCore: 12, ElectronTempEdge: 1,
		DensityCore: 1.5, DensityEdge: 0.5,
		PlasmaCurrent:  15,
		CurrentPeaking: 2,
	}
	s, err := NewInitialState(mesh, ic, BoundarySet{})
	require.NoError(t, err)

	assert.InDelta(t, 15-14*mesh.CellCenters[0], s.IonTemp[0], 1e-12)
	assert.InDelta(t, 1+14*(1-mesh.CellCenters[29]), s.IonTemp[29], 1e-12)
	assert.True(t, s.ElectronDens.NonNegative())

	// Poloidal flux must be monotonically increasing for positive current.
	for i := 1; i < mesh.NumCells; i++ {
		assert.GreaterOrEqual(t, s.PolFlux[i], s.PolFlux[i-1])
	}
}

func TestInitialStateDensityNormalization(t *testing.T) {
	mesh := testMesh(t, 30)
	ic := InitialConditions{
		IonTempCore: 15, IonTempEdge: 1,
		ElectronTempCore: 12, ElectronTempEdge: 1,
		DensityCore: 1.5, DensityEdge: 0.5,
		LineAvgDensity: 0.85,
		PlasmaCurrent:  15,
		CurrentPeaking: 2,
	}
	s, err := NewInitialState(mesh, ic, BoundarySet{})
	require.NoError(t, err)

	var weighted, vol float64
	for i, v := range mesh.Volumes {
		weighted += s.ElectronDens[i] * v
		vol += v
	}
	assert.InDelta(t, 0.85, weighted/vol, 1e-12)
}

func TestInitialStateValidation(t *testing.T) {
	mesh := testMesh(t, 10)
	bad := []InitialConditions{
		{IonTempCore: 1, IonTempEdge: 2, ElectronTempCore: 2, ElectronTempEdge: 1,
			DensityCore: 1, DensityEdge: 0.5, PlasmaCurrent: 15},
		{IonTempCore: 2, IonTempEdge: 1, ElectronTempCore: 2, ElectronTempEdge: 1,
			DensityCore: 0.5, DensityEdge: 1, PlasmaCurrent: 15},
		{IonTempCore: 2, IonTempEdge: 1, ElectronTempCore: 2, ElectronTempEdge: 1,
			DensityCore: 1, DensityEdge: 0.5, PlasmaCurrent: 0},
	}
	for _, ic := range bad {
		_, err := NewInitialState(mesh, ic, BoundarySet{})
		assert.Error(t, err)
	}
}
