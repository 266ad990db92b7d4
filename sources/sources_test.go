package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
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

func testState(mesh *geometry.Mesh) *transport.State {
	n := mesh.NumCells
	te := make([]float64, n)
	psi := make([]float64, n)
	for i, rho := range mesh.CellCenters {
		te[i] = 10 - 9*rho
		psi[i] = 2 * rho * rho
	}
	return &transport.State{
		IonTemp:      ad.ConstVec(te),
		ElectronTemp: ad.ConstVec(te),
		ElectronDens: ad.ConstVec(te),
		PolFlux:      ad.ConstVec(psi),
	}
}

// volume integral of a dual source density
func integrate(vec ad.Vec, mesh *geometry.Mesh) float64 {
	var sum float64
	for i, v := range vec {
		sum += v.V * mesh.Volumes[i]
	}
	return sum
}

func TestGaussianHeatConservesPower(t *testing.T) {
	mesh := testMesh(t, 40)
	src, err := NewGaussianHeat(ad.Const(20), 0.3, 0.1, 0.6)
	require.NoError(t, err)

	set, err := src.Profiles(testState(mesh), mesh, 0)
	require.NoError(t, err)
	ion := integrate(set[profiles.IonHeat], mesh)
	elec := integrate(set[profiles.ElectronHeat], mesh)
	assert.InDelta(t, 12.0, ion, 1e-9)
	assert.InDelta(t, 8.0, elec, 1e-9)
	assert.Nil(t, set[profiles.Density])
}

func TestGasPuffPeaksAtEdge(t *testing.T) {
	mesh := testMesh(t, 40)
	src, err := NewGasPuff(ad.Const(5), 0.05)
	require.NoError(t, err)

	set, err := src.Profiles(testState(mesh), mesh, 0)
	require.NoError(t, err)
	dens := set[profiles.Density]
	assert.InDelta(t, 5.0, integrate(dens, mesh), 1e-9)
	assert.Greater(t, dens[mesh.NumCells-1].V, dens[0].V)
}

func TestOhmicHeatCouplesFluxToElectrons(t *testing.T) {
	mesh := testMesh(t, 20)
	src, err := NewOhmicHeat(ad.Const(0.1))
	require.NoError(t, err)

	set, err := src.Profiles(testState(mesh), mesh, 0)
	require.NoError(t, err)
	elec := set[profiles.ElectronHeat]
	require.NotNil(t, elec)
	for _, v := range elec {
		assert.GreaterOrEqual(t, v.V, 0.0)
	}
	// psi ~ rho^2 carries flat current, so interior heating is nonzero.
	assert.Greater(t, elec[mesh.NumCells/2].V, 0.0)

	// Derivative with respect to a seeded psi cell must flow through.
	s := testState(mesh)
	i := 10
	s.PolFlux[i] = ad.Seed(s.PolFlux[i].V, 0, 1)
	set, err = src.Profiles(s, mesh, 0)
	require.NoError(t, err)
	assert.NotEqual(t, 0.0, set[profiles.ElectronHeat][i].Deriv(0))
}

func TestSumAccumulatesChannels(t *testing.T) {
	mesh := testMesh(t, 20)
	heat, err := NewGaussianHeat(ad.Const(10), 0.0, 0.2, 0.5)
	require.NoError(t, err)
	puff, err := NewGasPuff(ad.Const(2), 0.05)
	require.NoError(t, err)

	total, err := Sum([]Source{heat, puff}, testState(mesh), mesh, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, integrate(total[profiles.IonHeat], mesh), 1e-9)
	assert.InDelta(t, 2.0, integrate(total[profiles.Density], mesh), 1e-9)
	assert.Nil(t, total[profiles.PoloidalFlux])
}

func TestBuildSourceRegistry(t *testing.T) {
	_, err := BuildSource("generic_heat", nil)
	assert.Error(t, err, "power is required")

	src, err := BuildSource("generic_heat", transport.ConstParams(map[string]float64{"power": 20}))
	require.NoError(t, err)
	assert.Equal(t, "generic_heat", src.Name())

	src, err = BuildSource("gas_puff", transport.ConstParams(map[string]float64{"rate": 1}))
	require.NoError(t, err)
	assert.Equal(t, "gas_puff", src.Name())

	_, err = BuildSource("fusion_power", nil)
	assert.Error(t, err)
}
