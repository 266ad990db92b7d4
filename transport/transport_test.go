package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
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

func linearState(mesh *geometry.Mesh, core, edge float64) *State {
	n := mesh.NumCells
	vals := make([]float64, n)
	for i, rho := range mesh.CellCenters {
		vals[i] = core + (edge-core)*rho
	}
	p := ad.ConstVec(vals)
	flat := ad.ConstVec(make([]float64, n))
	return &State{IonTemp: p, ElectronTemp: p, ElectronDens: p, PolFlux: flat}
}

func TestFaceAvgAndGrad(t *testing.T) {
	cells := ad.ConstVec([]float64{1, 3, 5, 7})
	avg := FaceAvg(cells)
	require.Len(t, avg, 5)
	assert.InDeltaSlice(t, []float64{1, 2, 4, 6, 7}, avg.Values(), 1e-15)

	grad := FaceGrad(cells, 0.25)
	assert.InDeltaSlice(t, []float64{0, 8, 8, 8, 8}, grad.Values(), 1e-12)
}

func TestConstantModelFillsFaces(t *testing.T) {
	mesh := testMesh(t, 10)
	m, err := NewConstantModel(
		ad.Const(1.5), ad.Const(2.0), ad.Const(0.5), ad.Const(-0.2), ad.Const(1.0))
	require.NoError(t, err)

	c, err := m.Evaluate(linearState(mesh, 10, 1), mesh, 0)
	require.NoError(t, err)
	for f := 0; f <= mesh.NumCells; f++ {
		assert.InDelta(t, 1.5, c[profiles.IonHeat].Diffusivity[f].V, 1e-15)
		assert.InDelta(t, 2.0, c[profiles.ElectronHeat].Diffusivity[f].V, 1e-15)
		assert.InDelta(t, -0.2, c[profiles.Density].Velocity[f].V, 1e-15)
	}
}

func TestConstantModelRejectsNonPositiveDiffusivity(t *testing.T) {
	_, err := NewConstantModel(ad.Const(0), ad.Const(1), ad.Const(1), ad.Const(0), ad.Const(1))
	assert.Error(t, err)
}

func TestCriticalGradientFloorAndGrowth(t *testing.T) {
	mesh := testMesh(t, 20)
	m, err := NewCriticalGradientModel(
		ad.Const(0.5), ad.Const(2.0), ad.Const(2.0),
		ad.Const(1.0), ad.Const(0.25), ad.Const(0), ad.Const(1.0))
	require.NoError(t, err)

	// Nearly flat profile: R/L_Ti ~ 0, every face sits at the floor.
	flat := linearState(mesh, 10, 9.99)
	c, err := m.Evaluate(flat, mesh, 0)
	require.NoError(t, err)
	for f := range c[profiles.IonHeat].Diffusivity {
		assert.InDelta(t, 0.5, c[profiles.IonHeat].Diffusivity[f].V, 1e-6)
	}

	// Steep profile: interior faces exceed the threshold and stiffen.
	steep := linearState(mesh, 10, 0.5)
	c, err = m.Evaluate(steep, mesh, 0)
	require.NoError(t, err)
	mid := mesh.NumCells / 2
	chi := c[profiles.IonHeat].Diffusivity[mid].V
	assert.Greater(t, chi, 0.5)
	// Electron and particle channels scale off the ion channel.
	assert.InDelta(t, chi, c[profiles.ElectronHeat].Diffusivity[mid].V, 1e-12)
	assert.InDelta(t, 0.25*chi, c[profiles.Density].Diffusivity[mid].V, 1e-12)
}

func TestCriticalGradientDifferentiable(t *testing.T) {
	mesh := testMesh(t, 8)
	m, err := NewCriticalGradientModel(
		ad.Const(0.5), ad.Const(2.0), ad.Const(0.1),
		ad.Const(1.0), ad.Const(0.25), ad.Const(0), ad.Const(1.0))
	require.NoError(t, err)

	n := mesh.NumCells
	base := make([]float64, n)
	for i, rho := range mesh.CellCenters {
		base[i] = 10 - 9*rho
	}
	cell := 3
	width := 1

	eval := func(vals []float64, seeded bool) float64 {
		var ti ad.Vec
		if seeded {
			ti = make(ad.Vec, n)
			for i, v := range vals {
				if i == cell {
					ti[i] = ad.Seed(v, 0, width)
				} else {
					ti[i] = ad.Const(v)
				}
			}
		} else {
			ti = ad.ConstVec(vals)
		}
		s := &State{IonTemp: ti, ElectronTemp: ti, ElectronDens: ti, PolFlux: ti}
		c, err := m.Evaluate(s, mesh, 0)
		require.NoError(t, err)
		face := cell + 1 // face fed by cells (cell, cell+1)
		if seeded {
			return c[profiles.IonHeat].Diffusivity[face].Deriv(0)
		}
		return c[profiles.IonHeat].Diffusivity[face].V
	}

	got := eval(base, true)
	h := 1e-6
	up := append([]float64(nil), base...)
	dn := append([]float64(nil), base...)
	up[cell] += h
	dn[cell] -= h
	fd := (eval(up, false) - eval(dn, false)) / (2 * h)
	assert.InDelta(t, fd, got, 1e-4)
}

func TestBuildModelRegistry(t *testing.T) {
	m, err := BuildModel("constant", ConstParams(map[string]float64{"chi_ion": 3}))
	require.NoError(t, err)
	assert.Equal(t, "constant", m.Name())
	assert.InDelta(t, 3.0, m.(*ConstantModel).ChiIon.V, 1e-15)
	// Unset parameters take defaults.
	assert.InDelta(t, 0.5, m.(*ConstantModel).ParticleD.V, 1e-15)

	m, err = BuildModel("critical_gradient", nil)
	require.NoError(t, err)
	assert.Equal(t, "critical_gradient", m.Name())

	_, err = BuildModel("qualikiz", nil)
	assert.Error(t, err)
}
