package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/stepper"
)

func testTrajectory(t *testing.T) (*geometry.Mesh, *stepper.Trajectory) {
	t.Helper()
	prov, err := geometry.NewCircularProvider(geometry.CircularConfig{
		NumCells: 8, MajorRadius: 6.2, MinorRadius: 2.0, ToroidalField: 5.3,
	})
	require.NoError(t, err)
	mesh, err := prov.Mesh(0)
	require.NoError(t, err)

	mk := func(tm, scale float64) *profiles.State {
		n := mesh.NumCells
		p := make(profiles.Profile, n)
		for i, rho := range mesh.CellCenters {
			p[i] = scale * (1 - rho*rho)
		}
		flat := make(profiles.Profile, n)
		for i := range flat {
			flat[i] = 1
		}
		s, err := profiles.NewState(tm, p, p.Clone(), flat, flat.Clone(), profiles.BoundarySet{})
		require.NoError(t, err)
		return s
	}
	return mesh, &stepper.Trajectory{
		States: []*profiles.State{mk(0, 5), mk(0.01, 5.5), mk(0.025, 6)},
		Records: []stepper.Record{
			{Step: 0, Time: 0.01, Dt: 0.01, Iterations: 3, Accepted: true},
			{Step: 1, Time: 0.025, Dt: 0.015, Iterations: 2, Retries: 1, Accepted: true},
		},
	}
}

func TestWriteProfilesCSV(t *testing.T) {
	mesh, traj := testTrajectory(t)
	var buf bytes.Buffer
	require.NoError(t, WriteProfilesCSV(&buf, mesh, traj.Final()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, mesh.NumCells+1)
	assert.Equal(t, []string{"rho", "ion_temp", "electron_temp", "density", "poloidal_flux"}, rows[0])

	rho, err := strconv.ParseFloat(rows[1][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, mesh.CellCenters[0], rho, 1e-15)
	ti, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, traj.Final().IonTemp[0], ti, 1e-15)
}

func TestWriteTrajectoryCSV(t *testing.T) {
	mesh, traj := testTrajectory(t)
	var buf bytes.Buffer
	require.NoError(t, WriteTrajectoryCSV(&buf, mesh, traj))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, len(traj.States)*mesh.NumCells+1)

	last := rows[len(rows)-1]
	tm, err := strconv.ParseFloat(last[0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, tm, 1e-15)
}

func TestWriteRecordsCSV(t *testing.T) {
	_, traj := testTrajectory(t)
	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, traj.Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"step", "time", "dt", "iterations", "retries", "accepted"}, rows[0])
	assert.Equal(t, "1", rows[2][4], "retry count survives the round trip")
	assert.Equal(t, "true", rows[2][5])
}

func TestWriteSensitivityCSV(t *testing.T) {
	mesh, _ := testTrajectory(t)
	sens := &stepper.Sensitivity{
		Active:  []profiles.Channel{profiles.IonHeat, profiles.Density},
		Vectors: [][]float64{make([]float64, 2*mesh.NumCells)},
	}
	for i := 0; i < mesh.NumCells; i++ {
		sens.Vectors[0][i*2] = float64(i) // ion_heat column
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSensitivityCSV(&buf, mesh, sens))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, mesh.NumCells+1)
	assert.Equal(t, []string{"rho", "d_ion_heat", "d_density"}, rows[0])
	assert.Equal(t, "3", rows[4][1])
	assert.Equal(t, "0", rows[4][2])
}

func TestPlotProfiles(t *testing.T) {
	mesh, traj := testTrajectory(t)
	path := filepath.Join(t.TempDir(), "ion_temp.png")
	require.NoError(t, PlotProfiles(path, mesh, traj, profiles.IonHeat))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	err = PlotProfiles(filepath.Join(t.TempDir(), "x.png"), mesh, &stepper.Trajectory{}, profiles.IonHeat)
	assert.Error(t, err)
}

func TestPlotTimestepHistory(t *testing.T) {
	_, traj := testTrajectory(t)
	path := filepath.Join(t.TempDir(), "dt.png")
	require.NoError(t, PlotTimestepHistory(path, traj.Records))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, PlotTimestepHistory(path, nil))
	assert.Error(t, PlotTimestepHistory(path, []stepper.Record{{Accepted: false}}))
}

func TestSubsample(t *testing.T) {
	_, traj := testTrajectory(t)
	assert.Len(t, subsample(traj.States, 8), 3, "short trajectories pass through")

	long := make([]*profiles.State, 50)
	for i := range long {
		long[i] = traj.States[0]
	}
	got := subsample(long, 8)
	assert.Len(t, got, 8)
	assert.Same(t, long[0], got[0])
	assert.Same(t, long[49], got[7])
}
