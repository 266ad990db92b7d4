package config

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theo-brown/torax/profiles"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	d, initial, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, []profiles.Channel{profiles.IonHeat, profiles.ElectronHeat}, d.Active)
	assert.Equal(t, 1.0, d.Theta)
	assert.Len(t, initial.IonTemp, cfg.Geometry.NumCells)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
geometry:
  kind: circular
  num_cells: 10
equations: [ion_heat, electron_heat, density]
transport:
  name: critical_gradient
  params: {chi_floor: 0.4}
sources:
  - name: generic_heat
    params: {power: 20, width: 0.2}
  - name: gas_puff
    params: {rate: 5}
solver:
  theta: 0.5
  timestep: {initial: 0.001, max: 0.02}
time:
  final: 0.05
`))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Geometry.NumCells)
	assert.Equal(t, 6.2, cfg.Geometry.MajorRadius, "untouched fields keep defaults")
	assert.Equal(t, "critical_gradient", cfg.Transport.Name)
	assert.Equal(t, 0.5, cfg.Solver.Theta)
	assert.Equal(t, 0.001, cfg.Solver.Timestep.Initial)

	d, initial, err := cfg.Build()
	require.NoError(t, err)
	assert.Len(t, d.Sources, 2)
	assert.Len(t, d.Active, 3)
	assert.Equal(t, 0.05, d.FinalTime)
	assert.True(t, initial.ElectronDens.NonNegative())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("tine:\n  final: 1.0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown equation":       func(c *Config) { c.Equations = []string{"momentum"} },
		"duplicate equation":     func(c *Config) { c.Equations = []string{"ion_heat", "ion_heat"} },
		"no equations":           func(c *Config) { c.Equations = nil },
		"theta out of range":     func(c *Config) { c.Solver.Theta = 1.5 },
		"bad upwind tie":         func(c *Config) { c.Solver.UpwindTie = "upstream" },
		"dt bounds inverted":     func(c *Config) { c.Solver.Timestep.Min = 1; c.Solver.Timestep.Max = 0.5 },
		"negative final time":    func(c *Config) { c.Time.Final = -1 },
		"unknown geometry":       func(c *Config) { c.Geometry.Kind = "toroidal" },
		"file without path":      func(c *Config) { c.Geometry.Kind = "file"; c.Geometry.Path = "" },
		"bad boundary channel":   func(c *Config) { c.Boundary = map[string]BoundaryConfig{"spin": {Kind: "value"}} },
		"bad boundary kind":      func(c *Config) { c.Boundary = map[string]BoundaryConfig{"density": {Kind: "robin"}} },
		"sensitivity no param":   func(c *Config) { c.Sensitivity = &SensitivityConfig{Component: "transport"} },
		"sensitivity bad source": func(c *Config) { c.Sensitivity = &SensitivityConfig{Component: "nbi", Parameter: "power"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestBuildDefaultBoundaries(t *testing.T) {
	cfg := Default()
	cfg.Boundary = map[string]BoundaryConfig{
		"density": {Kind: "gradient", Value: -0.1},
	}
	_, initial, err := cfg.Build()
	require.NoError(t, err)

	bc := initial.Boundary
	assert.Equal(t, profiles.EdgeValue, bc[profiles.IonHeat].Kind)
	assert.Equal(t, cfg.Initial.IonTempEdge, bc[profiles.IonHeat].Value)
	assert.Equal(t, profiles.EdgeGradient, bc[profiles.Density].Kind)
	assert.Equal(t, -0.1, bc[profiles.Density].Value)
	assert.Equal(t, profiles.EdgeGradient, bc[profiles.PoloidalFlux].Kind)
	assert.Greater(t, bc[profiles.PoloidalFlux].Value, 0.0)
}

func TestBuildSensitivityRequiresExplicitParam(t *testing.T) {
	cfg := Default()
	cfg.Sources = []ComponentConfig{{Name: "generic_heat", Params: map[string]float64{"power": 20}}}
	cfg.Sensitivity = &SensitivityConfig{Component: "generic_heat", Parameter: "width"}
	require.NoError(t, cfg.Validate())
	_, _, err := cfg.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestBuildSensitivityEndToEnd(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
geometry: {num_cells: 10}
equations: [ion_heat]
sources:
  - name: generic_heat
    params: {power: 30, width: 0.25, ion_fraction: 1.0}
solver:
  timestep: {initial: 0.01, max: 0.01}
time: {final: 0.03}
sensitivity: {component: generic_heat, parameter: power}
`))
	require.NoError(t, err)
	d, initial, err := cfg.Build()
	require.NoError(t, err)

	traj, sens, err := d.RunSensitivity(context.Background(), initial)
	require.NoError(t, err)
	require.NotEmpty(t, traj.Records)
	final := sens.Final(cfg.Geometry.NumCells)
	assert.Greater(t, sens.Value(final, profiles.IonHeat, 0), 0.0,
		"more heating power must raise the central ion temperature")
}
