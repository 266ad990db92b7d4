// Package config loads and validates a YAML run description and builds
// the evolution driver from it.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/solver"
	"github.com/theo-brown/torax/stepper"
)

// ErrInvalid marks configuration errors, as opposed to runtime solver
// failures. Callers can branch on errors.Is(err, ErrInvalid).
var ErrInvalid = errors.New("invalid configuration")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Config is the full run description. Zero values fall back to the
// defaults set by Default; unknown YAML keys are rejected.
type Config struct {
	Geometry  GeometryConfig            `yaml:"geometry"`
	Initial   InitialConfig             `yaml:"initial"`
	Equations []string                  `yaml:"equations"`
	Boundary  map[string]BoundaryConfig `yaml:"boundary"`

	Transport ComponentConfig   `yaml:"transport"`
	Sources   []ComponentConfig `yaml:"sources"`

	Solver SolverConfig `yaml:"solver"`
	Time   TimeConfig   `yaml:"time"`

	Sensitivity *SensitivityConfig `yaml:"sensitivity"`

	Verbose bool `yaml:"verbose"`
}

// GeometryConfig selects the equilibrium description: an analytic circular
// one, or a tabulated file.
type GeometryConfig struct {
	Kind string `yaml:"kind"` // "circular" or "file"

	// circular
	NumCells      int     `yaml:"num_cells"`
	MajorRadius   float64 `yaml:"major_radius"`
	MinorRadius   float64 `yaml:"minor_radius"`
	ToroidalField float64 `yaml:"toroidal_field"`
	Elongation    float64 `yaml:"elongation"`

	// file
	Path string `yaml:"path"`
}

// InitialConfig mirrors profiles.InitialConditions.
type InitialConfig struct {
	IonTempCore      float64 `yaml:"ion_temp_core"`
	IonTempEdge      float64 `yaml:"ion_temp_edge"`
	ElectronTempCore float64 `yaml:"electron_temp_core"`
	ElectronTempEdge float64 `yaml:"electron_temp_edge"`
	DensityCore      float64 `yaml:"density_core"`
	DensityEdge      float64 `yaml:"density_edge"`
	LineAvgDensity   float64 `yaml:"line_avg_density"`
	PlasmaCurrent    float64 `yaml:"plasma_current"`
	CurrentPeaking   float64 `yaml:"current_peaking"`
}

// BoundaryConfig is one channel's outer-edge condition. Channels without
// an entry keep their initial edge value pinned (poloidal flux keeps its
// initial edge gradient instead).
type BoundaryConfig struct {
	Kind  string  `yaml:"kind"` // "value", "gradient" or "flux"
	Value float64 `yaml:"value"`
}

// ComponentConfig names a transport or source model with its parameters.
type ComponentConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// SolverConfig tunes the time scheme and the nonlinear solve.
type SolverConfig struct {
	Theta     float64        `yaml:"theta"`
	UpwindTie string         `yaml:"upwind_tie"` // "inner" or "outer"
	Newton    NewtonConfig   `yaml:"newton"`
	Timestep  TimestepConfig `yaml:"timestep"`
}

type NewtonConfig struct {
	RelTol        float64 `yaml:"rel_tol"`
	AbsTol        float64 `yaml:"abs_tol"`
	MaxIters      int     `yaml:"max_iters"`
	MaxBacktracks int     `yaml:"max_backtracks"`
}

type TimestepConfig struct {
	Initial    float64 `yaml:"initial"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Growth     float64 `yaml:"growth"`
	Shrink     float64 `yaml:"shrink"`
	QuickIters int     `yaml:"quick_iters"`
	CFLSafety  float64 `yaml:"cfl_safety"`
}

type TimeConfig struct {
	Final    float64 `yaml:"final"`
	MaxSteps int     `yaml:"max_steps"`
}

// SensitivityConfig names the scalar model parameter whose derivative the
// run propagates. Component is "transport" or a source name from Sources.
type SensitivityConfig struct {
	Component string `yaml:"component"`
	Parameter string `yaml:"parameter"`
}

// Default is the baseline every loaded file starts from: an implicit
// scheme with conservative Newton and timestep settings, constant
// transport, and ion+electron heat equations.
func Default() Config {
	np := solver.DefaultParams()
	cc := stepper.DefaultControllerConfig()
	return Config{
		Geometry: GeometryConfig{
			Kind:          "circular",
			NumCells:      25,
			MajorRadius:   6.2,
			MinorRadius:   2.0,
			ToroidalField: 5.3,
			Elongation:    1.0,
		},
		Initial: InitialConfig{
			IonTempCore: 10, IonTempEdge: 1,
			ElectronTempCore: 10, ElectronTempEdge: 1,
			DensityCore: 1.2, DensityEdge: 0.6,
			PlasmaCurrent:  15,
			CurrentPeaking: 1,
		},
		Equations: []string{"ion_heat", "electron_heat"},
		Transport: ComponentConfig{Name: "constant"},
		Solver: SolverConfig{
			Theta:     1.0,
			UpwindTie: "inner",
			Newton: NewtonConfig{
				RelTol:        np.RelTol,
				AbsTol:        np.AbsTol,
				MaxIters:      np.MaxIters,
				MaxBacktracks: np.MaxBacktracks,
			},
			Timestep: TimestepConfig{
				Initial:    cc.DtInitial,
				Min:        cc.DtMin,
				Max:        cc.DtMax,
				Growth:     cc.Growth,
				Shrink:     cc.Shrink,
				QuickIters: cc.QuickIters,
				CFLSafety:  cc.CFLSafety,
			},
		},
		Time: TimeConfig{Final: 1.0},
	}
}

// Load reads and validates a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes YAML from r on top of the defaults and validates the
// result. Unknown keys are an error.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, invalidf("parse yaml: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks everything that can be checked without building: names,
// ranges, and cross-field consistency. The first problem found is
// returned, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	switch c.Geometry.Kind {
	case "circular":
		// bounds are checked again by the provider constructor
	case "file":
		if c.Geometry.Path == "" {
			return invalidf("geometry kind file needs a path")
		}
	default:
		return invalidf("unknown geometry kind %q", c.Geometry.Kind)
	}

	if len(c.Equations) == 0 {
		return invalidf("at least one equation must be evolved")
	}
	seen := map[string]bool{}
	for _, name := range c.Equations {
		if _, ok := profiles.ChannelFromName(name); !ok {
			return invalidf("unknown equation %q", name)
		}
		if seen[name] {
			return invalidf("equation %q listed twice", name)
		}
		seen[name] = true
	}

	for name, bc := range c.Boundary {
		if _, ok := profiles.ChannelFromName(name); !ok {
			return invalidf("boundary condition for unknown channel %q", name)
		}
		if _, err := profiles.EdgeKindFromName(bc.Kind); err != nil {
			return invalidf("boundary %s: %v", name, err)
		}
	}

	if c.Solver.Theta < 0 || c.Solver.Theta > 1 {
		return invalidf("theta must be in [0, 1], got %g", c.Solver.Theta)
	}
	if c.Solver.UpwindTie != "inner" && c.Solver.UpwindTie != "outer" {
		return invalidf("upwind_tie must be inner or outer, got %q", c.Solver.UpwindTie)
	}
	if err := c.controllerConfig().Validate(); err != nil {
		return invalidf("timestep: %v", err)
	}
	if c.Time.Final <= 0 {
		return invalidf("final time must be positive, got %g", c.Time.Final)
	}
	if c.Time.MaxSteps < 0 {
		return invalidf("max_steps must be non-negative, got %d", c.Time.MaxSteps)
	}

	if s := c.Sensitivity; s != nil {
		if s.Parameter == "" {
			return invalidf("sensitivity needs a parameter name")
		}
		if s.Component != "transport" {
			found := false
			for _, src := range c.Sources {
				if src.Name == s.Component {
					found = true
					break
				}
			}
			if !found {
				return invalidf("sensitivity component %q is neither transport nor a configured source", s.Component)
			}
		}
	}
	return nil
}

func (c *Config) controllerConfig() stepper.ControllerConfig {
	ts := c.Solver.Timestep
	return stepper.ControllerConfig{
		DtInitial:  ts.Initial,
		DtMin:      ts.Min,
		DtMax:      ts.Max,
		Growth:     ts.Growth,
		Shrink:     ts.Shrink,
		QuickIters: ts.QuickIters,
		CFLSafety:  ts.CFLSafety,
	}
}

func (c *Config) newtonParams() solver.Params {
	n := c.Solver.Newton
	return solver.Params{
		RelTol:        n.RelTol,
		AbsTol:        n.AbsTol,
		MaxIters:      n.MaxIters,
		MaxBacktracks: n.MaxBacktracks,
	}
}
