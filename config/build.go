package config

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/solver"
	"github.com/theo-brown/torax/sources"
	"github.com/theo-brown/torax/stepper"
	"github.com/theo-brown/torax/transport"
)

// Build assembles the driver and the t=0 state from a validated Config.
// When a sensitivity target is configured, the named parameter is seeded
// so that Driver.RunSensitivity differentiates with respect to it.
func (c *Config) Build() (*stepper.Driver, *profiles.State, error) {
	prov, err := c.buildGeometry()
	if err != nil {
		return nil, nil, err
	}
	mesh, err := prov.Mesh(0)
	if err != nil {
		return nil, nil, err
	}

	active := make([]profiles.Channel, len(c.Equations))
	for i, name := range c.Equations {
		ch, ok := profiles.ChannelFromName(name)
		if !ok {
			return nil, nil, invalidf("unknown equation %q", name)
		}
		active[i] = ch
	}

	model, srcs, err := c.buildModels(active)
	if err != nil {
		return nil, nil, err
	}

	bc, err := c.boundarySet(mesh)
	if err != nil {
		return nil, nil, err
	}
	initial, err := profiles.NewInitialState(mesh, profiles.InitialConditions{
		IonTempCore: c.Initial.IonTempCore, IonTempEdge: c.Initial.IonTempEdge,
		ElectronTempCore: c.Initial.ElectronTempCore, ElectronTempEdge: c.Initial.ElectronTempEdge,
		DensityCore: c.Initial.DensityCore, DensityEdge: c.Initial.DensityEdge,
		LineAvgDensity: c.Initial.LineAvgDensity,
		PlasmaCurrent:  c.Initial.PlasmaCurrent,
		CurrentPeaking: c.Initial.CurrentPeaking,
	}, bc)
	if err != nil {
		return nil, nil, invalidf("initial conditions: %v", err)
	}

	tie := solver.TieInner
	if c.Solver.UpwindTie == "outer" {
		tie = solver.TieOuter
	}
	d := &stepper.Driver{
		Geometry:  prov,
		Model:     model,
		Sources:   srcs,
		Active:    active,
		Theta:     c.Solver.Theta,
		Tie:       tie,
		Newton:    c.newtonParams(),
		Control:   c.controllerConfig(),
		FinalTime: c.Time.Final,
		MaxSteps:  c.Time.MaxSteps,
		Verbose:   c.Verbose,
	}
	return d, initial, nil
}

func (c *Config) buildGeometry() (geometry.Provider, error) {
	switch c.Geometry.Kind {
	case "circular":
		p, err := geometry.NewCircularProvider(geometry.CircularConfig{
			NumCells:      c.Geometry.NumCells,
			MajorRadius:   c.Geometry.MajorRadius,
			MinorRadius:   c.Geometry.MinorRadius,
			ToroidalField: c.Geometry.ToroidalField,
			Elongation:    c.Geometry.Elongation,
		})
		if err != nil {
			return nil, invalidf("geometry: %v", err)
		}
		return p, nil
	case "file":
		p, err := geometry.NewFileProvider(c.Geometry.Path)
		if err != nil {
			return nil, fmt.Errorf("geometry file %s: %w", c.Geometry.Path, err)
		}
		return p, nil
	}
	return nil, invalidf("unknown geometry kind %q", c.Geometry.Kind)
}

// buildModels lifts the float parameter maps into duals, seeding the
// sensitivity target when one is configured, and constructs the transport
// and source models.
func (c *Config) buildModels(active []profiles.Channel) (transport.Model, []sources.Source, error) {
	dir, width := stepper.SeedDir(active)
	lift := func(component string, raw map[string]float64) (transport.Params, error) {
		p := transport.ConstParams(raw)
		s := c.Sensitivity
		if s == nil || s.Component != component {
			return p, nil
		}
		v, ok := raw[s.Parameter]
		if !ok {
			return nil, invalidf("sensitivity parameter %q must be set explicitly in the %s params",
				s.Parameter, component)
		}
		p[s.Parameter] = ad.Seed(v, dir, width)
		return p, nil
	}

	tp, err := lift("transport", c.Transport.Params)
	if err != nil {
		return nil, nil, err
	}
	model, err := transport.BuildModel(c.Transport.Name, tp)
	if err != nil {
		return nil, nil, invalidf("transport: %v", err)
	}

	srcs := make([]sources.Source, 0, len(c.Sources))
	for _, sc := range c.Sources {
		sp, err := lift(sc.Name, sc.Params)
		if err != nil {
			return nil, nil, err
		}
		src, err := sources.BuildSource(sc.Name, sp)
		if err != nil {
			return nil, nil, invalidf("source: %v", err)
		}
		srcs = append(srcs, src)
	}
	return model, srcs, nil
}

// boundarySet resolves the per-channel edge conditions. Channels without a
// configured entry pin their initial edge value; the poloidal flux instead
// keeps the edge gradient implied by the total plasma current, which is
// how a fixed-current discharge behaves.
func (c *Config) boundarySet(mesh *geometry.Mesh) (profiles.BoundarySet, error) {
	var bs profiles.BoundarySet
	bs[profiles.IonHeat] = profiles.BoundaryCondition{
		Kind: profiles.EdgeValue, Value: c.Initial.IonTempEdge}
	bs[profiles.ElectronHeat] = profiles.BoundaryCondition{
		Kind: profiles.EdgeValue, Value: c.Initial.ElectronTempEdge}
	bs[profiles.Density] = profiles.BoundaryCondition{
		Kind: profiles.EdgeValue, Value: c.Initial.DensityEdge}
	bs[profiles.PoloidalFlux] = profiles.BoundaryCondition{
		Kind:  profiles.EdgeGradient,
		Value: profiles.Mu0 * mesh.MajorRadius * c.Initial.PlasmaCurrent * 1e6 / mesh.MinorRadius,
	}

	for name, bc := range c.Boundary {
		ch, ok := profiles.ChannelFromName(name)
		if !ok {
			return bs, invalidf("boundary condition for unknown channel %q", name)
		}
		kind, err := profiles.EdgeKindFromName(bc.Kind)
		if err != nil {
			return bs, invalidf("boundary %s: %v", name, err)
		}
		bs[ch] = profiles.BoundaryCondition{Kind: kind, Value: bc.Value}
	}
	return bs, nil
}
