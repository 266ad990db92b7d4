package output

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/stepper"
)

// maxProfileLines caps how many snapshots a trajectory plot draws; long
// runs are subsampled evenly so the figure stays readable.
const maxProfileLines = 8

// PlotProfiles renders one channel of a trajectory as radial profiles at
// evenly spaced times and saves the figure as PNG.
func PlotProfiles(path string, mesh *geometry.Mesh, traj *stepper.Trajectory, c profiles.Channel) error {
	if len(traj.States) == 0 {
		return fmt.Errorf("empty trajectory")
	}
	p := plot.New()
	p.Title.Text = c.String()
	p.X.Label.Text = "rho"
	p.Y.Label.Text = c.String()

	states := subsample(traj.States, maxProfileLines)
	for li, s := range states {
		prof := s.Channel(c)
		xys := make(plotter.XYs, len(prof))
		for i, v := range prof {
			xys[i].X = mesh.CellCenters[i]
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("profile line at t=%.4g: %w", s.Time, err)
		}
		line.Color = plotutil.Color(li)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("t=%.4g", s.Time), line)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// PlotTimestepHistory renders the accepted step sizes over simulated time
// on a log scale and saves the figure as PNG.
func PlotTimestepHistory(path string, records []stepper.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to plot")
	}
	p := plot.New()
	p.Title.Text = "timestep history"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "dt"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	xys := make(plotter.XYs, 0, len(records))
	for _, r := range records {
		if !r.Accepted {
			continue
		}
		xys = append(xys, plotter.XY{X: r.Time, Y: r.Dt})
	}
	if len(xys) == 0 {
		return fmt.Errorf("no accepted steps to plot")
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("dt history line: %w", err)
	}
	line.Color = plotutil.Color(0)
	points.Color = plotutil.Color(0)
	p.Add(line, points)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// subsample keeps at most n entries, always including the first and last.
func subsample(states []*profiles.State, n int) []*profiles.State {
	if len(states) <= n {
		return states
	}
	out := make([]*profiles.State, 0, n)
	for i := 0; i < n; i++ {
		idx := i * (len(states) - 1) / (n - 1)
		out = append(out, states[idx])
	}
	return out
}
