// Command torax evolves a 1D tokamak plasma transport run described by a
// YAML configuration and writes the resulting trajectory as CSV tables
// and PNG plots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/theo-brown/torax/config"
	"github.com/theo-brown/torax/output"
	"github.com/theo-brown/torax/stepper"
)

func main() {
	cfgPath := flag.String("config", "", "path to the YAML run configuration (defaults used when empty)")
	outDir := flag.String("out", "out", "directory for CSV tables and plots")
	plots := flag.Bool("plots", true, "render PNG plots")
	verbose := flag.Bool("v", false, "print a progress line per accepted step")
	flag.Parse()

	if err := run(*cfgPath, *outDir, *plots, *verbose); err != nil {
		log.Fatalf("torax: %v", err)
	}
}

func run(cfgPath, outDir string, plots, verbose bool) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	if verbose {
		cfg.Verbose = true
	}
	driver, initial, err := cfg.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("=== torax transport run ===\n")
	fmt.Printf("geometry: %s, %d cells\n", cfg.Geometry.Kind, len(initial.IonTemp))
	fmt.Printf("equations: %v\n", cfg.Equations)
	fmt.Printf("transport: %s, theta=%.2f, t_final=%.4g\n",
		cfg.Transport.Name, cfg.Solver.Theta, cfg.Time.Final)

	var traj *stepper.Trajectory
	var sens *stepper.Sensitivity
	if cfg.Sensitivity != nil {
		fmt.Printf("sensitivity: d/d(%s.%s)\n", cfg.Sensitivity.Component, cfg.Sensitivity.Parameter)
		traj, sens, err = driver.RunSensitivity(ctx, initial)
	} else {
		traj, err = driver.Run(ctx, initial)
	}
	// A failed run still carries everything accepted so far; write it out
	// before surfacing the error.
	if traj != nil && len(traj.Records) > 0 {
		if werr := writeResults(driver, traj, sens, outDir, plots); werr != nil {
			if err == nil {
				err = werr
			} else {
				fmt.Printf("writing results: %v\n", werr)
			}
		}
	}
	if err != nil {
		if errors.Is(err, stepper.ErrTerminalFailure) {
			return fmt.Errorf("evolution halted, partial trajectory written to %s: %w", outDir, err)
		}
		return err
	}

	final := traj.Final()
	fmt.Printf("\ndone: %d accepted steps to t=%.6g\n", len(traj.Records), final.Time)
	fmt.Printf("central Ti=%.4g keV, Te=%.4g keV, ne=%.4g 1e20/m^3\n",
		final.IonTemp[0], final.ElectronTemp[0], final.ElectronDens[0])
	if sens != nil {
		v := sens.Final(len(final.IonTemp))
		for _, c := range driver.Active {
			fmt.Printf("d(%s[0])/dp = %.6g\n", c, sens.Value(v, c, 0))
		}
	}
	return nil
}

func writeResults(d *stepper.Driver, traj *stepper.Trajectory, sens *stepper.Sensitivity,
	dir string, plots bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	mesh, err := d.Geometry.Mesh(traj.Final().Time)
	if err != nil {
		return err
	}

	writeCSV := func(name string, fn func(f *os.File) error) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer f.Close()
		return fn(f)
	}
	if err := writeCSV("trajectory.csv", func(f *os.File) error {
		return output.WriteTrajectoryCSV(f, mesh, traj)
	}); err != nil {
		return err
	}
	if err := writeCSV("final_profiles.csv", func(f *os.File) error {
		return output.WriteProfilesCSV(f, mesh, traj.Final())
	}); err != nil {
		return err
	}
	if err := writeCSV("records.csv", func(f *os.File) error {
		return output.WriteRecordsCSV(f, traj.Records)
	}); err != nil {
		return err
	}
	if sens != nil {
		if err := writeCSV("sensitivity.csv", func(f *os.File) error {
			return output.WriteSensitivityCSV(f, mesh, sens)
		}); err != nil {
			return err
		}
	}

	if !plots {
		return nil
	}
	for _, c := range d.Active {
		name := filepath.Join(dir, c.String()+".png")
		if err := output.PlotProfiles(name, mesh, traj, c); err != nil {
			return err
		}
	}
	return output.PlotTimestepHistory(filepath.Join(dir, "timesteps.png"), traj.Records)
}
