// Package output serializes run results: CSV tables for downstream
// analysis and PNG plots for a quick look.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/stepper"
)

func fmtF(v float64) string { return strconv.FormatFloat(v, 'g', 17, 64) }

// WriteProfilesCSV writes one state as a per-cell table.
func WriteProfilesCSV(w io.Writer, mesh *geometry.Mesh, s *profiles.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rho", "ion_temp", "electron_temp", "density", "poloidal_flux"}); err != nil {
		return fmt.Errorf("write profiles header: %w", err)
	}
	for i, rho := range mesh.CellCenters {
		rec := []string{fmtF(rho), fmtF(s.IonTemp[i]), fmtF(s.ElectronTemp[i]),
			fmtF(s.ElectronDens[i]), fmtF(s.PolFlux[i])}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write profiles row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrajectoryCSV writes every state of a trajectory in long form, one
// row per (time, cell) pair.
func WriteTrajectoryCSV(w io.Writer, mesh *geometry.Mesh, traj *stepper.Trajectory) error {
	cw := csv.NewWriter(w)
	header := []string{"time", "rho", "ion_temp", "electron_temp", "density", "poloidal_flux"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write trajectory header: %w", err)
	}
	for _, s := range traj.States {
		for i, rho := range mesh.CellCenters {
			rec := []string{fmtF(s.Time), fmtF(rho), fmtF(s.IonTemp[i]),
				fmtF(s.ElectronTemp[i]), fmtF(s.ElectronDens[i]), fmtF(s.PolFlux[i])}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("write trajectory row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSensitivityCSV writes the final-state parameter sensitivity, one
// row per cell with a derivative column per evolved channel.
func WriteSensitivityCSV(w io.Writer, mesh *geometry.Mesh, sens *stepper.Sensitivity) error {
	cw := csv.NewWriter(w)
	header := []string{"rho"}
	for _, c := range sens.Active {
		header = append(header, "d_"+c.String())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write sensitivity header: %w", err)
	}
	final := sens.Final(mesh.NumCells)
	for i, rho := range mesh.CellCenters {
		rec := []string{fmtF(rho)}
		for _, c := range sens.Active {
			rec = append(rec, fmtF(sens.Value(final, c, i)))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write sensitivity row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecordsCSV writes the per-cycle solver diagnostics.
func WriteRecordsCSV(w io.Writer, records []stepper.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "time", "dt", "iterations", "retries", "accepted"}); err != nil {
		return fmt.Errorf("write records header: %w", err)
	}
	for _, r := range records {
		rec := []string{strconv.Itoa(r.Step), fmtF(r.Time), fmtF(r.Dt),
			strconv.Itoa(r.Iterations), strconv.Itoa(r.Retries), strconv.FormatBool(r.Accepted)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write records row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
