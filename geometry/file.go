package geometry

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// FileProvider loads flux-surface metrics from an equilibrium table on disk.
// The format is line-oriented: scalar lines of the form "NAME VALUE" for R0,
// a and B0, then one "FACE rho area volume" line per face where volume is
// the cumulative enclosed volume up to that face. Lines starting with '#'
// and blank lines are ignored. Faces must appear in increasing rho order
// starting at rho=0.
type FileProvider struct {
	mesh *Mesh
}

// NewFileProvider parses the equilibrium table at path and builds the mesh.
func NewFileProvider(path string) (*FileProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening equilibrium table: %w", err)
	}
	defer f.Close()
	mesh, err := parseEquilibriumTable(f.Name(), bufio.NewScanner(f))
	if err != nil {
		return nil, err
	}
	return &FileProvider{mesh: mesh}, nil
}

// Mesh returns the loaded mesh; the file describes a single equilibrium so t
// is ignored.
func (p *FileProvider) Mesh(t float64) (*Mesh, error) {
	return p.mesh, nil
}

func parseEquilibriumTable(name string, sc *bufio.Scanner) (*Mesh, error) {
	var (
		scalars               = map[string]float64{}
		faces, areas, cumVols []float64
		lineNo                int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "R0", "a", "B0":
			if len(fields) != 2 {
				return nil, fmt.Errorf("%s:%d: scalar line needs exactly one value", name, lineNo)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: parsing %s: %w", name, lineNo, fields[0], err)
			}
			scalars[fields[0]] = v
		case "FACE":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%s:%d: FACE line needs rho, area, volume", name, lineNo)
			}
			vals := make([]float64, 3)
			for i, s := range fields[1:] {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: parsing FACE column %d: %w", name, lineNo, i+1, err)
				}
				vals[i] = v
			}
			faces = append(faces, vals[0])
			areas = append(areas, vals[1])
			cumVols = append(cumVols, vals[2])
		default:
			return nil, fmt.Errorf("%s:%d: unknown record %q", name, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading equilibrium table: %w", err)
	}
	for _, key := range []string{"R0", "a", "B0"} {
		if _, ok := scalars[key]; !ok {
			return nil, fmt.Errorf("%s: missing scalar %s", name, key)
		}
	}
	n := len(faces) - 1
	if n < 2 {
		return nil, fmt.Errorf("%s: needs at least 3 FACE records, got %d", name, len(faces))
	}
	if faces[0] != 0 {
		return nil, fmt.Errorf("%s: first face must be at rho=0, got %g", name, faces[0])
	}

	centers := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		centers[i] = 0.5 * (faces[i] + faces[i+1])
		volumes[i] = cumVols[i+1] - cumVols[i]
	}
	mesh, err := NewMesh(centers, faces, volumes, areas)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	mesh.MajorRadius = scalars["R0"]
	mesh.MinorRadius = scalars["a"]
	mesh.ToroidalField = scalars["B0"]
	// Approximate the boundary toroidal flux from the scalar fields; tables
	// for shaped plasmas can override via an explicit scalar later.
	mesh.PhiBoundary = math.Pi * scalars["B0"] * scalars["a"] * scalars["a"]
	return mesh, nil
}
