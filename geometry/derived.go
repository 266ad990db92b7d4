package geometry

import "math"

// FaceToCell averages a face-grid quantity onto cell centers.
func FaceToCell(face []float64) []float64 {
	cell := make([]float64, len(face)-1)
	for i := range cell {
		cell[i] = 0.5 * (face[i] + face[i+1])
	}
	return cell
}

// FaceGradient returns the finite-difference gradient of a cell-grid
// quantity on the face grid. Boundary faces extrapolate the one-sided
// gradient of the adjacent interior face.
func (m *Mesh) FaceGradient(cell []float64) []float64 {
	n := m.NumCells
	grad := make([]float64, n+1)
	for i := 1; i < n; i++ {
		grad[i] = (cell[i] - cell[i-1]) / m.Drho
	}
	grad[0] = grad[1]
	grad[n] = grad[n-1]
	return grad
}

// QProfile computes the safety factor on faces and cells from the poloidal
// flux profile: iota = |dpsi/drho| / (2 Phib rho), q = correction / iota.
// The axis face uses the first interior face gradient, where iota is finite
// by the symmetry condition.
func (m *Mesh) QProfile(psi []float64, correction float64) (qFace, qCell []float64) {
	n := m.NumCells
	grad := m.FaceGradient(psi)
	qFace = make([]float64, n+1)
	for i := 1; i <= n; i++ {
		iota := math.Abs(grad[i] / (2 * m.PhiBoundary * m.FaceCenters[i]))
		qFace[i] = correction / iota
	}
	iota0 := math.Abs(grad[1] / (2 * m.PhiBoundary * m.Drho))
	qFace[0] = correction / iota0
	return qFace, FaceToCell(qFace)
}

// CurrentDensity estimates the total toroidal current density profile on
// cells from the poloidal flux, j ~ d/drho (rho dpsi/drho) / rho, in units
// absorbed into the caller's normalization. Used for diagnostics and the
// ohmic source shape.
func (m *Mesh) CurrentDensity(psi []float64) []float64 {
	n := m.NumCells
	grad := m.FaceGradient(psi)
	j := make([]float64, n)
	for i := 0; i < n; i++ {
		flux0 := m.FaceCenters[i] * grad[i]
		flux1 := m.FaceCenters[i+1] * grad[i+1]
		j[i] = (flux1 - flux0) / (m.Drho * m.CellCenters[i])
	}
	return j
}
