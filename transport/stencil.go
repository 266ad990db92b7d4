package transport

import "github.com/theo-brown/torax/ad"

// FaceAvg interpolates a cell-grid dual vector onto faces by arithmetic
// mean. Boundary faces copy the adjacent cell value.
func FaceAvg(cells ad.Vec) ad.Vec {
	n := len(cells)
	out := make(ad.Vec, n+1)
	out[0] = cells[0]
	for i := 1; i < n; i++ {
		out[i] = ad.Scale(0.5, ad.Add(cells[i-1], cells[i]))
	}
	out[n] = cells[n-1]
	return out
}

// FaceGrad differentiates a cell-grid dual vector onto faces with central
// differences over the uniform spacing drho. The axis face has zero
// gradient by symmetry; the edge face copies the last interior gradient.
func FaceGrad(cells ad.Vec, drho float64) ad.Vec {
	n := len(cells)
	out := make(ad.Vec, n+1)
	inv := 1 / drho
	out[0] = ad.Const(0)
	for i := 1; i < n; i++ {
		out[i] = ad.Scale(inv, ad.Sub(cells[i], cells[i-1]))
	}
	out[n] = out[n-1]
	return out
}
