// Package sources provides the volumetric source and sink models entering
// the transport equations: externally injected heat, particle fuelling, and
// ohmic heating driven by the evolving poloidal flux. Like transport models,
// sources evaluate in dual arithmetic and must stay pure.
package sources

import (
	"fmt"

	"github.com/theo-brown/torax/ad"
	"github.com/theo-brown/torax/geometry"
	"github.com/theo-brown/torax/profiles"
	"github.com/theo-brown/torax/transport"
)

// Set holds per-channel volumetric source densities on cell centers. A nil
// entry means the source does not feed that channel.
type Set [profiles.NumChannels]ad.Vec

// Source is the model contract: evaluate source densities for the given
// dual state. Called at least once per nonlinear iteration.
type Source interface {
	Name() string
	Profiles(s *transport.State, mesh *geometry.Mesh, t float64) (Set, error)
}

// Sum evaluates every source and accumulates the contributions per channel.
// Channels no source feeds stay nil.
func Sum(srcs []Source, s *transport.State, mesh *geometry.Mesh, t float64) (Set, error) {
	var total Set
	for _, src := range srcs {
		one, err := src.Profiles(s, mesh, t)
		if err != nil {
			return Set{}, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		for c := range one {
			if one[c] == nil {
				continue
			}
			if total[c] == nil {
				total[c] = make(ad.Vec, mesh.NumCells)
				for i := range total[c] {
					total[c][i] = ad.Const(0)
				}
			}
			for i := range one[c] {
				total[c][i] = ad.Add(total[c][i], one[c][i])
			}
		}
	}
	return total, nil
}

// normalizedShape scales the given radial shape so that its volume integral
// is one; multiplying by a total power then yields a density profile
// carrying exactly that power. The normalization uses mesh metrics only, so
// it does not widen the dependency stencil of any cell.
func normalizedShape(shape []float64, mesh *geometry.Mesh) []float64 {
	var integral float64
	for i, v := range shape {
		integral += v * mesh.Volumes[i]
	}
	out := make([]float64, len(shape))
	for i, v := range shape {
		out[i] = v / integral
	}
	return out
}
