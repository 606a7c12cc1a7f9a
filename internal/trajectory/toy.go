package trajectory

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Toy curve kinds.
const (
	ToyRamp = 0 // gently curving line climbing in x
	ToyArc  = 1 // half circle around the origin
)

// Toy generates ntraj noisy trajectories of a known curve, for demos and
// tests. Each trajectory gets its own time scale and a small lateral
// offset so the cluster has spread even without noise. Output is
// deterministic for a given seed.
func Toy(kind, ndim, ntraj, npoints int, noiseStd float64, seed uint64) (Cluster, error) {
	if ndim < MinDimension || ndim > MaxDimension {
		return nil, fmt.Errorf("%w: toy dimension %d not in [%d, %d]", ErrDimensionMismatch, ndim, MinDimension, MaxDimension)
	}
	if ntraj < 1 || npoints < 2 {
		return nil, fmt.Errorf("%w: toy needs ntraj >= 1 and npoints >= 2, got %d and %d", ErrConfiguration, ntraj, npoints)
	}
	if kind != ToyRamp && kind != ToyArc {
		return nil, fmt.Errorf("%w: unknown toy kind %d", ErrConfiguration, kind)
	}

	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	out := make(Cluster, 0, ntraj)
	for n := 0; n < ntraj; n++ {
		duration := 10 + 5*src.Float64()
		offset := 2*src.Float64() - 1

		progress := make([]float64, npoints)
		floats.Span(progress, 0, duration)

		pos := mat.NewDense(npoints, ndim, nil)
		for i := 0; i < npoints; i++ {
			s := float64(i) / float64(npoints-1)
			p := toyPoint(kind, s, offset)
			for d := 0; d < ndim; d++ {
				v := p[d]
				if noiseStd > 0 {
					v += noiseStd * noise.Rand()
				}
				pos.Set(i, d, v)
			}
		}
		out = append(out, Trajectory{Progress: progress, Positions: pos})
	}
	return out, nil
}

// toyPoint evaluates the clean curve at normalised position s in [0,1].
func toyPoint(kind int, s, offset float64) [MaxDimension]float64 {
	switch kind {
	case ToyArc:
		r := 50 + 2*offset
		theta := math.Pi * s
		return [MaxDimension]float64{r * math.Cos(theta), r * math.Sin(theta), 5 * s}
	default:
		x := -50 + 100*s
		return [MaxDimension]float64{x, 10*math.Sin(math.Pi*s) + 2*offset, 20*s + offset}
	}
}
