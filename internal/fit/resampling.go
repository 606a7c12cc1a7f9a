package fit

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// Resampling estimates the joint Gaussian from the empirical moments of the
// trajectories linearly resampled onto the station grid. It uses no basis
// functions and no noise model.
type Resampling struct{}

// Name implements Method.
func (Resampling) Name() string { return "resampling" }

func (Resampling) fit(c trajectory.Cluster, stations int) (*Result, error) {
	xp := StationGrid(stations)
	d := c.Dimension()

	stacked := make([]*mat.VecDense, len(c))
	for i, t := range c {
		yp := mat.NewDense(stations, d, nil)
		for k := 0; k < d; k++ {
			yp.SetCol(k, interp(xp, t.Progress, t.Channel(k)))
		}
		stacked[i] = stack(yp)
	}

	mean, cov := moments(stacked)
	return &Result{Mean: mean, Cov: cov}, nil
}

// interp linearly interpolates the samples (x, y) at xp. x must be strictly
// increasing. Queries outside [x0, xN] take the nearest end value.
func interp(xp, x, y []float64) []float64 {
	out := make([]float64, len(xp))
	last := len(x) - 1
	for i, v := range xp {
		switch {
		case v <= x[0]:
			out[i] = y[0]
		case v >= x[last]:
			out[i] = y[last]
		default:
			j := sort.SearchFloat64s(x, v) // x[j-1] < v <= x[j]
			t := (v - x[j-1]) / (x[j] - x[j-1])
			out[i] = y[j-1] + t*(y[j]-y[j-1])
		}
	}
	return out
}
