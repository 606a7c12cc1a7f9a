package fit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/basis"
	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// MaximumLikelihood fits basis weights to every trajectory in closed form
// (pseudo-inverse), takes the mean and biased covariance of those weights,
// and projects them onto the station grid. There is no observation-noise
// term: the weights alone are assumed to explain the positions.
type MaximumLikelihood struct {
	Basis  string
	NBasis int
}

// Name implements Method.
func (MaximumLikelihood) Name() string { return "ML" }

func (m MaximumLikelihood) fit(c trajectory.Cluster, stations int) (*Result, error) {
	ev, err := basis.New(m.Basis, m.NBasis, c.Dimension())
	if err != nil {
		return nil, err
	}

	weights, err := leastSquaresWeights(c, ev)
	if err != nil {
		return nil, err
	}
	meanW, covW := moments(weights)

	mean, cov := project(ev.Evaluate(StationGrid(stations)), meanW, covW)
	return &Result{Mean: mean, Cov: cov}, nil
}

// leastSquaresWeights returns the per-trajectory weights w = H⁺·y.
func leastSquaresWeights(c trajectory.Cluster, ev basis.Evaluator) ([]*mat.VecDense, error) {
	out := make([]*mat.VecDense, len(c))
	for i, t := range c {
		pinv, err := geometry.PseudoInverse(ev.Evaluate(t.Progress))
		if err != nil {
			return nil, fmt.Errorf("trajectory %d: %w", i, err)
		}
		r, _ := pinv.Dims()
		w := mat.NewVecDense(r, nil)
		w.MulVec(pinv, stack(t.Positions))
		out[i] = w
	}
	return out, nil
}
