package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/grid"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
	"github.com/banshee-data/trajectory.model/internal/workerpool"
)

// densityFloor is added to the mixture density before the logarithm.
const densityFloor = 1e-30

// logLikelihoodAt returns log(Σₘ N(y; μₘ, Σₘ) / S + floor).
func (m *Model) logLikelihoodAt(y []float64) float64 {
	diff := mat.NewVecDense(m.ndim, nil)
	yv := mat.NewVecDense(m.ndim, y)
	var sum float64
	for _, st := range m.stations {
		diff.SubVec(yv, mat.NewVecDense(m.ndim, st.Mean))
		maha := mat.Inner(diff, st.prec, diff)
		sum += math.Exp(st.logNorm - 0.5*maha)
	}
	return math.Log(sum/float64(len(m.stations)) + densityFloor)
}

func (m *Model) checkAxes(axes [][]float64) error {
	if len(axes) != m.ndim {
		return fmt.Errorf("%w: %d grid axes for a %dD model", trajectory.ErrDimensionMismatch, len(axes), m.ndim)
	}
	return nil
}

// LogLikelihood evaluates the mixture log-density at every point of the
// grid spanned by axes, one axis per model dimension. Non-finite results
// are replaced by the smallest finite value in the grid. Results are
// cached per exact axis values.
func (m *Model) LogLikelihood(ctx context.Context, axes ...[]float64) (*grid.Grid[float64], error) {
	if err := m.checkAxes(axes); err != nil {
		return nil, err
	}
	return m.logp.getOrEval(cacheKey(0, axes), func() (*grid.Grid[float64], error) {
		points, index, err := grid.GridToPoints(axes...)
		if err != nil {
			return nil, err
		}
		values, err := workerpool.Map(ctx, m.workers, points, func(_ context.Context, p []float64) (float64, error) {
			return m.logLikelihoodAt(p), nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", trajectory.ErrEvaluation, err)
		}
		replaceNonFinite(values)
		return grid.PointsToGrid(values, index)
	})
}

// replaceNonFinite overwrites NaN and infinite entries with the minimum
// finite entry. A slice with no finite entries is left unchanged.
func replaceNonFinite(values []float64) {
	lo := math.Inf(1)
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			lo = math.Min(lo, v)
		}
	}
	if math.IsInf(lo, 1) {
		return
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = lo
		}
	}
}

// IsInsideGrid runs IsInside over every point of the grid spanned by axes
// at the model's configured ellipsoid sample density. Results are cached
// per exact axis values and spread width.
func (m *Model) IsInsideGrid(ctx context.Context, width float64, axes ...[]float64) (*grid.Grid[bool], error) {
	if err := m.checkAxes(axes); err != nil {
		return nil, err
	}
	return m.inside.getOrEval(cacheKey(width, axes), func() (*grid.Grid[bool], error) {
		points, index, err := grid.GridToPoints(axes...)
		if err != nil {
			return nil, err
		}
		inside, err := m.IsInside(ctx, points, width, m.insideSamples)
		if err != nil {
			return nil, err
		}
		return grid.PointsToGrid(inside, index)
	})
}
