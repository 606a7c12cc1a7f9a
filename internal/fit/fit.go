// Package fit turns a cluster of normalised trajectories into a joint
// Gaussian over S stations along the progress axis.
//
// Three estimators are available as variants of Method: Resampling
// (empirical moments of linearly resampled trajectories),
// MaximumLikelihood (closed-form per-trajectory basis regression) and
// ExpectationMaximization (noise-aware Bayesian regression with a shared
// weight prior). All return the joint mean of length D·S and covariance
// of size D·S × D·S, indexed station + dimension·S.
package fit

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// Method selects an estimator. The set of implementations is closed.
type Method interface {
	// Name returns the settings string for the method.
	Name() string

	fit(c trajectory.Cluster, stations int) (*Result, error)
}

// Result is the joint Gaussian produced by a fit.
type Result struct {
	Mean      *mat.VecDense
	Cov       *mat.SymDense
	Stations  int
	Dimension int

	// Iterations is the number of completed EM iterations; 0 otherwise.
	Iterations int

	// LogLikelihood is the final EM joint log-likelihood; 0 otherwise.
	LogLikelihood float64

	// Degenerate is set when EM stopped early on a non-finite or singular
	// state and returned its last finite parameters.
	Degenerate bool
}

// Fit runs method over a cluster whose progress has already been
// normalised to [0,1].
func Fit(c trajectory.Cluster, method Method, stations int) (*Result, error) {
	if method == nil {
		return nil, fmt.Errorf("%w: no model method", trajectory.ErrConfiguration)
	}
	if stations < 1 {
		return nil, fmt.Errorf("%w: station count must be positive, got %d", trajectory.ErrConfiguration, stations)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	res, err := method.fit(c, stations)
	if err != nil {
		return nil, err
	}
	res.Stations = stations
	res.Dimension = c.Dimension()
	return res, nil
}

// StationGrid returns n evenly spaced progress values on [0,1]. A single
// station sits at 0.
func StationGrid(n int) []float64 {
	out := make([]float64, n)
	if n > 1 {
		floats.Span(out, 0, 1)
	}
	return out
}

// stack flattens a trajectory's N×D positions column by column into a
// vector indexed n + d·N.
func stack(pos mat.Matrix) *mat.VecDense {
	r, c := pos.Dims()
	v := mat.NewVecDense(r*c, nil)
	for d := 0; d < c; d++ {
		for n := 0; n < r; n++ {
			v.SetVec(n+d*r, pos.At(n, d))
		}
	}
	return v
}

// moments returns the mean and the biased (divide-by-N) covariance of a
// set of equal-length vectors.
func moments(vs []*mat.VecDense) (*mat.VecDense, *mat.SymDense) {
	n := vs[0].Len()
	mean := mat.NewVecDense(n, nil)
	for _, v := range vs {
		mean.AddVec(mean, v)
	}
	mean.ScaleVec(1/float64(len(vs)), mean)

	cov := mat.NewSymDense(n, nil)
	diff := mat.NewVecDense(n, nil)
	for _, v := range vs {
		diff.SubVec(v, mean)
		cov.SymRankOne(cov, 1, diff)
	}
	cov.ScaleSym(1/float64(len(vs)), cov)
	return mean, cov
}

// project maps a weight-space Gaussian through the station design matrix:
// mean_y = H·mean_w, cov_y = H·cov_w·Hᵀ.
func project(h mat.Matrix, meanW *mat.VecDense, covW mat.Symmetric) (*mat.VecDense, *mat.SymDense) {
	r, _ := h.Dims()
	mean := mat.NewVecDense(r, nil)
	mean.MulVec(h, meanW)

	var hc, cov mat.Dense
	hc.Mul(h, covW)
	cov.Mul(&hc, h.T())
	return mean, geometry.Symmetrize(&cov)
}
