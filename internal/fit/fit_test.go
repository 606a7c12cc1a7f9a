package fit

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// curveCluster samples f on ntraj trajectories of npoints each, adding
// isotropic noise. Progress is already normalised to [0,1].
func curveCluster(ntraj, npoints, ndim int, noise float64, seed uint64, f func(x float64, d int) float64) trajectory.Cluster {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed+1)}
	out := make(trajectory.Cluster, ntraj)
	for i := range out {
		x := make([]float64, npoints)
		floats.Span(x, 0, 1)
		pos := mat.NewDense(npoints, ndim, nil)
		for j, xj := range x {
			for d := 0; d < ndim; d++ {
				pos.Set(j, d, f(xj, d)+noise*n.Rand())
			}
		}
		out[i] = trajectory.Trajectory{Progress: x, Positions: pos}
	}
	return out
}

func quadratic(x float64, d int) float64 {
	return float64(d+1)*x*x - 0.5*x + float64(d)
}

func allMethods() []Method {
	return []Method{
		Resampling{},
		MaximumLikelihood{Basis: "bernstein", NBasis: 5},
		MaximumLikelihood{Basis: "rbf", NBasis: 6},
		ExpectationMaximization{Basis: "bernstein", NBasis: 4},
	}
}

func TestFit_Shapes(t *testing.T) {
	for _, ndim := range []int{2, 3} {
		c := curveCluster(12, 25, ndim, 0.05, 3, quadratic)
		for _, m := range allMethods() {
			t.Run(m.Name(), func(t *testing.T) {
				const stations = 17
				res, err := Fit(c, m, stations)
				require.NoError(t, err)

				assert.Equal(t, ndim*stations, res.Mean.Len())
				r, cols := res.Cov.Dims()
				assert.Equal(t, ndim*stations, r)
				assert.Equal(t, ndim*stations, cols)
				assert.Equal(t, stations, res.Stations)
				assert.Equal(t, ndim, res.Dimension)
				for i := 0; i < r; i++ {
					for j := 0; j < r; j++ {
						require.Equal(t, res.Cov.At(i, j), res.Cov.At(j, i))
					}
				}
			})
		}
	}
}

func TestFit_InvalidArgs(t *testing.T) {
	c := curveCluster(3, 10, 2, 0, 1, quadratic)

	_, err := Fit(c, nil, 10)
	assert.True(t, errors.Is(err, trajectory.ErrConfiguration))

	_, err = Fit(c, Resampling{}, 0)
	assert.True(t, errors.Is(err, trajectory.ErrConfiguration))

	_, err = Fit(c, MaximumLikelihood{Basis: "bernstein", NBasis: 1}, 10)
	assert.True(t, errors.Is(err, trajectory.ErrConfiguration))

	_, err = Fit(c, ExpectationMaximization{Basis: "wavelet", NBasis: 5}, 10)
	assert.True(t, errors.Is(err, trajectory.ErrConfiguration))

	mixed := append(trajectory.Cluster{}, c...)
	mixed = append(mixed, curveCluster(1, 10, 3, 0, 1, quadratic)...)
	_, err = Fit(mixed, Resampling{}, 10)
	assert.True(t, errors.Is(err, trajectory.ErrDimensionMismatch))
}

func TestResampling_ZeroVariance(t *testing.T) {
	// Three copies of the same trajectory.
	base := curveCluster(1, 40, 2, 0, 1, quadratic)[0]
	c := trajectory.Cluster{base, base, base}

	res, err := Fit(c, Resampling{}, 10)
	require.NoError(t, err)

	r, _ := res.Cov.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			assert.InDelta(t, 0, res.Cov.At(i, j), 1e-12)
		}
	}

	xp := StationGrid(10)
	for d := 0; d < 2; d++ {
		want := interp(xp, base.Progress, base.Channel(d))
		for m := range xp {
			assert.InDelta(t, want[m], res.Mean.AtVec(m+d*10), 1e-12)
		}
	}
}

func TestResampling_MeanOfTwo(t *testing.T) {
	a := trajectory.Trajectory{Progress: []float64{0, 1}, Positions: mat.NewDense(2, 2, []float64{0, 0, 2, 4})}
	b := trajectory.Trajectory{Progress: []float64{0, 0.5, 1}, Positions: mat.NewDense(3, 2, []float64{2, 0, 2, 1, 2, 2})}
	res, err := Fit(trajectory.Cluster{a, b}, Resampling{}, 3)
	require.NoError(t, err)

	// Station 1 sits at progress 0.5: a=(1,2), b=(2,1).
	assert.InDelta(t, 1.5, res.Mean.AtVec(1), 1e-12)
	assert.InDelta(t, 1.5, res.Mean.AtVec(1+3), 1e-12)
	// Biased variance of x at station 0: values 0 and 2.
	assert.InDelta(t, 1.0, res.Cov.At(0, 0), 1e-12)
}

func TestInterp(t *testing.T) {
	x := []float64{0, 0.5, 1}
	y := []float64{0, 10, 0}
	got := interp([]float64{-1, 0, 0.25, 0.5, 0.75, 1, 2}, x, y)
	want := []float64{0, 0, 5, 10, 5, 0, 0}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "query %d", i)
	}
}

func TestStationGrid(t *testing.T) {
	assert.Equal(t, []float64{0}, StationGrid(1))
	assert.Equal(t, []float64{0, 0.5, 1}, StationGrid(3))
}

func TestMaximumLikelihood_RecoversPolynomial(t *testing.T) {
	// Degree-2 curves lie in the span of 4 Bernstein polynomials, so the
	// fit is exact and all trajectories share the same weights.
	c := curveCluster(5, 30, 2, 0, 1, quadratic)
	res, err := Fit(c, MaximumLikelihood{Basis: "bernstein", NBasis: 4}, 11)
	require.NoError(t, err)

	xp := StationGrid(11)
	for d := 0; d < 2; d++ {
		for m, x := range xp {
			assert.InDelta(t, quadratic(x, d), res.Mean.AtVec(m+d*11), 1e-9)
		}
	}
	r, _ := res.Cov.Dims()
	for i := 0; i < r; i++ {
		assert.InDelta(t, 0, res.Cov.At(i, i), 1e-12)
	}
}

func TestEM_ApproachesMaximumLikelihood(t *testing.T) {
	for _, noise := range []float64{1e-2, 1e-3} {
		c := curveCluster(15, 30, 2, noise, 11, quadratic)

		ml, err := Fit(c, MaximumLikelihood{Basis: "bernstein", NBasis: 4}, 20)
		require.NoError(t, err)
		em, err := Fit(c, ExpectationMaximization{Basis: "bernstein", NBasis: 4}, 20)
		require.NoError(t, err)

		assert.LessOrEqual(t, em.Iterations, DefaultEMMaxIterations)
		assert.Greater(t, em.Iterations, 0)
		for i := 0; i < ml.Mean.Len(); i++ {
			assert.InDelta(t, ml.Mean.AtVec(i), em.Mean.AtVec(i), 10*noise, "noise %g index %d", noise, i)
		}
	}
}

func TestEM_IterationCap(t *testing.T) {
	c := curveCluster(8, 20, 2, 0.1, 5, quadratic)
	res, err := Fit(c, ExpectationMaximization{Basis: "rbf", NBasis: 5, Tolerance: 1e-12, MaxIterations: 7}, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 7)
}

func TestEM_DegenerateTerminates(t *testing.T) {
	// All trajectories sit at the origin: the residual vanishes and the
	// noise precision grows without bound.
	zero := func(float64, int) float64 { return 0 }
	c := curveCluster(6, 20, 2, 0, 1, zero)

	res, err := Fit(c, ExpectationMaximization{Basis: "bernstein", NBasis: 4}, 10)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Less(t, res.Iterations, DefaultEMMaxIterations)
	assert.False(t, math.IsNaN(res.LogLikelihood) || math.IsInf(res.LogLikelihood, 0))
	for i := 0; i < res.Mean.Len(); i++ {
		v := res.Mean.AtVec(i)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.InDelta(t, 0, v, 1e-9)
	}
}
