package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// UnitSphere samples the unit circle (ndim 2, n points) or the unit sphere
// (ndim 3, n×n points on a longitude/latitude lattice).
func UnitSphere(ndim, n int) ([][]float64, error) {
	if n < 3 {
		return nil, fmt.Errorf("%w: need at least 3 samples per ellipsoid, got %d", trajectory.ErrConfiguration, n)
	}
	switch ndim {
	case 2:
		t := make([]float64, n)
		floats.Span(t, 0, 2*math.Pi)
		out := make([][]float64, n)
		for i, a := range t {
			out[i] = []float64{math.Cos(a), math.Sin(a)}
		}
		return out, nil
	case 3:
		u := make([]float64, n)
		v := make([]float64, n)
		floats.Span(u, 0, 2*math.Pi)
		floats.Span(v, 0, math.Pi)
		out := make([][]float64, 0, n*n)
		for _, a := range u {
			for _, b := range v {
				out = append(out, []float64{math.Cos(a) * math.Sin(b), math.Sin(a) * math.Sin(b), math.Cos(b)})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: ellipsoid dimension %d not supported", trajectory.ErrDimensionMismatch, ndim)
	}
}

// Ellipsoid returns points on the confidence ellipsoid of a Gaussian with
// the given mean and covariance: unit sphere samples scaled by
// width·sqrt(eigenvalue) along each principal axis, rotated into the
// eigenvector frame, then translated to the mean.
func Ellipsoid(mean []float64, cov mat.Matrix, width float64, n int) ([][]float64, error) {
	ndim := len(mean)
	if r, c := cov.Dims(); r != ndim || c != ndim {
		return nil, fmt.Errorf("%w: covariance %dx%d for mean of length %d", trajectory.ErrDimensionMismatch, r, c, ndim)
	}
	unit, err := UnitSphere(ndim, n)
	if err != nil {
		return nil, err
	}

	l, err := SqrtFactor(cov)
	if err != nil {
		return nil, err
	}
	l.Scale(width, l)

	out := make([][]float64, len(unit))
	for i, u := range unit {
		p := make([]float64, ndim)
		for r := 0; r < ndim; r++ {
			v := mean[r]
			for c := 0; c < ndim; c++ {
				v += l.At(r, c) * u[c]
			}
			p[r] = v
		}
		out[i] = p
	}
	return out, nil
}
