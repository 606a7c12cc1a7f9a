// Package basis evaluates basis-function design matrices over the
// normalised progress domain [0,1].
//
// For a D-dimensional trajectory with N samples and J basis functions the
// design matrix is block-diagonal with D copies of the N×J single-channel
// matrix: row n+d·N, column j+d·J. This matches the station-stacked
// layout used for the joint mean and covariance.
package basis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// Supported basis families.
const (
	Bernstein = "bernstein"
	RBF       = "rbf"
)

// MinBasis is the smallest accepted basis count.
const MinBasis = 2

// Evaluator maps progress samples to a design matrix.
type Evaluator interface {
	// Evaluate returns the (D·N)×(D·J) block-diagonal design matrix for
	// the N progress samples in x.
	Evaluate(x []float64) *mat.Dense

	// NBasis returns J, the number of basis functions per dimension.
	NBasis() int

	// Dimension returns D.
	Dimension() int
}

// New returns an evaluator for the named basis family.
func New(kind string, nbasis, ndim int) (Evaluator, error) {
	if nbasis < MinBasis {
		return nil, fmt.Errorf("%w: nbasis must be >= %d, got %d", trajectory.ErrConfiguration, MinBasis, nbasis)
	}
	if ndim < 1 {
		return nil, fmt.Errorf("%w: basis dimension must be positive, got %d", trajectory.ErrConfiguration, ndim)
	}

	var phi func(x float64, out []float64)
	switch strings.ToLower(kind) {
	case Bernstein:
		phi = bernstein(nbasis)
	case RBF:
		phi = rbf(nbasis)
	default:
		return nil, fmt.Errorf("%w: unknown basis type %q", trajectory.ErrConfiguration, kind)
	}
	return &blockBasis{ndim: ndim, nbasis: nbasis, phi: phi}, nil
}

type blockBasis struct {
	ndim   int
	nbasis int
	phi    func(x float64, out []float64)
}

func (b *blockBasis) NBasis() int    { return b.nbasis }
func (b *blockBasis) Dimension() int { return b.ndim }

func (b *blockBasis) Evaluate(x []float64) *mat.Dense {
	n, j := len(x), b.nbasis
	h := mat.NewDense(b.ndim*n, b.ndim*j, nil)
	row := make([]float64, j)
	for i, xi := range x {
		b.phi(xi, row)
		for d := 0; d < b.ndim; d++ {
			for k, v := range row {
				h.Set(i+d*n, k+d*j, v)
			}
		}
	}
	return h
}

// bernstein returns the degree nbasis-1 Bernstein polynomials.
func bernstein(nbasis int) func(float64, []float64) {
	deg := nbasis - 1
	coef := make([]float64, nbasis)
	for j := range coef {
		coef[j] = float64(combin.Binomial(deg, j))
	}
	return func(x float64, out []float64) {
		for j := range out {
			out[j] = coef[j] * math.Pow(x, float64(j)) * math.Pow(1-x, float64(deg-j))
		}
	}
}

// rbf returns nbasis Gaussian bumps with evenly spaced centres on [0,1]
// and a width equal to the centre spacing.
func rbf(nbasis int) func(float64, []float64) {
	centres := make([]float64, nbasis)
	floats.Span(centres, 0, 1)
	h := centres[1] - centres[0]
	denom := 2 * h * h
	return func(x float64, out []float64) {
		for j, c := range centres {
			d := x - c
			out[j] = math.Exp(-d * d / denom)
		}
	}
}
