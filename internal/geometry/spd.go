package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// spdMaxIterations bounds the diagonal-shift loop in NearestSPD.
	spdMaxIterations = 100

	// spdMinShift is the smallest diagonal shift applied to a matrix that
	// fails Cholesky. Without it a zero matrix would be shifted by a
	// subnormal and stay numerically singular.
	spdMinShift = 1e-12
)

// ErrNotRepairable is returned by NearestSPD for input it cannot repair.
var ErrNotRepairable = errors.New("geometry: matrix cannot be made positive definite")

// NearestSPD returns the symmetric positive-definite matrix nearest to a in
// the Frobenius norm (Higham 1988), nudged along the diagonal until a
// Cholesky factorisation succeeds. An input that is already SPD comes back
// unchanged up to rounding.
func NearestSPD(a mat.Matrix) (*mat.SymDense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, ErrNotRepairable
	}
	if !isFinite(a) {
		return nil, ErrNotRepairable
	}

	b := Symmetrize(a)

	// H = V Σ Vᵀ is the symmetric polar factor of B.
	var svd mat.SVD
	if !svd.Factorize(b, mat.SVDFull) {
		return nil, ErrSVD
	}
	var v mat.Dense
	svd.VTo(&v)
	s := svd.Values(nil)
	var vs mat.Dense
	vs.Apply(func(_, j int, x float64) float64 { return x * s[j] }, &v)
	var h mat.Dense
	h.Mul(&vs, v.T())

	var sum mat.Dense
	sum.Add(b, &h)
	sum.Scale(0.5, &sum)
	out := Symmetrize(&sum)

	var chol mat.Cholesky
	for k := 1; !chol.Factorize(out); k++ {
		if k > spdMaxIterations {
			return nil, ErrNotRepairable
		}
		var es mat.EigenSym
		if !es.Factorize(out, false) {
			return nil, ErrNotRepairable
		}
		minEig := math.Inf(1)
		for _, ev := range es.Values(nil) {
			minEig = math.Min(minEig, ev)
		}
		shift := math.Max(-minEig*float64(k*k)+spacing(minEig), spdMinShift)
		for i := 0; i < r; i++ {
			out.SetSym(i, i, out.At(i, i)+shift)
		}
	}
	return out, nil
}

// spacing is the distance from |x| to the next larger float64.
func spacing(x float64) float64 {
	x = math.Abs(x)
	return math.Nextafter(x, math.Inf(1)) - x
}
