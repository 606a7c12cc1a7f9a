package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// pinvRcond is the relative singular value cutoff used by PseudoInverse.
const pinvRcond = 1e-15

// ErrSVD is returned when a singular value decomposition fails to converge.
var ErrSVD = errors.New("geometry: SVD did not converge")

// Symmetrize returns (a + aᵀ)/2 as a SymDense. a must be square.
func Symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of a, discarding
// singular values below pinvRcond times the largest one.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrSVD
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	cutoff := 0.0
	if len(s) > 0 {
		cutoff = pinvRcond * s[0]
	}
	inv := make([]float64, len(s))
	for i, sv := range s {
		if sv > cutoff {
			inv[i] = 1 / sv
		}
	}

	// V · diag(1/s) · Uᵀ
	var vs mat.Dense
	vs.Apply(func(_, j int, x float64) float64 { return x * inv[j] }, &v)
	var out mat.Dense
	out.Mul(&vs, u.T())
	return &out, nil
}

// SqrtFactor returns L = U·sqrt(S) from the SVD of a symmetric positive
// semi-definite matrix a, so that L·Lᵀ = a. It tolerates singular input.
func SqrtFactor(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrSVD
	}
	var u mat.Dense
	svd.UTo(&u)
	s := svd.Values(nil)
	u.Apply(func(_, j int, x float64) float64 { return x * math.Sqrt(s[j]) }, &u)
	return &u, nil
}

// isFinite reports whether every element of a is finite.
func isFinite(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
