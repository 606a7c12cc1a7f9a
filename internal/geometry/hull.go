package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// hullTolerance is the relative tolerance for flat axes, the bounding box
// pre-check and the simplex solver.
const hullTolerance = 1e-9

// Hull is a prepared convex hull membership test over a fixed point set.
//
// A query point p is inside when it is a convex combination of the hull
// points: λ ≥ 0, Σλ = 1, Σλᵢ·xᵢ = p. That feasibility problem is solved
// with the simplex method after re-centring and scaling every axis to
// [-1, 1]. Axes along which the point set has no extent are dropped from
// the system and checked against the bounding box instead.
type Hull struct {
	dim    int
	box    Outline
	centre []float64
	scale  []float64
	active []int
	a      *mat.Dense // (len(active)+1) × npoints
}

// NewHull prepares a membership test for the convex hull of points.
func NewHull(points [][]float64) (*Hull, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: hull needs at least one point", trajectory.ErrDimensionMismatch)
	}
	dim := len(points[0])
	box := MaxOutline(dim)
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: hull point %d has %d coordinates, expected %d", trajectory.ErrDimensionMismatch, i, len(p), dim)
		}
		box.Extend(p)
	}

	h := &Hull{dim: dim, box: box, centre: make([]float64, dim), scale: make([]float64, dim)}
	for d := 0; d < dim; d++ {
		h.centre[d] = 0.5 * (box.Min[d] + box.Max[d])
		h.scale[d] = 0.5 * (box.Max[d] - box.Min[d])
		if h.scale[d] > hullTolerance*math.Max(1, math.Abs(h.centre[d])) {
			h.active = append(h.active, d)
		}
	}

	rows := len(h.active) + 1
	if len(points) < rows {
		// Fewer points than constraints: the hull is lower dimensional
		// than its active axes and encloses no volume.
		return h, nil
	}
	h.a = mat.NewDense(rows, len(points), nil)
	for j, p := range points {
		for i, d := range h.active {
			h.a.Set(i, j, (p[d]-h.centre[d])/h.scale[d])
		}
		h.a.Set(rows-1, j, 1)
	}
	return h, nil
}

// Dimension returns the coordinate count of the hull points.
func (h *Hull) Dimension() int { return h.dim }

// Contains reports whether p lies within the hull, boundary included up to
// the solver tolerance. Degenerate hulls contain only points on their
// flat extent when that extent is a single point.
func (h *Hull) Contains(p []float64) (bool, error) {
	if len(p) != h.dim {
		return false, fmt.Errorf("%w: query point has %d coordinates, hull has %d", trajectory.ErrDimensionMismatch, len(p), h.dim)
	}
	for d := 0; d < h.dim; d++ {
		tol := hullTolerance * math.Max(1, math.Max(h.scale[d], math.Abs(h.centre[d])))
		if p[d] < h.box.Min[d]-tol || p[d] > h.box.Max[d]+tol {
			return false, nil
		}
	}
	if len(h.active) == 0 {
		return true, nil
	}
	if h.a == nil {
		return false, nil
	}

	rows, cols := h.a.Dims()
	b := make([]float64, rows)
	for i, d := range h.active {
		b[i] = (p[d] - h.centre[d]) / h.scale[d]
	}
	b[rows-1] = 1

	// lp.ErrInfeasible means outside. Any other solver error comes from a
	// rank-deficient point set (e.g. a collinear cloud in 2D), which
	// encloses no volume.
	_, _, err := lp.Simplex(make([]float64, cols), h.a, b, hullTolerance, nil)
	return err == nil, nil
}

// InHull tests each query point for containment in the convex hull of
// hull. The result has one entry per query point.
func InHull(query, hull [][]float64) ([]bool, error) {
	h, err := NewHull(hull)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(query))
	for i, p := range query {
		if out[i], err = h.Contains(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}
