// Package grid converts between structured grids described by per-axis
// coordinate vectors and the flat point lists evaluated in parallel.
package grid

import (
	"fmt"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// Grid is a dense N-dimensional array stored in row-major order: the last
// axis varies fastest.
type Grid[T any] struct {
	Shape []int
	Data  []T
}

// New allocates a zeroed grid with the given shape.
func New[T any](shape ...int) *Grid[T] {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Grid[T]{Shape: append([]int(nil), shape...), Data: make([]T, n)}
}

func (g *Grid[T]) offset(idx []int) int {
	if len(idx) != len(g.Shape) {
		panic(fmt.Sprintf("grid: %d indices for %d axes", len(idx), len(g.Shape)))
	}
	off := 0
	for a, i := range idx {
		if i < 0 || i >= g.Shape[a] {
			panic(fmt.Sprintf("grid: index %d out of range [0, %d) on axis %d", i, g.Shape[a], a))
		}
		off = off*g.Shape[a] + i
	}
	return off
}

// At returns the value at the multi-index idx.
func (g *Grid[T]) At(idx ...int) T {
	return g.Data[g.offset(idx)]
}

// Set stores v at the multi-index idx.
func (g *Grid[T]) Set(v T, idx ...int) {
	g.Data[g.offset(idx)] = v
}

// Clone returns a deep copy.
func (g *Grid[T]) Clone() *Grid[T] {
	return &Grid[T]{
		Shape: append([]int(nil), g.Shape...),
		Data:  append([]T(nil), g.Data...),
	}
}

// GridToPoints enumerates every coordinate combination of the 2 or 3
// supplied axes, fixing one axis value per nested loop with the last axis
// innermost. It returns the flat points and, for each, the multi-index it
// came from.
func GridToPoints(axes ...[]float64) ([][]float64, [][]int, error) {
	if len(axes) < trajectory.MinDimension || len(axes) > trajectory.MaxDimension {
		return nil, nil, fmt.Errorf("%w: expected %d or %d axes, got %d",
			trajectory.ErrDimensionMismatch, trajectory.MinDimension, trajectory.MaxDimension, len(axes))
	}
	total := 1
	for a, ax := range axes {
		if len(ax) == 0 {
			return nil, nil, fmt.Errorf("%w: axis %d is empty", trajectory.ErrDimensionMismatch, a)
		}
		total *= len(ax)
	}

	points := make([][]float64, 0, total)
	index := make([][]int, 0, total)
	cur := make([]int, len(axes))
	for {
		p := make([]float64, len(axes))
		for a, i := range cur {
			p[a] = axes[a][i]
		}
		points = append(points, p)
		index = append(index, append([]int(nil), cur...))

		// Odometer increment, last axis fastest.
		a := len(axes) - 1
		for ; a >= 0; a-- {
			cur[a]++
			if cur[a] < len(axes[a]) {
				break
			}
			cur[a] = 0
		}
		if a < 0 {
			break
		}
	}
	return points, index, nil
}

// PointsToGrid scatters values back into a grid sized to the largest index
// plus one along every axis. values[i] lands at index[i].
func PointsToGrid[T any](values []T, index [][]int) (*Grid[T], error) {
	if len(values) != len(index) {
		return nil, fmt.Errorf("%w: %d values for %d indices", trajectory.ErrDimensionMismatch, len(values), len(index))
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("%w: no points to scatter", trajectory.ErrDimensionMismatch)
	}
	naxes := len(index[0])
	shape := make([]int, naxes)
	for i, idx := range index {
		if len(idx) != naxes {
			return nil, fmt.Errorf("%w: index %d has %d axes, expected %d", trajectory.ErrDimensionMismatch, i, len(idx), naxes)
		}
		for a, v := range idx {
			if v < 0 {
				return nil, fmt.Errorf("%w: negative index %d on axis %d", trajectory.ErrRange, v, a)
			}
			shape[a] = max(shape[a], v+1)
		}
	}

	g := New[T](shape...)
	for i, idx := range index {
		g.Set(values[i], idx...)
	}
	return g, nil
}
