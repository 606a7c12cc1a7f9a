package geometry

import "math"

// Outline is an axis-aligned bounding box.
type Outline struct {
	Min []float64
	Max []float64
}

// MaxOutline returns the seed outline for ndim dimensions: every minimum at
// +Inf and every maximum at -Inf, so the first Extend call defines the box.
func MaxOutline(ndim int) Outline {
	o := Outline{Min: make([]float64, ndim), Max: make([]float64, ndim)}
	for d := 0; d < ndim; d++ {
		o.Min[d] = math.Inf(1)
		o.Max[d] = math.Inf(-1)
	}
	return o
}

// Extend grows the outline to include p.
func (o *Outline) Extend(p []float64) {
	for d := range o.Min {
		o.Min[d] = math.Min(o.Min[d], p[d])
		o.Max[d] = math.Max(o.Max[d], p[d])
	}
}

// Contains reports whether p lies within the outline, boundary included.
func (o Outline) Contains(p []float64) bool {
	for d := range o.Min {
		if p[d] < o.Min[d] || p[d] > o.Max[d] {
			return false
		}
	}
	return true
}

// Empty reports whether nothing has been added to a seeded outline.
func (o Outline) Empty() bool {
	for d := range o.Min {
		if o.Min[d] > o.Max[d] {
			return true
		}
	}
	return len(o.Min) == 0
}
