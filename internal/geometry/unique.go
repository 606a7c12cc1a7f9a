package geometry

import (
	"cmp"
	"slices"
)

// UniqueRows returns the distinct rows of points in lexicographic order.
// Rows are compared by exact value. The input is not modified.
func UniqueRows(points [][]float64) [][]float64 {
	out := slices.Clone(points)
	slices.SortFunc(out, compareRows)
	return slices.CompactFunc(out, func(a, b []float64) bool {
		return compareRows(a, b) == 0
	})
}

func compareRows(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
