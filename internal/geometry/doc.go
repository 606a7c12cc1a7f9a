// Package geometry collects the numerical and geometric utilities the
// model relies on: SVD-based matrix helpers, nearest symmetric
// positive-definite repair, row de-duplication, confidence ellipsoid
// sampling, axis-aligned outlines, and convex hull containment.
//
// Points are plain []float64 slices; point sets are [][]float64 with one
// point per row.
package geometry
