package model

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
	"github.com/banshee-data/trajectory.model/internal/workerpool"
)

// segmentClouds returns, per pair of consecutive stations, the
// de-duplicated union of both stations' ellipsoid samples. A single
// station model has one cloud: its own ellipsoid.
func (m *Model) segmentClouds(width float64, samples int) ([][][]float64, error) {
	ellipsoids := make([][][]float64, len(m.stations))
	for s, st := range m.stations {
		pts, err := geometry.Ellipsoid(st.Mean, st.Cov, width, samples)
		if err != nil {
			return nil, fmt.Errorf("station %d: %w", s, err)
		}
		ellipsoids[s] = pts
	}
	if len(ellipsoids) == 1 {
		return [][][]float64{geometry.UniqueRows(ellipsoids[0])}, nil
	}

	clouds := make([][][]float64, 0, len(ellipsoids)-1)
	for s := 0; s+1 < len(ellipsoids); s++ {
		merged := make([][]float64, 0, len(ellipsoids[s])+len(ellipsoids[s+1]))
		merged = append(merged, ellipsoids[s]...)
		merged = append(merged, ellipsoids[s+1]...)
		clouds = append(clouds, geometry.UniqueRows(merged))
	}
	return clouds, nil
}

// IsInside reports, per point, whether it lies inside the tube of the
// given spread width: the union over consecutive station pairs of the
// convex hull of their confidence ellipsoid samples. samples sets the
// ellipsoid sample density (points on a circle, or per lattice axis on a
// sphere).
func (m *Model) IsInside(ctx context.Context, points [][]float64, width float64, samples int) ([]bool, error) {
	if width < 0 || math.IsNaN(width) {
		return nil, fmt.Errorf("%w: spread width %g is not a non-negative number", trajectory.ErrConfiguration, width)
	}
	for i, p := range points {
		if len(p) != m.ndim {
			return nil, fmt.Errorf("%w: point %d has %d coordinates, model has %d", trajectory.ErrDimensionMismatch, i, len(p), m.ndim)
		}
	}
	clouds, err := m.segmentClouds(width, samples)
	if err != nil {
		return nil, err
	}

	hulls, err := workerpool.Map(ctx, m.workers, clouds, func(_ context.Context, cloud [][]float64) (*geometry.Hull, error) {
		return geometry.NewHull(cloud)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", trajectory.ErrEvaluation, err)
	}

	inside, err := workerpool.Map(ctx, m.workers, points, func(_ context.Context, p []float64) (bool, error) {
		for _, h := range hulls {
			ok, err := h.Contains(p)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", trajectory.ErrEvaluation, err)
	}
	return inside, nil
}
