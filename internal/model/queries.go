package model

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/trajectory.model/internal/fit"
	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// outlineWidthMargin inflates the spread width used by Outline so the
// ellipsoid boundary lies strictly inside the box.
const outlineWidthMargin = 0.1

// outlineSamples is the ellipsoid sample density used by Outline.
const outlineSamples = 20

// StationCell returns a copy of the Gaussian at station i.
func (m *Model) StationCell(i int) (Cell, error) {
	if i < 0 || i >= len(m.stations) {
		return Cell{}, fmt.Errorf("%w: station %d not in [0, %d)", trajectory.ErrRange, i, len(m.stations))
	}
	st := m.stations[i]
	cov := mat.NewSymDense(m.ndim, nil)
	cov.CopySym(st.Cov)
	return Cell{Mean: append([]float64(nil), st.Mean...), Cov: cov}, nil
}

// Mean returns the expected trajectory: one D-dimensional point per
// station.
func (m *Model) Mean() [][]float64 {
	out := make([][]float64, len(m.stations))
	for s, st := range m.stations {
		out[s] = append([]float64(nil), st.Mean...)
	}
	return out
}

// Samples draws n trajectories from the joint Gaussian, each with one
// position per station and progress on the normalised station grid. The
// generator is reseeded on every call, so the same n always yields the
// same cluster.
func (m *Model) Samples(n int) (trajectory.Cluster, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: sample count %d is negative", trajectory.ErrRange, n)
	}
	nst := len(m.stations)
	size := m.result.Mean.Len()
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(m.seed, m.seed)}

	z := mat.NewVecDense(size, nil)
	y := mat.NewVecDense(size, nil)
	out := make(trajectory.Cluster, n)
	for k := range out {
		for i := 0; i < size; i++ {
			z.SetVec(i, normal.Rand())
		}
		y.MulVec(m.sqrtCov, z)
		y.AddVec(y, m.result.Mean)

		pos := mat.NewDense(nst, m.ndim, nil)
		for d := 0; d < m.ndim; d++ {
			for s := 0; s < nst; s++ {
				pos.Set(s, d, y.AtVec(s+d*nst))
			}
		}
		out[k] = trajectory.Trajectory{Progress: fit.StationGrid(nst), Positions: pos}
	}
	return out, nil
}

// Outline returns the bounding box of every station's confidence
// ellipsoid at the given spread width.
func (m *Model) Outline(width float64) (geometry.Outline, error) {
	if width < 0 {
		return geometry.Outline{}, fmt.Errorf("%w: spread width %g is negative", trajectory.ErrConfiguration, width)
	}
	o := geometry.MaxOutline(m.ndim)
	for s, st := range m.stations {
		pts, err := geometry.Ellipsoid(st.Mean, st.Cov, width+outlineWidthMargin, outlineSamples)
		if err != nil {
			return geometry.Outline{}, fmt.Errorf("station %d: %w", s, err)
		}
		for _, p := range pts {
			o.Extend(p)
		}
	}
	return o, nil
}
