package trajectory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Supported spatial dimensions.
const (
	MinDimension = 2
	MaxDimension = 3
)

// Trajectory is one curve sampled at strictly increasing progress values.
// Positions has one row per progress sample and one column per spatial
// dimension.
type Trajectory struct {
	Progress  []float64
	Positions *mat.Dense
}

// Dimension returns the number of spatial columns.
func (t Trajectory) Dimension() int {
	if t.Positions == nil {
		return 0
	}
	_, c := t.Positions.Dims()
	return c
}

// Len returns the number of samples.
func (t Trajectory) Len() int {
	return len(t.Progress)
}

// Channel returns a copy of the positions along dimension d.
func (t Trajectory) Channel(d int) []float64 {
	return mat.Col(nil, d, t.Positions)
}

// Validate checks the per-trajectory invariants: matching row count and
// strictly increasing progress.
func (t Trajectory) Validate() error {
	if t.Positions == nil {
		return fmt.Errorf("%w: trajectory has no positions", ErrDimensionMismatch)
	}
	r, _ := t.Positions.Dims()
	if r != len(t.Progress) {
		return fmt.Errorf("%w: %d progress samples but %d position rows", ErrDimensionMismatch, len(t.Progress), r)
	}
	if len(t.Progress) < 2 {
		return fmt.Errorf("%w: trajectory needs at least 2 samples, got %d", ErrDimensionMismatch, len(t.Progress))
	}
	for i, x := range t.Progress {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: progress sample %d is not finite", ErrDimensionMismatch, i)
		}
		if i > 0 && x <= t.Progress[i-1] {
			return fmt.Errorf("%w: progress not strictly increasing at sample %d", ErrDimensionMismatch, i)
		}
	}
	return nil
}

// Cluster is a set of trajectories sharing one spatial dimension.
type Cluster []Trajectory

// Dimension returns the spatial dimension inferred from the first
// trajectory, or 0 for an empty cluster.
func (c Cluster) Dimension() int {
	if len(c) == 0 {
		return 0
	}
	return c[0].Dimension()
}

// TotalSamples returns the summed sample count over all trajectories.
func (c Cluster) TotalSamples() int {
	n := 0
	for _, t := range c {
		n += t.Len()
	}
	return n
}

// Validate checks that the cluster is non-empty, every trajectory is
// well-formed, and all trajectories share a supported dimension.
func (c Cluster) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty cluster", ErrDimensionMismatch)
	}
	d := c.Dimension()
	if d < MinDimension || d > MaxDimension {
		return fmt.Errorf("%w: dimension %d not in [%d, %d]", ErrDimensionMismatch, d, MinDimension, MaxDimension)
	}
	for i, t := range c {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("trajectory %d: %w", i, err)
		}
		if t.Dimension() != d {
			return fmt.Errorf("%w: trajectory %d has dimension %d, cluster has %d", ErrDimensionMismatch, i, t.Dimension(), d)
		}
	}
	return nil
}

// ProgressRange returns the global minimum and maximum progress value
// across the cluster.
func (c Cluster) ProgressRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, t := range c {
		for _, x := range t.Progress {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}
	return lo, hi
}

// Normalise returns a copy of the cluster with progress affinely rescaled
// so the global minimum maps to 0 and the global maximum to 1. Positions
// are shared with the receiver; they are never modified downstream.
func (c Cluster) Normalise() (Cluster, error) {
	lo, hi := c.ProgressRange()
	span := hi - lo
	if !(span > 0) {
		return nil, fmt.Errorf("%w: progress range [%g, %g] is empty", ErrDimensionMismatch, lo, hi)
	}
	out := make(Cluster, len(c))
	for i, t := range c {
		p := make([]float64, len(t.Progress))
		for j, x := range t.Progress {
			p[j] = (x - lo) / span
		}
		out[i] = Trajectory{Progress: p, Positions: t.Positions}
	}
	return out, nil
}
