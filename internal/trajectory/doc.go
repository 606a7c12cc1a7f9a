// Package trajectory owns the raw input data model: trajectories sampled
// along a progress variable, clusters of trajectories that share a spatial
// dimension, and the progress normalisation applied before fitting.
//
// Key types: Trajectory, Cluster.
//
// The package also defines the error taxonomy shared by the fitting and
// query packages (ErrConfiguration, ErrDimensionMismatch, ErrRange,
// ErrEvaluation).
package trajectory
