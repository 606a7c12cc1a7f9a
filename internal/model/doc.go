// Package model holds a fitted Gaussian-mixture trajectory model: one
// Gaussian station cell per point along the normalised progress axis,
// plus the joint mean and covariance they were split from.
//
// A Model answers four kinds of query. Mean and Samples describe the
// expected trajectory and draws from the joint distribution. Outline
// bounds the confidence ellipsoids. LogLikelihood and IsInsideGrid
// evaluate every point of a 2D or 3D grid in parallel and cache the
// result per exact grid and spread width; IsInside tests arbitrary points
// against the tube formed by the convex hulls of consecutive station
// ellipsoids.
//
// A Model is immutable after construction apart from its query cache,
// which is guarded by a mutex. Queries may be issued concurrently.
package model
