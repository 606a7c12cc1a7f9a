package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/config"
	"github.com/banshee-data/trajectory.model/internal/fit"
	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/monitoring"
	"github.com/banshee-data/trajectory.model/internal/timeutil"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// Cell is the Gaussian at one station.
type Cell struct {
	Mean []float64
	Cov  *mat.SymDense
}

// station is a Cell with the terms the density evaluation needs.
type station struct {
	Cell
	prec    *mat.SymDense // Cov⁻¹
	logNorm float64       // -½·(D·log 2π + log det Cov)
}

// Model is a fitted Gaussian-mixture trajectory model.
type Model struct {
	id       uuid.UUID
	method   fit.Method
	result   *fit.Result
	duration time.Duration

	ndim     int
	stations []station
	sqrtCov  *mat.Dense // U·sqrt(S) of the joint covariance

	seed          uint64
	insideSamples int
	workers       int
	clock         timeutil.Clock

	logp   cache[float64]
	inside cache[bool]
}

// Option configures a Model at construction.
type Option func(*Model)

// WithClock sets the clock used to time the fit.
func WithClock(c timeutil.Clock) Option {
	return func(m *Model) { m.clock = c }
}

// WithWorkers bounds the goroutines used by grid and tube queries.
// Zero or less means one per CPU.
func WithWorkers(n int) Option {
	return func(m *Model) { m.workers = n }
}

// New validates settings, normalises the cluster's progress to [0,1],
// fits it and splits the result into station cells.
func New(c trajectory.Cluster, settings *config.ModelSettings, opts ...Option) (*Model, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no model settings", trajectory.ErrConfiguration)
	}
	method, err := settings.Method()
	if err != nil {
		return nil, err
	}
	m := &Model{
		seed:          settings.GetSampleSeed(),
		insideSamples: settings.GetInsideSamples(),
	}
	return m.build(c, method, settings.GetStations(), opts)
}

// NewWithMethod builds a model from an already selected estimator, using
// default query settings.
func NewWithMethod(c trajectory.Cluster, method fit.Method, stations int, opts ...Option) (*Model, error) {
	m := &Model{insideSamples: config.DefaultInsideSamples}
	return m.build(c, method, stations, opts)
}

func (m *Model) build(c trajectory.Cluster, method fit.Method, stations int, opts []Option) (*Model, error) {
	m.clock = timeutil.RealClock{}
	for _, opt := range opts {
		opt(m)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	norm, err := c.Normalise()
	if err != nil {
		return nil, err
	}

	start := m.clock.Now()
	res, err := fit.Fit(norm, method, stations)
	if err != nil {
		return nil, err
	}
	m.duration = m.clock.Since(start)

	m.id = uuid.New()
	m.method = method
	m.result = res
	m.ndim = res.Dimension
	if m.sqrtCov, err = geometry.SqrtFactor(res.Cov); err != nil {
		return nil, fmt.Errorf("joint covariance: %w", err)
	}

	m.stations = make([]station, stations)
	for s := range m.stations {
		st, err := splitStation(res, s)
		if err != nil {
			return nil, fmt.Errorf("station %d: %w", s, err)
		}
		m.stations[s] = st
	}

	monitoring.Logf("model %s: %s fit of %d trajectories, %d stations in %dD, %d iterations, took %v",
		m.id, method.Name(), len(c), stations, m.ndim, res.Iterations, m.duration)
	return m, nil
}

// splitStation extracts station s from the joint Gaussian, repairs its
// covariance and precomputes its precision and normalising constant.
func splitStation(res *fit.Result, s int) (station, error) {
	ndim, n := res.Dimension, res.Stations
	mean := make([]float64, ndim)
	raw := mat.NewSymDense(ndim, nil)
	for i := 0; i < ndim; i++ {
		mean[i] = res.Mean.AtVec(s + i*n)
		for j := i; j < ndim; j++ {
			raw.SetSym(i, j, res.Cov.At(s+i*n, s+j*n))
		}
	}
	cov, err := geometry.NearestSPD(raw)
	if err != nil {
		return station{}, err
	}

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return station{}, fmt.Errorf("%w: repaired covariance is not positive definite", geometry.ErrNotRepairable)
	}
	prec := mat.NewSymDense(ndim, nil)
	if err := chol.InverseTo(prec); err != nil {
		return station{}, err
	}
	return station{
		Cell:    Cell{Mean: mean, Cov: cov},
		prec:    prec,
		logNorm: -0.5 * (float64(ndim)*math.Log(2*math.Pi) + chol.LogDet()),
	}, nil
}

// ID identifies this model instance in logs and reports.
func (m *Model) ID() uuid.UUID { return m.id }

// Dimension returns the spatial dimension D.
func (m *Model) Dimension() int { return m.ndim }

// Stations returns the station count S.
func (m *Model) Stations() int { return len(m.stations) }

// Method returns the estimator the model was fitted with.
func (m *Model) Method() fit.Method { return m.method }

// FitResult returns the joint Gaussian and fit diagnostics. It must not be
// modified.
func (m *Model) FitResult() *fit.Result { return m.result }

// FitDuration returns the time the fit took.
func (m *Model) FitDuration() time.Duration { return m.duration }
