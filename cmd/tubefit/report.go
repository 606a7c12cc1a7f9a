package main

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/model"
)

type reportOptions struct {
	Width    float64
	GridSize int
	Samples  int
}

// report is the YAML document printed by the fit command.
type report struct {
	ModelID       string        `yaml:"model_id"`
	Sensor        string        `yaml:"sensor"`
	Tracks        int           `yaml:"tracks"`
	Method        string        `yaml:"method"`
	Dimension     int           `yaml:"dimension"`
	Stations      int           `yaml:"stations"`
	Iterations    int           `yaml:"iterations,omitempty"`
	LogLikelihood float64       `yaml:"log_likelihood,omitempty"`
	Degenerate    bool          `yaml:"degenerate,omitempty"`
	FitDuration   string        `yaml:"fit_duration"`
	Mean          [][]float64   `yaml:"mean,flow"`
	Outline       outlineReport `yaml:"outline"`
	Grid          *gridReport   `yaml:"grid,omitempty"`
	Samples       [][][]float64 `yaml:"samples,omitempty"`
}

type outlineReport struct {
	Width float64   `yaml:"width"`
	Min   []float64 `yaml:"min,flow"`
	Max   []float64 `yaml:"max,flow"`
}

type gridReport struct {
	PointsPerAxis    int     `yaml:"points_per_axis"`
	MaxLogLikelihood float64 `yaml:"max_log_likelihood"`
	MinLogLikelihood float64 `yaml:"min_log_likelihood"`
	InsideFraction   float64 `yaml:"inside_fraction"`
}

func buildReport(ctx context.Context, m *model.Model, sensor string, tracks int, opts reportOptions) (*report, error) {
	res := m.FitResult()
	rep := &report{
		ModelID:       m.ID().String(),
		Sensor:        sensor,
		Tracks:        tracks,
		Method:        m.Method().Name(),
		Dimension:     m.Dimension(),
		Stations:      m.Stations(),
		Iterations:    res.Iterations,
		LogLikelihood: res.LogLikelihood,
		Degenerate:    res.Degenerate,
		FitDuration:   m.FitDuration().String(),
		Mean:          m.Mean(),
	}

	o, err := m.Outline(opts.Width)
	if err != nil {
		return nil, err
	}
	rep.Outline = outlineReport{Width: opts.Width, Min: o.Min, Max: o.Max}

	if opts.GridSize > 1 {
		axes := make([][]float64, m.Dimension())
		for d := range axes {
			axes[d] = make([]float64, opts.GridSize)
			floats.Span(axes[d], o.Min[d], o.Max[d])
		}
		logp, err := m.LogLikelihood(ctx, axes...)
		if err != nil {
			return nil, err
		}
		inside, err := m.IsInsideGrid(ctx, opts.Width, axes...)
		if err != nil {
			return nil, err
		}
		var n int
		for _, ok := range inside.Data {
			if ok {
				n++
			}
		}
		rep.Grid = &gridReport{
			PointsPerAxis:    opts.GridSize,
			MaxLogLikelihood: floats.Max(logp.Data),
			MinLogLikelihood: floats.Min(logp.Data),
			InsideFraction:   math.Round(1e4*float64(n)/float64(len(inside.Data))) / 1e4,
		}
	}

	if opts.Samples > 0 {
		samples, err := m.Samples(opts.Samples)
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			r, _ := s.Positions.Dims()
			rows := make([][]float64, r)
			for i := range rows {
				rows[i] = mat.Row(nil, i, s.Positions)
			}
			rep.Samples = append(rep.Samples, rows)
		}
	}
	return rep, nil
}
