package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/trajectory.model/internal/config"
	"github.com/banshee-data/trajectory.model/internal/model"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

func TestBuildReport(t *testing.T) {
	c, err := trajectory.Toy(trajectory.ToyArc, 2, 10, 30, 0.3, 5)
	require.NoError(t, err)
	m, err := model.New(c, config.NewResamplingSettings(8))
	require.NoError(t, err)

	rep, err := buildReport(context.Background(), m, "toy", len(c), reportOptions{Width: 2, GridSize: 6, Samples: 2})
	require.NoError(t, err)

	assert.Equal(t, "resampling", rep.Method)
	assert.Equal(t, 10, rep.Tracks)
	assert.Len(t, rep.Mean, 8)
	assert.Len(t, rep.Samples, 2)
	require.NotNil(t, rep.Grid)
	assert.GreaterOrEqual(t, rep.Grid.MaxLogLikelihood, rep.Grid.MinLogLikelihood)
	assert.Greater(t, rep.Grid.InsideFraction, 0.0)
	assert.LessOrEqual(t, rep.Grid.InsideFraction, 1.0)

	out, err := yaml.Marshal(rep)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "toy", back["sensor"])
}

func TestRootCmd_ToyThenFit(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tracks.db")
	settings := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("model_type: ML\nngaus: 10\nbasis_type: bernstein\nnbasis: 5\n"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"toy", "--db", db, "--sensor", "s1", "--ntraj", "8", "--npoints", "25", "--log", "error"})
	require.NoError(t, root.Execute())

	var buf bytes.Buffer
	root = newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"fit", "--db", db, "--sensor", "s1", "--settings", settings, "--grid", "5", "--log", "error"})
	require.NoError(t, root.Execute())

	var rep map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "ML", rep["method"])
	assert.Equal(t, 10, rep["stations"])
	assert.Equal(t, 8, rep["tracks"])

	root = newRootCmd()
	root.SetArgs([]string{"fit", "--db", db, "--sensor", "missing", "--settings", settings, "--log", "error"})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
