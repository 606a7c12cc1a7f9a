package trackstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tracks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	c, err := trajectory.Toy(trajectory.ToyArc, 2, 3, 10, 0, 1)
	require.NoError(t, err)
	_, err = s.InsertCluster(ctx, "north", c)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadCluster(ctx, "north")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestInsertAndLoad_RoundTrip(t *testing.T) {
	for _, ndim := range []int{2, 3} {
		s := openTestStore(t)
		ctx := context.Background()

		c, err := trajectory.Toy(trajectory.ToyRamp, ndim, 4, 15, 0.2, 9)
		require.NoError(t, err)
		ids, err := s.InsertCluster(ctx, "sensor-a", c)
		require.NoError(t, err)
		require.Len(t, ids, 4)
		assert.NotEqual(t, ids[0], ids[1])

		got, err := s.LoadCluster(ctx, "sensor-a")
		require.NoError(t, err)
		require.Len(t, got, len(c))
		for i := range c {
			assert.Equal(t, c[i].Progress, got[i].Progress)
			assert.True(t, mat.Equal(c[i].Positions, got[i].Positions), "%dD track %d positions differ", ndim, i)
		}
	}
}

func TestLoadCluster_SortsByProgress(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Insert rows directly, out of order.
	_, err := s.db.ExecContext(ctx, `INSERT INTO tracks (track_id, sensor_id, ndim) VALUES ('t1', 's', 2)`)
	require.NoError(t, err)
	for _, row := range [][3]float64{{2, 20, 200}, {0, 0, 0}, {1, 10, 100}} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO track_observations (track_id, progress, x, y) VALUES ('t1', ?, ?, ?)`, row[0], row[1], row[2])
		require.NoError(t, err)
	}

	c, err := s.LoadCluster(ctx, "s")
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, []float64{0, 1, 2}, c[0].Progress)
	assert.Equal(t, []float64{0, 10, 20}, c[0].Channel(0))
	require.NoError(t, c.Validate())
}

func TestInsertTrajectory_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	bad := trajectory.Trajectory{
		Progress:  []float64{0, 0, 1},
		Positions: mat.NewDense(3, 2, nil),
	}
	_, err := s.InsertTrajectory(context.Background(), "s", bad)
	require.Error(t, err)

	sensors, err := s.Sensors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sensors)
}

func TestLoadCluster_UnknownSensor(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadCluster(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSensorsAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := trajectory.Toy(trajectory.ToyRamp, 2, 2, 5, 0, 1)
	require.NoError(t, err)
	b, err := trajectory.Toy(trajectory.ToyArc, 3, 3, 5, 0, 2)
	require.NoError(t, err)
	_, err = s.InsertCluster(ctx, "a", a)
	require.NoError(t, err)
	_, err = s.InsertCluster(ctx, "b", b)
	require.NoError(t, err)

	sensors, err := s.Sensors(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2, "b": 3}, sensors)

	n, err := s.DeleteSensor(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var obs int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM track_observations`).Scan(&obs))
	assert.Equal(t, 15, obs, "observations of deleted tracks cascade")
}
