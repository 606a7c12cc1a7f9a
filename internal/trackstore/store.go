// Package trackstore persists trajectory observations in SQLite and loads
// them back as clusters for fitting.
package trackstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trajectory.model/internal/monitoring"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a sensor has no stored tracks.
var ErrNotFound = errors.New("trackstore: no tracks for sensor")

// Store is a SQLite-backed trajectory store.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp runs all pending embedded migrations.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Closing m would close the shared connection.
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version and dirty state.
func (s *Store) MigrateVersion() (uint, bool, error) {
	var version uint
	var dirty bool
	err := s.db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// InsertTrajectory stores t as a new track for sensorID and returns its
// track id.
func (s *Store) InsertTrajectory(ctx context.Context, sensorID string, t trajectory.Trajectory) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	ndim := t.Dimension()
	if ndim < trajectory.MinDimension || ndim > trajectory.MaxDimension {
		return "", fmt.Errorf("%w: dimension %d not storable", trajectory.ErrDimensionMismatch, ndim)
	}

	trackID := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tracks (track_id, sensor_id, ndim) VALUES (?, ?, ?)`,
		trackID, sensorID, ndim,
	); err != nil {
		return "", fmt.Errorf("failed to insert track: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO track_observations (track_id, progress, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, p := range t.Progress {
		var z sql.NullFloat64
		if ndim == 3 {
			z = sql.NullFloat64{Float64: t.Positions.At(i, 2), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, trackID, p, t.Positions.At(i, 0), t.Positions.At(i, 1), z); err != nil {
			return "", fmt.Errorf("failed to insert observation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return trackID, nil
}

// InsertCluster stores every trajectory of c under sensorID.
func (s *Store) InsertCluster(ctx context.Context, sensorID string, c trajectory.Cluster) ([]string, error) {
	ids := make([]string, 0, len(c))
	for i, t := range c {
		id, err := s.InsertTrajectory(ctx, sensorID, t)
		if err != nil {
			return ids, fmt.Errorf("trajectory %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadCluster returns every track recorded for sensorID in insertion
// order, each with observations sorted by progress.
func (s *Store) LoadCluster(ctx context.Context, sensorID string) (trajectory.Cluster, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.track_id, t.ndim, o.progress, o.x, o.y, o.z
		FROM tracks t
		JOIN track_observations o ON o.track_id = t.track_id
		WHERE t.sensor_id = ?
		ORDER BY t.rowid, o.progress`, sensorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	type pending struct {
		ndim     int
		progress []float64
		coords   []float64
	}
	var order []string
	tracks := make(map[string]*pending)
	for rows.Next() {
		var (
			id      string
			ndim    int
			p, x, y float64
			z       sql.NullFloat64
		)
		if err := rows.Scan(&id, &ndim, &p, &x, &y, &z); err != nil {
			return nil, err
		}
		tr, ok := tracks[id]
		if !ok {
			tr = &pending{ndim: ndim}
			tracks[id] = tr
			order = append(order, id)
		}
		tr.progress = append(tr.progress, p)
		tr.coords = append(tr.coords, x, y)
		if ndim == 3 {
			tr.coords = append(tr.coords, z.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNotFound, sensorID)
	}

	out := make(trajectory.Cluster, 0, len(order))
	for _, id := range order {
		tr := tracks[id]
		out = append(out, trajectory.Trajectory{
			Progress:  tr.progress,
			Positions: mat.NewDense(len(tr.progress), tr.ndim, tr.coords),
		})
	}
	return out, nil
}

// Sensors lists sensor ids with their track counts.
func (s *Store) Sensors(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sensor_id, COUNT(*) FROM tracks GROUP BY sensor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// DeleteSensor removes every track recorded for sensorID and returns the
// number removed.
func (s *Store) DeleteSensor(ctx context.Context, sensorID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE sensor_id = ?`, sensorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
