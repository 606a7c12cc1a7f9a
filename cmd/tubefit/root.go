package main

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/trajectory.model/internal/config"
	"github.com/banshee-data/trajectory.model/internal/model"
	"github.com/banshee-data/trajectory.model/internal/monitoring"
	"github.com/banshee-data/trajectory.model/internal/trackstore"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
	"github.com/banshee-data/trajectory.model/internal/version"
)

const defaultDBPath = "tracks.db"

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "tubefit",
		Short:        "Fit and query probabilistic trajectory models",
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return monitoring.SetLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error)")
	root.AddCommand(newToyCmd(), newFitCmd(), newSensorsCmd())
	return root
}

func newToyCmd() *cobra.Command {
	var (
		dbPath   string
		sensorID string
		kind     int
		ndim     int
		ntraj    int
		npoints  int
		noise    float64
		seed     uint64
	)
	cmd := &cobra.Command{
		Use:   "toy",
		Short: "Store a generated toy cluster under a sensor id",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := trajectory.Toy(kind, ndim, ntraj, npoints, noise, seed)
			if err != nil {
				return err
			}
			store, err := trackstore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.InsertCluster(cmd.Context(), sensorID, c)
			if err != nil {
				return err
			}
			logrus.Infof("stored %d toy tracks for sensor %q in %s", len(ids), sensorID, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "SQLite database path")
	cmd.Flags().StringVar(&sensorID, "sensor", "toy", "Sensor id to store tracks under")
	cmd.Flags().IntVar(&kind, "kind", trajectory.ToyRamp, "Toy curve kind (0 ramp, 1 arc)")
	cmd.Flags().IntVar(&ndim, "ndim", 2, "Spatial dimension (2 or 3)")
	cmd.Flags().IntVar(&ntraj, "ntraj", 20, "Number of trajectories")
	cmd.Flags().IntVar(&npoints, "npoints", 50, "Samples per trajectory")
	cmd.Flags().Float64Var(&noise, "noise", 0.5, "Standard deviation of position noise")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

func newFitCmd() *cobra.Command {
	var (
		dbPath       string
		sensorID     string
		settingsPath string
		opts         reportOptions
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to a sensor's tracks and print a YAML report",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadModelSettings(settingsPath)
			if err != nil {
				return err
			}
			store, err := trackstore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.LoadCluster(cmd.Context(), sensorID)
			if err != nil {
				return err
			}
			m, err := model.New(c, settings)
			if err != nil {
				return err
			}
			rep, err := buildReport(cmd.Context(), m, sensorID, len(c), opts)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(rep)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "SQLite database path")
	cmd.Flags().StringVar(&sensorID, "sensor", "toy", "Sensor id to fit")
	cmd.Flags().StringVar(&settingsPath, "settings", config.DefaultSettingsPath, "Model settings file (.json, .yaml)")
	cmd.Flags().Float64Var(&opts.Width, "width", 1, "Tube spread width in standard deviations")
	cmd.Flags().IntVar(&opts.GridSize, "grid", 30, "Grid points per axis for log-likelihood and tube statistics (0 disables)")
	cmd.Flags().IntVar(&opts.Samples, "samples", 0, "Number of sampled trajectories to include")
	return cmd
}

func newSensorsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "List sensors with stored tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := trackstore.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Sensors(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, counts[id])
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no tracks stored")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "SQLite database path")
	return cmd
}
