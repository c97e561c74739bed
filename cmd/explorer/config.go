package main

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// processConfig holds the process-level knobs for this binary — where to
// read the engine's tunables from, where to write telemetry, and how to
// pace the clock-driven Tick/status/snapshot loops. This is distinct from
// config.ExplorationConfig, which internal/config.LoadYAML loads
// independently for the engine itself.
type processConfig struct {
	EngineConfigPath string
	ReplayPath       string
	StatusLogPath    string
	SnapshotDir      string
	SnapshotInterval time.Duration
	TickInterval     time.Duration
	StartX           float64
	StartY           float64
	StartZ           float64
	PrintVersion     bool
}

// loadProcessConfig layers command-line flags over environment variables
// (EXPLORER_ prefix) over defaults, the same flag>env>file precedence the
// pack's niceyeti-tabular server applies via viper, generalized here from
// cobra/pflag command binding to a flat flag.
func loadProcessConfig(args []string) (processConfig, error) {
	fs := pflag.NewFlagSet("explorer", pflag.ContinueOnError)

	fs.String("engine-config", "", "path to an ExplorationConfig YAML file (optional, defaults applied otherwise)")
	fs.String("replay", "", "path to a newline-delimited JSON file of recorded pose/cloud events to feed the controller")
	fs.String("status-log", "explorer-status.csv", "path to write the CSV status session log")
	fs.String("snapshot-dir", "explorer-snapshots", "directory to write periodic grid PNG snapshots")
	fs.Duration("snapshot-interval", 5*time.Second, "how often to render a grid snapshot")
	fs.Duration("tick-interval", 250*time.Millisecond, "how often to drive the controller's clock-only Tick")
	fs.Float64("start-x", 0, "vehicle start position x (meters)")
	fs.Float64("start-y", 0, "vehicle start position y (meters)")
	fs.Float64("start-z", 1, "vehicle start position z (meters)")
	fs.Bool("version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return processConfig{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("EXPLORER")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return processConfig{}, err
	}

	return processConfig{
		EngineConfigPath: v.GetString("engine-config"),
		ReplayPath:       v.GetString("replay"),
		StatusLogPath:    v.GetString("status-log"),
		SnapshotDir:      v.GetString("snapshot-dir"),
		SnapshotInterval: v.GetDuration("snapshot-interval"),
		TickInterval:     v.GetDuration("tick-interval"),
		StartX:           v.GetFloat64("start-x"),
		StartY:           v.GetFloat64("start-y"),
		StartZ:           v.GetFloat64("start-z"),
		PrintVersion:     v.GetBool("version"),
	}, nil
}
