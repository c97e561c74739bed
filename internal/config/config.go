// Package config holds the exploration engine's tunable parameters:
// ExplorationConfig for the startup-time grid/planning shape, and
// ScoringWeights for the goal scorer's weighted sum. At runtime the
// controller replaces the weights via setScoringWeights and the ROI via
// SetROI/ClearROI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/grid"
	"gopkg.in/yaml.v3"
)

// ScoringWeights are the weighted-sum coefficients the goal scorer applies
// to each surviving candidate. All five must lie in [0,1].
type ScoringWeights struct {
	InfoGain    float64 `yaml:"info_gain" json:"info_gain"`
	Distance    float64 `yaml:"distance" json:"distance"`
	Consistency float64 `yaml:"consistency" json:"consistency"`
	Density     float64 `yaml:"density" json:"density"`
	History     float64 `yaml:"history" json:"history"`
}

// DefaultScoringWeights returns a reasonable starting weight set: distance
// and info-gain dominate, consistency offers a mild bonus for continuing in
// the same direction, and density/history act as penalties.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		InfoGain:    0.35,
		Distance:    0.30,
		Consistency: 0.10,
		Density:     0.15,
		History:     0.10,
	}
}

// Validate reports an error if any weight falls outside [0,1].
func (w ScoringWeights) Validate() error {
	for name, v := range map[string]float64{
		"info_gain":   w.InfoGain,
		"distance":    w.Distance,
		"consistency": w.Consistency,
		"density":     w.Density,
		"history":     w.History,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring weight %q must be in [0,1], got %f", name, v)
		}
	}
	return nil
}

// ScoringWeightsPatch mirrors ScoringWeights but with optional pointer
// fields, so a partial JSON body (as delivered to setScoringWeights) only
// overwrites the weights it names. Fields left nil retain their current
// value. This is the same shape the teacher's /api/lidar/params endpoint
// uses for live tuning updates.
type ScoringWeightsPatch struct {
	InfoGain    *float64 `json:"info_gain,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Consistency *float64 `json:"consistency,omitempty"`
	Density     *float64 `json:"density,omitempty"`
	History     *float64 `json:"history,omitempty"`
}

// Apply returns a copy of base with every non-nil field in the patch
// overwritten, and validates the result before returning it.
func (p ScoringWeightsPatch) Apply(base ScoringWeights) (ScoringWeights, error) {
	if p.InfoGain != nil {
		base.InfoGain = *p.InfoGain
	}
	if p.Distance != nil {
		base.Distance = *p.Distance
	}
	if p.Consistency != nil {
		base.Consistency = *p.Consistency
	}
	if p.Density != nil {
		base.Density = *p.Density
	}
	if p.History != nil {
		base.History = *p.History
	}
	if err := base.Validate(); err != nil {
		return ScoringWeights{}, err
	}
	return base, nil
}

// ExplorationConfig is the full set of tunables for a single exploration
// session: grid shape, planning cadence, algorithm thresholds, and the
// optional ROI/boundary constraints.
type ExplorationConfig struct {
	// Grid shape
	Resolution float64 `yaml:"resolution"`   // meters/cell
	GridWidth  int     `yaml:"grid_width"`   // cells
	GridHeight int     `yaml:"grid_height"`  // cells
	RobotRadius float64 `yaml:"robot_radius"` // meters, used for obstacle inflation

	// Session bounds
	MaxDistance float64       `yaml:"max_distance"` // meters from start
	MaxDuration time.Duration `yaml:"max_duration"`

	// Frontier detection
	ClusterRadius  float64 `yaml:"cluster_radius"`
	MinClusterSize int     `yaml:"min_cluster_size"`

	// Planning cadence
	UpdateInterval time.Duration `yaml:"update_interval"`

	// Altitude
	ExplorationHeight   float64 `yaml:"exploration_height"`
	EnableZExploration  bool    `yaml:"enable_z_exploration"`
	MinHeight           float64 `yaml:"min_height"`
	MaxHeight           float64 `yaml:"max_height"`
	HeightLevelStep     float64 `yaml:"height_level_step"`

	// Optional hard boundary; nil means unconstrained by a fixed box
	// (sceneBounds, derived from observed point clouds, still applies).
	Boundary *grid.Bounds `yaml:"boundary,omitempty"`

	// Region of interest
	UseROI     bool             `yaml:"use_roi"`
	ROIPolygon []geometry.Vec2  `yaml:"roi_polygon,omitempty"`

	// Goal filtering thresholds
	BlacklistProximity       float64 `yaml:"blacklist_proximity"`
	WindowTrapActivationArea float64 `yaml:"window_trap_activation_area"`
	WindowTrapRadius         float64 `yaml:"window_trap_radius"`
	MinGoalDistance          float64 `yaml:"min_goal_distance"`
	MaxGoalDistance          float64 `yaml:"max_goal_distance"`
	VisitedGoalMinDistance   float64 `yaml:"visited_goal_min_distance"`
	VisitedGoalPenaltyRadius float64 `yaml:"visited_goal_penalty_radius"`
	LocalDensityRadius       float64 `yaml:"local_density_radius"`

	// Scoring
	ScoringWeights ScoringWeights `yaml:"scoring_weights"`

	// Progress guarantees (exposed as tunables rather than hardcoded)
	ArrivalDistance         float64       `yaml:"arrival_distance"`
	ArrivalTimeout          time.Duration `yaml:"arrival_timeout"`
	StuckVelocityThreshold  float64       `yaml:"stuck_velocity_threshold"`
	StuckTimeout            time.Duration `yaml:"stuck_timeout"`
	MaxAttempts             int           `yaml:"max_attempts"`
	RecedingHorizonDistance float64       `yaml:"receding_horizon_distance"`

	// Map update
	CloudDownsampleStride int     `yaml:"cloud_downsample_stride"`
	CloudAltitudeBand     float64 `yaml:"cloud_altitude_band"`
	SeedDiskRadiusCells   int     `yaml:"seed_disk_radius_cells"`

	// Mission synthesis
	WaypointSpacing   float64       `yaml:"waypoint_spacing"`
	MissionStartDelay time.Duration `yaml:"mission_start_delay"`
	FirstTickDelay    time.Duration `yaml:"first_tick_delay"`
	StatusInterval    time.Duration `yaml:"status_interval"`
}

// Default returns an ExplorationConfig populated with the engine's
// reference tuning (8s arrival timeout, 3s/0.1m/s stuck detection, 5 max
// attempts before blacklisting, 2.0m blacklist/penalty radii, etc).
func Default() ExplorationConfig {
	return ExplorationConfig{
		Resolution:  0.2,
		GridWidth:   500,
		GridHeight:  500,
		RobotRadius: 0.3,

		MaxDistance: 30,
		MaxDuration: 20 * time.Minute,

		ClusterRadius:  1.0,
		MinClusterSize: 3,

		UpdateInterval: 500 * time.Millisecond,

		ExplorationHeight:  1.0,
		EnableZExploration: false,
		MinHeight:          0.5,
		MaxHeight:          2.5,
		HeightLevelStep:    0.5,

		UseROI: false,

		BlacklistProximity:       2.0,
		WindowTrapActivationArea: 50,
		WindowTrapRadius:         1.5,
		MinGoalDistance:          0.5,
		MaxGoalDistance:          15,
		VisitedGoalMinDistance:   0.3,
		VisitedGoalPenaltyRadius: 2.0,
		LocalDensityRadius:       2.0,

		ScoringWeights: DefaultScoringWeights(),

		ArrivalDistance:         0.3,
		ArrivalTimeout:          8 * time.Second,
		StuckVelocityThreshold:  0.1,
		StuckTimeout:            3 * time.Second,
		MaxAttempts:             5,
		RecedingHorizonDistance: 1.5,

		CloudDownsampleStride: 10,
		CloudAltitudeBand:     1.0,
		SeedDiskRadiusCells:   15,

		WaypointSpacing:   2.0,
		MissionStartDelay: 500 * time.Millisecond,
		FirstTickDelay:    500 * time.Millisecond,
		StatusInterval:    2 * time.Second,
	}
}

// Validate checks the configuration for internally-consistent ranges,
// mirroring the fail-fast validation the teacher applies to tuning config.
func (c ExplorationConfig) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %f", c.Resolution)
	}
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.RobotRadius < 0 {
		return fmt.Errorf("robot_radius must be non-negative, got %f", c.RobotRadius)
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("max_distance must be positive, got %f", c.MaxDistance)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive, got %v", c.MaxDuration)
	}
	if c.ClusterRadius <= 0 {
		return fmt.Errorf("cluster_radius must be positive, got %f", c.ClusterRadius)
	}
	if c.MinClusterSize < 1 {
		return fmt.Errorf("min_cluster_size must be >= 1, got %d", c.MinClusterSize)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %v", c.UpdateInterval)
	}
	if c.MinHeight > c.MaxHeight {
		return fmt.Errorf("min_height (%f) must be <= max_height (%f)", c.MinHeight, c.MaxHeight)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.UseROI && len(c.ROIPolygon) < 3 {
		return fmt.Errorf("use_roi is true but roi_polygon has fewer than 3 vertices")
	}
	return c.ScoringWeights.Validate()
}

// LoadYAML loads an ExplorationConfig from a YAML file, starting from
// Default() so any field the file omits keeps its default value, then
// validates the merged result.
func LoadYAML(path string) (ExplorationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return ExplorationConfig{}, fmt.Errorf("config file must have .yaml/.yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return ExplorationConfig{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return ExplorationConfig{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return ExplorationConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ExplorationConfig{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ExplorationConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
