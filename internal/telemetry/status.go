// Package telemetry provides offline recording and rendering of an
// exploration session: a CSV log of status snapshots and an on-demand PNG
// render of the occupancy grid, for the offline report generator to
// consume. Neither piece is part of the exploration engine's control
// loop; both observe it from the outside via Status and MapData snapshots.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/skywave-robotics/groundstation/internal/explore"
)

// StatusRow is one CSV record written per recorded status event, the flat
// tabular projection of explore.Status that cmd/explore-report reads back.
type StatusRow struct {
	ElapsedSeconds     float64 `csv:"elapsed_seconds"`
	IsExploring        bool    `csv:"is_exploring"`
	IsPaused           bool    `csv:"is_paused"`
	FrontiersCount     int     `csv:"frontiers_count"`
	ExploredArea       float64 `csv:"explored_area_m2"`
	ExploredPercentage float64 `csv:"explored_percentage"`
	DistanceFromStart  float64 `csv:"distance_from_start_m"`
	GoalX              float64 `csv:"goal_x"`
	GoalY              float64 `csv:"goal_y"`
	GoalZ              float64 `csv:"goal_z"`
	HasGoal            bool    `csv:"has_goal"`
	UnknownCells       int     `csv:"unknown_cells"`
	FreeCells          int     `csv:"free_cells"`
	OccupiedCells      int     `csv:"occupied_cells"`
}

// StatusRecorder appends each explore.Status snapshot it is given to a CSV session
// log, writing the header on the first row and plain rows after, mirroring
// the teacher pack's own OutputManager.WriteTelemetry pattern for
// structured per-tick CSV export.
type StatusRecorder struct {
	file          *os.File
	headerWritten bool
}

// NewStatusRecorder creates path (and its parent directory) and returns a
// recorder writing to it. Passing an empty path disables recording; every
// method on a nil *StatusRecorder is a no-op, so callers can wire one in
// unconditionally.
func NewStatusRecorder(path string) (*StatusRecorder, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating telemetry directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating status log %q: %w", path, err)
	}
	return &StatusRecorder{file: f}, nil
}

// Record writes one status snapshot as a CSV row. elapsed is the duration
// since the exploration session started, supplied by the caller rather
// than read from the clock so the recorder stays decoupled from
// internal/timeutil.
func (r *StatusRecorder) Record(elapsed time.Duration, s explore.Status) error {
	if r == nil {
		return nil
	}

	row := StatusRow{
		ElapsedSeconds:     elapsed.Seconds(),
		IsExploring:        s.IsExploring,
		IsPaused:           s.IsPaused,
		FrontiersCount:     s.FrontiersCount,
		ExploredArea:       s.ExploredArea,
		ExploredPercentage: s.ExploredPercentage,
		DistanceFromStart:  s.DistanceFromStart,
		UnknownCells:       s.MapStats.Unknown,
		FreeCells:          s.MapStats.Free,
		OccupiedCells:      s.MapStats.Occupied,
	}
	if s.CurrentGoal != nil {
		row.HasGoal = true
		row.GoalX = s.CurrentGoal.X
		row.GoalY = s.CurrentGoal.Y
		row.GoalZ = s.CurrentGoal.Z
	}

	rows := []StatusRow{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.file); err != nil {
			return fmt.Errorf("writing status row: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, r.file); err != nil {
		return fmt.Errorf("writing status row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (r *StatusRecorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// ReadStatusLog loads a previously recorded CSV session log, for
// cmd/explore-report to render.
func ReadStatusLog(path string) ([]StatusRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening status log %q: %w", path, err)
	}
	defer f.Close()

	var rows []StatusRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing status log %q: %w", path, err)
	}
	return rows, nil
}
