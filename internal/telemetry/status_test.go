package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skywave-robotics/groundstation/internal/explore"
	"github.com/skywave-robotics/groundstation/internal/goalscore"
	"github.com/skywave-robotics/groundstation/internal/grid"
)

func TestNewStatusRecorder_EmptyPathDisables(t *testing.T) {
	rec, err := NewStatusRecorder("")
	if err != nil {
		t.Fatalf("NewStatusRecorder(\"\") returned error: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil recorder for empty path")
	}
	if err := rec.Record(0, explore.Status{}); err != nil {
		t.Errorf("Record on nil recorder should be a no-op, got: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("Close on nil recorder should be a no-op, got: %v", err)
	}
}

func TestStatusRecorder_WritesHeaderThenRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.csv")

	rec, err := NewStatusRecorder(path)
	if err != nil {
		t.Fatalf("NewStatusRecorder failed: %v", err)
	}

	s1 := explore.Status{
		IsExploring:        true,
		FrontiersCount:     3,
		ExploredArea:       12.5,
		ExploredPercentage: 0.1,
		MapStats:           grid.Counts{Unknown: 100, Free: 50, Occupied: 10},
	}
	s2 := explore.Status{
		IsExploring:       true,
		DistanceFromStart: 4.2,
		CurrentGoal:       &goalscore.Goal{X: 3, Y: 1, Z: 1},
	}

	if err := rec.Record(2*time.Second, s1); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Record(4*time.Second, s2); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading status log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty CSV output")
	}

	rows, err := ReadStatusLog(path)
	if err != nil {
		t.Fatalf("ReadStatusLog failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].FrontiersCount != 3 {
		t.Errorf("expected frontiers_count 3, got %d", rows[0].FrontiersCount)
	}
	if rows[1].ElapsedSeconds != 4 {
		t.Errorf("expected elapsed_seconds 4, got %f", rows[1].ElapsedSeconds)
	}
}

