package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/skywave-robotics/groundstation/internal/explore"
	"github.com/skywave-robotics/groundstation/internal/grid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// occupancyGridXYZ adapts an explore.MapData snapshot to gonum/plot's
// plotter.GridXYZ interface, the same adapter role the teacher's
// GridPlotter fills implicitly by building plotter.XYs directly from its
// own GridSample slices.
type occupancyGridXYZ struct {
	width, height int
	resolution    float64
	originX       float64
	originY       float64
	cells         []grid.CellState
}

// Dims returns the grid's column/row count.
func (o occupancyGridXYZ) Dims() (c, r int) {
	return o.width, o.height
}

// Z returns the occupancy value at (c,r) as -1 (occupied), 0 (unknown), or
// 1 (free), which the diverging palette below maps to blue/white/red.
func (o occupancyGridXYZ) Z(c, r int) float64 {
	return float64(o.cells[r*o.width+c])
}

// X returns the world-frame x coordinate of column c's cell center.
func (o occupancyGridXYZ) X(c int) float64 {
	return (float64(c)+0.5)*o.resolution + o.originX
}

// Y returns the world-frame y coordinate of row r's cell center.
func (o occupancyGridXYZ) Y(r int) float64 {
	return (float64(r)+0.5)*o.resolution + o.originY
}

// GridSnapshotter renders on-demand PNG snapshots of an exploration
// session's occupancy grid, the exploration-engine analogue of the
// teacher's GridPlotter — same per-run output directory and PNG-via-
// gonum/plot approach, generalized from the teacher's per-ring time series
// to a single top-down occupancy heatmap per snapshot.
type GridSnapshotter struct {
	mu        sync.Mutex
	outputDir string
	frameIdx  int
}

// NewGridSnapshotter creates a snapshotter writing PNGs under outputDir,
// creating the directory if needed.
func NewGridSnapshotter(outputDir string) (*GridSnapshotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot output dir: %w", err)
	}
	return &GridSnapshotter{outputDir: outputDir}, nil
}

// Snapshot renders the grid's current state to a sequentially numbered PNG under the
// snapshotter's output directory and returns the file path written.
func (gs *GridSnapshotter) Snapshot(data explore.MapData) (string, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	g := occupancyGridXYZ{
		width:      data.Width,
		height:     data.Height,
		resolution: data.Resolution,
		originX:    data.OriginX,
		originY:    data.OriginY,
		cells:      data.Cells,
	}

	pal := moreland.SmoothBlueRed()
	if err := pal.SetMin(-1); err != nil {
		return "", fmt.Errorf("setting palette min: %w", err)
	}
	if err := pal.SetMax(1); err != nil {
		return "", fmt.Errorf("setting palette max: %w", err)
	}

	heatMap := plotter.NewHeatMap(g, pal)

	p := plot.New()
	p.Title.Text = "Occupancy grid"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(heatMap)

	gs.frameIdx++
	outPath := filepath.Join(gs.outputDir, fmt.Sprintf("grid_%04d.png", gs.frameIdx))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, outPath); err != nil {
		return "", fmt.Errorf("saving grid snapshot: %w", err)
	}
	return outPath, nil
}
