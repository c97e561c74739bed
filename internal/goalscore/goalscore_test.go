package goalscore

import (
	"testing"

	"github.com/skywave-robotics/groundstation/internal/config"
	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/grid"
	"github.com/stretchr/testify/require"
)

func openCorridor(g *grid.OccupancyGrid, fromX, toX, y float64) {
	gx0, gy0 := g.WorldToGrid(fromX, y)
	gx1, _ := g.WorldToGrid(toX, y)
	for gx := gx0; gx <= gx1; gx++ {
		g.Set(gx, gy0, grid.Free)
	}
}

func TestSelect_S6_RejectsCandidateOutsideROI(t *testing.T) {
	g := grid.New(200, 200, 0.2, 0.3)
	openCorridor(g, 0, 10, 0)
	g.InflateObstacles()

	cfg := config.Default()
	cfg.UseROI = true
	cfg.ROIPolygon = []geometry.Vec2{
		{X: -2, Y: -2}, {X: 2, Y: -2}, {X: 2, Y: 2}, {X: -2, Y: 2},
	}

	in := Input{
		Candidates: []Candidate{
			{X: 8, Y: 0, Size: 5},  // outside the ROI box
			{X: 1.5, Y: 0, Size: 5}, // inside
		},
		CurrentPos: geometry.Vec3{X: 0, Y: 0, Z: 1},
		Grid:       g,
		Config:     cfg,
	}

	goal, _, ok := Select(in)
	require.True(t, ok)
	require.InDelta(t, 1.5, goal.X, 1e-9)
}

func TestSelect_NoCandidatesReturnsNotOK(t *testing.T) {
	g := grid.New(50, 50, 0.2, 0.3)
	cfg := config.Default()
	_, _, ok := Select(Input{Grid: g, Config: cfg})
	require.False(t, ok)
}

func TestSelect_RejectsCandidateBehindBlockedPath(t *testing.T) {
	g := grid.New(200, 200, 0.2, 0.3)
	openCorridor(g, 0, 10, 0)
	// Wall directly between vehicle and the candidate.
	gx, gy := g.WorldToGrid(3, 0)
	g.Set(gx, gy, grid.Occupied)
	g.InflateObstacles()

	cfg := config.Default()
	in := Input{
		Candidates: []Candidate{{X: 8, Y: 0, Size: 5}},
		CurrentPos: geometry.Vec3{X: 0, Y: 0, Z: 1},
		Grid:       g,
		Config:     cfg,
	}

	_, _, ok := Select(in)
	require.False(t, ok)
}

func TestSelect_RejectsCandidateTooCloseToBlacklist(t *testing.T) {
	g := grid.New(200, 200, 0.2, 0.3)
	openCorridor(g, 0, 10, 0)
	g.InflateObstacles()

	cfg := config.Default()
	in := Input{
		Candidates:  []Candidate{{X: 8, Y: 0, Size: 5}},
		CurrentPos:  geometry.Vec3{X: 0, Y: 0, Z: 1},
		Grid:        g,
		Config:      cfg,
		Unreachable: []UnreachableRecord{{X: 8.1, Y: 0}},
	}

	_, _, ok := Select(in)
	require.False(t, ok)
}

func TestSelect_RejectsCandidateWithinVisitedRadius(t *testing.T) {
	g := grid.New(200, 200, 0.2, 0.3)
	openCorridor(g, 0, 10, 0)
	g.InflateObstacles()

	cfg := config.Default()
	in := Input{
		Candidates: []Candidate{{X: 8, Y: 0, Size: 5}},
		CurrentPos: geometry.Vec3{X: 0, Y: 0, Z: 1},
		Grid:       g,
		Config:     cfg,
		Visited:    []VisitedGoal{{X: 8.05, Y: 0}},
	}

	_, _, ok := Select(in)
	require.False(t, ok)
}

func TestSelect_PrefersCloserCandidateByDefaultWeights(t *testing.T) {
	g := grid.New(300, 300, 0.2, 0.3)
	openCorridor(g, 0, 14, 0)
	g.InflateObstacles()

	cfg := config.Default()
	in := Input{
		Candidates: []Candidate{
			{X: 12, Y: 0, Size: 5},
			{X: 4, Y: 0, Size: 5},
		},
		CurrentPos: geometry.Vec3{X: 0, Y: 0, Z: 1},
		Grid:       g,
		Config:     cfg,
	}

	goal, _, ok := Select(in)
	require.True(t, ok)
	require.InDelta(t, 4.0, goal.X, 1e-9)
}

func TestSelectHeight_FixedHeightClampedToRange(t *testing.T) {
	cfg := config.Default()
	cfg.ExplorationHeight = 1.0
	z := selectHeight(Candidate{X: 1, Y: 1}, cfg)
	require.InDelta(t, 1.0, z, 1e-9)
}

func TestSelectHeight_DeterministicAcrossCalls(t *testing.T) {
	cfg := config.Default()
	cfg.EnableZExploration = true
	c := Candidate{X: 3.4, Y: -1.2}
	z1 := selectHeight(c, cfg)
	z2 := selectHeight(c, cfg)
	require.Equal(t, z1, z2)
	require.GreaterOrEqual(t, z1, cfg.MinHeight)
	require.LessOrEqual(t, z1, cfg.MaxHeight)
}
