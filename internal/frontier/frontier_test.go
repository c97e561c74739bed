package frontier

import (
	"testing"

	"github.com/skywave-robotics/groundstation/internal/grid"
	"github.com/stretchr/testify/require"
)

func TestDetect_S2_SingleRaySingleCluster(t *testing.T) {
	g := grid.New(100, 100, 0.2, 0.3)

	// Vehicle at world (0,0); raytrace to grid (40,0) relative to center,
	// then mark the endpoint occupied (a lidar return).
	vgx, vgy := g.WorldToGrid(0, 0)
	ex, ey := g.GridToWorld(vgx+40, vgy)
	g.Raytrace(0, 0, ex, ey)
	g.Set(vgx+40, vgy, grid.Occupied)

	d := NewDetector(1.0, 1)
	frontiers := d.Detect(g, 0, 0, 20)

	require.Len(t, frontiers, 1)
	f := frontiers[0]
	require.InDelta(t, 7.9, f.X, 0.2)
	require.InDelta(t, 0.0, f.Y, 0.2)
}

func TestDetect_NoFreeCellsYieldsNoFrontiers(t *testing.T) {
	g := grid.New(50, 50, 0.2, 0.3)
	d := NewDetector(1.0, 1)
	frontiers := d.Detect(g, 0, 0, 5)
	require.Empty(t, frontiers)
}

func TestDetect_DiscardsClustersBelowMinSize(t *testing.T) {
	g := grid.New(50, 50, 0.2, 0.3)
	vgx, vgy := g.WorldToGrid(0, 0)
	// A single isolated free cell next to unknown space: cluster size 1.
	g.Set(vgx+3, vgy, grid.Free)

	d := NewDetector(1.0, 2) // require at least 2 members
	frontiers := d.Detect(g, 0, 0, 5)
	require.Empty(t, frontiers)
}

func TestDetect_DeterministicAcrossRepeatedCalls(t *testing.T) {
	g := grid.New(80, 80, 0.2, 0.3)
	vgx, vgy := g.WorldToGrid(0, 0)
	ex, ey := g.GridToWorld(vgx+20, vgy)
	g.Raytrace(0, 0, ex, ey)
	g.Set(vgx+20, vgy, grid.Occupied)

	d := NewDetector(1.0, 1)
	first := d.Detect(g, 0, 0, 20)
	second := d.Detect(g, 0, 0, 20)

	require.Equal(t, first, second)
}
