// Package frontier detects and clusters frontier cells: free cells adjacent
// to unknown space, the candidate locations for extending the map.
package frontier

import (
	"math"

	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/grid"
)

// Frontier is a cluster of raw frontier cells, reduced to its centroid.
type Frontier struct {
	X, Y float64
	Size int // raw-cell member count
}

// Detector scans a bounded window of the occupancy grid for frontier cells
// and clusters them by single-linkage. Its only state is the clustering
// configuration below; maxDistance is passed per call, so the same detector
// instance can be reused across ticks with different maxDistance values.
type Detector struct {
	// ClusterRadius is the greedy single-linkage clustering radius, meters.
	ClusterRadius float64
	// MinClusterSize discards clusters with fewer raw member cells.
	MinClusterSize int
}

// NewDetector returns a Detector configured with the given clustering
// parameters.
func NewDetector(clusterRadius float64, minClusterSize int) *Detector {
	return &Detector{ClusterRadius: clusterRadius, MinClusterSize: minClusterSize}
}

// rawPoint is a raw frontier cell prior to clustering.
type rawPoint struct {
	gx, gy int
	x, y   float64
}

// Detect scans a square window of g centered on the vehicle's grid cell
// (half-side = ceil(maxDistance/resolution), clipped to [1, W-2]x[1, H-2] to
// keep 8-neighbor lookups safe) and returns every surviving cluster's
// centroid with its raw member count as Size. Clusters are discovered and
// emitted in a fixed, deterministic order: row-major scan order for raw
// points, then discovery order for clusters.
func (d *Detector) Detect(g *grid.OccupancyGrid, vehicleX, vehicleY, maxDistance float64) []Frontier {
	halfSide := int(math.Ceil(maxDistance / g.Resolution))
	if halfSide < 1 {
		halfSide = 1
	}
	maxHalf := g.Width - 2
	if g.Height-2 < maxHalf {
		maxHalf = g.Height - 2
	}
	if maxHalf < 1 {
		maxHalf = 1
	}
	if halfSide > maxHalf {
		halfSide = maxHalf
	}

	vgx, vgy := g.WorldToGrid(vehicleX, vehicleY)

	minGX, maxGX := vgx-halfSide, vgx+halfSide
	minGY, maxGY := vgy-halfSide, vgy+halfSide
	if minGX < 1 {
		minGX = 1
	}
	if minGY < 1 {
		minGY = 1
	}
	if maxGX > g.Width-2 {
		maxGX = g.Width - 2
	}
	if maxGY > g.Height-2 {
		maxGY = g.Height - 2
	}

	raw := make([]rawPoint, 0, 64)
	for gy := minGY; gy <= maxGY; gy++ {
		for gx := minGX; gx <= maxGX; gx++ {
			if g.Get(gx, gy) != grid.Free {
				continue
			}
			if !hasUnknownNeighbor(g, gx, gy) {
				continue
			}
			x, y := g.GridToWorld(gx, gy)
			raw = append(raw, rawPoint{gx: gx, gy: gy, x: x, y: y})
		}
	}

	return d.cluster(raw)
}

var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func hasUnknownNeighbor(g *grid.OccupancyGrid, gx, gy int) bool {
	for _, off := range neighborOffsets {
		if g.Get(gx+off[0], gy+off[1]) == grid.Unknown {
			return true
		}
	}
	return false
}

// cluster performs greedy single-linkage clustering over raw frontier
// points in discovery order: for each unvisited point, open a cluster and
// absorb all later unvisited points within ClusterRadius. This is O(n^2)
// in the raw frontier count, which is acceptable given Detect's bounded
// search window.
func (d *Detector) cluster(raw []rawPoint) []Frontier {
	n := len(raw)
	visited := make([]bool, n)
	var frontiers []Frontier

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		members := []rawPoint{raw[i]}

		for j := i + 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if geometry.Hypot(geometry.Vec2{X: raw[i].x, Y: raw[i].y}, geometry.Vec2{X: raw[j].x, Y: raw[j].y}) <= d.ClusterRadius {
				visited[j] = true
				members = append(members, raw[j])
			}
		}

		if len(members) < d.MinClusterSize {
			continue
		}
		frontiers = append(frontiers, centroidOf(members))
	}

	return frontiers
}

func centroidOf(members []rawPoint) Frontier {
	var sumX, sumY float64
	for _, m := range members {
		sumX += m.x
		sumY += m.y
	}
	n := float64(len(members))
	return Frontier{X: sumX / n, Y: sumY / n, Size: len(members)}
}
