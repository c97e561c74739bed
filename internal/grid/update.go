package grid

import (
	"math"

	"github.com/skywave-robotics/groundstation/internal/geometry"
)

// CloudUpdateResult reports what a single UpdateFromCloud call observed, so
// the caller (the exploration controller) can decide whether to derive
// scene bounds on this call.
type CloudUpdateResult struct {
	SampledPoints int
}

// UpdateFromCloud ingests a down-sampled point cloud observed from the
// vehicle's current 3D position. For every Nth point (stride) within 1.0m of
// the vehicle's altitude, it raytraces from the vehicle's grid cell to the
// point's grid cell, marking the path Free, then marks the endpoint
// Occupied. Points outside the altitude band or off the map are skipped.
// After updating raw cells, the caller must call InflateObstacles to
// refresh the traversability grid.
func (g *OccupancyGrid) UpdateFromCloud(vehicle geometry.Vec3, points []geometry.Vec3, stride int) CloudUpdateResult {
	if stride < 1 {
		stride = 1
	}
	const altitudeBand = 1.0

	sampled := 0
	for i := 0; i < len(points); i += stride {
		p := points[i]
		if math.Abs(p.Z-vehicle.Z) > altitudeBand {
			continue
		}
		gx, gy := g.WorldToGrid(p.X, p.Y)
		if !g.InMap(gx, gy) {
			continue
		}
		g.Raytrace(vehicle.X, vehicle.Y, p.X, p.Y)
		g.Set(gx, gy, Occupied)
		sampled++
	}
	return CloudUpdateResult{SampledPoints: sampled}
}

// DeriveSceneBounds computes a conservative exploration boundary from a
// point cloud: the xyz min/max of the points, with the xy box shrunk inward
// by 1.5m and z clamped into [max(0.5, minZ+0.3), min(2.5, maxZ-0.5)].
// It returns ok=false if fewer than 100 points are given, matching the
// "first cloud >= 100 points" trigger for scene-bounds derivation.
func DeriveSceneBounds(points []geometry.Vec3) (b Bounds, ok bool) {
	if len(points) < 100 {
		return Bounds{}, false
	}

	minX, minY, minZ := points[0].X, points[0].Y, points[0].Z
	maxX, maxY, maxZ := points[0].X, points[0].Y, points[0].Z
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
	}

	const shrink = 1.5
	b = Bounds{
		MinX: minX + shrink,
		MaxX: maxX - shrink,
		MinY: minY + shrink,
		MaxY: maxY - shrink,
		MinZ: math.Max(0.5, minZ+0.3),
		MaxZ: math.Min(2.5, maxZ-0.5),
	}
	return b, true
}
