// Package grid implements the 2D occupancy grid that anchors the
// exploration engine's perception of free, occupied, and unknown space.
//
// A single OccupancyGrid owns two parallel cell arrays: raw, which is
// updated directly from raytraced point-cloud returns, and inflated, a
// dilated copy used only for traversability tests so that a point-like
// planner can reason about the vehicle's physical footprint.
package grid

import (
	"math"

	"github.com/skywave-robotics/groundstation/internal/geometry"
)

// CellState is the ternary occupancy estimate held by a single grid cell.
type CellState int8

const (
	// Unknown means no observation has touched this cell yet.
	Unknown CellState = 0
	// Free means the cell has been raytraced through without a return.
	Free CellState = 1
	// Occupied means a sensor return landed in this cell.
	Occupied CellState = -1
)

// Bounds is an axis-aligned box in world coordinates, used for both the
// configured hard boundary and the lazily-derived scene bounds.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Contains reports whether point (x,y,z) falls within the box, inclusive.
func (b Bounds) Contains(x, y, z float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY &&
		z >= b.MinZ && z <= b.MaxZ
}

// Counts is the running tally of cell states, always summing to Width*Height.
type Counts struct {
	Unknown  int
	Free     int
	Occupied int
}

// OccupancyGrid is a planar raster of width*height cells at a fixed
// resolution (meters/cell), centered on the world origin.
type OccupancyGrid struct {
	Width, Height int
	Resolution    float64 // meters per cell
	OriginX       float64
	OriginY       float64

	robotRadius     float64
	inflationRadius int // cells, ceil(robotRadius/resolution)

	raw      []CellState
	inflated []CellState

	counts Counts
}

// New creates an OccupancyGrid of the given cell dimensions and resolution,
// centered on the world origin, with obstacles inflated by robotRadius
// meters. All cells start Unknown.
func New(width, height int, resolution, robotRadius float64) *OccupancyGrid {
	g := &OccupancyGrid{
		Width:           width,
		Height:          height,
		Resolution:      resolution,
		OriginX:         -float64(width) * resolution / 2,
		OriginY:         -float64(height) * resolution / 2,
		robotRadius:     robotRadius,
		inflationRadius: int(math.Ceil(robotRadius / resolution)),
		raw:             make([]CellState, width*height),
		inflated:        make([]CellState, width*height),
	}
	g.counts.Unknown = width * height
	return g
}

func (g *OccupancyGrid) index(gx, gy int) int {
	return gy*g.Width + gx
}

// WorldToGrid converts a world-frame (x,y) to integer grid coordinates using
// mathematical floor division, so points below the origin map correctly.
func (g *OccupancyGrid) WorldToGrid(x, y float64) (gx, gy int) {
	gx = int(math.Floor((x - g.OriginX) / g.Resolution))
	gy = int(math.Floor((y - g.OriginY) / g.Resolution))
	return
}

// GridToWorld returns the world-frame center of grid cell (gx,gy).
func (g *OccupancyGrid) GridToWorld(gx, gy int) (x, y float64) {
	x = (float64(gx)+0.5)*g.Resolution + g.OriginX
	y = (float64(gy)+0.5)*g.Resolution + g.OriginY
	return
}

// InMap reports whether (gx,gy) is within the grid's bounds.
func (g *OccupancyGrid) InMap(gx, gy int) bool {
	return gx >= 0 && gx < g.Width && gy >= 0 && gy < g.Height
}

// Get returns the raw state of (gx,gy). Out-of-map cells are conservatively
// reported Occupied, so callers never treat unmapped space as traversable.
func (g *OccupancyGrid) Get(gx, gy int) CellState {
	if !g.InMap(gx, gy) {
		return Occupied
	}
	return g.raw[g.index(gx, gy)]
}

// GetInflated returns the inflated state of (gx,gy), used for
// traversability tests. Out-of-map cells are conservatively Occupied.
func (g *OccupancyGrid) GetInflated(gx, gy int) CellState {
	if !g.InMap(gx, gy) {
		return Occupied
	}
	return g.inflated[g.index(gx, gy)]
}

// Set updates the raw state of (gx,gy) and maintains the running cell
// counters. Out-of-map writes are ignored.
func (g *OccupancyGrid) Set(gx, gy int, value CellState) {
	if !g.InMap(gx, gy) {
		return
	}
	i := g.index(gx, gy)
	prev := g.raw[i]
	if prev == value {
		return
	}
	g.decrementCount(prev)
	g.incrementCount(value)
	g.raw[i] = value
}

func (g *OccupancyGrid) decrementCount(s CellState) {
	switch s {
	case Unknown:
		g.counts.Unknown--
	case Free:
		g.counts.Free--
	case Occupied:
		g.counts.Occupied--
	}
}

func (g *OccupancyGrid) incrementCount(s CellState) {
	switch s {
	case Unknown:
		g.counts.Unknown++
	case Free:
		g.counts.Free++
	case Occupied:
		g.counts.Occupied++
	}
}

// Counts returns the current (unknown, free, occupied) cell tally. The three
// always sum to Width*Height.
func (g *OccupancyGrid) Counts() Counts {
	return g.counts
}

// Cells returns a copy of the raw cell array, row-major (index = gy*Width +
// gx), for exporting map data to external consumers.
func (g *OccupancyGrid) Cells() []CellState {
	out := make([]CellState, len(g.raw))
	copy(out, g.raw)
	return out
}

// maxRaytraceSteps bounds the Bresenham walk so a pathological endpoint
// can never spin the grid update loop; it must be at least max(W,H).
func (g *OccupancyGrid) maxRaytraceSteps() int {
	m := g.Width
	if g.Height > m {
		m = g.Height
	}
	return m + 1
}

// Raytrace walks a Bresenham line from (x0,y0) to (x1,y1) in world
// coordinates and marks every visited cell that is not already Occupied as
// Free. The caller is responsible for marking the endpoint Occupied
// separately when it corresponds to a sensor return; Raytrace never reduces
// the occupancy of a cell that is already Occupied in raw.
func (g *OccupancyGrid) Raytrace(x0, y0, x1, y1 float64) {
	gx0, gy0 := g.WorldToGrid(x0, y0)
	gx1, gy1 := g.WorldToGrid(x1, y1)
	for _, c := range geometry.BresenhamLine(gx0, gy0, gx1, gy1, g.maxRaytraceSteps()) {
		if g.Get(c.GX, c.GY) != Occupied {
			g.Set(c.GX, c.GY, Free)
		}
	}
}

// InflateObstacles recomputes the inflated grid from raw: every raw-Occupied
// cell dilates a disk of radius inflationRadius cells onto the inflated
// grid. Raw-occupied cells are always inflated-occupied, and the inflated
// grid never marks a raw-free cell Free if any raw-occupied cell lies
// within the inflation disk.
func (g *OccupancyGrid) InflateObstacles() {
	copy(g.inflated, g.raw)

	r := g.inflationRadius
	if r <= 0 {
		return
	}
	r2 := r * r

	for gy := 0; gy < g.Height; gy++ {
		for gx := 0; gx < g.Width; gx++ {
			if g.raw[g.index(gx, gy)] != Occupied {
				continue
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if dx*dx+dy*dy > r2 {
						continue
					}
					nx, ny := gx+dx, gy+dy
					if !g.InMap(nx, ny) {
						continue
					}
					g.inflated[g.index(nx, ny)] = Occupied
				}
			}
		}
	}
}

// ExploredArea returns the area, in square meters, of cells that are no
// longer Unknown (free + occupied).
func (g *OccupancyGrid) ExploredArea() float64 {
	return float64(g.counts.Free+g.counts.Occupied) * g.Resolution * g.Resolution
}

// Reset zeros both cell arrays and the running counters, returning the grid
// to its freshly-constructed state.
func (g *OccupancyGrid) Reset() {
	for i := range g.raw {
		g.raw[i] = Unknown
		g.inflated[i] = Unknown
	}
	g.counts = Counts{Unknown: g.Width * g.Height}
}

// SeedFreeDisk marks every cell within radiusCells of the world point
// (cx,cy) as Free. This is used once at startExploration to seed a
// free-space disk around the vehicle's start position — without it no
// frontier cells exist to bootstrap the planning loop.
func (g *OccupancyGrid) SeedFreeDisk(cx, cy float64, radiusCells int) {
	gcx, gcy := g.WorldToGrid(cx, cy)
	r2 := radiusCells * radiusCells
	for dy := -radiusCells; dy <= radiusCells; dy++ {
		for dx := -radiusCells; dx <= radiusCells; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			gx, gy := gcx+dx, gcy+dy
			if g.InMap(gx, gy) && g.Get(gx, gy) != Occupied {
				g.Set(gx, gy, Free)
			}
		}
	}
}
