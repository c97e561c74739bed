// Package goalscore selects the next exploration goal from a set of
// frontier candidates: a chain of rejection filters followed by a weighted
// multi-criterion score, argmax over the survivors.
package goalscore

import (
	"math"

	"github.com/skywave-robotics/groundstation/internal/config"
	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/grid"
)

// Candidate is a frontier cluster centroid offered to the scorer.
type Candidate struct {
	X, Y float64
	Size int
}

// Goal is the scorer's chosen target, stored by the controller as
// currentGoal.
type Goal struct {
	X, Y, Z   float64
	Density   float64
	PathClear bool
}

// UnreachableRecord marks a point the controller refuses to plan near after
// repeated failed attempts.
type UnreachableRecord struct {
	X, Y float64
}

// VisitedGoal marks a point the vehicle has successfully arrived at.
type VisitedGoal struct {
	X, Y float64
}

// Input bundles everything the scorer needs to evaluate one planning tick.
// It holds no state between calls; the controller owns all of the fields
// below and passes a fresh Input each tick.
type Input struct {
	Candidates        []Candidate
	CurrentPos        geometry.Vec3
	Grid              *grid.OccupancyGrid
	Config            config.ExplorationConfig
	Unreachable       []UnreachableRecord
	Visited           []VisitedGoal
	LastGoalDirection *geometry.Vec2 // unit vector, nil if no prior goal
	SceneBounds       *grid.Bounds   // nil if not yet derived
	ExploredArea      float64        // m^2, gates the window-trap filter
}

// Select runs the full filter chain over Candidates in order, scores every
// survivor, and returns the argmax with ok=true. If no candidate survives
// filtering, it returns ok=false. Ties are broken by candidate order
// (first-seen wins), keeping selection deterministic for identical inputs.
func Select(in Input) (Goal, geometry.Vec2, bool) {
	var best Goal
	var bestDir geometry.Vec2
	bestScore := math.Inf(-1)
	found := false

	for _, c := range in.Candidates {
		if !passesFilters(c, in) {
			continue
		}

		z := selectHeight(c, in.Config)
		score, _ := scoreCandidate(c, in)

		if !found || score > bestScore {
			density := localDensity(in.Grid, c.X, c.Y, in.Config.LocalDensityRadius)
			dir := geometry.Vec2{X: c.X - in.CurrentPos.X, Y: c.Y - in.CurrentPos.Y}
			dir = unit(dir)

			best = Goal{X: c.X, Y: c.Y, Z: z, Density: density, PathClear: true}
			bestDir = dir
			bestScore = score
			found = true
		}
	}

	return best, bestDir, found
}

// passesFilters runs the seven ordered rejection checks for a candidate
// goal. Any failing check immediately rejects the candidate.
func passesFilters(c Candidate, in Input) bool {
	cfg := in.Config

	// 1. ROI membership.
	if cfg.UseROI {
		if !geometry.PointInPolygon(geometry.Vec2{X: c.X, Y: c.Y}, cfg.ROIPolygon) {
			return false
		}
	}

	// 2. Blacklist proximity.
	for _, u := range in.Unreachable {
		if geometry.Hypot(geometry.Vec2{X: c.X, Y: c.Y}, geometry.Vec2{X: u.X, Y: u.Y}) < cfg.BlacklistProximity {
			return false
		}
	}

	// 3. Path clarity: raytrace the inflated grid from the vehicle to c;
	// any non-Free inflated cell (occupied OR unknown) blocks the plan.
	if !pathClear(in.Grid, in.CurrentPos.X, in.CurrentPos.Y, c.X, c.Y) {
		return false
	}

	// 4. Window-trap heuristic, only active once exploredArea > 50 m^2.
	if in.ExploredArea > cfg.WindowTrapActivationArea {
		if !hasNearbyOccupied(in.Grid, c.X, c.Y, cfg.WindowTrapRadius) {
			return false
		}
	}

	// 5. In-cell occupancy.
	gx, gy := in.Grid.WorldToGrid(c.X, c.Y)
	if in.Grid.Get(gx, gy) == grid.Occupied {
		return false
	}

	// 6. Distance bounds.
	d := geometry.Hypot(geometry.Vec2{X: c.X, Y: c.Y}, geometry.Vec2{X: in.CurrentPos.X, Y: in.CurrentPos.Y})
	if d < cfg.MinGoalDistance || d > cfg.MaxGoalDistance {
		return false
	}

	// 7. Boundary: sceneBounds, if derived, then the optional hard
	// boundary, both evaluated at the target altitude.
	z := selectHeight(c, cfg)
	if in.SceneBounds != nil && !in.SceneBounds.Contains(c.X, c.Y, z) {
		return false
	}
	if cfg.Boundary != nil && !cfg.Boundary.Contains(c.X, c.Y, z) {
		return false
	}

	// Visited-goal outright rejection (part of the history penalty rule):
	// a candidate within 0.3m of a prior visited goal is rejected, not
	// merely penalized.
	for _, v := range in.Visited {
		if geometry.Hypot(geometry.Vec2{X: c.X, Y: c.Y}, geometry.Vec2{X: v.X, Y: v.Y}) < 0.3 {
			return false
		}
	}

	return true
}

func pathClear(g *grid.OccupancyGrid, x0, y0, x1, y1 float64) bool {
	gx0, gy0 := g.WorldToGrid(x0, y0)
	gx1, gy1 := g.WorldToGrid(x1, y1)
	for _, cell := range geometry.BresenhamLine(gx0, gy0, gx1, gy1, g.Width+g.Height+1) {
		if g.GetInflated(cell.GX, cell.GY) != grid.Free {
			return false
		}
	}
	return true
}

func hasNearbyOccupied(g *grid.OccupancyGrid, x, y, radius float64) bool {
	cells := int(math.Ceil(radius / g.Resolution))
	gx, gy := g.WorldToGrid(x, y)
	for dy := -cells; dy <= cells; dy++ {
		for dx := -cells; dx <= cells; dx++ {
			wx, wy := g.GridToWorld(gx+dx, gy+dy)
			if geometry.Hypot(geometry.Vec2{X: x, Y: y}, geometry.Vec2{X: wx, Y: wy}) > radius {
				continue
			}
			if g.Get(gx+dx, gy+dy) == grid.Occupied {
				return true
			}
		}
	}
	return false
}

// selectHeight picks the z-level for a candidate. With z-exploration
// enabled, it enumerates discrete levels from MinHeight to MaxHeight in
// HeightLevelStep increments and picks one deterministically by a hash of
// the candidate's rounded xy, so the same xy always maps to the same level
// across ticks. Otherwise it returns the fixed ExplorationHeight.
func selectHeight(c Candidate, cfg config.ExplorationConfig) float64 {
	if !cfg.EnableZExploration {
		return clamp(cfg.ExplorationHeight, cfg.MinHeight, cfg.MaxHeight)
	}

	step := cfg.HeightLevelStep
	if step <= 0 {
		step = 0.5
	}
	levels := int(math.Floor((cfg.MaxHeight-cfg.MinHeight)/step)) + 1
	if levels < 1 {
		levels = 1
	}

	key := int64(math.Floor(c.X*10)) + int64(math.Floor(c.Y*10))
	idx := int(xyHash(key) % uint64(levels))

	z := cfg.MinHeight + float64(idx)*step
	return clamp(z, cfg.MinHeight, cfg.MaxHeight)
}

// xyHash is a small deterministic integer hash (splitmix64's mixing step),
// used only to pick a stable height level for a given xy — not a
// cryptographic or collision-resistant hash.
func xyHash(key int64) uint64 {
	x := uint64(key)
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return x
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreCandidate computes the weighted final score for a surviving
// candidate: distanceCost + infoGain - historyPenalty - densityPenalty +
// directionBonus.
func scoreCandidate(c Candidate, in Input) (score, historyPenalty float64) {
	cfg := in.Config
	w := cfg.ScoringWeights

	d := geometry.Hypot(geometry.Vec2{X: c.X, Y: c.Y}, geometry.Vec2{X: in.CurrentPos.X, Y: in.CurrentPos.Y})
	distanceCost := 1 / (1 + d)
	infoGain := math.Min(float64(c.Size)/50, 1)

	historyPenalty = 0
	for _, v := range in.Visited {
		dv := geometry.Hypot(geometry.Vec2{X: c.X, Y: c.Y}, geometry.Vec2{X: v.X, Y: v.Y})
		if dv < cfg.VisitedGoalPenaltyRadius {
			historyPenalty += 0.5 * (1 - dv/cfg.VisitedGoalPenaltyRadius)
		}
	}

	densityPenalty := localDensity(in.Grid, c.X, c.Y, cfg.LocalDensityRadius)

	directionBonus := 0.0
	if in.LastGoalDirection != nil {
		dir := unit(geometry.Vec2{X: c.X - in.CurrentPos.X, Y: c.Y - in.CurrentPos.Y})
		dot := dir.X*in.LastGoalDirection.X + dir.Y*in.LastGoalDirection.Y
		if dot > 0 {
			directionBonus = dot * w.Consistency
		}
	}

	score = w.Distance*distanceCost + w.InfoGain*infoGain - w.History*historyPenalty - w.Density*densityPenalty + directionBonus
	return score, historyPenalty
}

// localDensity estimates occupied/unknown fraction in a disk around (x,y):
// occupiedFraction + 0.3*unknownFraction, clamped to [0,1].
func localDensity(g *grid.OccupancyGrid, x, y, radius float64) float64 {
	cells := int(math.Ceil(radius / g.Resolution))
	gx, gy := g.WorldToGrid(x, y)

	total, occupied, unknown := 0, 0, 0
	for dy := -cells; dy <= cells; dy++ {
		for dx := -cells; dx <= cells; dx++ {
			wx, wy := g.GridToWorld(gx+dx, gy+dy)
			if geometry.Hypot(geometry.Vec2{X: x, Y: y}, geometry.Vec2{X: wx, Y: wy}) > radius {
				continue
			}
			total++
			switch g.Get(gx+dx, gy+dy) {
			case grid.Occupied:
				occupied++
			case grid.Unknown:
				unknown++
			}
		}
	}
	if total == 0 {
		return 0
	}
	density := float64(occupied)/float64(total) + 0.3*float64(unknown)/float64(total)
	return clamp(density, 0, 1)
}

func unit(v geometry.Vec2) geometry.Vec2 {
	n := math.Hypot(v.X, v.Y)
	if n == 0 {
		return geometry.Vec2{}
	}
	return geometry.Vec2{X: v.X / n, Y: v.Y / n}
}
