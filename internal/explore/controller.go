// Package explore implements the exploration controller: the state machine
// that turns frontier candidates into waypoint missions, guarantees
// progress through stuck detection and unreachable-goal blacklisting, and
// falls back to an autonomous return-to-home when exploration ends.
package explore

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/skywave-robotics/groundstation/internal/bus"
	"github.com/skywave-robotics/groundstation/internal/config"
	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/frontier"
	"github.com/skywave-robotics/groundstation/internal/goalscore"
	"github.com/skywave-robotics/groundstation/internal/grid"
	"github.com/skywave-robotics/groundstation/internal/monitoring"
	"github.com/skywave-robotics/groundstation/internal/timeutil"
)

// goalKey identifies a goal for attempt-counting purposes: x,y rounded to
// the nearest 0.1 m so repeated planning at the same frontier accumulates
// against one bucket instead of drifting across floating-point noise.
type goalKey struct {
	rx, ry int64
}

func keyFor(x, y float64) goalKey {
	return goalKey{rx: int64(math.Round(x * 10)), ry: int64(math.Round(y * 10))}
}

type velocityCheck struct {
	pos geometry.Vec3
	at  time.Time
}

type pendingExecutionStart struct {
	missionID string
	fireAt    time.Time
}

// Config bundles a Controller's collaborators and initial tunables.
// Detector and EventSink are optional: a nil Detector gets a default
// instance built from Tunables, and a nil EventSink discards every event.
type Config struct {
	Adapter   bus.Adapter
	Clock     timeutil.Clock
	Detector  *frontier.Detector
	Tunables  config.ExplorationConfig
	EventSink EventSink
}

// Controller is the exploration state machine. It owns the occupancy grid
// and all planning state; the bus adapter is a referenced collaborator,
// not owned. All exported methods are safe to call from any goroutine —
// each acquires the controller's mutex for the duration of the call, since
// the spec's single-threaded event-loop model assumes a single delivery
// queue that a concrete bus transport will not always provide.
type Controller struct {
	mu sync.Mutex

	adapter  bus.Adapter
	clock    timeutil.Clock
	detector *frontier.Detector
	sink     EventSink
	cfg      config.ExplorationConfig

	grid *grid.OccupancyGrid

	isExploring          bool
	isPaused             bool
	isReturningHome      bool
	isWaitingForArrival  bool
	isPreparingNextGoal  bool

	startPos   geometry.Vec3
	currentPos geometry.Vec3
	posKnown   bool

	currentGoal      *goalscore.Goal
	currentMissionID string

	startTime         time.Time
	missionStartTime  time.Time
	lastUpdateTime    time.Time
	firstTickDeadline time.Time
	lastStatusEmit    time.Time

	lastGoalDirection *geometry.Vec2
	lastVelocityCheck *velocityCheck
	stuckStartTime    *time.Time

	goalAttempts    map[goalKey]int
	unreachableGoals []goalscore.UnreachableRecord
	visitedGoals     []goalscore.VisitedGoal
	sceneBounds      *grid.Bounds

	lastFrontierCount int
	pendingStart      *pendingExecutionStart
}

// New constructs an Idle Controller from cfg. Panics if Adapter or Clock
// is nil — both are required collaborators, not optional ones.
func New(cfg Config) *Controller {
	if cfg.Adapter == nil {
		panic("explore: Config.Adapter is required")
	}
	if cfg.Clock == nil {
		panic("explore: Config.Clock is required")
	}
	detector := cfg.Detector
	if detector == nil {
		detector = frontier.NewDetector(cfg.Tunables.ClusterRadius, cfg.Tunables.MinClusterSize)
	}
	sink := cfg.EventSink
	if sink == nil {
		sink = noopSink{}
	}

	tunables := cfg.Tunables
	return &Controller{
		adapter:      cfg.Adapter,
		clock:        cfg.Clock,
		detector:     detector,
		sink:         sink,
		cfg:          tunables,
		grid:         grid.New(tunables.GridWidth, tunables.GridHeight, tunables.Resolution, tunables.RobotRadius),
		goalAttempts: make(map[goalKey]int),
	}
}

// StartExploration transitions Idle -> Exploring: it validates a known
// position exists (or adopts opts.StartPosition), merges opts into the
// running configuration, resets the grid, seeds a free-space disk around
// the start point, and arms the first planning tick.
func (c *Controller) StartExploration(opts StartOptions) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isExploring {
		return Result{Success: false, Message: "already exploring"}
	}
	if opts.StartPosition != nil {
		c.currentPos = *opts.StartPosition
		c.posKnown = true
	}
	if !c.posKnown {
		return Result{Success: false, Message: "no known position"}
	}

	c.applyStartOptions(opts)

	c.grid.Reset()
	now := c.clock.Now()
	c.startPos = c.currentPos
	c.grid.SeedFreeDisk(c.startPos.X, c.startPos.Y, c.cfg.SeedDiskRadiusCells)

	c.isExploring = true
	c.isPaused = false
	c.isReturningHome = false
	c.isWaitingForArrival = false
	c.isPreparingNextGoal = false
	c.currentGoal = nil
	c.currentMissionID = ""
	c.lastGoalDirection = nil
	c.lastVelocityCheck = nil
	c.stuckStartTime = nil
	c.goalAttempts = make(map[goalKey]int)
	c.unreachableGoals = nil
	c.visitedGoals = nil
	c.sceneBounds = nil
	c.lastFrontierCount = 0
	c.pendingStart = nil

	c.startTime = now
	c.lastUpdateTime = now
	c.firstTickDeadline = now.Add(c.cfg.FirstTickDelay)
	c.lastStatusEmit = now

	c.emit(Event{Type: EventStarted})
	return Result{Success: true, Message: "exploration started"}
}

func (c *Controller) applyStartOptions(opts StartOptions) {
	if opts.MaxDistance != nil {
		c.cfg.MaxDistance = *opts.MaxDistance
	}
	if opts.MaxDuration != nil {
		c.cfg.MaxDuration = *opts.MaxDuration
	}
	if opts.ExplorationHeight != nil {
		c.cfg.ExplorationHeight = *opts.ExplorationHeight
	}
	if opts.EnableZExploration != nil {
		c.cfg.EnableZExploration = *opts.EnableZExploration
	}
	if opts.MinHeight != nil {
		c.cfg.MinHeight = *opts.MinHeight
	}
	if opts.MaxHeight != nil {
		c.cfg.MaxHeight = *opts.MaxHeight
	}
	if opts.BoundaryMin != nil && opts.BoundaryMax != nil {
		c.cfg.Boundary = &grid.Bounds{
			MinX: opts.BoundaryMin.X, MinY: opts.BoundaryMin.Y, MinZ: opts.BoundaryMin.Z,
			MaxX: opts.BoundaryMax.X, MaxY: opts.BoundaryMax.Y, MaxZ: opts.BoundaryMax.Z,
		}
	}
}

// PauseExploration transitions Exploring -> Exploring/Paused.
func (c *Controller) PauseExploration() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isExploring {
		return Result{Success: false, Message: "not exploring"}
	}
	c.isPaused = true
	c.emit(Event{Type: EventPaused})
	return Result{Success: true, Message: "paused"}
}

// ResumeExploration transitions Exploring/Paused -> Exploring and arms an
// immediate planning tick on the next cloud event.
func (c *Controller) ResumeExploration() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isExploring || !c.isPaused {
		return Result{Success: false, Message: "not paused"}
	}
	c.isPaused = false
	c.lastUpdateTime = c.clock.Now().Add(-c.cfg.UpdateInterval - time.Second)
	c.emit(Event{Type: EventResumed})
	return Result{Success: true, Message: "resumed"}
}

// StopExploration ends the current session: if the vehicle is more than
// 1.0 m from the start point, it issues a return-home mission and
// transitions to ReturningHome; otherwise it emits stopped immediately.
// Any in-flight mission is defensively stopped first, sending an explicit
// STOP execution command before the return-home mission goes out.
func (c *Controller) StopExploration(reason string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopExplorationLocked(reason)
}

func (c *Controller) stopExplorationLocked(reason string) Result {
	wasExploring := c.isExploring
	c.isExploring = false
	c.isPaused = false
	c.isWaitingForArrival = false
	c.isPreparingNextGoal = false
	c.pendingStart = nil

	if !wasExploring && !c.isReturningHome {
		return Result{Success: false, Message: "not exploring"}
	}

	if c.currentMissionID != "" {
		if err := c.adapter.PublishExecution(bus.ExecutionCommand{ID: c.currentMissionID, Action: bus.ActionStop}); err != nil {
			monitoring.Logf("explore: failed to stop in-flight mission %s: %v", c.currentMissionID, err)
		}
	}

	distFromStart := geometry.HypotXY(c.currentPos, c.startPos)
	if c.posKnown && distFromStart > 1.0 {
		c.publishReturnHomeMission(reason)
		return Result{Success: true, Message: "returning home: " + reason}
	}

	c.isReturningHome = false
	c.emit(Event{Type: EventStopped, Reason: reason})
	return Result{Success: true, Message: "stopped: " + reason}
}

func (c *Controller) publishReturnHomeMission(reason string) {
	now := c.clock.Now()
	missionID := fmt.Sprintf("return_home_%d", now.UnixMilli())

	mission := bus.Mission{
		ID:    missionID,
		Tasks: []bus.Waypoint{{Position: bus.Position{X: c.startPos.X, Y: c.startPos.Y, Z: c.currentPos.Z}, Yaw: 0}},
	}
	if err := c.adapter.PublishMission(mission); err != nil {
		monitoring.Logf("explore: failed to publish return-home mission: %v", err)
	}
	c.currentMissionID = missionID
	c.pendingStart = &pendingExecutionStart{missionID: missionID, fireAt: now.Add(c.cfg.MissionStartDelay)}
	c.isReturningHome = true
	_ = reason
}

// Reset stops exploration (if running) and returns the controller to its
// freshly-constructed Idle state, clearing the grid and all bookkeeping.
func (c *Controller) Reset() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isExploring || c.isReturningHome {
		c.stopExplorationLocked("reset")
	}
	c.grid.Reset()
	c.isReturningHome = false
	c.currentGoal = nil
	c.currentMissionID = ""
	c.goalAttempts = make(map[goalKey]int)
	c.unreachableGoals = nil
	c.visitedGoals = nil
	c.sceneBounds = nil
	c.lastFrontierCount = 0
	return Result{Success: true, Message: "reset"}
}

// SetROI enables ROI filtering against the given closed polygon.
func (c *Controller) SetROI(polygon []geometry.Vec2) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(polygon) < 3 {
		return Result{Success: false, Message: "roi polygon needs at least 3 vertices"}
	}
	c.cfg.UseROI = true
	c.cfg.ROIPolygon = polygon
	return Result{Success: true, Message: "roi set"}
}

// ClearROI disables ROI filtering.
func (c *Controller) ClearROI() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.UseROI = false
	c.cfg.ROIPolygon = nil
	return Result{Success: true, Message: "roi cleared"}
}

// SetScoringWeights applies patch to the scoring weights in use, validating
// the merged result before committing it.
func (c *Controller) SetScoringWeights(patch config.ScoringWeightsPatch) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged, err := patch.Apply(c.cfg.ScoringWeights)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	c.cfg.ScoringWeights = merged
	return Result{Success: true, Message: "scoring weights updated"}
}

// GetScoringWeights returns the scoring weights currently in effect.
func (c *Controller) GetScoringWeights() config.ScoringWeights {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.ScoringWeights
}

// GetMapData exports a snapshot of the occupancy grid.
func (c *Controller) GetMapData() MapData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return MapData{
		Width:      c.grid.Width,
		Height:     c.grid.Height,
		Resolution: c.grid.Resolution,
		OriginX:    c.grid.OriginX,
		OriginY:    c.grid.OriginY,
		Cells:      c.grid.Cells(),
		Stats:      c.grid.Counts(),
	}
}

// GetStatus returns the current telemetry snapshot.
func (c *Controller) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildStatusLocked()
}

func (c *Controller) buildStatusLocked() Status {
	exploredArea := c.grid.ExploredArea()
	totalArea := float64(c.grid.Width*c.grid.Height) * c.grid.Resolution * c.grid.Resolution
	pct := 0.0
	if totalArea > 0 {
		pct = exploredArea / totalArea * 100
	}
	elapsed := time.Duration(0)
	if c.isExploring || c.isReturningHome {
		elapsed = c.clock.Now().Sub(c.startTime)
	}
	return Status{
		IsExploring:        c.isExploring,
		IsPaused:           c.isPaused,
		FrontiersCount:     c.lastFrontierCount,
		ExploredArea:       exploredArea,
		ExploredPercentage: pct,
		ElapsedTime:        elapsed,
		DistanceFromStart:  geometry.HypotXY(c.currentPos, c.startPos),
		CurrentGoal:        c.currentGoal,
		MapStats:           c.grid.Counts(),
	}
}

// OnPointCloud is the cloud-event handler: it updates the occupancy grid,
// runs a planning step when the update interval has elapsed and the
// controller is not blocked waiting for arrival, and checks for an
// arrival timeout on the currently in-flight goal.
func (c *Controller) OnPointCloud(cloud bus.PointCloud) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.firePendingStartLocked(now)
	c.emitPeriodicStatusLocked(now)

	if !c.isExploring {
		return
	}

	points := make([]geometry.Vec3, 0, len(cloud.Points))
	for _, p := range cloud.Points {
		points = append(points, geometry.Vec3{X: p.X, Y: p.Y, Z: p.Z})
	}
	c.grid.UpdateFromCloud(c.currentPos, points, c.cfg.CloudDownsampleStride)
	c.grid.InflateObstacles()

	if c.sceneBounds == nil {
		if b, ok := grid.DeriveSceneBounds(points); ok {
			c.sceneBounds = &b
		}
	}

	if !c.isPaused && (!c.isWaitingForArrival || c.isPreparingNextGoal) && now.Sub(c.lastUpdateTime) > c.cfg.UpdateInterval && now.After(c.firstTickDeadline) {
		c.lastUpdateTime = now
		c.planningStepLocked(now)
	}

	if c.isWaitingForArrival && now.Sub(c.missionStartTime) > c.cfg.ArrivalTimeout {
		c.recordFailedAttemptLocked(*c.currentGoal)
		c.isWaitingForArrival = false
	}
}

// OnOdometry is the pose-event handler: it updates currentPos, drives
// return-home completion detection, and (while waiting for arrival) runs
// stuck detection and the arrival/receding-horizon checks.
func (c *Controller) OnOdometry(odom bus.Odometry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.firePendingStartLocked(now)
	c.emitPeriodicStatusLocked(now)

	c.currentPos = geometry.Vec3{X: odom.Position.X, Y: odom.Position.Y, Z: odom.Position.Z}
	c.posKnown = true

	if c.isReturningHome {
		if geometry.HypotXY(c.currentPos, c.startPos) < 0.5 {
			c.isReturningHome = false
			c.currentMissionID = ""
			c.emit(Event{Type: EventReturned})
		}
		return
	}

	if !c.isWaitingForArrival || c.currentGoal == nil {
		return
	}

	goalPos := geometry.Vec3{X: c.currentGoal.X, Y: c.currentGoal.Y, Z: c.currentGoal.Z}
	dist := geometry.HypotXY(c.currentPos, goalPos)

	if dist < c.cfg.ArrivalDistance {
		c.visitedGoals = append(c.visitedGoals, goalscore.VisitedGoal{X: c.currentGoal.X, Y: c.currentGoal.Y})
		delete(c.goalAttempts, keyFor(c.currentGoal.X, c.currentGoal.Y))
		c.isWaitingForArrival = false
		c.stuckStartTime = nil
		c.lastVelocityCheck = nil
		return
	}

	c.checkStuckLocked(now, odom)

	if dist < c.cfg.RecedingHorizonDistance {
		c.isPreparingNextGoal = true
	}
}

func (c *Controller) checkStuckLocked(now time.Time, odom bus.Odometry) {
	if c.lastVelocityCheck != nil {
		dt := now.Sub(c.lastVelocityCheck.at)
		if dt > 0 {
			v := geometry.HypotXY(c.currentPos, c.lastVelocityCheck.pos) / dt.Seconds()
			if v < c.cfg.StuckVelocityThreshold {
				if c.stuckStartTime == nil {
					t := now
					c.stuckStartTime = &t
				} else if now.Sub(*c.stuckStartTime) >= c.cfg.StuckTimeout {
					c.recordFailedAttemptLocked(*c.currentGoal)
					c.isWaitingForArrival = false
					c.stuckStartTime = nil
				}
			} else {
				c.stuckStartTime = nil
			}
		}
	}
	c.lastVelocityCheck = &velocityCheck{pos: c.currentPos, at: now}
}

// OnMissionReceipt is an optional acknowledgement hook; the engine does
// not require it for correctness.
func (c *Controller) OnMissionReceipt(bus.MissionReceipt) {}

// Tick is the clock-driven event source: it fires any pending delayed
// execution-start publish and emits a periodic status event, without
// requiring a cloud or pose event to arrive. A host wires this to its own
// periodic timer (see cmd/explorer).
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.firePendingStartLocked(now)
	c.emitPeriodicStatusLocked(now)
}

func (c *Controller) firePendingStartLocked(now time.Time) {
	if c.pendingStart == nil {
		return
	}
	if now.Before(c.pendingStart.fireAt) {
		return
	}
	id := c.pendingStart.missionID
	c.pendingStart = nil
	if err := c.adapter.PublishExecution(bus.ExecutionCommand{ID: id, Action: bus.ActionStart}); err != nil {
		monitoring.Logf("explore: failed to publish execution start for %s: %v", id, err)
	}
}

func (c *Controller) emitPeriodicStatusLocked(now time.Time) {
	if !c.isExploring {
		return
	}
	if now.Sub(c.lastStatusEmit) < c.cfg.StatusInterval {
		return
	}
	c.lastStatusEmit = now
	c.emit(Event{Type: EventStatus, StatusSnapshot: c.buildStatusLocked()})
}

// recordFailedAttemptLocked increments the attempt counter for goal's key;
// once it reaches MaxAttempts the goal is moved to the unreachable
// blacklist.
func (c *Controller) recordFailedAttemptLocked(goal goalscore.Goal) {
	key := keyFor(goal.X, goal.Y)
	c.goalAttempts[key]++
	if c.goalAttempts[key] >= c.cfg.MaxAttempts {
		c.unreachableGoals = append(c.unreachableGoals, goalscore.UnreachableRecord{X: goal.X, Y: goal.Y})
		delete(c.goalAttempts, key)
	}
}

// planningStepLocked runs a single planning tick: budget checks, frontier
// detection, goal scoring, and mission publish.
func (c *Controller) planningStepLocked(now time.Time) {
	if now.Sub(c.startTime) > c.cfg.MaxDuration {
		c.stopExplorationLocked("timeout")
		return
	}
	if geometry.HypotXY(c.currentPos, c.startPos) > c.cfg.MaxDistance {
		c.stopExplorationLocked("max_distance")
		return
	}

	frontiers := c.detector.Detect(c.grid, c.currentPos.X, c.currentPos.Y, c.cfg.MaxDistance)
	c.lastFrontierCount = len(frontiers)
	if len(frontiers) == 0 {
		c.stopExplorationLocked("complete")
		return
	}

	candidates := make([]goalscore.Candidate, 0, len(frontiers))
	for _, f := range frontiers {
		candidates = append(candidates, goalscore.Candidate{X: f.X, Y: f.Y, Size: f.Size})
	}

	in := goalscore.Input{
		Candidates:        candidates,
		CurrentPos:        c.currentPos,
		Grid:              c.grid,
		Config:            c.cfg,
		Unreachable:       c.unreachableGoals,
		Visited:           c.visitedGoals,
		LastGoalDirection: c.lastGoalDirection,
		SceneBounds:       c.sceneBounds,
		ExploredArea:      c.grid.ExploredArea(),
	}

	goal, dir, ok := goalscore.Select(in)
	if !ok {
		c.stopExplorationLocked("no_valid_frontier")
		return
	}

	c.currentGoal = &goal
	c.lastGoalDirection = &dir
	c.isWaitingForArrival = true
	c.isPreparingNextGoal = false
	c.missionStartTime = now

	c.publishMissionLocked(goal, now)
	c.emit(Event{Type: EventStatus, StatusSnapshot: c.buildStatusLocked()})
	c.lastStatusEmit = now
}

// publishMissionLocked synthesizes a waypoint mission to goal: one
// waypoint every WaypointSpacing meters of xy distance from currentPos,
// at least two waypoints, published immediately; the START
// execution command is scheduled MissionStartDelay later via pendingStart
// so the two publishes stay strictly ordered without blocking this call.
func (c *Controller) publishMissionLocked(goal goalscore.Goal, now time.Time) {
	waypoints := interpolateWaypoints(c.currentPos, goal, c.cfg.WaypointSpacing)
	missionID := fmt.Sprintf("exploration_%d", now.UnixMilli())

	tasks := make([]bus.Waypoint, 0, len(waypoints))
	for _, wp := range waypoints {
		tasks = append(tasks, bus.Waypoint{Position: bus.Position{X: wp.X, Y: wp.Y, Z: goal.Z}, Yaw: 0})
	}

	if err := c.adapter.PublishMission(bus.Mission{ID: missionID, Tasks: tasks}); err != nil {
		monitoring.Logf("explore: failed to publish mission %s: %v", missionID, err)
	}
	c.currentMissionID = missionID
	c.pendingStart = &pendingExecutionStart{missionID: missionID, fireAt: now.Add(c.cfg.MissionStartDelay)}
}

// interpolateWaypoints linearly interpolates from start to goal.xy, one
// waypoint every spacing meters, always returning at least two points
// (start and goal) so a zero-distance goal still yields a valid mission.
func interpolateWaypoints(start geometry.Vec3, goal goalscore.Goal, spacing float64) []geometry.Vec2 {
	d := geometry.Hypot(geometry.Vec2{X: start.X, Y: start.Y}, geometry.Vec2{X: goal.X, Y: goal.Y})
	if spacing <= 0 {
		spacing = 2.0
	}
	steps := int(math.Ceil(d / spacing))
	if steps < 1 {
		steps = 1
	}

	waypoints := make([]geometry.Vec2, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		waypoints = append(waypoints, geometry.Vec2{
			X: start.X + t*(goal.X-start.X),
			Y: start.Y + t*(goal.Y-start.Y),
		})
	}
	if len(waypoints) < 2 {
		waypoints = append(waypoints, geometry.Vec2{X: goal.X, Y: goal.Y})
	}
	return waypoints
}

func (c *Controller) emit(evt Event) {
	c.sink.OnEvent(evt)
}
