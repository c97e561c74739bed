package explore

import (
	"time"

	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/goalscore"
	"github.com/skywave-robotics/groundstation/internal/grid"
)

// EventType tags the payload carried by an Event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventPaused   EventType = "paused"
	EventResumed  EventType = "resumed"
	EventStopped  EventType = "stopped"
	EventReturned EventType = "returned"
	EventStatus   EventType = "status"
)

// Status is the telemetry snapshot carried by a status Event and returned
// by GetStatus.
type Status struct {
	IsExploring        bool
	IsPaused           bool
	FrontiersCount     int
	ExploredArea       float64
	ExploredPercentage float64
	ElapsedTime        time.Duration
	DistanceFromStart  float64
	CurrentGoal        *goalscore.Goal
	MapStats           grid.Counts
}

// Event is a tagged union of the controller's emitted signals: started,
// paused, resumed, stopped, returned, status. Reason is populated only on
// EventStopped; StatusSnapshot only on EventStatus.
type Event struct {
	Type           EventType
	Reason         string
	StatusSnapshot Status
}

// EventSink receives events emitted by the controller. Implementations
// must not block.
type EventSink interface {
	OnEvent(Event)
}

// noopSink discards every event; used as the default when a Controller is
// constructed without an explicit sink, mirroring the teacher's noopStats
// fallback for an optional collaborator.
type noopSink struct{}

func (noopSink) OnEvent(Event) {}

// MapData is the exported grid snapshot returned by GetMapData.
type MapData struct {
	Width      int
	Height     int
	Resolution float64
	OriginX    float64
	OriginY    float64
	Cells      []grid.CellState
	Stats      grid.Counts
}

// StartOptions carries the optional overrides accepted by StartExploration.
// Nil fields retain the controller's existing configuration.
type StartOptions struct {
	StartPosition      *geometry.Vec3
	MaxDistance        *float64
	MaxDuration        *time.Duration
	ExplorationHeight  *float64
	EnableZExploration *bool
	MinHeight          *float64
	MaxHeight          *float64
	BoundaryMin        *geometry.Vec3
	BoundaryMax        *geometry.Vec3
}

// Result is the {success, message} pair returned by every control-surface
// method.
type Result struct {
	Success bool
	Message string
}
