// Package bus defines the exploration controller's contract with the
// vehicle's message bus: the controller consumes point-cloud and odometry
// events and produces mission and execution-command publishes. The wire
// transport (MQTT, the binary envelope encoding) is not implemented here —
// Adapter is the seam a real transport plugs into.
package bus

// Point is a single 3D sample in the vehicle's current frame, with an
// optional return intensity.
type Point struct {
	X, Y, Z   float64
	Intensity float64
	HasIntensity bool
}

// PointCloud is one batch of point-cloud samples delivered to onPointCloud.
type PointCloud struct {
	Points []Point
	Stamp  int64 // unix millis, 0 if unset
}

// Position is a 3D vehicle position.
type Position struct {
	X, Y, Z float64
}

// Velocity is a 3D vehicle velocity as reported in an odometry sample.
type Velocity struct {
	X, Y, Z float64
}

// Odometry is a single pose sample delivered to onOdometry. Position is
// accepted at the top level or nested under Pose.Position by the adapter's
// decoder; by the time it reaches the controller it is always normalized
// into the Position field.
type Odometry struct {
	Position    Position
	Velocity    Velocity
	HasVelocity bool
}

// ExecutionAction is the action code carried by an ExecutionCommand.
type ExecutionAction int

const (
	ActionStart ExecutionAction = iota
	ActionPause
	ActionResume
	ActionStop
	ActionClear
)

// Waypoint is a single autopilot task within a Mission.
type Waypoint struct {
	Position Position
	Yaw      float64
}

// Mission is a published sequence of waypoints bound to a mission ID.
type Mission struct {
	ID    string
	Tasks []Waypoint
}

// ExecutionCommand starts, pauses, resumes, stops, or clears a
// previously-published mission.
type ExecutionCommand struct {
	ID     string
	Action ExecutionAction
}

// MissionReceipt is an optional acknowledgement from surrounding systems;
// the controller does not require it for correctness.
type MissionReceipt struct {
	ID      string
	Success bool
}

// Adapter is the outbound boundary the controller talks to: it publishes
// missions and execution commands. Inbound point-cloud and odometry events
// are delivered through Handlers, not through this interface. A real
// implementation owns the MQTT session and the binary envelope codec; this
// package defines the contract plus the FakeAdapter test double and the
// LoggingAdapter.
type Adapter interface {
	// PublishMission sends a new waypoint mission.
	PublishMission(m Mission) error
	// PublishExecution sends an execution command bound to an existing
	// mission ID.
	PublishExecution(cmd ExecutionCommand) error
}

// Handlers are the controller-side callbacks an Adapter implementation
// invokes as events arrive off the transport. OnMissionReceipt may be nil;
// OnPointCloud and OnOdometry must not block the caller.
type Handlers struct {
	OnPointCloud    func(PointCloud)
	OnOdometry      func(Odometry)
	OnMissionReceipt func(MissionReceipt)
}
