package bus

import "github.com/skywave-robotics/groundstation/internal/monitoring"

// LoggingAdapter is a minimal Adapter that logs every publish instead of
// sending it over a transport. It is the default Adapter for cmd/explorer
// when no real bus transport is configured — the wire transport itself is
// out of scope (see the package doc), but the engine still needs a
// concrete, runnable collaborator rather than only a test double.
type LoggingAdapter struct{}

// NewLoggingAdapter returns a LoggingAdapter.
func NewLoggingAdapter() *LoggingAdapter {
	return &LoggingAdapter{}
}

// PublishMission logs the mission that would have been sent to the vehicle.
func (LoggingAdapter) PublishMission(m Mission) error {
	monitoring.Logf("bus: publish mission %s (%d waypoints)", m.ID, len(m.Tasks))
	return nil
}

// PublishExecution logs the execution command that would have been sent.
func (LoggingAdapter) PublishExecution(cmd ExecutionCommand) error {
	monitoring.Logf("bus: publish execution %s action=%d", cmd.ID, cmd.Action)
	return nil
}
