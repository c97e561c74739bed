package bus

// FakeAdapter is an in-memory Adapter test double: it records every
// published mission and execution command and can be set to fail the next
// publish. It does not deliver point-cloud or odometry events. Mirrors the teacher's MockUDPSocket shape —
// a zero-dependency recorder a test configures and inspects directly.
type FakeAdapter struct {
	Missions   []Mission
	Executions []ExecutionCommand

	// PublishMissionError, if set, is returned by the next PublishMission
	// call and then cleared.
	PublishMissionError error
	// PublishExecutionError, if set, is returned by the next
	// PublishExecution call and then cleared.
	PublishExecutionError error
}

// NewFakeAdapter returns an empty FakeAdapter.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{}
}

// PublishMission returns the configured error, if any, without recording m;
// otherwise it records m and returns nil.
func (f *FakeAdapter) PublishMission(m Mission) error {
	if f.PublishMissionError != nil {
		err := f.PublishMissionError
		f.PublishMissionError = nil
		return err
	}
	f.Missions = append(f.Missions, m)
	return nil
}

// PublishExecution returns the configured error, if any, without recording
// cmd; otherwise it records cmd and returns nil.
func (f *FakeAdapter) PublishExecution(cmd ExecutionCommand) error {
	if f.PublishExecutionError != nil {
		err := f.PublishExecutionError
		f.PublishExecutionError = nil
		return err
	}
	f.Executions = append(f.Executions, cmd)
	return nil
}

// LastMission returns the most recently published mission and true, or a
// zero value and false if none have been published yet.
func (f *FakeAdapter) LastMission() (Mission, bool) {
	if len(f.Missions) == 0 {
		return Mission{}, false
	}
	return f.Missions[len(f.Missions)-1], true
}

// LastExecution returns the most recently published execution command and
// true, or a zero value and false if none have been published yet.
func (f *FakeAdapter) LastExecution() (ExecutionCommand, bool) {
	if len(f.Executions) == 0 {
		return ExecutionCommand{}, false
	}
	return f.Executions[len(f.Executions)-1], true
}
