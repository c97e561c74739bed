package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeAdapter_RecordsPublishedMissions(t *testing.T) {
	f := NewFakeAdapter()
	m := Mission{ID: "exploration_1", Tasks: []Waypoint{{Position: Position{X: 1, Y: 0, Z: 1}}}}

	require.NoError(t, f.PublishMission(m))

	got, ok := f.LastMission()
	require.True(t, ok)
	require.Equal(t, m, got)
}

func TestFakeAdapter_ReturnsAndClearsConfiguredError(t *testing.T) {
	f := NewFakeAdapter()
	f.PublishMissionError = errors.New("broker unreachable")

	err := f.PublishMission(Mission{ID: "m1"})
	require.Error(t, err)

	require.NoError(t, f.PublishMission(Mission{ID: "m2"}))
	got, ok := f.LastMission()
	require.True(t, ok)
	require.Equal(t, "m2", got.ID)
}

func TestFakeAdapter_LastExecutionEmptyInitially(t *testing.T) {
	f := NewFakeAdapter()
	_, ok := f.LastExecution()
	require.False(t, ok)
}
