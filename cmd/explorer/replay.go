package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/skywave-robotics/groundstation/internal/bus"
)

// replayEvent is one line of a recorded pose/cloud session: the decoded
// shape the (out-of-scope) bus transport would have handed the controller
// via OnOdometry/OnPointCloud. Exactly one of Odometry or Cloud is set.
type replayEvent struct {
	Type     string          `json:"type"`
	Odometry *replayOdometry `json:"odometry,omitempty"`
	Cloud    *replayCloud    `json:"cloud,omitempty"`
}

type replayOdometry struct {
	Position    [3]float64 `json:"position"`
	Velocity    [3]float64 `json:"velocity"`
	HasVelocity bool       `json:"has_velocity"`
}

type replayCloud struct {
	Points [][3]float64 `json:"points"`
	Stamp  int64        `json:"stamp"`
}

// readReplayEvents parses a newline-delimited JSON replay file into bus
// events, in file order.
func readReplayEvents(path string) ([]replayEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening replay file: %w", err)
	}
	defer f.Close()

	var events []replayEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev replayEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("replay file line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading replay file: %w", err)
	}
	return events, nil
}

// toOdometry converts a replay event's odometry payload to bus.Odometry.
func (e replayOdometry) toOdometry() bus.Odometry {
	return bus.Odometry{
		Position:    bus.Position{X: e.Position[0], Y: e.Position[1], Z: e.Position[2]},
		Velocity:    bus.Velocity{X: e.Velocity[0], Y: e.Velocity[1], Z: e.Velocity[2]},
		HasVelocity: e.HasVelocity,
	}
}

// toPointCloud converts a replay event's cloud payload to bus.PointCloud.
func (e replayCloud) toPointCloud() bus.PointCloud {
	points := make([]bus.Point, len(e.Points))
	for i, p := range e.Points {
		points[i] = bus.Point{X: p[0], Y: p[1], Z: p[2]}
	}
	return bus.PointCloud{Points: points, Stamp: e.Stamp}
}
