// Command explorer runs the autonomous exploration engine as a standalone
// process: it wires the occupancy grid, frontier detector, goal scorer,
// and exploration controller together behind a bus.Adapter, drives the
// controller's clock-only Tick on an interval, and records a CSV status
// log plus periodic grid PNG snapshots for offline review.
//
// The message-bus transport itself (MQTT, the binary envelope) is out of
// scope — PublishMission/PublishExecution go to a LoggingAdapter, and
// pose/cloud events are fed from an optional newline-delimited JSON replay
// file rather than a live subscription, for offline exercise of the same
// code paths a live feed would drive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skywave-robotics/groundstation/internal/bus"
	"github.com/skywave-robotics/groundstation/internal/config"
	"github.com/skywave-robotics/groundstation/internal/explore"
	"github.com/skywave-robotics/groundstation/internal/geometry"
	"github.com/skywave-robotics/groundstation/internal/monitoring"
	"github.com/skywave-robotics/groundstation/internal/security"
	"github.com/skywave-robotics/groundstation/internal/telemetry"
	"github.com/skywave-robotics/groundstation/internal/timeutil"
	"github.com/skywave-robotics/groundstation/internal/version"
)

func main() {
	pcfg, err := loadProcessConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	if pcfg.PrintVersion {
		fmt.Printf("explorer %s (commit %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if err := validateProcessPaths(pcfg); err != nil {
		log.Fatalf("validating flag paths: %v", err)
	}

	engineCfg := config.Default()
	if pcfg.EngineConfigPath != "" {
		loaded, err := config.LoadYAML(pcfg.EngineConfigPath)
		if err != nil {
			log.Fatalf("loading engine config: %v", err)
		}
		engineCfg = loaded
	}

	recorder, err := telemetry.NewStatusRecorder(pcfg.StatusLogPath)
	if err != nil {
		log.Fatalf("opening status log: %v", err)
	}
	defer recorder.Close()

	snapshotter, err := telemetry.NewGridSnapshotter(pcfg.SnapshotDir)
	if err != nil {
		log.Fatalf("creating snapshot dir: %v", err)
	}

	ctrl := explore.New(explore.Config{
		Adapter:  bus.NewLoggingAdapter(),
		Clock:    timeutil.RealClock{},
		Tunables: engineCfg,
	})

	startPos := geometry.Vec3{X: pcfg.StartX, Y: pcfg.StartY, Z: pcfg.StartZ}
	res := ctrl.StartExploration(explore.StartOptions{StartPosition: &startPos})
	if !res.Success {
		log.Fatalf("starting exploration: %s", res.Message)
	}
	monitoring.Logf("exploration started at (%.2f, %.2f, %.2f)", startPos.X, startPos.Y, startPos.Z)

	var replayEvents []replayEvent
	if pcfg.ReplayPath != "" {
		replayEvents, err = readReplayEvents(pcfg.ReplayPath)
		if err != nil {
			log.Fatalf("loading replay file: %v", err)
		}
		monitoring.Logf("loaded %d replay events from %s", len(replayEvents), pcfg.ReplayPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionStart := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return runTickLoop(groupCtx, ctrl, pcfg.TickInterval)
	})

	group.Go(func() error {
		return runStatusRecorder(groupCtx, ctrl, recorder, sessionStart, pcfg.TickInterval)
	})

	group.Go(func() error {
		return runSnapshotLoop(groupCtx, ctrl, snapshotter, pcfg.SnapshotInterval)
	})

	if len(replayEvents) > 0 {
		group.Go(func() error {
			return runReplay(groupCtx, ctrl, replayEvents, pcfg.TickInterval)
		})
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		monitoring.Logf("explorer stopped with error: %v", err)
	}
	monitoring.Logf("explorer shutdown complete")
}

// runTickLoop drives the controller's clock-only Tick at a fixed interval,
// the host-side timer the scheduling design in internal/explore relies on
// to fire delayed mission-start and periodic status events even when no
// pose/cloud event happens to arrive.
func runTickLoop(ctx context.Context, ctrl *explore.Controller, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ctrl.Tick()
		}
	}
}

// runStatusRecorder polls GetStatus on the same cadence as the tick loop
// and appends each snapshot to the CSV session log.
func runStatusRecorder(ctx context.Context, ctrl *explore.Controller, rec *telemetry.StatusRecorder, sessionStart time.Time, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			status := ctrl.GetStatus()
			if err := rec.Record(time.Since(sessionStart), status); err != nil {
				monitoring.Logf("status log write failed: %v", err)
			}
		}
	}
}

// runSnapshotLoop renders a grid PNG on the configured interval.
func runSnapshotLoop(ctx context.Context, ctrl *explore.Controller, snap *telemetry.GridSnapshotter, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := snap.Snapshot(ctrl.GetMapData()); err != nil {
				monitoring.Logf("grid snapshot failed: %v", err)
			}
		}
	}
}

// runReplay feeds recorded pose/cloud events into the controller at a
// fixed pace, standing in for a live bus subscription.
func runReplay(ctx context.Context, ctrl *explore.Controller, events []replayEvent, pace time.Duration) error {
	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for _, ev := range events {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			switch ev.Type {
			case "odometry":
				if ev.Odometry != nil {
					ctrl.OnOdometry(ev.Odometry.toOdometry())
				}
			case "cloud":
				if ev.Cloud != nil {
					ctrl.OnPointCloud(ev.Cloud.toPointCloud())
				}
			default:
				monitoring.Logf("replay: skipping unknown event type %q", ev.Type)
			}
		}
	}
	monitoring.Logf("replay finished")
	return nil
}
