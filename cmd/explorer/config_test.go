package main

import (
	"testing"
	"time"
)

func TestLoadProcessConfig_Defaults(t *testing.T) {
	cfg, err := loadProcessConfig(nil)
	if err != nil {
		t.Fatalf("loadProcessConfig() = %v", err)
	}
	if cfg.StatusLogPath != "explorer-status.csv" {
		t.Errorf("StatusLogPath = %q, want explorer-status.csv", cfg.StatusLogPath)
	}
	if cfg.SnapshotDir != "explorer-snapshots" {
		t.Errorf("SnapshotDir = %q, want explorer-snapshots", cfg.SnapshotDir)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", cfg.TickInterval)
	}
	if cfg.StartZ != 1 {
		t.Errorf("StartZ = %v, want 1", cfg.StartZ)
	}
	if cfg.PrintVersion {
		t.Error("PrintVersion = true, want false by default")
	}
}

func TestLoadProcessConfig_VersionFlag(t *testing.T) {
	cfg, err := loadProcessConfig([]string{"--version"})
	if err != nil {
		t.Fatalf("loadProcessConfig() = %v", err)
	}
	if !cfg.PrintVersion {
		t.Error("PrintVersion = false, want true when --version is passed")
	}
}

func TestLoadProcessConfig_OverridesFromFlags(t *testing.T) {
	cfg, err := loadProcessConfig([]string{
		"--status-log", "session.csv",
		"--start-x", "2.5",
		"--tick-interval", "100ms",
	})
	if err != nil {
		t.Fatalf("loadProcessConfig() = %v", err)
	}
	if cfg.StatusLogPath != "session.csv" {
		t.Errorf("StatusLogPath = %q, want session.csv", cfg.StatusLogPath)
	}
	if cfg.StartX != 2.5 {
		t.Errorf("StartX = %v, want 2.5", cfg.StartX)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.TickInterval)
	}
}
