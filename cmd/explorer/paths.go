package main

import (
	"fmt"

	"github.com/skywave-robotics/groundstation/internal/security"
)

// validateProcessPaths guards the two flags this binary writes to
// (status-log, snapshot-dir) against path traversal: both must resolve
// within the current working directory or the OS temp directory, the
// same boundary the teacher's export tooling enforces on user-supplied
// output paths. engine-config and replay are read-only inputs the
// operator points at deliberately and are not constrained.
func validateProcessPaths(pcfg processConfig) error {
	if pcfg.StatusLogPath != "" {
		if err := security.ValidateExportPath(pcfg.StatusLogPath); err != nil {
			return fmt.Errorf("status-log: %w", err)
		}
	}
	if pcfg.SnapshotDir != "" {
		if err := security.ValidateExportPath(pcfg.SnapshotDir); err != nil {
			return fmt.Errorf("snapshot-dir: %w", err)
		}
	}
	return nil
}
