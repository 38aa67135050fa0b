package model

import (
	"errors"
	"fmt"
)

// Exit codes for failures raised by the wrapper itself. None of these are
// produced by restic (0, 1, 2, 3, 10, 11, 12, 130), so the init system hook can
// tell a wrapper failure from a tool failure.
const (
	ExitOK             = 0
	ExitUsage          = 64
	ExitStaleSnapshots = 65
	ExitUnitDrift      = 66
	ExitInternal       = 70
	ExitConfig         = 78
	ExitLaunch         = 127
)

// ConfigError reports a required configuration file that is missing, unreadable or invalid.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in '%s': %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LaunchError reports that the external tool could not be started at all.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("unable to launch '%s': %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ToolError reports that the external tool ran and exited non-zero. The exit
// code is propagated unchanged.
type ToolError struct {
	Subcommand string
	ExitCode   int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("restic %s exited with status %d", e.Subcommand, e.ExitCode)
}

// StaleSnapshotsError reports path groups that did not receive enough snapshots in the verification window.
type StaleSnapshotsError struct {
	Groups []string
}

func (e *StaleSnapshotsError) Error() string {
	return fmt.Sprintf("insufficient recent snapshots for: %v", e.Groups)
}

type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// UnitDriftError reports installed unit files that differ from the generated ones.
type UnitDriftError struct {
	Files []string
}

func (e *UnitDriftError) Error() string {
	return fmt.Sprintf("installed units differ from generated units: %v", e.Files)
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.ExitCode
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfig
	}

	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		return ExitLaunch
	}

	var staleErr *StaleSnapshotsError
	if errors.As(err, &staleErr) {
		return ExitStaleSnapshots
	}

	var driftErr *UnitDriftError
	if errors.As(err, &driftErr) {
		return ExitUnitDrift
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsage
	}

	return ExitInternal
}
