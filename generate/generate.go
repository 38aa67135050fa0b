package generate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgwest/restic-runner/model"
	"github.com/jgwest/restic-runner/util"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBinaryPath     = "/usr/local/bin/restic-runner"
	DefaultBackupSchedule = "daily"
	DefaultVerifySchedule = "weekly"
)

// UnitSettings are the host-specific values baked into the generated systemd units.
type UnitSettings struct {
	// BinaryPath is the absolute path of the restic-runner executable.
	BinaryPath string
	BaseDir    string
	Home       string

	// NotifyCommand is run with a single message argument when a unit fails. Empty disables notification.
	NotifyCommand string

	BackupSchedule string
	VerifySchedule string
}

type GeneratedUnit struct {
	Name    string
	Content string
}

// scheduledOperation is an operation that gets a template service and timer pair.
type scheduledOperation struct {
	subcommand  string
	description string
	schedule    string
}

// GenerateUnits returns the template units (instance parameter = target name) for scheduled backup and verify runs.
func GenerateUnits(settings UnitSettings) ([]GeneratedUnit, error) {

	if err := validateSettings(&settings); err != nil {
		return nil, err
	}

	operations := []scheduledOperation{
		{subcommand: "backup", description: "backup", schedule: settings.BackupSchedule},
		{subcommand: "verify", description: "verification", schedule: settings.VerifySchedule},
	}

	res := []GeneratedUnit{}

	for _, operation := range operations {
		res = append(res,
			GeneratedUnit{
				Name:    unitName(operation, "service"),
				Content: generateService(operation, settings).ToString(),
			},
			GeneratedUnit{
				Name:    unitName(operation, "timer"),
				Content: generateTimer(operation).ToString(),
			})
	}

	return res, nil
}

// WriteUnits writes the units into outputDir. Existing files are only replaced if force is set.
func WriteUnits(units []GeneratedUnit, outputDir string, force bool) error {

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	if !force {
		for _, unit := range units {
			outputPath := filepath.Join(outputDir, unit.Name)
			if _, err := os.Stat(outputPath); err == nil {
				return fmt.Errorf("output path already exists: %s", outputPath)
			}
		}
	}

	for _, unit := range units {
		outputPath := filepath.Join(outputDir, unit.Name)
		if err := os.WriteFile(outputPath, []byte(unit.Content), 0644); err != nil {
			return err
		}
		log.Info().Str("path", outputPath).Msg("Wrote unit")
	}

	return nil
}

func validateSettings(settings *UnitSettings) error {

	if settings.BinaryPath == "" {
		settings.BinaryPath = DefaultBinaryPath
	}
	if settings.BaseDir == "" {
		settings.BaseDir = model.DefaultBaseDir
	}
	if settings.BackupSchedule == "" {
		settings.BackupSchedule = DefaultBackupSchedule
	}
	if settings.VerifySchedule == "" {
		settings.VerifySchedule = DefaultVerifySchedule
	}

	if !filepath.IsAbs(settings.BinaryPath) {
		return fmt.Errorf("binary path must be absolute: %s", settings.BinaryPath)
	}

	if !filepath.IsAbs(settings.BaseDir) {
		return fmt.Errorf("base directory must be absolute: %s", settings.BaseDir)
	}

	// The notify command is embedded in a single-quoted 'sh -c' argument
	if strings.Contains(settings.NotifyCommand, "'") {
		return errors.New("notify command must not contain single quotes")
	}

	return nil
}

func unitName(operation scheduledOperation, suffix string) string {
	return "restic-" + operation.subcommand + "@." + suffix
}

func generateService(operation scheduledOperation, settings UnitSettings) *util.UnitFile {

	unit := util.NewUnitFile()
	unit.Header("Generated by restic-runner, verify with 'restic-runner units check'.")

	unit.Section("Unit").
		Set("Description", "Restic "+operation.description+" of target %i").
		Set("Wants", "network-online.target").
		Set("After", "network-online.target")

	service := unit.Section("Service")
	service.Set("Type", "oneshot")

	if settings.Home != "" {
		service.SetEnv("HOME", escapeSpecifiers(settings.Home))
	}

	// '%i' is expanded by systemd to the instance name. Passing it as --target lets backup
	// pick up the target's source config as well.
	service.Set("ExecStart", strings.Join([]string{
		util.QuoteUnitValue(escapeSpecifiers(settings.BinaryPath)),
		operation.subcommand,
		"--base-dir", util.QuoteUnitValue(escapeSpecifiers(settings.BaseDir)),
		"--target", "%i",
	}, " "))

	if settings.NotifyCommand != "" {
		service.Comment("Notify on failure")
		service.Set("ExecStopPost", notifyHook(operation, settings.NotifyCommand))
	}

	return unit
}

// notifyHook runs the notify command only when the service did not succeed. '$$' keeps
// systemd from expanding the variables, so the shell sees them.
func notifyHook(operation scheduledOperation, notifyCommand string) string {

	message := fmt.Sprintf("Restic %s of target %%i on %%H failed: $$SERVICE_RESULT (status $$EXIT_STATUS)",
		operation.description)

	return fmt.Sprintf("/bin/sh -c 'if [ \"$$SERVICE_RESULT\" != \"success\" ]; then %s \"%s\"; fi'",
		escapeSpecifiers(notifyCommand), message)
}

func generateTimer(operation scheduledOperation) *util.UnitFile {

	unit := util.NewUnitFile()
	unit.Header("Generated by restic-runner, verify with 'restic-runner units check'.")

	unit.Section("Unit").
		Set("Description", "Scheduled restic "+operation.description+" of target %i")

	unit.Section("Timer").
		Set("OnCalendar", operation.schedule).
		Set("Persistent", "true").
		Set("RandomizedDelaySec", "15m")

	unit.Section("Install").
		Set("WantedBy", "timers.target")

	return unit
}

// escapeSpecifiers escapes '%' so systemd does not treat it as a specifier.
func escapeSpecifiers(value string) string {
	return strings.ReplaceAll(value, "%", "%%")
}
