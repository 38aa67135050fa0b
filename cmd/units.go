package cmd

import (
	"errors"
	"os"

	"github.com/jgwest/restic-runner/check"
	"github.com/jgwest/restic-runner/generate"
	"github.com/jgwest/restic-runner/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var forceUnits bool

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Generate or check the systemd units that schedule backup and verify runs",
	Long: `Generate or check the systemd template units that schedule backup and verify
runs. The instance name of each unit is the target name, for example:

    systemctl enable --now restic-backup@photos.timer restic-verify@photos.timer

A failed run invokes the 'notify-command' setting with a message naming the
host, target and result.`,
}

var unitsGenerateCmd = &cobra.Command{
	Use:   "generate (output dir)",
	Short: "Write the systemd units to a directory",
	Args:  unitDirArgs,
	RunE: func(cmd *cobra.Command, args []string) error {

		units, err := generate.GenerateUnits(unitSettings())
		if err != nil {
			return settingsError(err)
		}

		return generate.WriteUnits(units, args[0], forceUnits)
	},
}

var unitsCheckCmd = &cobra.Command{
	Use:   "check (unit dir)",
	Short: "Output a diff between the expected units, and the installed units.",
	Args:  unitDirArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := generate.GenerateUnits(unitSettings()); err != nil {
			return settingsError(err)
		}

		return check.RunCheck(unitSettings(), args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	unitsCmd.AddCommand(unitsGenerateCmd)
	unitsCmd.AddCommand(unitsCheckCmd)

	unitsGenerateCmd.Flags().BoolVar(&forceUnits, "force", false, "overwrite existing unit files")
}

func unitDirArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &model.UsageError{Err: errors.New("argument required: (unit dir)")}
	}
	return nil
}

func unitSettings() generate.UnitSettings {
	return generate.UnitSettings{
		BinaryPath:     viper.GetString("binary-path"),
		BaseDir:        viper.GetString("base-dir"),
		Home:           viper.GetString("home"),
		NotifyCommand:  viper.GetString("notify-command"),
		BackupSchedule: viper.GetString("backup-schedule"),
		VerifySchedule: viper.GetString("verify-schedule"),
	}
}

func settingsError(err error) error {
	settingsSource := viper.ConfigFileUsed()
	if settingsSource == "" {
		settingsSource = "(flags and environment)"
	}
	return &model.ConfigError{Path: settingsSource, Err: err}
}
