package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jgwest/restic-runner/backends/restic"
	"github.com/jgwest/restic-runner/generate"
	"github.com/jgwest/restic-runner/logging"
	"github.com/jgwest/restic-runner/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// target, if set, replaces the (repo config) (credential) positional args of every restic command
var target string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "restic-runner",
	Short: "Run restic backup and verification for a named target",
	Long: `restic-runner runs restic against the repository described by a target's
configuration files, and exits with restic's own exit status.

A target's files are either passed directly:

    restic-runner verify /opt/root/restic/config-photos-repo.json /opt/root/restic/config-photos-passwd

or derived from the target name and the base directory:

    restic-runner verify --target photos

Failures raised by restic-runner itself use exit codes restic never produces:
64 usage, 65 insufficient recent snapshots, 66 unit drift, 70 internal,
78 configuration, 127 restic could not be launched.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return &model.UsageError{Err: fmt.Errorf("unknown command '%s'", args[0])}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportCLIErrorAndExit(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &model.UsageError{Err: err}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.restic-runner.yaml)")
	flags.StringVarP(&target, "target", "t", "", "target name, resolved to '<base-dir>/config-<target>-{repo.json,passwd}'")
	flags.String("base-dir", model.DefaultBaseDir, "directory holding the target configuration files")
	flags.String("restic-binary", restic.DefaultBinary, "restic executable")
	flags.String("home", "", "HOME passed to restic, for its cache (default is the current user's home)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	for _, name := range []string{"base-dir", "restic-binary", "home", "log-level", "log-format"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	viper.SetDefault("binary-path", generate.DefaultBinaryPath)
	viper.SetDefault("backup-schedule", generate.DefaultBackupSchedule)
	viper.SetDefault("verify-schedule", generate.DefaultVerifySchedule)
	viper.SetDefault("notify-command", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, homeErr := homedir.Dir()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if homeErr == nil {
		// Search config in home directory with name ".restic-runner" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".restic-runner")
	}

	viper.SetEnvPrefix("RESTIC_RUNNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	readErr := viper.ReadInConfig()

	logging.Init(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	})

	if readErr == nil {
		log.Debug().Str("path", viper.ConfigFileUsed()).Msg("Using config file")
	} else if err := checkConfigReadError(readErr, cfgFile); err != nil {
		reportCLIErrorAndExit(err)
	}

	if viper.GetString("home") == "" && homeErr == nil {
		viper.Set("home", home)
	}
}

// checkConfigReadError fails if an explicitly requested config file could not be read. An unreadable
// default config file is only a warning, and a missing one is fine.
func checkConfigReadError(readErr error, explicitPath string) error {

	if explicitPath != "" {
		return &model.ConfigError{Path: explicitPath, Err: readErr}
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(readErr, &notFound) {
		log.Warn().Err(readErr).Msg("Ignoring unreadable config file")
	}

	return nil
}

func reportCLIErrorAndExit(err error) {
	log.Error().Err(err).Msg("restic-runner failed")
	os.Exit(model.ExitCode(err))
}

func newBackend() restic.ResticBackend {
	return restic.NewResticBackend(viper.GetString("restic-binary"), viper.GetString("home"))
}

func newResolver() model.TargetResolver {
	return model.NewTargetResolver(viper.GetString("base-dir"))
}

// targetArgs validates the positional args of a restic command: the (repo config) (credential) pair,
// unless --target is set, followed by between minExtra and maxExtra further args (maxExtra < 0 is unbounded).
func targetArgs(minExtra int, maxExtra int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {

		required := 2
		if target != "" {
			required = 0
		}

		extra := len(args) - required

		if extra < minExtra || (maxExtra >= 0 && extra > maxExtra) {
			usage := "(repo config path) (credential path)"
			if target != "" {
				usage = "no config paths when --target is set"
			}
			return &model.UsageError{Err: fmt.Errorf("unexpected args for '%s', expected %s", cmd.Name(), usage)}
		}

		return nil
	}
}

// resolveTargetPaths returns the config paths and any remaining args. Args must have passed targetArgs.
func resolveTargetPaths(resolver model.TargetResolver, args []string) (model.TargetPaths, []string, error) {

	if target != "" {
		return resolver.Resolve(target), args, nil
	}

	if len(args) < 2 {
		return model.TargetPaths{}, nil, &model.UsageError{Err: errors.New("arguments required: (repo config path) (credential path)")}
	}

	return model.TargetPaths{RepoConfig: args[0], Credential: args[1]}, args[2:], nil
}
