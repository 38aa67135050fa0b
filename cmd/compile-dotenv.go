package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jgwest/restic-runner/backends/restic"
	"github.com/jgwest/restic-runner/model"
	"github.com/spf13/cobra"
)

var compileDotenvCmd = &cobra.Command{
	Use:   "compile-dotenv (repo config path)",
	Short: "Print the repository descriptor's environment in a form that can be sourced",
	Args: func(cmd *cobra.Command, args []string) error {
		if target == "" && len(args) != 1 {
			return &model.UsageError{Err: errors.New("argument required: (repo config path)")}
		}
		if target != "" && len(args) != 0 {
			return &model.UsageError{Err: errors.New("no arguments expected when --target is set")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {

		repoConfigPath := ""
		if target != "" {
			repoConfigPath = newResolver().Resolve(target).RepoConfig
		} else {
			repoConfigPath = args[0]
		}

		return restic.CompileDotenv(repoConfigPath, os.Stdout)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve (target)",
	Short: "Print the configuration paths of a target",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &model.UsageError{Err: errors.New("argument required: (target)")}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := newResolver()
		paths := resolver.Resolve(args[0])

		fmt.Println(paths.RepoConfig)
		fmt.Println(paths.Credential)
		fmt.Println(resolver.SourceConfigPath(args[0]))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileDotenvCmd)
	rootCmd.AddCommand(resolveCmd)
}
