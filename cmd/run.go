package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run (repo config path) (credential path) -- (restic args...)",
	Short: "Run restic with arbitrary arguments against the target's repository",
	Args:  targetArgs(1, -1),
	RunE: func(cmd *cobra.Command, args []string) error {

		paths, rest, err := resolveTargetPaths(newResolver(), args)
		if err != nil {
			return err
		}

		return newBackend().Run(cmd.Context(), paths, rest)
	},
}

var initRepoCmd = &cobra.Command{
	Use:   "init (repo config path) (credential path)",
	Short: "Initialize the target's repository",
	Args:  targetArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {

		paths, _, err := resolveTargetPaths(newResolver(), args)
		if err != nil {
			return err
		}

		return newBackend().Init(cmd.Context(), paths)
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget (repo config path) (credential path)",
	Short: "Apply the repository descriptor's retention policy",
	Args:  targetArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {

		paths, _, err := resolveTargetPaths(newResolver(), args)
		if err != nil {
			return err
		}

		return newBackend().Forget(cmd.Context(), paths)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initRepoCmd)
	rootCmd.AddCommand(forgetCmd)
}
