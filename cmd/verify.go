package cmd

import (
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify (repo config path) (credential path)",
	Short: "Check repository consistency and that recent snapshots exist",
	Long: `Check repository consistency, reading a subset of the pack data, then check
that every backed up path has enough snapshots within the verification window
(by default 5 snapshots in the last 7 days).`,
	Args: targetArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {

		paths, _, err := resolveTargetPaths(newResolver(), args)
		if err != nil {
			return err
		}

		return newBackend().Verify(cmd.Context(), paths)
	},
}

var quickCheckCmd = &cobra.Command{
	Use:   "quick-check (repo config path) (credential path)",
	Short: "Check repository structure without reading pack data",
	Args:  targetArgs(0, 0),
	RunE: func(cmd *cobra.Command, args []string) error {

		paths, _, err := resolveTargetPaths(newResolver(), args)
		if err != nil {
			return err
		}

		return newBackend().QuickCheck(cmd.Context(), paths)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(quickCheckCmd)
}
