package cmd

import (
	"os"

	"github.com/jgwest/restic-runner/model"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup (repo config path) (credential path) [source config path]",
	Short: "Create a snapshot of the target's folders",
	Long: `Create a snapshot of the folders listed in the source config file, or if
none is given, in the repository descriptor. With --target, the source config
'<base-dir>/config-<target>-source.json' is used if it exists.`,
	Args: targetArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {

		resolver := newResolver()

		paths, rest, err := resolveTargetPaths(resolver, args)
		if err != nil {
			return err
		}

		return newBackend().Backup(cmd.Context(), paths, sourceConfigFor(resolver, rest))
	},
}

// sourceConfigFor returns the explicit source config arg, or under --target the target's source config
// if it exists. Empty means the descriptor's own folders are used.
func sourceConfigFor(resolver model.TargetResolver, rest []string) string {
	if len(rest) == 1 {
		return rest[0]
	}

	if target != "" {
		if _, err := os.Stat(resolver.SourceConfigPath(target)); err == nil {
			return resolver.SourceConfigPath(target)
		}
	}

	return ""
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
