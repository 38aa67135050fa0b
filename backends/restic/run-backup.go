package restic

import (
	"context"
	"errors"

	"github.com/jgwest/restic-runner/model"
	"github.com/rs/zerolog/log"
)

// Backup creates a snapshot of the target's folders. If sourceConfigPath is non-empty, the
// folders and excludes are read from it, otherwise from the repository descriptor.
func (r ResticBackend) Backup(ctx context.Context, paths model.TargetPaths, sourceConfigPath string) error {

	descriptor, err := extractAndValidateTarget(paths)
	if err != nil {
		return err
	}

	dirs, excludes := descriptor.Dirs, descriptor.Exclude
	dirsPath := paths.RepoConfig

	if sourceConfigPath != "" {
		source, err := model.ReadSourceConfig(sourceConfigPath)
		if err != nil {
			return err
		}
		dirs, excludes = source.Dirs, source.Exclude
		dirsPath = sourceConfigPath
	}

	if len(dirs) == 0 {
		return &model.ConfigError{Path: dirsPath, Err: errors.New("at least one folder is required")}
	}

	expandedDirs, err := expandAll(dirs, descriptor.Substitutions)
	if err != nil {
		return &model.ConfigError{Path: dirsPath, Err: err}
	}

	expandedExcludes, err := expandAll(excludes, descriptor.Substitutions)
	if err != nil {
		return &model.ConfigError{Path: dirsPath, Err: err}
	}

	invocation, err := r.generateResticDirectInvocation(descriptor, paths)
	if err != nil {
		return err
	}

	args := []string{"backup"}
	args = append(args, expandedDirs...)
	for _, exclude := range expandedExcludes {
		args = append(args, "--exclude", exclude)
	}
	args = append(args, "--tag", descriptor.EffectiveTag())

	log.Info().Strs("dirs", expandedDirs).Str("tag", descriptor.EffectiveTag()).Msg("Backing up folders")

	_, err = r.execute(ctx, "backup", withArgs(invocation, args...))
	return err
}
