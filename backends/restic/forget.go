package restic

import (
	"context"
	"errors"
	"strconv"

	"github.com/jgwest/restic-runner/model"
)

// Forget applies the descriptor's retention policy to the snapshots carrying the target's tag.
func (r ResticBackend) Forget(ctx context.Context, paths model.TargetPaths) error {

	descriptor, err := extractAndValidateTarget(paths)
	if err != nil {
		return err
	}

	if descriptor.Retention.IsEmpty() {
		return &model.ConfigError{Path: paths.RepoConfig, Err: errors.New("no retention policy defined")}
	}

	invocation, err := r.generateResticDirectInvocation(descriptor, paths)
	if err != nil {
		return err
	}

	_, err = r.execute(ctx, "forget", withArgs(invocation, forgetArgs(descriptor)...))
	return err
}

func forgetArgs(descriptor model.RepositoryDescriptor) []string {
	retention := descriptor.Retention

	args := []string{"forget", "--tag", descriptor.EffectiveTag()}

	for _, keep := range []struct {
		flag  string
		value int
	}{
		{"--keep-last", retention.KeepLast},
		{"--keep-hourly", retention.KeepHourly},
		{"--keep-daily", retention.KeepDaily},
		{"--keep-weekly", retention.KeepWeekly},
		{"--keep-monthly", retention.KeepMonthly},
		{"--keep-yearly", retention.KeepYearly},
	} {
		if keep.value > 0 {
			args = append(args, keep.flag, strconv.Itoa(keep.value))
		}
	}

	if retention.Prune {
		args = append(args, "--prune")
	}

	return args
}
