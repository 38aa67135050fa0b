package restic

import (
	"context"

	"github.com/jgwest/restic-runner/model"
)

// Run passes arbitrary arguments to restic, with the target's repository and credential applied.
func (r ResticBackend) Run(ctx context.Context, paths model.TargetPaths, args []string) error {

	descriptor, err := extractAndValidateTarget(paths)
	if err != nil {
		return err
	}

	invocation, err := r.generateResticDirectInvocation(descriptor, paths)
	if err != nil {
		return err
	}

	subcommand := "run"
	if len(args) > 0 {
		subcommand = args[0]
	}

	_, err = r.execute(ctx, subcommand, withArgs(invocation, args...))
	return err
}

// Init initializes the target's repository.
func (r ResticBackend) Init(ctx context.Context, paths model.TargetPaths) error {
	return r.Run(ctx, paths, []string{"init"})
}
