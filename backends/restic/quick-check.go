package restic

import (
	"context"

	"github.com/jgwest/restic-runner/model"
)

// QuickCheck checks the repository structure without reading pack data.
func (r ResticBackend) QuickCheck(ctx context.Context, paths model.TargetPaths) error {

	descriptor, err := extractAndValidateTarget(paths)
	if err != nil {
		return err
	}

	invocation, err := r.generateResticDirectInvocation(descriptor, paths)
	if err != nil {
		return err
	}

	_, err = r.execute(ctx, "check", withArgs(invocation, "check"))
	return err
}
