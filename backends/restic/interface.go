package restic

import (
	"time"

	"github.com/jgwest/restic-runner/model"
	"github.com/jgwest/restic-runner/util"
)

const DefaultBinary = "restic"

// ResticBackend turns a target's repository descriptor and credential into restic invocations.
type ResticBackend struct {
	// Binary is the restic executable, looked up in PATH if not absolute.
	Binary string

	// Home is exported as HOME to restic, which keeps its cache under it. Empty leaves the inherited value.
	Home string

	Runner model.Runner

	Now func() time.Time
}

func NewResticBackend(binary string, home string) ResticBackend {
	return ResticBackend{
		Binary: binary,
		Home:   home,
		Runner: util.ExecRunner{},
		Now:    time.Now,
	}
}

func (r ResticBackend) binary() string {
	if r.Binary == "" {
		return DefaultBinary
	}
	return r.Binary
}

func (r ResticBackend) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
