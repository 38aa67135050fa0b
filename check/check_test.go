package check

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgwest/restic-runner/generate"
	"github.com/jgwest/restic-runner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCheck(t *testing.T) {
	settings := generate.UnitSettings{
		BinaryPath:    "/usr/local/bin/restic-runner",
		BaseDir:       "/opt/root/restic",
		Home:          "/root",
		NotifyCommand: "/usr/local/bin/telegram-notify",
	}

	dir := t.TempDir()

	units, err := generate.GenerateUnits(settings)
	require.NoError(t, err)
	require.NoError(t, generate.WriteUnits(units, dir, false))

	var out bytes.Buffer
	require.NoError(t, RunCheck(settings, dir, &out))
	assert.Empty(t, out.String())

	// An installed unit generated with a different schedule is reported
	changed := settings
	changed.BackupSchedule = "hourly"

	out.Reset()
	err = RunCheck(changed, dir, &out)

	var driftErr *model.UnitDriftError
	require.True(t, errors.As(err, &driftErr))
	assert.Equal(t, []string{filepath.Join(dir, "restic-backup@.timer")}, driftErr.Files)
	assert.Equal(t, model.ExitUnitDrift, model.ExitCode(err))
	assert.Contains(t, out.String(), "Mismatch detected")

	// A missing unit is reported
	require.NoError(t, os.Remove(filepath.Join(dir, "restic-verify@.service")))

	out.Reset()
	err = RunCheck(settings, dir, &out)
	require.True(t, errors.As(err, &driftErr))
	assert.Equal(t, []string{filepath.Join(dir, "restic-verify@.service")}, driftErr.Files)
	assert.Contains(t, out.String(), "Missing unit")
}
