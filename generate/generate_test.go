package generate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() UnitSettings {
	return UnitSettings{
		BinaryPath:    "/usr/local/bin/restic-runner",
		BaseDir:       "/opt/root/restic",
		Home:          "/root",
		NotifyCommand: "/usr/local/bin/telegram-notify",
	}
}

func unitsByName(t *testing.T, units []GeneratedUnit) map[string]string {
	t.Helper()
	res := map[string]string{}
	for _, unit := range units {
		res[unit.Name] = unit.Content
	}
	return res
}

func TestGenerateUnits(t *testing.T) {
	units, err := GenerateUnits(testSettings())
	require.NoError(t, err)

	byName := unitsByName(t, units)
	require.Len(t, byName, 4)

	backup := byName["restic-backup@.service"]
	assert.Contains(t, backup, "Type=oneshot\n")
	assert.Contains(t, backup, "Environment=HOME=/root\n")
	assert.Contains(t, backup,
		"ExecStart=/usr/local/bin/restic-runner backup --base-dir /opt/root/restic --target %i\n")
	assert.Contains(t, backup,
		`ExecStopPost=/bin/sh -c 'if [ "$$SERVICE_RESULT" != "success" ]; then /usr/local/bin/telegram-notify "Restic backup of target %i on %H failed: $$SERVICE_RESULT (status $$EXIT_STATUS)"; fi'`)

	verify := byName["restic-verify@.service"]
	assert.Contains(t, verify,
		"ExecStart=/usr/local/bin/restic-runner verify --base-dir /opt/root/restic --target %i\n")
	assert.Contains(t, verify, "Restic verification of target %i on %H failed")

	assert.Equal(t, strings.Join([]string{
		"# Generated by restic-runner, verify with 'restic-runner units check'.",
		"",
		"[Unit]",
		"Description=Scheduled restic backup of target %i",
		"",
		"[Timer]",
		"OnCalendar=daily",
		"Persistent=true",
		"RandomizedDelaySec=15m",
		"",
		"[Install]",
		"WantedBy=timers.target",
		"",
	}, "\n"), byName["restic-backup@.timer"])

	assert.Contains(t, byName["restic-verify@.timer"], "OnCalendar=weekly\n")
}

func TestGenerateUnitsSettings(t *testing.T) {

	for _, c := range []struct {
		name      string
		modify    func(settings *UnitSettings)
		expectErr bool
		validate  func(t *testing.T, byName map[string]string)
	}{
		{
			name: "no notify command",
			modify: func(settings *UnitSettings) {
				settings.NotifyCommand = ""
			},
			validate: func(t *testing.T, byName map[string]string) {
				assert.NotContains(t, byName["restic-backup@.service"], "ExecStopPost")
			},
		},
		{
			name: "custom schedules",
			modify: func(settings *UnitSettings) {
				settings.BackupSchedule = "*-*-* 03:00:00"
				settings.VerifySchedule = "Sun *-*-* 05:00:00"
			},
			validate: func(t *testing.T, byName map[string]string) {
				assert.Contains(t, byName["restic-backup@.timer"], "OnCalendar=*-*-* 03:00:00\n")
				assert.Contains(t, byName["restic-verify@.timer"], "OnCalendar=Sun *-*-* 05:00:00\n")
			},
		},
		{
			name: "percent and spaces in base dir",
			modify: func(settings *UnitSettings) {
				settings.BaseDir = "/srv/100% backups"
			},
			validate: func(t *testing.T, byName map[string]string) {
				assert.Contains(t, byName["restic-backup@.service"],
					`ExecStart=/usr/local/bin/restic-runner backup --base-dir "/srv/100%% backups" --target %i`+"\n")
			},
		},
		{
			name: "defaults",
			modify: func(settings *UnitSettings) {
				*settings = UnitSettings{}
			},
			validate: func(t *testing.T, byName map[string]string) {
				assert.Contains(t, byName["restic-backup@.service"],
					"ExecStart=/usr/local/bin/restic-runner backup --base-dir /opt/root/restic --target %i\n")
				assert.NotContains(t, byName["restic-backup@.service"], "Environment=HOME")
			},
		},
		{
			name: "relative binary path",
			modify: func(settings *UnitSettings) {
				settings.BinaryPath = "restic-runner"
			},
			expectErr: true,
		},
		{
			name: "relative base dir",
			modify: func(settings *UnitSettings) {
				settings.BaseDir = "restic"
			},
			expectErr: true,
		},
		{
			name: "single quote in notify command",
			modify: func(settings *UnitSettings) {
				settings.NotifyCommand = "notify --chat 'ops'"
			},
			expectErr: true,
		},
	} {

		t.Run(c.name, func(t *testing.T) {
			settings := testSettings()
			c.modify(&settings)

			units, err := GenerateUnits(settings)

			pass := (err != nil) == c.expectErr
			if !pass {
				t.Errorf("Error values do not match: %v %v", err, pass)
			}

			if err == nil && c.validate != nil {
				c.validate(t, unitsByName(t, units))
			}
		})
	}
}

func TestWriteUnits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "systemd")

	units, err := GenerateUnits(testSettings())
	require.NoError(t, err)

	require.NoError(t, WriteUnits(units, dir, false))

	for _, unit := range units {
		content, err := os.ReadFile(filepath.Join(dir, unit.Name))
		require.NoError(t, err)
		assert.Equal(t, unit.Content, string(content))
	}

	// Existing units are not overwritten without force
	servicePath := filepath.Join(dir, "restic-backup@.service")
	require.NoError(t, os.WriteFile(servicePath, []byte("edited"), 0644))

	assert.Error(t, WriteUnits(units, dir, false))
	content, err := os.ReadFile(servicePath)
	require.NoError(t, err)
	assert.Equal(t, "edited", string(content))

	require.NoError(t, WriteUnits(units, dir, true))
	content, err = os.ReadFile(servicePath)
	require.NoError(t, err)
	assert.Equal(t, unitsByName(t, units)["restic-backup@.service"], string(content))
}
