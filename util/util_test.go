package util

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jgwest/restic-runner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerExitStatus(t *testing.T) {

	for _, c := range []struct {
		name         string
		script       string
		expectedCode int
	}{
		{"success", "exit 0", 0},
		{"fatal", "exit 1", 1},
		{"incomplete backup", "exit 3", 3},
		{"repository does not exist", "exit 10", 10},
		{"killed", "kill -TERM $$", 128 + 15},
	} {
		t.Run(c.name, func(t *testing.T) {
			runner := ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

			result, err := runner.Run(context.Background(), model.Invocation{Args: []string{"/bin/sh", "-c", c.script}})

			require.NoError(t, err)
			assert.Equal(t, c.expectedCode, result.ExitCode)
		})
	}
}

func TestExecRunnerLaunchError(t *testing.T) {
	runner := ExecRunner{}

	_, err := runner.Run(context.Background(), model.Invocation{Args: []string{"/nonexistent/restic", "version"}})

	var launchErr *model.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "/nonexistent/restic", launchErr.Binary)
	assert.Equal(t, model.ExitLaunch, model.ExitCode(err))

	_, err = runner.Run(context.Background(), model.Invocation{})
	assert.True(t, errors.As(err, &launchErr))
}

func TestExecRunnerEnvironmentAndOutput(t *testing.T) {
	var stdout bytes.Buffer
	runner := ExecRunner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	t.Setenv("RESTIC_RUNNER_TEST_INHERITED", "inherited")

	result, err := runner.Run(context.Background(), model.Invocation{
		Args: []string{"/bin/sh", "-c", `echo "$HOME $RESTIC_RUNNER_TEST_INHERITED $AWS_ACCESS_KEY_ID"`},
		Env: map[string]string{
			"HOME":              "/var/lib/restic",
			"AWS_ACCESS_KEY_ID": "id",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Empty(t, result.Stdout)
	assert.Equal(t, "/var/lib/restic inherited id\n", stdout.String())

	stdout.Reset()

	result, err = runner.Run(context.Background(), model.Invocation{
		Args:          []string{"/bin/sh", "-c", `echo '[]'; exit 11`},
		CaptureOutput: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, result.ExitCode)
	assert.Equal(t, "[]\n", string(result.Stdout))
	assert.Empty(t, stdout.String())
}

func TestMergeEnv(t *testing.T) {
	res := MergeEnv(
		[]string{"PATH=/usr/bin", "HOME=/root", "EMPTY="},
		map[string]string{"HOME": "/home/backup", "B": "2", "A": "1"})

	assert.Equal(t, []string{"PATH=/usr/bin", "EMPTY=", "A=1", "B=2", "HOME=/home/backup"}, res)
}

func TestExpand(t *testing.T) {
	t.Setenv("RESTIC_RUNNER_TEST_BUCKET", "from-env")

	substitutions := []model.Substitution{{Name: "BUCKET", Value: "photos"}}

	for _, c := range []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{"no variables", "/srv/photos", "/srv/photos", false},
		{"substitution", "s3:host/${BUCKET}", "s3:host/photos", false},
		{"environment", "s3:host/$RESTIC_RUNNER_TEST_BUCKET", "s3:host/from-env", false},
		{"missing", "s3:host/${RESTIC_RUNNER_TEST_MISSING}", "", true},
		{"escaped dollar", "/srv/$$BUCKET/a$$b", "/srv/$BUCKET/a$b", false},
		{"bare dollar", "/srv/a$1", "", true},
	} {
		t.Run(c.name, func(t *testing.T) {
			output, err := Expand(c.input, substitutions)

			pass := (err != nil) == c.expectErr
			if !pass {
				t.Errorf("Error values do not match: %v %v", err, pass)
			}
			if !c.expectErr {
				assert.Equal(t, c.expected, output)
			}
		})
	}
}

func TestUnitFile(t *testing.T) {
	unit := NewUnitFile()
	unit.Header("Generated")

	unit.Section("Unit").Set("Description", "Restic backup of target %i")
	unit.Section("Service").
		Set("Type", "oneshot").
		SetEnv("HOME", "/root")
	unit.Section("Service").SetEnv("NAME", "a b")

	expected := strings.Join([]string{
		"# Generated",
		"",
		"[Unit]",
		"Description=Restic backup of target %i",
		"",
		"[Service]",
		"Type=oneshot",
		"Environment=HOME=/root",
		`Environment="NAME=a b"`,
		"",
	}, "\n")

	assert.Equal(t, expected, unit.ToString())
}

func TestQuoteUnitValue(t *testing.T) {
	assert.Equal(t, "/usr/local/bin/restic-runner", QuoteUnitValue("/usr/local/bin/restic-runner"))
	assert.Equal(t, `"/opt/my backups/config"`, QuoteUnitValue("/opt/my backups/config"))
	assert.Equal(t, `"say \"hi\""`, QuoteUnitValue(`say "hi"`))
}
