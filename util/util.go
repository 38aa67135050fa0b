package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"github.com/jgwest/restic-runner/model"
	"github.com/rs/zerolog/log"
)

// Expand returns the input string, replacing $var with descriptor substitutions, or env vars, in that order.
// '$$' is a literal '$'.
func Expand(input string, substitutions []model.Substitution) (output string, err error) {

	values := map[string]string{}
	for _, substitution := range substitutions {
		values[substitution.Name] = substitution.Value
	}

	output = os.Expand(input, func(key string) string {

		if key == "$" {
			return "$"
		}

		if val, contains := values[key]; contains {
			return val
		}

		if value, contains := os.LookupEnv(key); contains {
			return value
		}

		if err == nil {
			err = fmt.Errorf("unable to find value for '%s'", key)
		}

		return ""
	})

	return
}

// ExecRunner is the model.Runner that launches real child processes.
type ExecRunner struct {
	// Stdout and Stderr default to the process's own, so output lands in the journal.
	Stdout io.Writer
	Stderr io.Writer
}

var _ model.Runner = ExecRunner{}

func (r ExecRunner) Run(ctx context.Context, invocation model.Invocation) (model.Result, error) {

	if len(invocation.Args) == 0 {
		return model.Result{}, &model.LaunchError{Err: errors.New("empty command line")}
	}

	envKeys := make([]string, 0, len(invocation.Env))
	for k := range invocation.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)

	// Values may hold secrets, so only the names are logged
	log.Info().Strs("args", invocation.Args).Strs("env", envKeys).Msg("Running command")

	cmd := exec.CommandContext(ctx, invocation.Args[0], invocation.Args[1:]...)
	cmd.Env = MergeEnv(os.Environ(), invocation.Env)
	cmd.Stderr = r.stderr()

	var stdout bytes.Buffer
	if invocation.CaptureOutput {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = r.stdout()
	}

	err := cmd.Run()
	if err == nil {
		return model.Result{ExitCode: 0, Stdout: stdout.Bytes()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return model.Result{ExitCode: exitStatus(exitErr), Stdout: stdout.Bytes()}, nil
	}

	return model.Result{}, &model.LaunchError{Binary: invocation.Args[0], Err: err}
}

func (r ExecRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r ExecRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// exitStatus follows the shell convention of 128+signal for a child killed by a signal.
func exitStatus(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}

// MergeEnv returns base ('KEY=value' entries) with overrides applied. Overridden keys are
// removed from their original position and appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {

	res := make([]string, 0, len(base)+len(overrides))

	for _, entry := range base {
		key := entry
		if index := strings.Index(entry, "="); index >= 0 {
			key = entry[:index]
		}
		if _, overridden := overrides[key]; overridden {
			continue
		}
		res = append(res, entry)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		res = append(res, k+"="+overrides[k])
	}

	return res
}
