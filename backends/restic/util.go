package restic

import (
	"context"
	"fmt"

	"github.com/jgwest/restic-runner/model"
	"github.com/jgwest/restic-runner/util"
)

// extractAndValidateTarget reads the repository descriptor and checks the credential file,
// before anything is launched.
func extractAndValidateTarget(paths model.TargetPaths) (model.RepositoryDescriptor, error) {

	descriptor, err := model.ReadRepositoryDescriptor(paths.RepoConfig)
	if err != nil {
		return model.RepositoryDescriptor{}, err
	}

	if err := model.CheckCredential(paths.Credential); err != nil {
		return model.RepositoryDescriptor{}, err
	}

	return descriptor, nil
}

// generateResticDirectInvocation returns the restic command line and environment shared by every subcommand.
func (r ResticBackend) generateResticDirectInvocation(descriptor model.RepositoryDescriptor, paths model.TargetPaths) (model.Invocation, error) {

	// Env values are secrets, passed to restic as written
	env := map[string]string{}
	for k, v := range descriptor.Env {
		env[k] = v
	}

	if _, exists := env["HOME"]; !exists && r.Home != "" {
		env["HOME"] = r.Home
	}

	url, err := util.Expand(descriptor.URL, descriptor.Substitutions)
	if err != nil {
		return model.Invocation{}, &model.ConfigError{Path: paths.RepoConfig, Err: fmt.Errorf("url: %w", err)}
	}

	execInvocation := []string{
		r.binary(),
		"-r",
		url,
		"--password-file",
		paths.Credential,
	}

	if descriptor.CACert != "" {
		expandedPath, err := util.Expand(descriptor.CACert, descriptor.Substitutions)
		if err != nil {
			return model.Invocation{}, &model.ConfigError{Path: paths.RepoConfig, Err: fmt.Errorf("caCert: %w", err)}
		}
		execInvocation = append(execInvocation, "--cacert", expandedPath)
	}

	return model.Invocation{Args: execInvocation, Env: env}, nil
}

// withArgs returns a copy of the invocation with args appended.
func withArgs(invocation model.Invocation, args ...string) model.Invocation {
	res := invocation
	res.Args = append(append([]string{}, invocation.Args...), args...)
	return res
}

// execute runs the invocation, and converts a non-zero exit into a *model.ToolError carrying the unchanged exit code.
func (r ResticBackend) execute(ctx context.Context, subcommand string, invocation model.Invocation) (model.Result, error) {

	result, err := r.Runner.Run(ctx, invocation)
	if err != nil {
		return result, asLaunchError(invocation, err)
	}

	if result.ExitCode != 0 {
		return result, &model.ToolError{Subcommand: subcommand, ExitCode: result.ExitCode}
	}

	return result, nil
}

func asLaunchError(invocation model.Invocation, err error) error {
	if launchErr, ok := err.(*model.LaunchError); ok {
		return launchErr
	}

	binary := ""
	if len(invocation.Args) > 0 {
		binary = invocation.Args[0]
	}

	return &model.LaunchError{Binary: binary, Err: err}
}

func expandAll(values []string, substitutions []model.Substitution) ([]string, error) {
	res := make([]string, 0, len(values))

	for _, value := range values {
		expandedValue, err := util.Expand(value, substitutions)
		if err != nil {
			return nil, err
		}
		res = append(res, expandedValue)
	}

	return res, nil
}
