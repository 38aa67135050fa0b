package model

import (
	"path/filepath"
)

const DefaultBaseDir = "/opt/root/restic"

// TargetResolver derives the per-target configuration file paths from the naming convention
// '<base>/config-<target>-*'. It performs no I/O; existence is checked at use time.
type TargetResolver struct {
	BaseDir string
}

type TargetPaths struct {
	RepoConfig string
	Credential string
}

func NewTargetResolver(baseDir string) TargetResolver {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return TargetResolver{BaseDir: baseDir}
}

func (r TargetResolver) Resolve(target string) TargetPaths {
	return TargetPaths{
		RepoConfig: r.path(target, "repo.json"),
		Credential: r.path(target, "passwd"),
	}
}

// SourceConfigPath returns the optional per-target source file, listing the folders to back up.
func (r TargetResolver) SourceConfigPath(target string) string {
	return r.path(target, "source.json")
}

func (r TargetResolver) path(target string, suffix string) string {
	return filepath.Join(r.BaseDir, "config-"+target+"-"+suffix)
}
