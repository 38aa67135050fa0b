package model

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v2"
)

const (
	DefaultTag            = "autobackup"
	DefaultReadDataSubset = "5%"
	DefaultMinSnapshots   = 5
	DefaultVerifyWindow   = 7 * 24 * time.Hour
)

// RepositoryDescriptor identifies the restic repository of a target, and how to reach it.
type RepositoryDescriptor struct {
	URL           string            `json:"url" yaml:"url" validate:"required"`
	Env           map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	CACert        string            `json:"caCert,omitempty" yaml:"caCert,omitempty"`
	Tag           string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Substitutions []Substitution    `json:"substitutions,omitempty" yaml:"substitutions,omitempty" validate:"dive"`
	Dirs          []string          `json:"dirs,omitempty" yaml:"dirs,omitempty" validate:"dive,required"`
	Exclude       []string          `json:"exclude,omitempty" yaml:"exclude,omitempty" validate:"dive,required"`
	Retention     *RetentionPolicy  `json:"retention,omitempty" yaml:"retention,omitempty"`
	Verify        *VerifyPolicy     `json:"verify,omitempty" yaml:"verify,omitempty"`
}

// SourceConfig lists the folders to back up, for targets that keep them outside the repository descriptor.
type SourceConfig struct {
	Dirs    []string `json:"dirs" yaml:"dirs" validate:"required,min=1,dive,required"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" validate:"dive,required"`
}

type Substitution struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Value string `json:"value" yaml:"value"`
}

type RetentionPolicy struct {
	KeepLast    int  `json:"keepLast,omitempty" yaml:"keepLast,omitempty" validate:"min=0"`
	KeepHourly  int  `json:"keepHourly,omitempty" yaml:"keepHourly,omitempty" validate:"min=0"`
	KeepDaily   int  `json:"keepDaily,omitempty" yaml:"keepDaily,omitempty" validate:"min=0"`
	KeepWeekly  int  `json:"keepWeekly,omitempty" yaml:"keepWeekly,omitempty" validate:"min=0"`
	KeepMonthly int  `json:"keepMonthly,omitempty" yaml:"keepMonthly,omitempty" validate:"min=0"`
	KeepYearly  int  `json:"keepYearly,omitempty" yaml:"keepYearly,omitempty" validate:"min=0"`
	Prune       bool `json:"prune,omitempty" yaml:"prune,omitempty"`
}

type VerifyPolicy struct {
	ReadDataSubset string `json:"readDataSubset,omitempty" yaml:"readDataSubset,omitempty"`
	MinSnapshots   int    `json:"minSnapshots,omitempty" yaml:"minSnapshots,omitempty" validate:"min=0"`
	// Window is a Go duration string, e.g. "168h".
	Window string `json:"window,omitempty" yaml:"window,omitempty"`
}

// VerifySettings is a VerifyPolicy with defaults applied.
type VerifySettings struct {
	ReadDataSubset string
	MinSnapshots   int
	Window         time.Duration
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ReadRepositoryDescriptor loads and validates the repository descriptor at path.
// Any failure is returned as a *ConfigError.
func ReadRepositoryDescriptor(path string) (RepositoryDescriptor, error) {
	descriptor := RepositoryDescriptor{}

	if err := readConfigFile(path, &descriptor); err != nil {
		return RepositoryDescriptor{}, &ConfigError{Path: path, Err: err}
	}

	if err := getValidator().Struct(descriptor); err != nil {
		return RepositoryDescriptor{}, &ConfigError{Path: path, Err: err}
	}

	if descriptor.Verify != nil && descriptor.Verify.Window != "" {
		if _, err := time.ParseDuration(descriptor.Verify.Window); err != nil {
			return RepositoryDescriptor{}, &ConfigError{Path: path, Err: fmt.Errorf("invalid verify window: %w", err)}
		}
	}

	return descriptor, nil
}

func ReadSourceConfig(path string) (SourceConfig, error) {
	source := SourceConfig{}

	if err := readConfigFile(path, &source); err != nil {
		return SourceConfig{}, &ConfigError{Path: path, Err: err}
	}

	if err := getValidator().Struct(source); err != nil {
		return SourceConfig{}, &ConfigError{Path: path, Err: err}
	}

	return source, nil
}

// CheckCredential verifies the credential file is a readable, non-empty regular file.
// The content is never returned.
func CheckCredential(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if !info.Mode().IsRegular() {
		return &ConfigError{Path: path, Err: errors.New("credential is not a regular file")}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return &ConfigError{Path: path, Err: errors.New("credential file is empty")}
	}

	return nil
}

// readConfigFile decodes YAML for .yaml/.yml files and JSON (comments allowed) otherwise.
// Unknown fields are rejected in both cases.
func readConfigFile(path string, out interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.UnmarshalStrict(content, out)
	default:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(content)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(out)
	}
}

func (d RepositoryDescriptor) EffectiveTag() string {
	if d.Tag == "" {
		return DefaultTag
	}
	return d.Tag
}

func (d RepositoryDescriptor) VerifySettings() VerifySettings {
	res := VerifySettings{
		ReadDataSubset: DefaultReadDataSubset,
		MinSnapshots:   DefaultMinSnapshots,
		Window:         DefaultVerifyWindow,
	}

	if d.Verify == nil {
		return res
	}

	if d.Verify.ReadDataSubset != "" {
		res.ReadDataSubset = d.Verify.ReadDataSubset
	}
	if d.Verify.MinSnapshots > 0 {
		res.MinSnapshots = d.Verify.MinSnapshots
	}
	if d.Verify.Window != "" {
		// Already validated on read
		if window, err := time.ParseDuration(d.Verify.Window); err == nil {
			res.Window = window
		}
	}

	return res
}

// IsEmpty returns true if the policy would not keep anything, which restic refuses.
func (r *RetentionPolicy) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.KeepLast == 0 && r.KeepHourly == 0 && r.KeepDaily == 0 &&
		r.KeepWeekly == 0 && r.KeepMonthly == 0 && r.KeepYearly == 0
}
