// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads herd supervisor files written in YAML or HCL.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrInvalidYaml is returned when a YAML file cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidHcl is returned when an HCL file cannot be decoded.
	ErrInvalidHcl = errors.New("invalid HCL")
	// ErrUnsupportedFormat is returned for file extensions other than .yaml, .yml and .hcl.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
	// ErrReadConfigFile is returned when the file cannot be read.
	ErrReadConfigFile = errors.New("failed to read configuration file")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmptyID is a validation failure.
	ErrEmptyID = errors.New("instance id is empty")
	// ErrDuplicateInstance is a validation failure.
	ErrDuplicateInstance = errors.New("instance id is defined more than once")
	// ErrEmptyPath is a validation failure.
	ErrEmptyPath = errors.New("instance path is empty")
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// File is the root of a supervisor file.
type File struct {
	LogDir    string            `yaml:"log_dir,omitempty" hcl:"log_dir,optional" docdesc:"Directory for instance logs, defaults to ./logs"`
	Env       map[string]string `yaml:"env,omitempty" hcl:"env,optional" docdesc:"Environment overlaid on every instance"`
	Instances []Instance        `yaml:"instances" hcl:"instance,block" docdesc:"Instances started by herd run"`
}

// Instance is one instance definition.
type Instance struct {
	ID       string            `yaml:"id" hcl:"id,label" docdesc:"Unique instance ID"`
	Path     string            `yaml:"path" hcl:"path" docdesc:"Executable, absolute or looked up on PATH"`
	Args     []string          `yaml:"args,omitempty" hcl:"args,optional" docdesc:"Arguments passed to the executable"`
	Env      map[string]string `yaml:"env,omitempty" hcl:"env,optional" docdesc:"Environment overlaid on the supervisor's own"`
	Silent   bool              `yaml:"silent,omitempty" hcl:"silent,optional" docdesc:"Do not echo output to the console"`
	Detached bool              `yaml:"detached,omitempty" hcl:"detached,optional" docdesc:"Run in a separate process group"`
	LogFile  string            `yaml:"log_file,omitempty" hcl:"log_file,optional" docdesc:"Log file, defaults to <log_dir>/<id>.log"`
	Dir      string            `yaml:"dir,omitempty" hcl:"dir,optional" docdesc:"Working directory"`
}

// StartOptions converts the definition into supervisor start options.
func (i Instance) StartOptions() supervisor.StartOptions {
	return supervisor.StartOptions{
		Args:     i.Args,
		Env:      i.Env,
		Silent:   i.Silent,
		Detached: i.Detached,
		LogFile:  i.LogFile,
		Dir:      i.Dir,
	}
}

// SupervisorConfig returns the manager configuration.
func (f *File) SupervisorConfig() supervisor.Config {
	return supervisor.Config{
		LogDir: f.LogDir,
		Env:    f.Env,
	}
}

// Load reads and parses src. Remote sources (anything go-getter understands that is
// not a plain local path) are fetched first; local files are read through FsFactory.
func Load(ctx context.Context, src string) (*File, error) {
	logger := ctxlog.Logger(ctx).With("source", src)

	if src == "" {
		return nil, ErrGetConfigFile
	}

	var (
		data []byte
		name = src
		err  error
	)

	if isRemote(src) {
		logger.Debug("fetching remote configuration")

		data, name, err = fetch(ctx, src)
	} else {
		data, err = afero.ReadFile(FsFactory(), src)
		if err != nil {
			err = errors.Join(ErrReadConfigFile, err)
		}
	}

	if err != nil {
		return nil, err
	}

	return Parse(name, data)
}

// Parse decodes data according to the extension of filename and validates the result.
func Parse(filename string, data []byte) (*File, error) {
	var f File

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
		}
	case ".hcl":
		if err := hclsimple.Decode(filepath.Base(filename), data, evalContext(), &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHcl, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// Validate reports every problem in the file at once.
func (f *File) Validate() error {
	var result error

	seen := make(map[string]struct{}, len(f.Instances))

	for idx, inst := range f.Instances {
		if inst.ID == "" {
			result = multierror.Append(result, fmt.Errorf("instance %d: %w", idx, ErrEmptyID))
		} else {
			if _, dup := seen[inst.ID]; dup {
				result = multierror.Append(result, fmt.Errorf("%s: %w", inst.ID, ErrDuplicateInstance))
			}

			seen[inst.ID] = struct{}{}
		}

		if inst.Path == "" {
			result = multierror.Append(result, fmt.Errorf("instance %d (%s): %w", idx, inst.ID, ErrEmptyPath))
		}
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}

// evalContext exposes the host environment to HCL expressions as env.<NAME>.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}

	return true
}
