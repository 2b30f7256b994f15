// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/matt-FFFFFF/herd/internal/logsink"
	"github.com/matt-FFFFFF/herd/internal/process"
)

// StartOptions configures a single instance.
type StartOptions struct {
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Silent   bool              `json:"silent,omitempty"`   // do not echo output to the live display
	Detached bool              `json:"detached,omitempty"` // run in a separate process group
	LogFile  string            `json:"logFile,omitempty"`  // defaults to <LogDir>/<id>.log
	Dir      string            `json:"dir,omitempty"`
}

// RestartOptions overrides the launch options of a running instance on restart.
// Args, LogFile and Dir replace the original when set, Env is merged key by key,
// and a non-nil Silent or Detached replaces the original flag. Unset fields keep
// their original value.
type RestartOptions struct {
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Silent   *bool             `json:"silent,omitempty"`
	Detached *bool             `json:"detached,omitempty"`
	LogFile  string            `json:"logFile,omitempty"`
	Dir      string            `json:"dir,omitempty"`
}

// StopOptions configures Stop and StopAll.
type StopOptions struct {
	Force  bool `json:"force,omitempty"`  // SIGKILL instead of SIGTERM
	Silent bool `json:"silent,omitempty"` // no status event on the live display
}

// LogOptions selects lines from a log. Tail is applied first, then Head is applied
// to what Tail left. Nil means unset.
type LogOptions struct {
	Tail *int `json:"tail,omitempty"`
	Head *int `json:"head,omitempty"`
}

// Instance is a point-in-time snapshot of a registered instance.
type Instance struct {
	ID        string            `json:"id"`
	Path      string            `json:"path"`
	Args      []string          `json:"args"`
	Env       map[string]string `json:"env"`
	Pid       int               `json:"pid"`
	StartedAt time.Time         `json:"startedAt"`
	LogFile   string            `json:"logFile"`
	Detached  bool              `json:"detached"`
	Silent    bool              `json:"silent"`
	Options   StartOptions      `json:"options"`
}

// Summary is the lightweight listing form of an instance.
type Summary struct {
	ID      string        `json:"id"`
	Pid     int           `json:"pid"`
	Name    string        `json:"name"`
	Uptime  time.Duration `json:"uptime"`
	LogName string        `json:"logName"`
}

// Detail is an instance snapshot plus values computed at read time.
type Detail struct {
	Instance
	Uptime     time.Duration `json:"uptime"`
	LastOutput string        `json:"lastOutput"`
	// OutputBytes counts bytes read from stdout and stderr so far.
	OutputBytes int64 `json:"outputBytes"`
}

// entry is the registry value: one handle and the sink it feeds.
type entry struct {
	handle  *process.Handle
	sink    *logsink.Sink
	logFile string
	opts    StartOptions
	// gone is closed after the entry has been unregistered.
	gone chan struct{}
}

func (e *entry) snapshot() Instance {
	return Instance{
		ID:        e.handle.ID(),
		Path:      e.handle.Path(),
		Args:      e.handle.Args(),
		Env:       e.handle.Env(),
		Pid:       e.handle.Pid(),
		StartedAt: e.handle.StartedAt(),
		LogFile:   e.logFile,
		Detached:  e.handle.Detached(),
		Silent:    e.opts.Silent,
		Options:   cloneOptions(e.opts),
	}
}

func (e *entry) summary(now time.Time) Summary {
	return Summary{
		ID:      e.handle.ID(),
		Pid:     e.handle.Pid(),
		Name:    filepath.Base(e.handle.Path()),
		Uptime:  now.Sub(e.handle.StartedAt()),
		LogName: filepath.Base(e.logFile),
	}
}

func cloneOptions(o StartOptions) StartOptions {
	o.Args = slices.Clone(o.Args)
	o.Env = maps.Clone(o.Env)

	return o
}

// mergeOptions overlays next on prev. Fields set in next win and Env is
// merged key by key.
func mergeOptions(prev StartOptions, next RestartOptions) StartOptions {
	out := cloneOptions(prev)

	if len(next.Args) > 0 {
		out.Args = slices.Clone(next.Args)
	}

	if len(next.Env) > 0 {
		if out.Env == nil {
			out.Env = make(map[string]string, len(next.Env))
		}

		maps.Copy(out.Env, next.Env)
	}

	if next.Silent != nil {
		out.Silent = *next.Silent
	}

	if next.Detached != nil {
		out.Detached = *next.Detached
	}

	if next.LogFile != "" {
		out.LogFile = next.LogFile
	}

	if next.Dir != "" {
		out.Dir = next.Dir
	}

	return out
}

// overlay returns base with over applied on top.
func overlay(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)

	return out
}
