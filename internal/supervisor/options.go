// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"time"

	"github.com/matt-FFFFFF/herd/internal/metrics"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

// DefaultGraceDelay is the pause Restart leaves between the stop signal and the new start.
const DefaultGraceDelay = time.Second

// Config holds the manager-wide defaults.
type Config struct {
	// LogDir is where <id>.log files are placed. Defaults to ./logs.
	LogDir string
	// Env is overlaid on the supervisor environment for every instance.
	Env map[string]string
}

// Option implements a functional options pattern for Manager.
type Option func(m *Manager)

// WithDisplay sets the live display that receives output and status events.
func WithDisplay(r progress.Reporter) Option {
	return func(m *Manager) {
		if r != nil {
			m.display = r
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(m *Manager) {
		if c != nil {
			m.metrics = c
		}
	}
}

// WithGraceDelay sets the delay used by Restart.
func WithGraceDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.grace = d
		}
	}
}

// WithClock replaces time.Now for uptime and exit record timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
