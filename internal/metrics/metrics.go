// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics records supervisor lifecycle metrics.
// The supervisor depends only on Collector; Prometheus is one implementation.
package metrics

import (
	"time"
)

// Collector receives lifecycle observations from the supervisor.
type Collector interface {
	// InstanceStarted records a successful spawn.
	InstanceStarted(id string)

	// StartFailed records a failed start, reason is a short error kind.
	StartFailed(id, reason string)

	// InstanceExited records an observed termination.
	InstanceExited(id string, code int, uptime time.Duration)

	// InstanceRestarted records a restart request.
	InstanceRestarted(id string)

	// SignalSent records a signal delivery attempt.
	SignalSent(id, signal string, err error)

	// LogBytes records bytes appended to an instance log.
	LogBytes(id string, n int)

	// Running records the number of registered instances.
	Running(n int)
}

type noopCollector struct{}

func (noopCollector) InstanceStarted(string)                    {}
func (noopCollector) StartFailed(string, string)                {}
func (noopCollector) InstanceExited(string, int, time.Duration) {}
func (noopCollector) InstanceRestarted(string)                  {}
func (noopCollector) SignalSent(string, string, error)          {}
func (noopCollector) LogBytes(string, int)                      {}
func (noopCollector) Running(int)                               {}

// NewNoop creates a collector that discards everything.
func NewNoop() Collector {
	return noopCollector{}
}
