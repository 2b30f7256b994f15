// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package control exposes a running supervisor over a local HTTP+JSON API
// and provides the matching client used by the herd subcommands.
package control

import (
	"github.com/matt-FFFFFF/herd/internal/supervisor"
)

// DefaultAddr is where `herd run` listens unless told otherwise.
const DefaultAddr = "127.0.0.1:7070"

const (
	pathInstances = "/v1/instances"
	pathStopAll   = "/v1/stop-all"
	pathMetrics   = "/metrics"
	pathHealth    = "/healthz"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StartRequest asks the supervisor to start an instance.
type StartRequest struct {
	ID      string                  `json:"id"`
	Path    string                  `json:"path"`
	Options supervisor.StartOptions `json:"options"`
}

// StopRequest carries stop options.
type StopRequest struct {
	Force bool `json:"force,omitempty"`
}

// StopAllResponse reports how many instances were signalled.
type StopAllResponse struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors,omitempty"`
}

// RestartRequest carries options merged over the original ones.
// Wait replaces the grace delay with a wait for the old process to exit.
type RestartRequest struct {
	Options supervisor.RestartOptions `json:"options"`
	Wait    bool                      `json:"wait,omitempty"`
}

// SignalRequest names the signal to deliver.
type SignalRequest struct {
	Signal string `json:"signal"`
}
