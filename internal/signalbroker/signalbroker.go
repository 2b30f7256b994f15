// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for OS signals aimed at the supervisor itself
// and translates signal names into os.Signal values for delivery to children.
//
// By default the broker listens for SIGINT, SIGTERM and SIGQUIT.
// Watch implements the two-stage shutdown used by `herd run`: the first signal
// asks for a graceful stop, a second signal of the same type forces it.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New creates a signal channel subscribed to sigs, or to the termination signals when none are given.
// Call Stop with the returned channel to unsubscribe.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unsubscribes ch from signal delivery.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
