// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
)

// Watch consumes sigCh until it is closed or ctx is done.
// The first signal of a given type calls graceful in its own goroutine.
// A second signal of the same type calls force and returns.
// Either callback may be nil.
func Watch(ctx context.Context, sigCh <-chan os.Signal, graceful, force func()) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			logger := ctxlog.Logger(ctx).With("signal", sig.String())

			if _, dup := seen[sig]; dup {
				logger.Warn("received second signal of type, forcing shutdown")

				if force != nil {
					force()
				}

				return
			}

			seen[sig] = struct{}{}

			logger.Warn("received signal, stopping instances; repeat to force")

			if graceful != nil {
				go graceful()
			}
		}
	}
}
