// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

// Restart stops the instance, waits the grace delay and starts it again with the
// same id and path. Options are merged over the ones the instance was started with.
// If the old instance is still registered when the delay elapses, Start fails with
// ErrDuplicateID and nothing is registered under id.
func (m *Manager) Restart(ctx context.Context, id string, opts RestartOptions) (Instance, error) {
	e, merged, err := m.beginRestart(ctx, id, opts)
	if err != nil {
		return Instance{}, err
	}

	timer := time.NewTimer(m.grace)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return Instance{}, ctx.Err()
	}

	return m.Start(ctx, id, e.handle.Path(), merged)
}

// RestartAndWait is Restart with the grace delay replaced by a wait for the old
// process to be reaped and unregistered.
func (m *Manager) RestartAndWait(ctx context.Context, id string, opts RestartOptions) (Instance, error) {
	e, merged, err := m.beginRestart(ctx, id, opts)
	if err != nil {
		return Instance{}, err
	}

	if err := waitGone(ctx, e); err != nil {
		return Instance{}, err
	}

	return m.Start(ctx, id, e.handle.Path(), merged)
}

func (m *Manager) beginRestart(ctx context.Context, id string, opts RestartOptions) (*entry, StartOptions, error) {
	e, ok := m.reg.Lookup(id)
	if !ok {
		return nil, StartOptions{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}

	merged := mergeOptions(e.opts, opts)

	ctxlog.Info(ctx, "restarting instance", ctxlog.InstanceKey, id, "pid", e.handle.Pid())

	m.metrics.InstanceRestarted(id)
	m.display.Report(progress.Event{
		Instance:  id,
		Type:      progress.EventRestarting,
		Message:   "restarting",
		Timestamp: m.now(),
	})

	// An already exited process is fine here: it is about to be unregistered anyway.
	_ = m.stop(ctx, e, StopOptions{Silent: true})

	return e, merged, nil
}
