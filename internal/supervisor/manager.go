// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/logsink"
	"github.com/matt-FFFFFF/herd/internal/metrics"
	"github.com/matt-FFFFFF/herd/internal/process"
	"github.com/matt-FFFFFF/herd/internal/progress"
	"github.com/matt-FFFFFF/herd/internal/registry"
	"github.com/matt-FFFFFF/herd/internal/signalbroker"
)

const (
	defaultLogDir = "logs"
	logDirPerm    = 0o755
	logExt        = ".log"
)

// Manager supervises a set of instances. It is the only writer of its registry.
type Manager struct {
	ctx     context.Context
	logDir  string
	env     map[string]string
	display progress.Reporter
	metrics metrics.Collector
	grace   time.Duration
	now     func() time.Time

	reg     *registry.Registry[*entry]
	workers sync.WaitGroup
}

// New creates a manager and makes sure the log directory exists.
// ctx supplies the logger used by the background goroutines of every instance.
func New(ctx context.Context, cfg Config, opts ...Option) (*Manager, error) {
	logDir := cfg.LogDir
	if logDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Join(ErrLogOpen, err)
		}

		logDir = filepath.Join(wd, defaultLogDir)
	}

	if err := os.MkdirAll(logDir, logDirPerm); err != nil {
		return nil, errors.Join(ErrLogOpen, err)
	}

	m := &Manager{
		ctx:     ctx,
		logDir:  logDir,
		env:     maps.Clone(cfg.Env),
		display: progress.NewNullReporter(),
		metrics: metrics.NewNoop(),
		grace:   DefaultGraceDelay,
		now:     time.Now,
		reg:     registry.New[*entry](),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// LogDir returns the directory used for default log files.
func (m *Manager) LogDir() string {
	return m.logDir
}

// Start launches path under id and registers it. The instance is registered when
// Start returns; it is unregistered asynchronously once its process has been reaped.
func (m *Manager) Start(ctx context.Context, id, path string, opts StartOptions) (Instance, error) {
	logger := ctxlog.Logger(ctx).With(ctxlog.InstanceKey, id)

	// The reservation makes concurrent starts of one id collide here, before any side effect.
	if err := m.reg.Reserve(id); err != nil {
		m.metrics.StartFailed(id, "duplicate_id")
		return Instance{}, err
	}

	defer m.reg.Release(id)

	resolved, err := resolveExecutable(path)
	if err != nil {
		m.metrics.StartFailed(id, "file_not_found")
		return Instance{}, err
	}

	opts = cloneOptions(opts)

	logFile := opts.LogFile
	if logFile == "" {
		logFile = m.defaultLogPath(id)
	}

	// Open the sink first so a log failure never leaves an orphan process behind.
	sink, err := logsink.Open(logFile, id)
	if err != nil {
		m.metrics.StartFailed(id, "log_open")
		return Instance{}, err
	}

	h, err := process.Spawn(m.ctx, process.Spec{
		ID:       id,
		Path:     resolved,
		Args:     opts.Args,
		Env:      overlay(m.env, opts.Env),
		Dir:      opts.Dir,
		Detached: opts.Detached,
	})
	if err != nil {
		_ = sink.Close()

		m.metrics.StartFailed(id, "spawn")

		return Instance{}, err
	}

	e := &entry{
		handle:  h,
		sink:    sink,
		logFile: logFile,
		opts:    opts,
		gone:    make(chan struct{}),
	}

	if err := m.reg.Commit(id, e); err != nil {
		logger.Error("registration failed, killing process", "pid", h.Pid(), "error", err)

		_ = h.Signal(os.Kill)

		m.workers.Add(1)

		go m.discard(e)

		m.metrics.StartFailed(id, "register")

		return Instance{}, err
	}

	pumped := make(chan struct{})

	m.workers.Add(2)

	go m.pump(e, pumped)
	go m.reap(e, pumped)

	m.metrics.InstanceStarted(id)
	m.metrics.Running(m.reg.Len())

	m.display.Report(progress.Event{
		Instance:  id,
		Type:      progress.EventStarted,
		Message:   fmt.Sprintf("started %s (pid %d)", filepath.Base(resolved), h.Pid()),
		Timestamp: h.StartedAt(),
		Data:      progress.EventData{Pid: h.Pid()},
	})

	logger.Info("instance started", "pid", h.Pid(), "path", resolved, "log", logFile)

	return e.snapshot(), nil
}

// pump forwards every output chunk to the sink and, unless silent, the live display.
func (m *Manager) pump(e *entry, pumped chan<- struct{}) {
	defer m.workers.Done()
	defer close(pumped)

	id := e.handle.ID()
	logger := ctxlog.Logger(m.ctx).With(ctxlog.InstanceKey, id)

	for c := range e.handle.Output() {
		before := e.sink.BytesWritten()

		if err := e.sink.Write(c.Data, c.Stream, c.At); err != nil {
			logger.Error("failed to write log record", "error", err)
		}

		m.metrics.LogBytes(id, int(e.sink.BytesWritten()-before))

		if e.opts.Silent {
			continue
		}

		m.display.Report(progress.Event{
			Instance:  id,
			Type:      progress.EventOutput,
			Timestamp: c.At,
			Data: progress.EventData{
				Line:     c.Data,
				IsStderr: c.Stream == process.Stderr,
			},
		})
	}
}

// reap runs once the process has terminated and every output record has been written.
func (m *Manager) reap(e *entry, pumped <-chan struct{}) {
	defer m.workers.Done()

	<-pumped
	<-e.handle.Done()

	id := e.handle.ID()
	logger := ctxlog.Logger(m.ctx).With(ctxlog.InstanceKey, id)
	exit := e.handle.Exit()
	now := m.now()

	if err := e.sink.WriteExit(exit.Code, now); err != nil {
		logger.Error("failed to write exit record", "error", err)
	}

	if err := e.sink.Close(); err != nil {
		logger.Error("failed to close log", "error", err)
	}

	m.reg.UnregisterIf(id, func(cur *entry) bool { return cur == e })

	m.metrics.InstanceExited(id, exit.Code, now.Sub(e.handle.StartedAt()))
	m.metrics.Running(m.reg.Len())

	msg := fmt.Sprintf("exited with code %d", exit.Code)
	if exit.Signal != "" {
		msg = fmt.Sprintf("terminated by %s", exit.Signal)
	}

	m.display.Report(progress.Event{
		Instance:  id,
		Type:      progress.EventExited,
		Message:   msg,
		Timestamp: now,
		Data:      progress.EventData{ExitCode: exit.Code, Signal: exit.Signal},
	})

	logger.Info("instance exited", "pid", e.handle.Pid(), "exitCode", exit.Code, "signal", exit.Signal)

	close(e.gone)
}

// discard drains a process that was never registered.
func (m *Manager) discard(e *entry) {
	defer m.workers.Done()

	for range e.handle.Output() { //nolint:revive
	}

	<-e.handle.Done()
	_ = e.sink.Close()
	close(e.gone)
}

// Stop signals the instance to terminate and returns without waiting for it.
// It returns false when id is not registered or the signal could not be sent.
func (m *Manager) Stop(ctx context.Context, id string, opts StopOptions) bool {
	e, ok := m.reg.Lookup(id)
	if !ok {
		return false
	}

	if err := m.stop(ctx, e, opts); err != nil {
		ctxlog.Logger(ctx).Warn("stop failed", ctxlog.InstanceKey, id, "error", err)
		return false
	}

	return true
}

func (m *Manager) stop(ctx context.Context, e *entry, opts StopOptions) error {
	id := e.handle.ID()

	sig := gracefulSignal
	if opts.Force {
		sig = os.Kill
	}

	err := e.handle.Signal(sig)
	m.metrics.SignalSent(id, sig.String(), err)

	if err != nil {
		return fmt.Errorf("stopping %s: %w", id, err)
	}

	ctxlog.Logger(ctx).Debug("stop signal sent", ctxlog.InstanceKey, id, "signal", sig.String())

	if !opts.Silent {
		m.display.Report(progress.Event{
			Instance:  id,
			Type:      progress.EventStopping,
			Message:   "stopping (" + sig.String() + ")",
			Timestamp: m.now(),
			Data:      progress.EventData{Signal: sig.String()},
		})
	}

	return nil
}

// StopAll stops every registered instance. It returns how many were signalled;
// individual failures are collected and do not stop the rest.
func (m *Manager) StopAll(ctx context.Context, opts StopOptions) (int, error) {
	var (
		count  int
		result error
	)

	for _, e := range m.reg.Snapshot() {
		if err := m.stop(ctx, e, opts); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		count++
	}

	return count, result
}

// SendSignal delivers the named signal. It returns false, never an error, when the
// instance is absent or delivery fails; failures are logged.
func (m *Manager) SendSignal(ctx context.Context, id, name string) bool {
	logger := ctxlog.Logger(ctx).With(ctxlog.InstanceKey, id)

	e, ok := m.reg.Lookup(id)
	if !ok {
		return false
	}

	sig, err := signalbroker.Parse(name)
	if err != nil {
		logger.Warn("cannot send signal", "signal", name, "error", err)
		return false
	}

	err = e.handle.Signal(sig)
	m.metrics.SignalSent(id, sig.String(), err)

	if err != nil {
		logger.Warn("signal delivery failed", "signal", sig.String(), "error", err)
		return false
	}

	m.display.Report(progress.Event{
		Instance:  id,
		Type:      progress.EventSignalled,
		Message:   "sent " + sig.String(),
		Timestamp: m.now(),
		Data:      progress.EventData{Signal: sig.String()},
	})

	return true
}

// List returns summaries of the registered instances in start order.
func (m *Manager) List() []Summary {
	now := m.now()
	entries := m.reg.Snapshot()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.summary(now))
	}

	return out
}

// Get returns the detail of a registered instance.
func (m *Manager) Get(id string) (Detail, bool) {
	e, ok := m.reg.Lookup(id)
	if !ok {
		return Detail{}, false
	}

	return Detail{
		Instance:    e.snapshot(),
		Uptime:      m.now().Sub(e.handle.StartedAt()),
		LastOutput:  e.handle.LastLine(),
		OutputBytes: e.handle.BytesRead(),
	}, true
}

// Wait blocks until the instance currently registered under id has been
// unregistered. It returns immediately when id is not registered.
func (m *Manager) Wait(ctx context.Context, id string) error {
	e, ok := m.reg.Lookup(id)
	if !ok {
		return nil
	}

	return waitGone(ctx, e)
}

// Close force-stops every instance and waits for their logs to be closed.
func (m *Manager) Close(ctx context.Context) error {
	_, stopErr := m.StopAll(ctx, StopOptions{Force: true, Silent: true})

	done := make(chan struct{})

	go func() {
		m.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return stopErr
	case <-ctx.Done():
		return errors.Join(stopErr, ctx.Err())
	}
}

func (m *Manager) defaultLogPath(id string) string {
	return filepath.Join(m.logDir, id+logExt)
}

func waitGone(ctx context.Context, e *entry) error {
	select {
	case <-e.gone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolveExecutable returns the absolute path of an existing regular file.
// Bare names that are not found relative to the working directory are looked up in PATH.
func resolveExecutable(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFound)
	}

	if abs, err := filepath.Abs(path); err == nil && isRegular(abs) {
		return abs, nil
	}

	if !strings.ContainsAny(path, `/\`) {
		if found, err := exec.LookPath(path); err == nil {
			if abs, err := filepath.Abs(found); err == nil && isRegular(abs) {
				return abs, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
