// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/teereader"
)

const (
	// MaxChunkSize is the longest line delivered as a single chunk; longer lines are split.
	MaxChunkSize = 64 * 1024
	// DrainTimeout bounds how long output is drained after the process has been reaped.
	// A grandchild that inherited the pipes can otherwise hold them open indefinitely.
	DrainTimeout   = 2 * time.Second
	outputChanSize = 64
)

var (
	// ErrSpawn is returned when the process could not be started.
	ErrSpawn = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrNoSuchProcess is returned when signalling a process that has already exited.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrSignalDelivery is returned when the operating system refuses to deliver a signal.
	ErrSignalDelivery = errors.New("signal delivery failed")
)

// Stream identifies which output stream a chunk came from.
type Stream int

const (
	// Stdout is the process's standard output.
	Stdout Stream = iota
	// Stderr is the process's standard error.
	Stderr
)

// String implements fmt.Stringer.
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}

	return "stdout"
}

// Chunk is one line (or a MaxChunkSize slice of a longer line) of process output.
type Chunk struct {
	Stream Stream
	Data   string // without the trailing newline
	At     time.Time
}

// ExitStatus describes how a process terminated.
type ExitStatus struct {
	Code   int    // -1 when terminated by a signal or when the wait failed
	Signal string // name of the terminating signal, if any
}

// Spec describes the process to launch.
type Spec struct {
	ID       string
	Path     string            // resolved executable path
	Args     []string          // arguments, not including the executable name
	Env      map[string]string // overlaid on the supervisor's environment
	Dir      string            // working directory, empty for the current one
	Detached bool              // run in a separate process group
}

// Handle is a live, spawned operating system process.
type Handle struct {
	spec      Spec
	pid       int
	startedAt time.Time
	ps        *os.Process

	output chan Chunk
	done   chan struct{}
	exit   ExitStatus
	exited atomic.Bool

	stdout *teereader.LastLineTeeReader
	stderr *teereader.LastLineTeeReader
}

// Spawn launches the process described by spec.
// The caller must drain Output until it is closed, otherwise the child blocks on a full pipe.
func Spawn(ctx context.Context, spec Spec) (*Handle, error) {
	logger := ctxlog.Logger(ctx).With(ctxlog.InstanceKey, spec.ID)

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrSpawn, ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)
		return nil, errors.Join(ErrSpawn, ErrFailedToCreatePipe, err)
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)
		return nil, errors.Join(ErrSpawn, err)
	}

	argv := slices.Concat([]string{filepath.Base(spec.Path)}, spec.Args)

	logger.Debug("starting process", "path", spec.Path, "args", spec.Args, "dir", spec.Dir, "detached", spec.Detached)

	startedAt := time.Now()
	ps, err := os.StartProcess(spec.Path, argv, &os.ProcAttr{
		Dir:   spec.Dir,
		Env:   environ(spec.Env),
		Files: []*os.File{devNull, wOut, wErr},
		Sys:   sysProcAttr(spec.Detached),
	})

	// The child holds its own copies now; ours must go so EOF is seen when it exits.
	closeAll(devNull, wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)
		return nil, errors.Join(ErrSpawn, err)
	}

	logger.Debug("process started", "pid", ps.Pid)

	h := &Handle{
		spec:      spec,
		pid:       ps.Pid,
		startedAt: startedAt,
		ps:        ps,
		output:    make(chan Chunk, outputChanSize),
		done:      make(chan struct{}),
		stdout:    teereader.NewLastLineTeeReader(rOut),
		stderr:    teereader.NewLastLineTeeReader(rErr),
	}

	var pumps sync.WaitGroup

	pumps.Add(2)

	go h.pump(&pumps, h.stdout, Stdout)
	go h.pump(&pumps, h.stderr, Stderr)

	drained := make(chan struct{})

	go func() {
		pumps.Wait()
		close(h.output)
		close(drained)
	}()

	go h.reap(ctx, drained, rOut, rErr)

	return h, nil
}

// pump reads r line by line and forwards each line as a chunk.
func (h *Handle) pump(wg *sync.WaitGroup, r io.Reader, stream Stream) {
	defer wg.Done()

	br := bufio.NewReaderSize(r, MaxChunkSize)

	for {
		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			data := string(line)
			if err == nil {
				data = data[:len(data)-1]
				if n := len(data); n > 0 && data[n-1] == '\r' {
					data = data[:n-1]
				}
			}

			h.output <- Chunk{Stream: stream, Data: data, At: time.Now()}
		}

		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return
		}
	}
}

// reap waits for the process, lets the pumps drain and then fires the exit notification.
func (h *Handle) reap(ctx context.Context, drained <-chan struct{}, readers ...*os.File) {
	logger := ctxlog.Logger(ctx).With(ctxlog.InstanceKey, h.spec.ID)

	state, err := h.ps.Wait()

	status := ExitStatus{Code: -1}
	if err != nil {
		logger.Error("wait for process failed", "pid", h.pid, "error", err)
	} else {
		status.Code = state.ExitCode()
		status.Signal = exitSignal(state)
	}

	timer := time.NewTimer(DrainTimeout)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		logger.Warn("output still open after process exit, closing pipes", "pid", h.pid)
		closeAll(readers...)
		<-drained
	}

	closeAll(readers...)

	h.exit = status
	h.exited.Store(true)

	logger.Debug("process finished", "pid", h.pid, "exitCode", status.Code, "signal", status.Signal)
	close(h.done)
}

// Output returns the merged stream of output chunks in arrival order.
// It is closed once both stdout and stderr reach EOF.
func (h *Handle) Output() <-chan Chunk {
	return h.output
}

// Done is closed exactly once, after the process has been reaped and Output has been closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exit returns the exit status. It is only meaningful after Done is closed.
func (h *Handle) Exit() ExitStatus {
	<-h.done
	return h.exit
}

// Exited reports whether the termination of the process has been observed.
func (h *Handle) Exited() bool {
	return h.exited.Load()
}

// Signal delivers sig to the process, or to its whole process group if it is detached.
func (h *Handle) Signal(sig os.Signal) error {
	if h.exited.Load() {
		return fmt.Errorf("%w: pid %d", ErrNoSuchProcess, h.pid)
	}

	var err error
	if h.spec.Detached {
		err = signalGroup(h.ps, sig)
	} else {
		err = h.ps.Signal(sig)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrProcessDone):
		return fmt.Errorf("%w: pid %d", ErrNoSuchProcess, h.pid)
	default:
		return errors.Join(ErrSignalDelivery, err)
	}
}

// LastLine returns the most recent complete output line from either stream.
func (h *Handle) LastLine() string {
	return teereader.Latest(h.stdout, h.stderr)
}

// BytesRead returns the number of output bytes read from both streams.
func (h *Handle) BytesRead() int64 {
	return h.stdout.BytesRead() + h.stderr.BytesRead()
}

// ID returns the instance ID the process was spawned for.
func (h *Handle) ID() string { return h.spec.ID }

// Path returns the resolved executable path.
func (h *Handle) Path() string { return h.spec.Path }

// Args returns a copy of the arguments.
func (h *Handle) Args() []string { return slices.Clone(h.spec.Args) }

// Env returns a copy of the environment overlay.
func (h *Handle) Env() map[string]string {
	out := make(map[string]string, len(h.spec.Env))
	for k, v := range h.spec.Env {
		out[k] = v
	}

	return out
}

// Dir returns the working directory.
func (h *Handle) Dir() string { return h.spec.Dir }

// Pid returns the operating system process identifier.
func (h *Handle) Pid() int { return h.pid }

// StartedAt returns when the spawn was issued.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Detached reports whether the process runs in its own process group.
func (h *Handle) Detached() bool { return h.spec.Detached }

// environ overlays env on the supervisor's own environment.
// Later entries win for duplicate keys, so the overlay is appended in sorted order.
func environ(env map[string]string) []string {
	out := os.Environ()

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}

	return out
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
