// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logsink appends timestamped output records for one instance to its log file.
//
// Record format, one per line:
//
//	[<RFC3339Nano UTC>] [<id>] <content>
//	[<RFC3339Nano UTC>] [<id>] [ERROR] <content>
//	[<RFC3339Nano UTC>] [<id>] Process exited with code <N>
package logsink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/herd/internal/process"
)

const (
	// TimeFormat is the timestamp layout used in log records.
	TimeFormat = time.RFC3339Nano
	// StderrTag marks records captured from standard error.
	StderrTag = "[ERROR]"
	dirPerm   = 0o755
	filePerm  = 0o644
)

var (
	// ErrLogOpen is returned when the log destination cannot be created or opened.
	ErrLogOpen = errors.New("failed to open log file")
	// ErrSinkClosed is returned when writing to a sink that has been closed.
	ErrSinkClosed = errors.New("log sink is closed")
	// ErrWrite is returned when a record could not be written.
	ErrWrite = errors.New("failed to write log record")
)

// Sink owns one append-only log file. Writes are serialised, so the stdout
// and stderr pumps of a single process may share it.
type Sink struct {
	id      string
	path    string
	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	closed  bool
	written int64
}

// Open opens path for appending, creating missing parent directories.
func Open(path, id string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errors.Join(ErrLogOpen, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, errors.Join(ErrLogOpen, err)
	}

	return &Sink{
		id:   id,
		path: path,
		f:    f,
		w:    bufio.NewWriter(f),
	}, nil
}

// Path returns the log file path.
func (s *Sink) Path() string {
	return s.path
}

// Write appends one output record. Every record is flushed before Write returns
// so the log can be tailed while the process runs.
func (s *Sink) Write(line string, stream process.Stream, ts time.Time) error {
	line = strings.TrimSuffix(line, "\n")

	tag := ""
	if stream == process.Stderr {
		tag = StderrTag + " "
	}

	return s.record(ts, tag+line)
}

// WriteExit appends the terminal record for the instance.
func (s *Sink) WriteExit(code int, ts time.Time) error {
	return s.record(ts, fmt.Sprintf("Process exited with code %d", code))
}

func (s *Sink) record(ts time.Time, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	n, err := fmt.Fprintf(s.w, "[%s] [%s] %s\n", ts.UTC().Format(TimeFormat), s.id, content)
	s.written += int64(n)

	if err != nil {
		return errors.Join(ErrWrite, err)
	}

	if err := s.w.Flush(); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return nil
}

// BytesWritten returns the number of bytes appended through this sink.
func (s *Sink) BytesWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.written
}

// Close flushes and closes the file. Only the first call has any effect.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	flushErr := s.w.Flush()
	closeErr := s.f.Close()

	return errors.Join(flushErr, closeErr)
}
