// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// GetLogs returns the log content of id. Unregistered instances fall back to
// <LogDir>/<id>.log so logs can be read after exit. ok is false when no log exists.
func (m *Manager) GetLogs(id string, opts LogOptions) (string, bool, error) {
	path := m.defaultLogPath(id)
	if e, ok := m.reg.Lookup(id); ok {
		path = e.logFile
	}

	return readLogFile(path, opts)
}

// ReadLogs reads <logDir>/<id>.log without a running manager.
func ReadLogs(logDir, id string, opts LogOptions) (string, bool, error) {
	return readLogFile(filepath.Join(logDir, id+logExt), opts)
}

func readLogFile(path string, opts LogOptions) (string, bool, error) {
	if (opts.Tail != nil && *opts.Tail < 0) || (opts.Head != nil && *opts.Head < 0) {
		return "", false, ErrInvalidLogRange
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("reading log %s: %w", path, err)
	}

	return strings.Join(selectLines(splitLines(string(b)), opts), "\n"), true, nil
}

func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}

	return strings.Split(content, "\n")
}

// selectLines keeps the last Tail lines and then the first Head lines of those.
func selectLines(lines []string, opts LogOptions) []string {
	if opts.Tail != nil && *opts.Tail < len(lines) {
		lines = lines[len(lines)-*opts.Tail:]
	}

	if opts.Head != nil && *opts.Head < len(lines) {
		lines = lines[:*opts.Head]
	}

	return lines
}
