// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logsink

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/herd/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 6, 1, 12, 30, 45, 123000000, time.UTC)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestSink_RecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "svc.log")

	s, err := Open(path, "svc")
	require.NoError(t, err)

	require.NoError(t, s.Write("ready\n", process.Stdout, ts))
	require.NoError(t, s.Write("bad thing", process.Stderr, ts))
	require.NoError(t, s.WriteExit(0, ts))
	require.NoError(t, s.Close())

	assert.Equal(t, []string{
		"[2025-06-01T12:30:45.123Z] [svc] ready",
		"[2025-06-01T12:30:45.123Z] [svc] [ERROR] bad thing",
		"[2025-06-01T12:30:45.123Z] [svc] Process exited with code 0",
	}, readLines(t, path))
}

func TestSink_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	s, err := Open(path, "svc")
	require.NoError(t, err)
	require.NoError(t, s.Write("new run", process.Stdout, ts))
	require.NoError(t, s.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "previous run", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[svc] new run"))
}

func TestSink_CloseIsIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "a.log"), "a")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Write("late", process.Stdout, ts), ErrSinkClosed)
	assert.ErrorIs(t, s.WriteExit(1, ts), ErrSinkClosed)
}

func TestSink_OpenFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission semantics differ on windows")
	}

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Open(filepath.Join(blocker, "child.log"), "x")
	assert.ErrorIs(t, err, ErrLogOpen)
}

func TestSink_ConcurrentWritersKeepRecordsWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.log")

	s, err := Open(path, "c")
	require.NoError(t, err)

	var wg sync.WaitGroup

	for _, stream := range []process.Stream{process.Stdout, process.Stderr} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 200; i++ {
				_ = s.Write("payload", stream, ts)
			}
		}()
	}

	wg.Wait()
	require.NoError(t, s.Close())

	lines := readLines(t, path)
	assert.Len(t, lines, 400)

	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, "] payload"), "torn record: %q", l)
	}

	assert.Positive(t, s.BytesWritten())
}
