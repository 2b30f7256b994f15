// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package process

import (
	"context"
	"os"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func testContext() context.Context {
	return ctxlog.New(context.Background(), ctxlog.DefaultLogger)
}

func shell(id, script string) Spec {
	return Spec{ID: id, Path: "/bin/sh", Args: []string{"-c", script}}
}

func collect(t *testing.T, h *Handle) []Chunk {
	t.Helper()

	var chunks []Chunk

	timeout := time.After(5 * time.Second)

	for {
		select {
		case c, ok := <-h.Output():
			if !ok {
				return chunks
			}

			chunks = append(chunks, c)
		case <-timeout:
			t.Fatal("timed out draining output")
		}
	}
}

func TestSpawn_OutputAndExit(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("echo", "echo hello; echo oops >&2; exit 3"))
	require.NoError(t, err)
	assert.Positive(t, h.Pid())
	assert.Equal(t, "echo", h.ID())
	assert.False(t, h.StartedAt().IsZero())

	chunks := collect(t, h)
	<-h.Done()

	require.Len(t, chunks, 2)

	byStream := map[Stream]string{}
	for _, c := range chunks {
		byStream[c.Stream] = c.Data
	}

	assert.Equal(t, "hello", byStream[Stdout])
	assert.Equal(t, "oops", byStream[Stderr])
	assert.Equal(t, ExitStatus{Code: 3}, h.Exit())
	assert.True(t, h.Exited())
}

func TestSpawn_OutputIsLive(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("live", "echo first; sleep 1; echo second"))
	require.NoError(t, err)

	select {
	case c := <-h.Output():
		assert.Equal(t, "first", c.Data)
	case <-h.Done():
		t.Fatal("first line should arrive before the process exits")
	case <-time.After(900 * time.Millisecond):
		t.Fatal("first line was not delivered while the process was running")
	}

	assert.False(t, h.Exited())

	rest := collect(t, h)
	<-h.Done()

	require.Len(t, rest, 1)
	assert.Equal(t, "second", rest[0].Data)
	assert.Equal(t, "second", h.LastLine())
}

func TestSpawn_TrailingPartialLine(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("partial", "printf 'no newline'"))
	require.NoError(t, err)

	chunks := collect(t, h)
	<-h.Done()

	require.Len(t, chunks, 1)
	assert.Equal(t, "no newline", chunks[0].Data)
}

func TestSpawn_LongLineIsSplit(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("long", "head -c 100000 /dev/zero | tr '\\0' 'a'; echo"))
	require.NoError(t, err)

	chunks := collect(t, h)
	<-h.Done()

	total := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Data), MaxChunkSize)
		total += len(c.Data)
	}

	assert.Equal(t, 100000, total)
	assert.Greater(t, len(chunks), 1)
}

func TestSpawn_GrandchildHoldingPipes(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	start := time.Now()

	h, err := Spawn(testContext(), shell("orphan", "sleep 4 & echo parent; exit 0"))
	require.NoError(t, err)

	chunks := collect(t, h)
	<-h.Done()

	elapsed := time.Since(start)

	require.Len(t, chunks, 1)
	assert.Equal(t, "parent", chunks[0].Data)
	assert.Equal(t, ExitStatus{Code: 0}, h.Exit())
	assert.GreaterOrEqual(t, elapsed, DrainTimeout, "pipes stay open until the drain timeout")
	assert.Less(t, elapsed, 4*time.Second, "the grandchild must not hold up the exit notification")
}

func TestSpawn_Env(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	spec := shell("env", "echo $HERD_TEST_VALUE")
	spec.Env = map[string]string{"HERD_TEST_VALUE": "overlaid"}
	spec.Dir = t.TempDir()

	h, err := Spawn(testContext(), spec)
	require.NoError(t, err)

	chunks := collect(t, h)
	<-h.Done()

	require.Len(t, chunks, 1)
	assert.Equal(t, "overlaid", chunks[0].Data)
	assert.Equal(t, map[string]string{"HERD_TEST_VALUE": "overlaid"}, h.Env())
}

func TestSpawn_NotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := Spawn(testContext(), Spec{ID: "missing", Path: "/not/a/real/command"})

	var pathErr *os.PathError

	require.ErrorIs(t, err, ErrSpawn)
	assert.ErrorAs(t, err, &pathErr)
}

func TestHandle_SignalTerminates(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("sleeper", "exec sleep 10"))
	require.NoError(t, err)

	require.NoError(t, h.Signal(syscall.SIGTERM))

	collect(t, h)
	<-h.Done()

	exit := h.Exit()
	assert.Equal(t, -1, exit.Code)
	assert.Equal(t, syscall.SIGTERM.String(), exit.Signal)
}

func TestHandle_SignalAfterExit(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	h, err := Spawn(testContext(), shell("quick", "exit 0"))
	require.NoError(t, err)

	collect(t, h)
	<-h.Done()

	err = h.Signal(syscall.SIGTERM)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestHandle_DetachedGroupSignal(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	spec := shell("group", "sleep 10 & wait")
	spec.Detached = true

	h, err := Spawn(testContext(), spec)
	require.NoError(t, err)
	assert.True(t, h.Detached())

	pgid, err := syscall.Getpgid(h.Pid())
	require.NoError(t, err)
	assert.Equal(t, h.Pid(), pgid, "detached process leads its own group")

	require.NoError(t, h.Signal(os.Kill))

	collect(t, h)
	<-h.Done()

	assert.Equal(t, -1, h.Exit().Code)
}

func TestStream_String(t *testing.T) {
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
}

func TestEnviron_OverlayWins(t *testing.T) {
	t.Setenv("HERD_OVERLAY", "base")

	env := environ(map[string]string{"HERD_OVERLAY": "override", "A": "1"})

	last := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, "HERD_OVERLAY=") {
			last = kv
		}
	}

	assert.Equal(t, "HERD_OVERLAY=override", last)
	assert.Contains(t, env, "A=1")
}
