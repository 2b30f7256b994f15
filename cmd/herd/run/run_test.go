// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gofrs/flock"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "herd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	root := &cli.Command{
		Name:           "herd",
		Commands:       []*cli.Command{RunCmd},
		Writer:         &out,
		ErrWriter:      &errOut,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)
	err := root.Run(ctx, append([]string{"herd", "run"}, args...))

	return out.String(), err
}

func TestRun_ExitWhenEmpty(t *testing.T) {
	skipOnWindows(t)

	logDir := t.TempDir()
	cfg := writeConfig(t, `
instances:
  - id: greeter
    path: /bin/sh
    args: ["-c", "echo hello from greeter"]
`)

	out, err := runCLI(t, "-f", cfg, "--log-dir", logDir, "--listen", "", "--exit-when-empty", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "[greeter] hello from greeter")

	b, err := os.ReadFile(filepath.Join(logDir, "greeter.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello from greeter")
	assert.Contains(t, string(b), "[greeter] Process exited with code 0")
}

func TestRun_StartFailureStillRunsOthers(t *testing.T) {
	skipOnWindows(t)

	logDir := t.TempDir()
	cfg := writeConfig(t, `
instances:
  - id: ok
    path: /bin/sh
    args: ["-c", "echo fine"]
  - id: broken
    path: /not/a/real/binary
`)

	_, err := runCLI(t, "-f", cfg, "--log-dir", logDir, "--listen", "", "--exit-when-empty", "--no-color")
	require.Error(t, err)

	var exit cli.ExitCoder

	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())

	b, err := os.ReadFile(filepath.Join(logDir, "ok.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "fine")
}

func TestRun_LockHeld(t *testing.T) {
	logDir := t.TempDir()

	lock := flock.New(filepath.Join(logDir, lockFileName))

	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	defer func() { _ = lock.Unlock() }()

	cfg := writeConfig(t, "instances: []\n")

	_, err = runCLI(t, "-f", cfg, "--log-dir", logDir, "--listen", "", "--exit-when-empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrAlreadyRunning.Error())
}
