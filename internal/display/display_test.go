// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/herd/internal/color"
	"github.com/matt-FFFFFF/herd/internal/progress"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noColor(t *testing.T) {
	t.Helper()

	prev := color.Enabled()
	color.SetEnabled(false)

	t.Cleanup(func() { color.SetEnabled(prev) })
}

func TestTable_Empty(t *testing.T) {
	assert.Equal(t, NoInstances, Table(nil))
	assert.Equal(t, NoInstances, Table([]supervisor.Summary{}))
}

func TestTable_Rows(t *testing.T) {
	out := Table([]supervisor.Summary{
		{ID: "web", Pid: 1234, Name: "python3", Uptime: 90 * time.Second, LogName: "web.log"},
		{ID: "worker", Pid: 99, Name: "worker", Uptime: 26 * time.Hour, LogName: "worker.log"},
	})

	for _, want := range []string{"ID", "PID", "NAME", "UPTIME", "LOG", "web", "1234", "python3", "1m30s", "web.log", "worker", "1d2h"} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(out, "\n")
	webRow := -1
	workerRow := -1

	for i, l := range lines {
		if strings.Contains(l, "web.log") {
			webRow = i
		}

		if strings.Contains(l, "worker.log") {
			workerRow = i
		}
	}

	require.NotEqual(t, -1, webRow)
	assert.Less(t, webRow, workerRow, "rows keep list order")
}

func TestUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{1500 * time.Millisecond, "1s"},
		{61 * time.Second, "1m1s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
		{72*time.Hour + 4*time.Hour, "3d4h"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Uptime(tc.in), tc.in.String())
	}
}

func TestStatusLine(t *testing.T) {
	noColor(t)

	assert.Equal(t, "[web] hello", StatusLine(progress.Event{
		Instance: "web",
		Type:     progress.EventOutput,
		Data:     progress.EventData{Line: "hello"},
	}))

	assert.Equal(t, "[web] oops", StatusLine(progress.Event{
		Instance: "web",
		Type:     progress.EventOutput,
		Data:     progress.EventData{Line: "oops", IsStderr: true},
	}))

	assert.Equal(t, "[web] ● exited with code 2", StatusLine(progress.Event{
		Instance: "web",
		Type:     progress.EventExited,
		Message:  "exited with code 2",
		Data:     progress.EventData{ExitCode: 2},
	}))

	assert.Empty(t, StatusLine(progress.Event{Instance: "web", Type: progress.EventType(99)}))
}

func TestConsole_OnEvent(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer

	c := NewConsole(&buf)
	c.OnEvent(progress.Event{Instance: "a", Type: progress.EventStarted, Message: "started sh (pid 1)"})
	c.OnEvent(progress.Event{Instance: "a", Type: progress.EventOutput, Data: progress.EventData{Line: "x"}})
	c.OnEvent(progress.Event{Instance: "a", Type: progress.EventType(99)})

	assert.Equal(t, "[a] ● started sh (pid 1)\n[a] x\n", buf.String())
}
