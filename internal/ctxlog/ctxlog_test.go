// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx := New(context.Background(), custom)
	assert.Same(t, custom, Logger(ctx))

	ctx = New(context.Background(), nil)
	assert.Same(t, DefaultLogger, Logger(ctx), "nil logger should store DefaultLogger")
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{
			name: "context without logger",
			ctx:  context.Background(),
		},
		{
			name: "context with nil logger value",
			ctx:  context.WithValue(context.Background(), loggerKey{}, nil),
		},
		{
			name: "context with wrong type value",
			ctx:  context.WithValue(context.Background(), loggerKey{}, "not a logger"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, DefaultLogger, Logger(tt.ctx))
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := New(context.Background(), logger)

	Debug(ctx, "debug message", "k", 1)
	Info(ctx, "info message")
	Warn(ctx, "warn message")
	Error(ctx, "error message")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=\"debug message\" k=1")
	assert.Contains(t, out, "level=INFO msg=\"info message\"")
	assert.Contains(t, out, "level=WARN msg=\"warn message\"")
	assert.Contains(t, out, "level=ERROR msg=\"error message\"")
}

func TestWithInstance(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = WithInstance(ctx, "web")

	Info(ctx, "started")
	assert.Contains(t, buf.String(), "instance=web")
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromString("DEBUG"))
	assert.Equal(t, slog.LevelInfo, levelFromString("info"))
	assert.Equal(t, slog.LevelWarn, levelFromString("WARN"))
	assert.Equal(t, slog.LevelError, levelFromString("Error"))
	assert.Equal(t, slog.LevelWarn, levelFromString("verbose"))
	assert.Equal(t, slog.LevelWarn, levelFromString(""))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug}, WithDestinationWriter(&buf))
	logger := slog.New(h).With(InstanceKey, "api")

	logger.Info("process started", "pid", 42)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "[api] process started")
	assert.Contains(t, out, `"pid"`)
	assert.Contains(t, out, "42")
	assert.NotContains(t, out, `"instance"`, "instance attr is rendered as a prefix")
	assert.NotContains(t, out, "\033[", "colour is off unless requested")
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer

	h := NewPrettyHandler(nil, WithDestinationWriter(&buf))
	slog.New(h.WithGroup("exit")).Warn("process exited", "code", 3)

	assert.Contains(t, buf.String(), `"exit"`)
	assert.Contains(t, buf.String(), `"code"`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, os.ErrClosed
}

func TestPrettyHandler_WriteError(t *testing.T) {
	h := NewPrettyHandler(nil, WithDestinationWriter(failingWriter{}))
	err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelError, "boom", 0))

	require.ErrorIs(t, err, ErrIoWrite)
}

var testTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
