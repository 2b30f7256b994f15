// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type loggerKey struct{}

// InstanceKey is the attribute key used to tag log records with an instance ID.
// The pretty handler renders it as a bracketed prefix rather than a JSON attribute.
const InstanceKey = "instance"

// LevelVar holds the level shared by the package loggers.
// It is initialised from the <EXECUTABLE>_LOG_LEVEL environment variable.
var LevelVar = &slog.LevelVar{}

// DefaultLogger writes human friendly records to stderr.
var DefaultLogger = slog.New(NewPrettyHandler(&slog.HandlerOptions{
	Level: LevelVar,
},
	WithAutoColour(),
	WithDestinationWriter(os.Stderr),
))

// JSONLogger writes one JSON object per record to stderr.
var JSONLogger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
	Level: LevelVar,
}))

func init() {
	LevelVar.Set(levelFromString(os.Getenv(LevelEnvName())))
}

// New returns a copy of ctx carrying logger.
// A nil logger stores DefaultLogger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// NewForTUI returns a context whose logger writes plain records to w.
// Used while a full screen UI owns the terminal; w is flushed to the console afterwards.
func NewForTUI(ctx context.Context, w io.Writer) context.Context {
	return New(ctx, slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(w),
	)))
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// WithInstance returns a context whose logger tags every record with the instance ID.
func WithInstance(ctx context.Context, id string) context.Context {
	return New(ctx, Logger(ctx).With(InstanceKey, id))
}

// Info logs at info level using the logger in ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).InfoContext(ctx, msg, args...)
}

// Debug logs at debug level using the logger in ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).DebugContext(ctx, msg, args...)
}

// Warn logs at warn level using the logger in ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).WarnContext(ctx, msg, args...)
}

// Error logs at error level using the logger in ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).ErrorContext(ctx, msg, args...)
}

// LevelEnvName derives the log level variable from the executable name,
// e.g. HERD_LOG_LEVEL for a binary called herd or herd.exe.
func LevelEnvName() string {
	exe, _ := os.Executable()
	exe = filepath.Base(exe)
	exe = strings.TrimSuffix(exe, ".exe")
	exe = strings.NewReplacer("-", "_", ".", "_").Replace(exe)

	return strings.ToUpper(exe) + "_LOG_LEVEL"
}

// SetLevel parses s and applies it to LevelVar.
// Unknown values fall back to warn.
func SetLevel(s string) {
	LevelVar.Set(levelFromString(s))
}

func levelFromString(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
