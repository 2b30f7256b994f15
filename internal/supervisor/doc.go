// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package supervisor launches, tracks, restarts and signals child processes.
//
// A Manager owns a registry of instances keyed by ID. Each instance is one
// process.Handle feeding one logsink.Sink. Two goroutines serve every instance:
// a pump that copies output to the log and the live display, and a reaper that
// appends the exit record, closes the log and removes the instance from the
// registry. The reaper only runs after the pump has finished, so the exit record
// is always the last line an instance writes.
//
// Absence is not an error: Stop, SendSignal, Get and GetLogs report a missing
// instance with a false result. Exit codes are recorded, never returned as errors.
package supervisor
