// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"errors"

	"github.com/matt-FFFFFF/herd/internal/logsink"
	"github.com/matt-FFFFFF/herd/internal/process"
	"github.com/matt-FFFFFF/herd/internal/registry"
	"github.com/matt-FFFFFF/herd/internal/signalbroker"
)

var (
	// ErrDuplicateID is returned by Start when the ID is already registered or being started.
	ErrDuplicateID = registry.ErrDuplicateID
	// ErrFileNotFound is returned by Start when the executable does not resolve to a file.
	ErrFileNotFound = errors.New("executable not found")
	// ErrInstanceNotFound is returned by Restart when the ID is not registered.
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrSpawn is returned when the operating system could not launch the process.
	ErrSpawn = process.ErrSpawn
	// ErrLogOpen is returned when the log directory or file cannot be opened.
	ErrLogOpen = logsink.ErrLogOpen
	// ErrSignalDelivery is returned when a signal could not be delivered.
	ErrSignalDelivery = process.ErrSignalDelivery
	// ErrNoSuchProcess is returned when signalling a process that has already exited.
	ErrNoSuchProcess = process.ErrNoSuchProcess
	// ErrInvalidLogRange is returned when a tail or head count is negative.
	ErrInvalidLogRange = errors.New("tail and head must not be negative")
	// ErrUnknownSignal is returned when a signal name cannot be parsed.
	ErrUnknownSignal = signalbroker.ErrUnknownSignal
)
