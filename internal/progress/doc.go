// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries live lifecycle and output events from the supervisor
// to whatever is displaying them: the console echo, the TUI or nothing at all.
//
// The supervisor only ever produces structured events. Formatting belongs to
// the listener.
package progress
