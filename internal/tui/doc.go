// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a full screen dashboard of supervised instances.
//
// The dashboard is driven by the same progress events as the console echo.
// Each instance is one row showing its state, pid, uptime and last output line.
// Rows for exited instances are kept, greyed out, until the dashboard is closed.
package tui
