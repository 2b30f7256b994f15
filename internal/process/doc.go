// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package process spawns and tracks a single operating system process.
//
// A Handle exposes two event sources: Output, a merged channel of line chunks
// from stdout and stderr delivered as they are produced, and Done, closed once
// when the process has been reaped. Done never fires before Output is closed,
// so a consumer that drains Output and then waits on Done sees every line
// before the exit status.
package process
