// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package signalbroker

import "syscall"

func platformSignal(string) (syscall.Signal, bool) {
	return 0, false
}
