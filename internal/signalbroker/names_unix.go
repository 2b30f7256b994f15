// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package signalbroker

import "syscall"

var unixOnly = map[string]syscall.Signal{
	"USR1":  syscall.SIGUSR1,
	"USR2":  syscall.SIGUSR2,
	"CONT":  syscall.SIGCONT,
	"STOP":  syscall.SIGSTOP,
	"TSTP":  syscall.SIGTSTP,
	"WINCH": syscall.SIGWINCH,
}

func platformSignal(name string) (syscall.Signal, bool) {
	sig, ok := unixOnly[name]
	return sig, ok
}
