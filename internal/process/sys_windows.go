// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package process

import (
	"os"
	"syscall"
)

func sysProcAttr(detached bool) *syscall.SysProcAttr {
	if !detached {
		return nil
	}

	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// signalGroup falls back to signalling the leader; Windows has no kill(-pgid).
func signalGroup(ps *os.Process, sig os.Signal) error {
	return ps.Signal(sig)
}

func exitSignal(*os.ProcessState) string {
	return ""
}
