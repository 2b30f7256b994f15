// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package process

import (
	"os"
	"syscall"
)

func sysProcAttr(detached bool) *syscall.SysProcAttr {
	if !detached {
		return nil
	}

	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals every process in the group led by ps.
func signalGroup(ps *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return ps.Signal(sig)
	}

	if err := syscall.Kill(-ps.Pid, s); err != nil {
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}

		return err
	}

	return nil
}

func exitSignal(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}

	return ws.Signal().String()
}
