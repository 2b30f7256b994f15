// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

var gracefulSignal os.Signal = syscall.SIGTERM
