// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package supervisor

import (
	"os"
)

// Windows has no graceful termination signal for arbitrary processes.
var gracefulSignal os.Signal = os.Kill
