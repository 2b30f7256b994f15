// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrUnknownSignal is returned when a signal name or number cannot be resolved.
var ErrUnknownSignal = errors.New("unknown signal")

var byName = map[string]syscall.Signal{
	"HUP":  syscall.SIGHUP,
	"INT":  syscall.SIGINT,
	"QUIT": syscall.SIGQUIT,
	"KILL": syscall.SIGKILL,
	"TERM": syscall.SIGTERM,
	"ABRT": syscall.SIGABRT,
	"ALRM": syscall.SIGALRM,
	"PIPE": syscall.SIGPIPE,
}

// Parse resolves a signal from its name or number.
// Names are case insensitive and the SIG prefix is optional, so
// "SIGTERM", "term" and "15" all resolve to syscall.SIGTERM.
func Parse(name string) (os.Signal, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownSignal)
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSignal, n)
		}

		return syscall.Signal(n), nil
	}

	if sig, ok := byName[strings.TrimPrefix(s, "SIG")]; ok {
		return sig, nil
	}

	if sig, ok := platformSignal(strings.TrimPrefix(s, "SIG")); ok {
		return sig, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
}
