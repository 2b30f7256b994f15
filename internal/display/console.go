// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/matt-FFFFFF/herd/internal/color"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

// Console echoes instance output and status changes to a writer.
// Each instance gets a stable colour so interleaved output stays readable.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// OnEvent implements progress.Listener.
func (c *Console) OnEvent(e progress.Event) {
	line := StatusLine(e)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w, line) //nolint:errcheck
}

// StatusLine renders one event as a single line, without a trailing newline.
func StatusLine(e progress.Event) string {
	prefix := color.Colorize("["+e.Instance+"]", color.ForInstance(e.Instance))

	switch e.Type {
	case progress.EventOutput:
		if e.Data.IsStderr {
			return prefix + " " + color.Colorize(e.Data.Line, color.FgRed)
		}

		return prefix + " " + e.Data.Line
	case progress.EventStarted:
		return prefix + " " + color.Colorize("● "+e.Message, color.FgGreen)
	case progress.EventStopping, progress.EventRestarting, progress.EventSignalled:
		return prefix + " " + color.Colorize("● "+e.Message, color.FgYellow)
	case progress.EventExited:
		c := color.FgGreen
		if e.Data.ExitCode != 0 {
			c = color.FgRed
		}

		return prefix + " " + color.Colorize("● "+e.Message, c)
	default:
		return ""
	}
}
