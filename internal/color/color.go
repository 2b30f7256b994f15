// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Code represents an ANSI SGR parameter.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"
	reset      = "\033[0m"
	prefix     = "\033["
	suffix     = "m"
	sbPadding  = 16
)

// Text attributes.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

// instancePalette is cycled through when tagging live output by instance.
// Red is left out so it stays reserved for stderr and failures.
var instancePalette = []Code{
	FgCyan, FgGreen, FgYellow, FgBlue, FgMagenta,
	FgHiCyan, FgHiGreen, FgHiYellow, FgHiBlue, FgHiMagenta,
}

var enabled = isColorEnabled()

// ControlString generates an SGR escape sequence for the given codes.
func ControlString(c ...Code) string {
	if !enabled {
		return ""
	}

	return sgr(c)
}

func sgr(c []Code) string {
	sb := strings.Builder{}
	sb.Grow(len(prefix) + len(suffix) + sbPadding)
	sb.WriteString(prefix)

	for i, code := range c {
		if i > 0 {
			sb.WriteString(";")
		}

		sb.WriteString(strconv.Itoa(int(code)))
	}

	sb.WriteString(suffix)

	return sb.String()
}

// Colorize wraps str in the given codes and a trailing reset.
// It returns str unchanged when color output is disabled.
func Colorize(str string, colorCodes ...Code) string {
	if !enabled || len(colorCodes) == 0 {
		return str
	}

	return sgr(colorCodes) + str + reset
}

// ForInstance picks a stable color for an instance ID so that its live output
// is visually grouped across restarts.
func ForInstance(id string) Code {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return instancePalette[h.Sum32()%uint32(len(instancePalette))]
}

// Enabled reports whether color output is enabled.
//
// NO_COLOR always wins. Otherwise FORCE_COLOR enables color,
// and failing both, color is used only when stdout is a terminal.
func Enabled() bool {
	return enabled
}

// SetEnabled overrides terminal detection, e.g. for a --no-color flag.
func SetEnabled(v bool) {
	enabled = v
}

func isColorEnabled() bool {
	if nc := os.Getenv(NoColor); nc != "" {
		return false
	}

	if fc := os.Getenv(ForceColor); fc != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
