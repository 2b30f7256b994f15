// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want syscall.Signal
	}{
		{"SIGTERM", syscall.SIGTERM},
		{"term", syscall.SIGTERM},
		{" Kill ", syscall.SIGKILL},
		{"SIGINT", syscall.SIGINT},
		{"hup", syscall.SIGHUP},
		{"9", syscall.SIGKILL},
		{"15", syscall.SIGTERM},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sig, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, in := range []string{"", "SIGBOGUS", "-1", "0"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknownSignal, "input %q", in)
	}
}
