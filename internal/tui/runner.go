// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

// Runner owns the bubbletea program.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a dashboard bound to ctx. Extra program options are appended
// after the defaults, which is how tests swap the terminal for buffers.
func NewRunner(ctx context.Context, opts ...tea.ProgramOption) *Runner {
	model := NewModel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, opts...),
	}
}

// Listener forwards progress events into the program.
// Send blocks until the program reads the message, so the listener must sit
// behind a progress.ChannelReporter rather than be called from an output pump.
func (r *Runner) Listener() progress.Listener {
	return progress.ListenerFunc(func(e progress.Event) {
		r.program.Send(EventMsg{Event: e})
	})
}

// Run blocks until the user quits or ctx is cancelled.
func (r *Runner) Run() error {
	_, err := r.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}

	return err
}

// Quit asks the program to exit.
func (r *Runner) Quit() {
	r.program.Quit()
}
