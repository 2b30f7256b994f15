// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

// Status represents the state of an instance as seen by the dashboard.
type Status int

const (
	StatusRunning Status = iota
	StatusStopping
	StatusExited
	StatusFailed
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusExited:
		return "exited"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Row is one instance on the dashboard.
type Row struct {
	ID         string
	Pid        int
	Status     Status
	StartTime  time.Time
	EndTime    time.Time
	LastOutput string
	Message    string // latest status message
}

// Model represents the TUI application state.
type Model struct {
	rows  []*Row
	index map[string]*Row

	viewport viewport.Model
	ready    bool
	width    int
	height   int
	quitting bool

	now    func() time.Time
	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title    lipgloss.Style
	Running  lipgloss.Style
	Stopping lipgloss.Style
	Exited   lipgloss.Style
	Failed   lipgloss.Style
	Output   lipgloss.Style
	Help     lipgloss.Style
	Border   lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true),
		Stopping: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		Exited: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates an empty dashboard.
func NewModel() *Model {
	return &Model{
		index:  make(map[string]*Row),
		now:    time.Now,
		styles: NewStyles(),
	}
}

// Rows returns copies of the rows in first-seen order.
func (m *Model) Rows() []Row {
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}

	return out
}

func (m *Model) row(id string) *Row {
	if r, ok := m.index[id]; ok {
		return r
	}

	r := &Row{ID: id}
	m.index[id] = r
	m.rows = append(m.rows, r)

	return r
}

// apply folds one progress event into the rows.
func (m *Model) apply(e progress.Event) {
	r := m.row(e.Instance)

	switch e.Type {
	case progress.EventStarted:
		*r = Row{
			ID:        e.Instance,
			Pid:       e.Data.Pid,
			Status:    StatusRunning,
			StartTime: e.Timestamp,
			Message:   e.Message,
		}
	case progress.EventOutput:
		if e.Data.Line != "" {
			r.LastOutput = e.Data.Line
		}
	case progress.EventStopping:
		r.Status = StatusStopping
		r.Message = e.Message
	case progress.EventSignalled, progress.EventRestarting:
		r.Message = e.Message
	case progress.EventExited:
		r.Status = StatusExited
		if e.Data.ExitCode != 0 && e.Data.Signal == "" {
			r.Status = StatusFailed
		}

		r.EndTime = e.Timestamp
		r.Message = e.Message
	}
}
