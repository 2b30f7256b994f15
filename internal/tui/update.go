// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/herd/internal/progress"
)

const (
	reservedLines      = 7 // title, border and help text
	refreshInterval    = time.Second
	uptimeRounding     = time.Second
	minViewportWidth   = 20
	minViewportHeight  = 1
	idColumnWidth      = 16
	statusColumnWidth  = 10
	pidColumnWidth     = 8
	uptimeColumnWidth  = 10
	ellipsis           = "..."
	minStatusBarHeight = 10
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd

		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		w := max(msg.Width-2, minViewportWidth)
		h := max(msg.Height-reservedLines, minViewportHeight)

		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width = w
			m.viewport.Height = h
		}

		m.viewport.SetContent(m.renderRows())

		return m, nil

	case EventMsg:
		m.apply(msg.Event)
		m.viewport.SetContent(m.renderRows())

		return m, nil

	case tickMsg:
		m.viewport.SetContent(m.renderRows())
		return m, tick()
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	if !m.ready {
		return "Starting...\n"
	}

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("herd"))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarHeight {
		view.WriteString("\n")
		view.WriteString(m.styles.Help.Render(m.statusBar() + "  ↑/↓ to scroll, 'q' to quit"))
	}

	return view.String()
}

func (m *Model) statusBar() string {
	running := 0

	for _, r := range m.rows {
		if r.Status == StatusRunning || r.Status == StatusStopping {
			running++
		}
	}

	return fmt.Sprintf("%d running, %d total.", running, len(m.rows))
}

// renderRows builds the viewport content, one line per instance.
func (m *Model) renderRows() string {
	if len(m.rows) == 0 {
		return m.styles.Exited.Render("No instances running")
	}

	var b strings.Builder

	now := m.now()

	for _, r := range m.rows {
		end := now
		if !r.EndTime.IsZero() {
			end = r.EndTime
		}

		uptime := ""
		if !r.StartTime.IsZero() {
			uptime = end.Sub(r.StartTime).Round(uptimeRounding).String()
		}

		left := fmt.Sprintf("%-*s %-*s %-*d %-*s ",
			idColumnWidth, truncate(r.ID, idColumnWidth),
			statusColumnWidth, r.Status,
			pidColumnWidth, r.Pid,
			uptimeColumnWidth, uptime,
		)

		right := r.LastOutput
		if r.Status != StatusRunning && r.Message != "" {
			right = r.Message
		}

		right = truncate(right, max(m.viewport.Width-len(left)-1, len(ellipsis)+1))

		b.WriteString(m.statusStyle(r.Status).Render(left))
		b.WriteString(m.styles.Output.Render(right))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusRunning:
		return m.styles.Running
	case StatusStopping:
		return m.styles.Stopping
	case StatusFailed:
		return m.styles.Failed
	default:
		return m.styles.Exited
	}
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}

	if width > len(ellipsis) {
		return s[:width-len(ellipsis)] + ellipsis
	}

	return s[:width]
}
