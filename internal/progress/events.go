// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single live update about one supervised instance.
type Event struct {
	Instance  string    // Instance ID the event belongs to
	Type      EventType // What happened
	Message   string    // Human-readable status message, may be empty
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of event.
type EventType int

const (
	// EventStarted indicates the instance process was spawned.
	EventStarted EventType = iota
	// EventOutput carries one line of stdout or stderr.
	EventOutput
	// EventStopping indicates a stop signal was dispatched.
	EventStopping
	// EventSignalled indicates an arbitrary signal was delivered.
	EventSignalled
	// EventRestarting indicates a restart has begun.
	EventRestarting
	// EventExited indicates the process terminated and was unregistered.
	EventExited
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventStopping:
		return "stopping"
	case EventSignalled:
		return "signalled"
	case EventRestarting:
		return "restarting"
	case EventExited:
		return "exited"
	default:
		return "unknown"
	}
}

// EventData contains type-specific information.
type EventData struct {
	// EventOutput
	Line     string // The output line without trailing newline
	IsStderr bool   // True if the line came from stderr

	// EventStarted
	Pid int

	// EventExited, EventStopping, EventSignalled
	ExitCode int    // Exit code, -1 when terminated by a signal
	Signal   string // Signal name, if any
}

// Reporter is the interface for sending events.
type Reporter interface {
	// Report sends an event. Implementations must not block the caller for long:
	// output pumps call it once per line.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives events from a ChannelReporter.
type Listener interface {
	// OnEvent is called for each event, sequentially, from one goroutine.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
