// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"sync/atomic"
)

// ChannelReporter implements Reporter using a buffered channel.
// Events are dropped rather than blocking the sender when the buffer is full,
// so a slow display can never stall an instance's log pump.
type ChannelReporter struct {
	ch      chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	dropped atomic.Uint64
}

// NewChannelReporter creates a new ChannelReporter with the specified buffer size.
func NewChannelReporter(ctx context.Context, bufferSize int) *ChannelReporter {
	reporterCtx, cancel := context.WithCancel(ctx)

	return &ChannelReporter{
		ch:     make(chan Event, bufferSize),
		ctx:    reporterCtx,
		cancel: cancel,
	}
}

// Report implements Reporter.Report.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	select {
	case cr.ch <- event:
	default:
		cr.dropped.Add(1)
	}
}

// Close implements Reporter.Close.
// Queued events are still delivered to a running listener before Close returns.
func (cr *ChannelReporter) Close() {
	cr.once.Do(func() {
		cr.mu.Lock()
		cr.closed = true
		close(cr.ch)
		cr.mu.Unlock()

		cr.wg.Wait()
		cr.cancel()
	})
}

// Listen forwards events to listener from a new goroutine until Close is called
// or the reporter's parent context is cancelled.
func (cr *ChannelReporter) Listen(listener Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for {
			select {
			case event, ok := <-cr.ch:
				if !ok {
					return
				}

				listener.OnEvent(event)
			case <-cr.ctx.Done():
				return
			}
		}
	}()
}

// Events returns the underlying channel for manual consumption.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}

// Dropped returns the number of events discarded because the buffer was full.
func (cr *ChannelReporter) Dropped() uint64 {
	return cr.dropped.Load()
}
