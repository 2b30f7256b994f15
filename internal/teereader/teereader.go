// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MaxPartialLine bounds the memory held for a line that has not yet been terminated.
// Bytes beyond it are counted but not retained.
const MaxPartialLine = 4 * 1024

// LastLineTeeReader wraps an io.Reader and tracks the last complete line read through it.
// It is safe for concurrent use: one goroutine reads while others query.
type LastLineTeeReader struct {
	reader   io.Reader
	mu       sync.RWMutex
	lastLine string
	lastAt   time.Time
	partial  []byte
	total    int64
	now      func() time.Time
}

// NewLastLineTeeReader creates a new LastLineTeeReader that wraps the given reader.
func NewLastLineTeeReader(r io.Reader) *LastLineTeeReader {
	return &LastLineTeeReader{
		reader: r,
		now:    time.Now,
	}
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		lt.total += int64(n)
		lt.process(p[:n])
		lt.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

// process must be called with the write lock held.
func (lt *LastLineTeeReader) process(data []byte) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lt.appendPartial(data)
			return
		}

		lt.appendPartial(data[:i])
		lt.lastLine = string(bytes.TrimSuffix(lt.partial, []byte{'\r'}))
		lt.lastAt = lt.now()
		lt.partial = lt.partial[:0]
		data = data[i+1:]
	}
}

func (lt *LastLineTeeReader) appendPartial(b []byte) {
	room := MaxPartialLine - len(lt.partial)
	if room <= 0 {
		return
	}

	if len(b) > room {
		b = b[:room]
	}

	lt.partial = append(lt.partial, b...)
}

// LastLine returns the last complete line, truncated to maxLength with a "..." suffix when maxLength > 3.
// It returns an empty string if no line has been completed yet.
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	result := lt.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// LastLineAt returns when the last complete line was seen.
func (lt *LastLineTeeReader) LastLineAt() time.Time {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.lastAt
}

// PartialLine returns the data read after the last newline, up to MaxPartialLine bytes.
func (lt *LastLineTeeReader) PartialLine() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return string(lt.partial)
}

// BytesRead returns the total number of bytes that have passed through the reader.
func (lt *LastLineTeeReader) BytesRead() int64 {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.total
}

// Latest returns the more recent last line of a and b, e.g. a process's stdout and stderr.
// Nil readers are ignored.
func Latest(a, b *LastLineTeeReader) string {
	switch {
	case a == nil && b == nil:
		return ""
	case a == nil:
		return b.LastLine(0)
	case b == nil:
		return a.LastLine(0)
	}

	if b.LastLineAt().After(a.LastLineAt()) {
		return b.LastLine(0)
	}

	return a.LastLine(0)
}
