// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bytes"
	"strings"
	"sync"
)

const (
	defaultLogBufferSize = 1000
	maxLineLen           = 64 * 1024
)

// LogBuffer is a thread-safe ring buffer of output lines.
type LogBuffer struct {
	mu       sync.RWMutex
	lines    []string
	capacity int
	size     int
	head     int // next write position
}

// NewLogBuffer creates a log buffer holding at most capacity lines.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = defaultLogBufferSize
	}
	return &LogBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Write appends a line, overwriting the oldest once full.
func (b *LogBuffer) Write(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Lines returns up to the last n lines, oldest first.
func (b *LogBuffer) Lines(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || b.size == 0 {
		return []string{}
	}
	if n > b.size {
		n = b.size
	}

	result := make([]string, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.lines[(start+i)%b.capacity]
	}
	return result
}

// Size returns the number of buffered lines.
func (b *LogBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of lines.
func (b *LogBuffer) Capacity() int {
	return b.capacity
}

// lineWriter splits a byte stream into lines and hands each to emit.
// It is used as cmd.Stdout/cmd.Stderr so exec owns the pipe.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(string)
}

func newLineWriter(emit func(string)) *lineWriter {
	return &lineWriter{emit: emit}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	consumed := 0
	for {
		i := bytes.IndexByte(w.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		w.emit(cleanLine(w.buf[consumed : consumed+i]))
		consumed += i + 1
	}
	w.buf = append(w.buf[:0], w.buf[consumed:]...)

	if len(w.buf) > maxLineLen {
		w.emit(string(w.buf[:maxLineLen]) + "... [truncated]")
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(cleanLine(w.buf))
		w.buf = w.buf[:0]
	}
}

func cleanLine(b []byte) string {
	return strings.TrimSuffix(string(b), "\r")
}
