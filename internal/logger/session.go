// Package logger implements the acquisition pipeline: the sample tick
// handler, the debounced start/stop control and the storage writer that
// drains the ring buffer to removable storage.
//
// Three goroutines meet here. The sample timer runs Producer.Tick, the button
// event goroutine runs Control.Edge, and the supervisory loop runs the Writer.
// They share the ring buffer indices and the two Session flags, each of which
// has exactly one writer.
package logger

import "sync/atomic"

// Session holds the flags shared between the control, producer and writer.
type Session struct {
	running  atomic.Bool // written by Control only
	fileOpen atomic.Bool // written by Writer only
}

// Running reports whether logging has been requested.
func (s *Session) Running() bool {
	return s.running.Load()
}

// FileOpen reports whether the data file is open and accepting samples.
func (s *Session) FileOpen() bool {
	return s.fileOpen.Load()
}
