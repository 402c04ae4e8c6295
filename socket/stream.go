// File: socket/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream driver: couples a message source to a handler with a lifecycle.

package socket

import (
	"errors"

	"github.com/momentics/hioload-zmq/api"
)

// State is the lifecycle of a StreamDriver.
type State int

const (
	NotStarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Source yields items one wake at a time. A Pending result means the waker
// has been parked; api.ErrEndOfStream ends the sequence.
type Source[T any] interface {
	PollNext(w api.Waker) (api.Poll, T, error)
}

// releaser is implemented by sources holding a handle reference.
type releaser interface {
	Release()
}

// StreamHandler consumes what a StreamDriver delivers.
type StreamHandler[T any] interface {
	Started()
	Handle(item T)
	// Error reports a read failure; api.Stop ends the stream.
	Error(err error) api.Verdict
	// Finished fires when the source reached end of stream.
	Finished()
	// Stopped fires when the handler stopped the stream through Error.
	Stopped()
}

// StreamDriver delivers at most one item or error per wake.
// It implements concurrency.Task.
type StreamDriver[T any] struct {
	src     Source[T]
	handler StreamHandler[T]
	state   State
}

// NewStreamDriver creates a driver in the NotStarted state.
func NewStreamDriver[T any](src Source[T], handler StreamHandler[T]) *StreamDriver[T] {
	return &StreamDriver[T]{src: src, handler: handler}
}

// State returns the driver's lifecycle state.
func (d *StreamDriver[T]) State() State {
	return d.state
}

// Cancel stops the driver without notifying the handler.
func (d *StreamDriver[T]) Cancel() {
	d.stop()
}

// Poll runs one wake of the driver.
func (d *StreamDriver[T]) Poll(w api.Waker) bool {
	switch d.state {
	case Stopped:
		return true
	case NotStarted:
		d.state = Running
		d.handler.Started()
		if d.state == Stopped {
			return true
		}
	}

	p, item, err := d.src.PollNext(w)
	if p == api.Pending {
		return false
	}
	if err != nil {
		if errors.Is(err, api.ErrEndOfStream) {
			d.stop()
			d.handler.Finished()
			return true
		}
		if d.handler.Error(err) == api.Stop {
			d.stop()
			d.handler.Stopped()
			return true
		}
	} else {
		d.handler.Handle(item)
	}
	if d.state == Stopped {
		return true
	}
	// More may already be buffered behind this one; the socket will not
	// raise another edge for it.
	w.Wake()
	return false
}

func (d *StreamDriver[T]) stop() {
	if d.state == Stopped {
		return
	}
	d.state = Stopped
	if r, ok := d.src.(releaser); ok {
		r.Release()
	}
}
