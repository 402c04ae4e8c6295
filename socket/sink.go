// File: socket/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"github.com/momentics/hioload-zmq/api"
	"go.uber.org/zap"
)

// WriteHandler receives the outcome of a SinkDriver.
type WriteHandler interface {
	// Error reports a failed write; the verdict decides whether the driver
	// keeps going.
	Error(err error) api.Verdict
	// Finished fires when a requested close completed, or when the handler
	// stopped the driver while it was closing.
	Finished()
	// Stopped fires when the handler stopped the driver outside of a close.
	Stopped()
}

// sinkState is shared by a Sink and its SinkDriver. Both live on the loop
// goroutine, so it needs no lock; it must not be touched re-entrantly from
// a handler callback that is running inside the driver.
type sinkState struct {
	writer   *Writer
	queue    []api.Message
	waker    api.Waker
	stopping bool
	done     bool
}

// pop removes the most recently enqueued message. Under backpressure newer
// messages therefore overtake older ones.
func (st *sinkState) pop() (api.Message, bool) {
	n := len(st.queue)
	if n == 0 {
		return nil, false
	}
	msg := st.queue[n-1]
	st.queue[n-1] = nil
	st.queue = st.queue[:n-1]
	return msg, true
}

func (st *sinkState) wake() {
	if st.waker == nil {
		return
	}
	w := st.waker
	st.waker = nil
	w.Wake()
}

// Sink is the producer side of an outbound buffer.
type Sink struct {
	h  *Handle
	st *sinkState
}

// SinkDriver feeds buffered messages into the socket, one at a time.
// It implements concurrency.Task.
type SinkDriver struct {
	h        *Handle
	st       *sinkState
	handler  WriteHandler
	released bool
}

// Sink acquires a writer half on h.
func (h *Handle) Sink() (*Sink, *SinkDriver) {
	h.acquire()
	st := &sinkState{writer: &Writer{h: h}}
	return &Sink{h: h, st: st}, &SinkDriver{h: h, st: st, handler: defaultWriteHandler{}}
}

// Write enqueues msg and returns immediately.
func (s *Sink) Write(msg api.Message) {
	if s.st.done {
		s.h.log.Debug("write after sink completed, message dropped", zap.Int("frames", len(msg)))
		return
	}
	s.st.queue = append(s.st.queue, msg)
	s.h.metrics.QueueDepth(len(s.st.queue))
	s.st.wake()
}

// Close asks the driver to drain the buffer and finish.
func (s *Sink) Close() {
	if s.st.stopping {
		return
	}
	s.st.stopping = true
	s.st.wake()
}

// Len returns the number of queued messages not yet started.
func (s *Sink) Len() int {
	return len(s.st.queue)
}

// Closing reports whether Close was called.
func (s *Sink) Closing() bool {
	return s.st.stopping
}

// Done reports whether the driver has completed.
func (s *Sink) Done() bool {
	return s.st.done
}

// WithHandler sets the handler notified by the driver.
func (d *SinkDriver) WithHandler(handler WriteHandler) *SinkDriver {
	if handler != nil {
		d.handler = handler
	}
	return d
}

// Poll runs one wake of the driver: start the next message when the writer
// is idle, push the in-flight one forward, and complete once a requested
// close has drained everything.
func (d *SinkDriver) Poll(w api.Waker) bool {
	st := d.st
	if st.done {
		return true
	}

	p, err := st.writer.PollWrite(w)
	if p == api.Ready && err != nil {
		if d.failed(err) {
			return true
		}
		p, err = api.Ready, nil
	}
	if p == api.Ready {
		if msg, ok := st.pop(); ok {
			d.h.metrics.QueueDepth(len(st.queue))
			st.writer.Start(msg)
			p, err = st.writer.PollWrite(w)
			if p == api.Ready && err != nil && d.failed(err) {
				return true
			}
		}
	}

	if p == api.Ready && st.writer.Remaining() == 0 {
		if len(st.queue) > 0 {
			w.Wake()
		} else if st.stopping {
			d.complete()
			d.handler.Finished()
			return true
		}
	}
	st.waker = w
	return false
}

// failed reports a write error and tells whether the driver must complete.
func (d *SinkDriver) failed(err error) bool {
	if d.handler.Error(err) != api.Stop {
		return false
	}
	stopping := d.st.stopping
	d.complete()
	if stopping {
		d.handler.Finished()
	} else {
		d.handler.Stopped()
	}
	return true
}

func (d *SinkDriver) complete() {
	d.st.done = true
	d.st.waker = nil
	if !d.released {
		d.released = true
		d.h.release()
	}
}

type defaultWriteHandler struct{}

func (defaultWriteHandler) Error(error) api.Verdict { return api.Stop }
func (defaultWriteHandler) Finished()               {}
func (defaultWriteHandler) Stopped()                {}
