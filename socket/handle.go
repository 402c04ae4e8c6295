// File: socket/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/control"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registrar registers a descriptor for readiness notification.
// *concurrency.Loop implements it.
type Registrar interface {
	Register(fd int) (api.ReadinessGuard, error)
}

// Option customizes a Handle.
type Option func(*Handle)

// WithName labels the handle in logs and metrics.
func WithName(name string) Option {
	return func(h *Handle) {
		h.name = name
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handle) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics records traffic of this handle in m under its name.
func WithMetrics(m *control.Metrics) Option {
	return func(h *Handle) {
		h.metricsSrc = m
	}
}

// Handle owns a socket and its readiness guard. It is shared by at most one
// reader half and one writer half; the socket is closed once every half
// acquired through Split, Reader or Sink has been released.
type Handle struct {
	sock       api.Socket
	guard      api.ReadinessGuard
	name       string
	log        *zap.Logger
	metricsSrc *control.Metrics
	metrics    *control.SocketMetrics
	refs       int
	closed     bool
	closeErr   error
	// parked holds the waker each half last suspended with, indexed by
	// slot(interest). A send or receive by one half can change the other
	// half's readiness without raising an edge on the descriptor.
	parked [2]api.Waker
}

// NewHandle wraps an already registered socket.
func NewHandle(sock api.Socket, guard api.ReadinessGuard, opts ...Option) *Handle {
	h := &Handle{
		sock:  sock,
		guard: guard,
		name:  "socket",
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("socket").With(zap.String("socket", h.name))
	h.metrics = h.metricsSrc.Socket(h.name)
	return h
}

// Open registers the socket's descriptor with r and wraps it.
func Open(r Registrar, sock api.Socket, opts ...Option) (*Handle, error) {
	fd, err := sock.Fd()
	if err != nil {
		return nil, err
	}
	guard, err := r.Register(fd)
	if err != nil {
		return nil, err
	}
	return NewHandle(sock, guard, opts...), nil
}

// Name returns the handle's label.
func (h *Handle) Name() string {
	return h.name
}

// Socket returns the wrapped socket.
func (h *Handle) Socket() api.Socket {
	return h.sock
}

// Closed reports whether the socket has been closed.
func (h *Handle) Closed() bool {
	return h.closed
}

// Split returns the reader half and the writer half (buffer and driver).
func (h *Handle) Split() (*Reader, *Sink, *SinkDriver) {
	r := h.Reader()
	sink, driver := h.Sink()
	return r, sink, driver
}

// Close deregisters the descriptor and closes the socket. It is idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return h.closeErr
	}
	h.closed = true
	h.parked = [2]api.Waker{}
	h.closeErr = multierr.Combine(h.guard.Close(), h.sock.Close())
	if h.closeErr != nil {
		h.log.Debug("socket closed with error", zap.Error(h.closeErr))
	} else {
		h.log.Debug("socket closed")
	}
	return h.closeErr
}

func (h *Handle) acquire() {
	h.refs++
}

func (h *Handle) release() {
	if h.refs == 0 {
		return
	}
	h.refs--
	if h.refs == 0 {
		_ = h.Close()
	}
}

// poll reports whether the socket is ready for interest. The cached socket
// events are authoritative; the guard is only consulted when they say no.
func (h *Handle) poll(interest api.Events, w api.Waker) (api.Poll, error) {
	ev, err := h.sock.Events()
	if err != nil {
		return api.Ready, err
	}
	if ev.Has(interest) {
		h.parked[slot(interest)] = nil
		return api.Ready, nil
	}
	return h.park(interest, w)
}

// park suspends on the readiness guard. An edge that was already pending is
// consumed and the task is woken once more: the edge may have been raised
// for the state the socket is already in, and nothing else would wake it.
func (h *Handle) park(interest api.Events, w api.Waker) (api.Poll, error) {
	h.parked[slot(interest)] = w
	ready, err := h.guard.PollReady(w)
	if err != nil {
		return api.Ready, err
	}
	if ready {
		h.guard.ClearReady()
		w.Wake()
	}
	return api.Pending, nil
}

// nudge wakes the half parked on interest if the socket now reports it.
// It runs after the other half moved data through the socket. An Events
// failure also wakes the half so it can observe the error itself.
func (h *Handle) nudge(interest api.Events) {
	i := slot(interest)
	w := h.parked[i]
	if w == nil {
		return
	}
	ev, err := h.sock.Events()
	if err == nil && !ev.Has(interest) {
		return
	}
	h.parked[i] = nil
	w.Wake()
}

func slot(interest api.Events) int {
	if interest == api.EventRead {
		return 0
	}
	return 1
}
