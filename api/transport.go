// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the non-blocking message socket abstraction consumed by the
// socket layer, and the readiness primitives it is scheduled with.

package api

// Socket is an already-connected, already-typed message socket.
// All operations are non-blocking and return ErrWouldBlock instead of waiting.
type Socket interface {
	// Recv receives one frame. more reports whether further frames of the
	// same message follow. The returned slice is only valid until the next Recv.
	Recv() (frame []byte, more bool, err error)

	// Send sends one frame; more marks that further frames follow.
	Send(frame []byte, more bool) error

	// Events returns the socket-level readiness currently cached by the transport.
	Events() (Events, error)

	// Fd returns the OS descriptor signalling readiness changes.
	Fd() (int, error)

	// Close releases the socket.
	Close() error
}

// Waker reschedules the task that registered it.
// Wake must only be called from the loop goroutine that owns the task.
// Implementations must be comparable; guards deduplicate parked wakers.
type Waker interface {
	Wake()
}

// ReadinessGuard is the edge-triggered readiness-change notification of one
// descriptor. Consuming an edge does not mean the socket is ready: the edge
// may already match the current socket state.
type ReadinessGuard interface {
	// PollReady reports whether an edge was observed since the last
	// ClearReady. When it reports false, w is retained and woken on the next edge.
	PollReady(w Waker) (bool, error)

	// ClearReady consumes the observed edge.
	ClearReady()

	// Close deregisters the descriptor.
	Close() error
}
