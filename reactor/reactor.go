// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness guard shared by every reactor backend.

package reactor

import (
	"github.com/momentics/hioload-zmq/api"
)

// Registration is the readiness guard of one descriptor. It is owned by
// the loop goroutine; no locking is performed.
type Registration struct {
	fd      int
	ready   bool
	closed  bool
	wakers  []api.Waker
	release func(fd int) error
}

var _ api.ReadinessGuard = (*Registration)(nil)

func newRegistration(fd int, release func(fd int) error) *Registration {
	return &Registration{fd: fd, release: release}
}

// Fd returns the registered descriptor.
func (g *Registration) Fd() int {
	return g.fd
}

// PollReady reports a pending edge or parks w until the next one.
func (g *Registration) PollReady(w api.Waker) (bool, error) {
	if g.closed {
		return false, api.ErrEndOfStream
	}
	if g.ready {
		return true, nil
	}
	for _, parked := range g.wakers {
		if parked == w {
			return false, nil
		}
	}
	g.wakers = append(g.wakers, w)
	return false, nil
}

// ClearReady consumes the pending edge.
func (g *Registration) ClearReady() {
	g.ready = false
}

// Close deregisters the descriptor and drops parked wakers.
func (g *Registration) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.wakers = nil
	if g.release == nil {
		return nil
	}
	return g.release(g.fd)
}

// signal records an edge and wakes every parked waker once.
func (g *Registration) signal() {
	if g.closed {
		return
	}
	g.ready = true
	wakers := g.wakers
	g.wakers = nil
	for _, w := range wakers {
		w.Wake()
	}
}
