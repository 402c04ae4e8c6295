// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync/atomic"

	"github.com/momentics/hioload-zmq/api"
)

// Waker counts wakes.
type Waker struct {
	N int
}

// Wake implements api.Waker.
func (w *Waker) Wake() { w.N++ }

// Guard is a manually fired api.ReadinessGuard.
type Guard struct {
	ready  bool
	closed bool
	wakers []api.Waker
	// Polls counts PollReady calls.
	Polls int
}

var _ api.ReadinessGuard = (*Guard)(nil)

// PollReady implements api.ReadinessGuard.
func (g *Guard) PollReady(w api.Waker) (bool, error) {
	g.Polls++
	if g.closed {
		return false, api.ErrEndOfStream
	}
	if g.ready {
		return true, nil
	}
	for _, p := range g.wakers {
		if p == w {
			return false, nil
		}
	}
	g.wakers = append(g.wakers, w)
	return false, nil
}

// ClearReady implements api.ReadinessGuard.
func (g *Guard) ClearReady() { g.ready = false }

// Close implements api.ReadinessGuard.
func (g *Guard) Close() error {
	g.closed = true
	g.wakers = nil
	return nil
}

// Fire records an edge and wakes every parked waker.
func (g *Guard) Fire() {
	g.ready = true
	wakers := g.wakers
	g.wakers = nil
	for _, w := range wakers {
		w.Wake()
	}
}

// SetReady records an edge without waking anyone.
func (g *Guard) SetReady() { g.ready = true }

// Ready reports whether an unconsumed edge is pending.
func (g *Guard) Ready() bool { return g.ready }

// Parked returns the number of wakers waiting for an edge.
func (g *Guard) Parked() int { return len(g.wakers) }

// Closed reports whether Close was called.
func (g *Guard) Closed() bool { return g.closed }

// Reactor is an api.Reactor handing out Guards keyed by descriptor.
type Reactor struct {
	guards   map[int]*Guard
	notifies atomic.Int64
}

var _ api.Reactor = (*Reactor)(nil)

// NewReactor creates an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{guards: make(map[int]*Guard)}
}

// Register implements api.Reactor.
func (r *Reactor) Register(fd int) (api.ReadinessGuard, error) {
	g := &Guard{}
	r.guards[fd] = g
	return g, nil
}

// Guard returns the guard registered for fd.
func (r *Reactor) Guard(fd int) *Guard { return r.guards[fd] }

// FireAll fires every registered guard.
func (r *Reactor) FireAll() {
	for _, g := range r.guards {
		g.Fire()
	}
}

// Wait implements api.Reactor; it never blocks.
func (r *Reactor) Wait(int) error { return nil }

// Notify implements api.Reactor.
func (r *Reactor) Notify() error {
	r.notifies.Add(1)
	return nil
}

// Notifies returns how many times Notify was called.
func (r *Reactor) Notifies() int { return int(r.notifies.Load()) }

// Close implements api.Reactor.
func (r *Reactor) Close() error { return nil }
