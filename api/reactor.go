// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for edge-triggered readiness reactors
// used to multiplex message sockets onto one cooperative event loop.

package api

// Reactor defines the common interface for a readiness backend.
// Register and Wait are called from the loop goroutine only; Notify is safe
// from any goroutine.
type Reactor interface {
	// Register must associate a descriptor with the reactor and return its guard.
	Register(fd int) (ReadinessGuard, error)

	// Wait must block up to timeoutMs (negative blocks indefinitely) and
	// wake the wakers parked on guards whose descriptor signalled an edge.
	Wait(timeoutMs int) error

	// Notify must interrupt a blocked Wait.
	Notify() error

	// Close must release the backend.
	Close() error
}
