// File: api/events.go
// Package api defines core readiness and scheduling types for hioload-zmq.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Events is a readiness bit set reported by a Socket.
type Events uint8

const (
	EventRead Events = 1 << iota
	EventWrite
)

// Has reports whether every bit of want is set.
func (e Events) Has(want Events) bool {
	return e&want == want
}

func (e Events) String() string {
	switch e {
	case 0:
		return "none"
	case EventRead:
		return "read"
	case EventWrite:
		return "write"
	case EventRead | EventWrite:
		return "read|write"
	default:
		return "unknown"
	}
}

// Poll is the outcome of one readiness-driven attempt.
type Poll uint8

const (
	// Pending means the attempt suspended; the caller's Waker will be woken.
	Pending Poll = iota
	// Ready means the attempt completed, successfully or with an error.
	Ready
)

func (p Poll) String() string {
	if p == Ready {
		return "ready"
	}
	return "pending"
}

// Verdict is a handler's decision after an I/O error.
type Verdict uint8

const (
	Continue Verdict = iota
	Stop
)

func (v Verdict) String() string {
	if v == Stop {
		return "stop"
	}
	return "continue"
}
