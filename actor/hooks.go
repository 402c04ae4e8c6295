// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package actor

import "github.com/momentics/hioload-zmq/api"

// Starter is notified once the context runs.
type Starter interface {
	Started(ctx Context)
}

// Stopper is notified exactly once when the context has fully stopped.
type Stopper interface {
	Stopped(ctx Context)
}

// StreamStarter is notified before the first inbound message.
type StreamStarter interface {
	StreamStarted(ctx Context)
}

// StreamFinisher is notified when the inbound stream ends. Without it the
// context stops.
type StreamFinisher interface {
	StreamFinished(ctx Context)
}

// ReadErrorHandler decides whether a receive failure stops the context.
// Without it every failure does.
type ReadErrorHandler interface {
	ReadError(ctx Context, err error) api.Verdict
}

// WriteErrorHandler decides whether a send failure stops the context.
// Without it every failure does.
type WriteErrorHandler interface {
	WriteError(ctx Context, err error) api.Verdict
}

// WriteFinisher is notified when an outbound buffer completed. Without it
// the context stops.
type WriteFinisher interface {
	WriteFinished(ctx Context)
}
