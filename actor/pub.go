// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package actor

import (
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
)

// PubContext owns a send-only socket.
type PubContext struct {
	*Parts
	sink *socket.Sink
}

// StartPub runs act with a publisher on h. The actor usually publishes from
// its Started hook, timers or closures sent to the returned address.
func StartPub(loop *concurrency.Loop, act any, h *socket.Handle) *Address {
	ctx := &PubContext{Parts: newParts(loop, act, "pub")}
	ctx.self = ctx
	ctx.handles = append(ctx.handles, h)

	sink, driver := h.Sink()
	ctx.sink = sink
	spawnSink(ctx.Parts, sink, driver, nil)
	ctx.start()
	return ctx.addr
}

// Publish queues msg for the socket. It never blocks.
func (c *PubContext) Publish(msg api.Message) {
	c.sink.Write(msg)
}

// Queued returns the number of messages waiting to be sent.
func (c *PubContext) Queued() int {
	return c.sink.Len()
}
