// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package actor

import (
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
)

// AsyncActor handles every message arriving on a duplex socket.
type AsyncActor interface {
	Handle(ctx *AsyncContext, msg api.Message)
}

// AsyncContext owns one socket for both directions.
type AsyncContext struct {
	*Parts
	sink *socket.Sink
}

// StartAsync runs act on h: inbound messages go to act.Handle and Send
// queues outbound ones. It must be called on the loop goroutine or before
// the loop runs.
func StartAsync(loop *concurrency.Loop, act AsyncActor, h *socket.Handle) *Address {
	ctx := &AsyncContext{Parts: newParts(loop, act, "async")}
	ctx.self = ctx
	ctx.handles = append(ctx.handles, h)

	r, sink, driver := h.Split()
	ctx.sink = sink
	spawnStream[api.Message](ctx.Parts, r, func(msg api.Message) {
		act.Handle(ctx, msg)
	})
	spawnSink(ctx.Parts, sink, driver, nil)
	ctx.start()
	return ctx.addr
}

// Send queues msg for the socket. It never blocks.
func (c *AsyncContext) Send(msg api.Message) {
	c.sink.Write(msg)
}

// Queued returns the number of messages waiting to be sent.
func (c *AsyncContext) Queued() int {
	return c.sink.Len()
}
