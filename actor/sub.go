// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package actor

import (
	"fmt"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
)

// SubActor handles messages of a receive-only socket.
type SubActor interface {
	Handle(ctx *SubContext, msg api.Message)
}

// Subscriber is implemented by sockets with topic filtering.
type Subscriber interface {
	Subscribe(prefix string) error
	Unsubscribe(prefix string) error
}

// SubContext owns a receive-only socket.
type SubContext struct {
	*Parts
	h *socket.Handle
}

// StartSub runs act on the inbound messages of h.
func StartSub(loop *concurrency.Loop, act SubActor, h *socket.Handle) *Address {
	ctx := &SubContext{Parts: newParts(loop, act, "sub"), h: h}
	ctx.self = ctx
	ctx.handles = append(ctx.handles, h)

	spawnStream[api.Message](ctx.Parts, h.Reader(), func(msg api.Message) {
		act.Handle(ctx, msg)
	})
	ctx.start()
	return ctx.addr
}

// Subscribe adds a topic prefix filter.
func (c *SubContext) Subscribe(prefix string) error {
	s, ok := c.h.Socket().(Subscriber)
	if !ok {
		return fmt.Errorf("%w: socket %s has no topic filter", api.ErrNotSupported, c.h.Name())
	}
	return s.Subscribe(prefix)
}

// Unsubscribe removes a topic prefix filter.
func (c *SubContext) Unsubscribe(prefix string) error {
	s, ok := c.h.Socket().(Subscriber)
	if !ok {
		return fmt.Errorf("%w: socket %s has no topic filter", api.ErrNotSupported, c.h.Name())
	}
	return s.Unsubscribe(prefix)
}
