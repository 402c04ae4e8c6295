// File: actor/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poll groups: several sockets behind one actor, keyed by token.

package actor

import (
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
	"go.uber.org/zap"
)

// PollActor handles messages from every socket of a group.
type PollActor[T comparable] interface {
	Handle(ctx *PollContext[T], token T, msg api.Message)
}

// PollGroup collects sockets before the actor starts.
type PollGroup[T comparable] struct {
	order   []T
	handles map[T]*socket.Handle
	log     *zap.Logger
}

// NewPollGroup creates an empty group.
func NewPollGroup[T comparable]() *PollGroup[T] {
	return &PollGroup[T]{handles: make(map[T]*socket.Handle), log: zap.NewNop()}
}

// WithLogger attaches a logger used while building the group.
func (g *PollGroup[T]) WithLogger(log *zap.Logger) *PollGroup[T] {
	if log != nil {
		g.log = log
	}
	return g
}

// Register adds h under token. A token registered twice keeps its position
// and the newer handle; the replaced one is closed.
func (g *PollGroup[T]) Register(token T, h *socket.Handle) *PollGroup[T] {
	if old, ok := g.handles[token]; ok {
		if old != h {
			g.log.Debug("token registered twice, replacing socket", zap.Any("token", token))
			_ = old.Close()
		}
	} else {
		g.order = append(g.order, token)
	}
	g.handles[token] = h
	return g
}

// Len returns the number of registered sockets.
func (g *PollGroup[T]) Len() int {
	return len(g.order)
}

// Start splits every registered socket, merges the readers into one stream
// delivered to act, and spawns one outbound buffer per socket. The group is
// empty afterwards.
func (g *PollGroup[T]) Start(loop *concurrency.Loop, act PollActor[T]) *Address {
	ctx := &PollContext[T]{
		Parts: newParts(loop, act, "poll"),
		sinks: make(map[T]*socket.Sink, len(g.order)),
	}
	ctx.self = ctx

	readers := make([]*socket.TaggedReader[T], 0, len(g.order))
	for _, token := range g.order {
		token := token
		h := g.handles[token]
		ctx.handles = append(ctx.handles, h)
		ctx.tokens = append(ctx.tokens, token)

		r, sink, driver := h.Split()
		readers = append(readers, socket.Tag(token, r))
		ctx.sinks[token] = sink
		spawnSink(ctx.Parts, sink, driver, func(err error) error {
			return &socket.TokenError[T]{Token: token, Err: err}
		})
	}
	if len(readers) > 0 {
		spawnStream[socket.Tagged[T]](ctx.Parts, socket.Merge(readers...), func(item socket.Tagged[T]) {
			act.Handle(ctx, item.Token, item.Message)
		})
	}
	g.order = nil
	g.handles = make(map[T]*socket.Handle)

	ctx.start()
	return ctx.addr
}

// PollContext owns the sockets of a started PollGroup.
type PollContext[T comparable] struct {
	*Parts
	tokens []T
	sinks  map[T]*socket.Sink
}

// Send queues msg on the socket registered under token and reports true.
// For an unknown token nothing is queued: msg is handed back as undelivered
// and ok is false.
func (c *PollContext[T]) Send(token T, msg api.Message) (undelivered api.Message, ok bool) {
	sink, found := c.sinks[token]
	if !found {
		return msg, false
	}
	sink.Write(msg)
	return nil, true
}

// Tokens returns the registered tokens in registration order.
func (c *PollContext[T]) Tokens() []T {
	return append([]T(nil), c.tokens...)
}

// Queued returns the number of messages waiting on token's socket.
func (c *PollContext[T]) Queued(token T) int {
	if sink, ok := c.sinks[token]; ok {
		return sink.Len()
	}
	return 0
}
