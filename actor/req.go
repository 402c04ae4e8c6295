// File: actor/req.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request/reply over a strictly alternating socket.

package actor

import (
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
	"go.uber.org/zap"
)

// ReplyFunc receives the reply to a request, or the error that ended it.
// It runs on the actor's loop.
type ReplyFunc func(reply api.Message, err error)

type request struct {
	msg   api.Message
	reply ReplyFunc
}

// ReqContext owns a request socket. Requests are sent one at a time; the
// next one starts after the previous reply arrived.
type ReqContext struct {
	*Parts
	queue   []request
	cur     *request
	wr      *socket.Writer
	rd      *socket.ReadOp
	reading bool
	waker   api.Waker
}

// StartReq runs act with a requester on h.
func StartReq(loop *concurrency.Loop, act any, h *socket.Handle) *Address {
	ctx := &ReqContext{Parts: newParts(loop, act, "req"), wr: h.Write(nil), rd: h.Read()}
	ctx.self = ctx
	ctx.handles = append(ctx.handles, h)

	th := loop.Spawn(concurrency.TaskFunc(ctx.poll))
	ctx.track(th)
	ctx.streams = append(ctx.streams, stream{task: th, cancel: ctx.abort})
	ctx.start()
	return ctx.addr
}

// Request queues msg and calls reply with the answer. Once the context is
// stopping, reply is called at once with api.ErrActorStopped.
func (c *ReqContext) Request(msg api.Message, reply ReplyFunc) {
	if c.state >= Stopping {
		reply(nil, api.ErrActorStopped)
		return
	}
	c.queue = append(c.queue, request{msg: msg, reply: reply})
	if c.waker != nil {
		w := c.waker
		c.waker = nil
		w.Wake()
	}
}

// Pending returns the number of requests without a reply, including the one
// in flight.
func (c *ReqContext) Pending() int {
	n := len(c.queue)
	if c.cur != nil {
		n++
	}
	return n
}

func (c *ReqContext) poll(w api.Waker) bool {
	for {
		if c.cur == nil {
			if len(c.queue) == 0 {
				c.waker = w
				return false
			}
			next := c.queue[0]
			c.queue[0] = request{}
			c.queue = c.queue[1:]
			c.cur = &next
			c.wr.Start(next.msg)
		}
		if !c.reading {
			p, err := c.wr.PollWrite(w)
			if p == api.Pending {
				return false
			}
			if err != nil {
				c.complete(nil, err)
				continue
			}
			c.rd.Reset()
			c.reading = true
		}
		p, msg, err := c.rd.Poll(w)
		if p == api.Pending {
			return false
		}
		c.complete(msg, err)
	}
}

func (c *ReqContext) complete(msg api.Message, err error) {
	cur := c.cur
	c.cur = nil
	c.reading = false
	if err != nil {
		c.log.Debug("request failed", zap.Error(err))
	}
	cur.reply(msg, err)
}

// abort fails every outstanding request when the context stops.
func (c *ReqContext) abort() {
	pending := c.queue
	c.queue = nil
	c.waker = nil
	if c.cur != nil {
		pending = append([]request{*c.cur}, pending...)
		c.cur = nil
	}
	for _, r := range pending {
		r.reply(nil, api.ErrActorStopped)
	}
}
