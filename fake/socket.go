// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-zmq/api"
)

type recvEntry struct {
	frame []byte
	more  bool
	err   error
}

// SentFrame is one frame captured by Socket.Send.
type SentFrame struct {
	Data []byte
	More bool
}

// Socket is a scriptable api.Socket. Inbound frames and errors are queued
// ahead of time; an empty inbound queue reports api.ErrWouldBlock.
// Readiness is derived from the queue and the writable flag unless
// overridden with SetEvents.
type Socket struct {
	mu         sync.Mutex
	fd         int
	inbox      []recvEntry
	sent       []SentFrame
	writable   bool
	sendBudget int
	sendErr    error
	events     *api.Events
	eventsErr  error
	closed     bool
	closeErr   error
	recvCalls  int
	sendCalls  int
}

var _ api.Socket = (*Socket)(nil)

// NewSocket creates a writable socket with an empty inbox.
func NewSocket(fd int) *Socket {
	return &Socket{fd: fd, writable: true, sendBudget: -1}
}

// Enqueue queues msg for Recv, marking all but the last frame with more.
func (s *Socket) Enqueue(msg api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range msg {
		s.inbox = append(s.inbox, recvEntry{frame: f, more: i < len(msg)-1})
	}
}

// EnqueueFrame queues a single frame with an explicit more flag.
func (s *Socket) EnqueueFrame(frame []byte, more bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = append(s.inbox, recvEntry{frame: frame, more: more})
}

// EnqueueError makes a future Recv fail with err.
func (s *Socket) EnqueueError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = append(s.inbox, recvEntry{err: err})
}

// SetWritable controls whether Send succeeds and EventWrite is reported.
func (s *Socket) SetWritable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writable = v
}

// BlockSendsAfter lets n more frames through, then reports would-block.
// A negative n removes the limit.
func (s *Socket) BlockSendsAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendBudget = n
}

// FailSends makes every Send return err; nil clears it.
func (s *Socket) FailSends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// SetEvents pins the reported readiness; nil restores derived readiness.
func (s *Socket) SetEvents(ev *api.Events) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = ev
}

// FailEvents makes Events return err; nil clears it.
func (s *Socket) FailEvents(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsErr = err
}

// FailClose makes Close return err.
func (s *Socket) FailClose(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeErr = err
}

// Recv implements api.Socket.
func (s *Socket) Recv() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvCalls++
	if s.closed {
		return nil, false, api.ErrEndOfStream
	}
	if len(s.inbox) == 0 {
		return nil, false, api.ErrWouldBlock
	}
	e := s.inbox[0]
	s.inbox = s.inbox[1:]
	if e.err != nil {
		return nil, false, e.err
	}
	return e.frame, e.more, nil
}

// Send implements api.Socket.
func (s *Socket) Send(frame []byte, more bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	if s.closed {
		return api.ErrEndOfStream
	}
	if s.sendErr != nil {
		return s.sendErr
	}
	if !s.writable || s.sendBudget == 0 {
		return api.ErrWouldBlock
	}
	if s.sendBudget > 0 {
		s.sendBudget--
	}
	s.sent = append(s.sent, SentFrame{Data: append([]byte{}, frame...), More: more})
	return nil
}

// Events implements api.Socket.
func (s *Socket) Events() (api.Events, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventsErr != nil {
		return 0, s.eventsErr
	}
	if s.events != nil {
		return *s.events, nil
	}
	var ev api.Events
	if len(s.inbox) > 0 {
		ev |= api.EventRead
	}
	if s.writable && s.sendBudget != 0 {
		ev |= api.EventWrite
	}
	return ev, nil
}

// Fd implements api.Socket.
func (s *Socket) Fd() (int, error) {
	return s.fd, nil
}

// Close implements api.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

// Closed reports whether Close was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SentFrames returns every frame sent so far.
func (s *Socket) SentFrames() []SentFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentFrame(nil), s.sent...)
}

// SentMessages groups sent frames into messages by their more flags.
// A trailing message still open (last frame marked more) is included.
func (s *Socket) SentMessages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Message
	var cur api.Message
	for _, f := range s.sent {
		cur = append(cur, f.Data)
		if !f.More {
			out = append(out, cur)
			cur = nil
		}
	}
	if cur != nil {
		out = append(out, cur)
	}
	return out
}

// RecvCalls returns how many times Recv was invoked.
func (s *Socket) RecvCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvCalls
}

// SendCalls returns how many times Send was invoked.
func (s *Socket) SendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls
}

// Pending returns the number of queued inbound entries.
func (s *Socket) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inbox)
}
