// File: socket/read.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multipart receive path: whole messages or nothing.

package socket

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-zmq/api"
)

// arenaSize is the minimum allocation of a reader's frame arena.
const arenaSize = 8 << 10

// Reader is the inbound half of a Handle. Each PollNext yields one whole
// multipart message; the sequence ends with api.ErrEndOfStream.
type Reader struct {
	h        *Handle
	arena    []byte
	released bool
}

// Reader acquires a reader half on h.
func (h *Handle) Reader() *Reader {
	h.acquire()
	return &Reader{h: h}
}

// PollNext implements Source.
func (r *Reader) PollNext(w api.Waker) (api.Poll, api.Message, error) {
	return r.h.pollRead(w, &r.arena)
}

// Handle returns the handle the reader was split from.
func (r *Reader) Handle() *Handle {
	return r.h
}

// Release gives the reader half back to its handle.
func (r *Reader) Release() {
	if r.released {
		return
	}
	r.released = true
	r.h.release()
}

// ReadOp is a single-shot receive of one message, independent of any Reader.
type ReadOp struct {
	h     *Handle
	arena []byte
	done  bool
}

// Read returns an operation that receives exactly one message.
func (h *Handle) Read() *ReadOp {
	return &ReadOp{h: h}
}

// Poll drives the receive. Polling a completed operation reports
// api.ErrEndOfStream.
func (op *ReadOp) Poll(w api.Waker) (api.Poll, api.Message, error) {
	if op.done {
		return api.Ready, nil, api.ErrEndOfStream
	}
	p, msg, err := op.h.pollRead(w, &op.arena)
	if p == api.Ready {
		op.done = true
	}
	return p, msg, err
}

// Reset rearms the operation for another message. The buffer of earlier
// messages is kept and its spare room reused.
func (op *ReadOp) Reset() {
	op.done = false
}

func (h *Handle) pollRead(w api.Waker, arena *[]byte) (api.Poll, api.Message, error) {
	p, err := h.poll(api.EventRead, w)
	if p == api.Pending {
		return p, nil, nil
	}
	if err != nil {
		return api.Ready, nil, h.readFailed(err)
	}

	var msg api.Message
	for {
		frame, more, err := h.sock.Recv()
		if err != nil {
			switch {
			case errors.Is(err, api.ErrEndOfStream):
				return api.Ready, nil, err
			case len(msg) == 0 && api.IsWouldBlock(err):
				p, err := h.park(api.EventRead, w)
				if err != nil {
					return api.Ready, nil, h.readFailed(err)
				}
				return p, nil, nil
			case len(msg) == 0:
				return api.Ready, nil, h.readFailed(err)
			default:
				return api.Ready, nil, h.readFailed(
					fmt.Errorf("%w after %d frames: %w", api.ErrIncompleteMessage, len(msg), err))
			}
		}
		msg = append(msg, keep(arena, frame))
		if !more {
			break
		}
	}
	h.metrics.Received(len(msg))
	h.nudge(api.EventWrite)
	return api.Ready, msg, nil
}

func (h *Handle) readFailed(err error) error {
	if !errors.Is(err, api.ErrEndOfStream) {
		h.metrics.ReadError()
	}
	return err
}

// keep copies frame into the arena and slices it off, so consecutive frames
// share one allocation until the arena runs out of room.
func keep(arena *[]byte, frame []byte) []byte {
	n := len(frame)
	if cap(*arena) < n {
		*arena = make([]byte, 0, max(n, arenaSize))
	}
	buf := (*arena)[:n:n]
	copy(buf, frame)
	*arena = (*arena)[n:n]
	return buf
}
