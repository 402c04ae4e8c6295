// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package socket

import (
	"fmt"

	"github.com/momentics/hioload-zmq/api"
)

// Writer drives one in-flight multipart message to completion.
type Writer struct {
	h   *Handle
	msg api.Message
}

// Write returns a writer with msg already in flight.
func (h *Handle) Write(msg api.Message) *Writer {
	return &Writer{h: h, msg: msg}
}

// Start replaces the in-flight message.
func (wr *Writer) Start(msg api.Message) {
	wr.msg = msg
}

// Remaining returns the number of frames not yet sent.
func (wr *Writer) Remaining() int {
	return len(wr.msg)
}

// PollWrite sends the in-flight message frame by frame.
//
// A would-block before any frame of this call left reports api.Pending and
// the whole message is retried on the next wake. A would-block after some
// frames already left cannot be resumed: it reports api.ErrPartialSend.
// Any failure discards the in-flight message.
func (wr *Writer) PollWrite(w api.Waker) (api.Poll, error) {
	p, err := wr.h.poll(api.EventWrite, w)
	if p == api.Pending {
		return p, nil
	}
	if err != nil {
		return api.Ready, wr.fail(err)
	}

	n := len(wr.msg)
	for i := 0; i < n; i++ {
		err := wr.h.sock.Send(wr.msg[0], i < n-1)
		if err != nil {
			if api.IsWouldBlock(err) {
				if len(wr.msg) == n {
					p, err := wr.h.park(api.EventWrite, w)
					if err != nil {
						return api.Ready, wr.fail(err)
					}
					return p, nil
				}
				err = fmt.Errorf("%w: %d of %d frames sent", api.ErrPartialSend, n-len(wr.msg), n)
			}
			if len(wr.msg) < n {
				wr.h.nudge(api.EventRead)
			}
			return api.Ready, wr.fail(err)
		}
		wr.msg = wr.msg[1:]
		wr.h.metrics.FrameSent()
	}
	if n > 0 {
		wr.h.metrics.Sent()
		wr.h.nudge(api.EventRead)
	}
	wr.msg = nil
	return api.Ready, nil
}

func (wr *Writer) fail(err error) error {
	wr.msg = nil
	wr.h.metrics.WriteError()
	return err
}
