// File: api/message.go
// Author: momentics <momentics@gmail.com>
//
// Multipart message container exchanged with the socket layer.

package api

// Message is an ordered sequence of frames delivered as one unit.
// Frame order is significant. A message with zero frames is valid.
type Message [][]byte

// NewMessage builds a message from the given frames, in order.
func NewMessage(frames ...[]byte) Message {
	m := make(Message, 0, len(frames))
	return append(m, frames...)
}

// StringMessage builds a message with one frame per string.
func StringMessage(parts ...string) Message {
	m := make(Message, 0, len(parts))
	for _, p := range parts {
		m = append(m, []byte(p))
	}
	return m
}

// Len returns the number of frames.
func (m Message) Len() int {
	return len(m)
}

// Push appends a frame and returns the extended message.
func (m Message) Push(frame []byte) Message {
	return append(m, frame)
}

// Clone returns a deep copy; the copy shares no memory with m.
func (m Message) Clone() Message {
	if m == nil {
		return nil
	}
	out := make(Message, len(m))
	for i, f := range m {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Size returns the total payload length across all frames.
func (m Message) Size() int {
	n := 0
	for _, f := range m {
		n += len(f)
	}
	return n
}
