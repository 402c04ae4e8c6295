// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package socket

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-zmq/api"
)

// Tagged is a message labelled with the token of the socket it came from.
type Tagged[T comparable] struct {
	Token   T
	Message api.Message
}

// TokenError is a read or write failure of the socket registered under Token.
type TokenError[T comparable] struct {
	Token T
	Err   error
}

func (e *TokenError[T]) Error() string {
	return fmt.Sprintf("socket %v: %v", e.Token, e.Err)
}

func (e *TokenError[T]) Unwrap() error {
	return e.Err
}

// TaggedReader labels everything a Reader yields with a token.
type TaggedReader[T comparable] struct {
	token T
	r     *Reader
}

// Tag wraps r so its messages and errors carry token.
func Tag[T comparable](token T, r *Reader) *TaggedReader[T] {
	return &TaggedReader[T]{token: token, r: r}
}

// Token returns the reader's token.
func (t *TaggedReader[T]) Token() T {
	return t.token
}

// PollNext implements Source.
func (t *TaggedReader[T]) PollNext(w api.Waker) (api.Poll, Tagged[T], error) {
	p, msg, err := t.r.PollNext(w)
	if p == api.Pending {
		return p, Tagged[T]{}, nil
	}
	if err != nil {
		return p, Tagged[T]{}, &TokenError[T]{Token: t.token, Err: err}
	}
	return p, Tagged[T]{Token: t.token, Message: msg}, nil
}

// Release releases the wrapped reader.
func (t *TaggedReader[T]) Release() {
	t.r.Release()
}

// Merged fans several tagged readers into one Source. Each poll starts one
// reader further along than the last, so a busy socket cannot starve the
// others. A reader reaching end of stream is dropped; the merged stream
// ends once none is left.
type Merged[T comparable] struct {
	srcs []*TaggedReader[T]
	next int
}

// Merge combines srcs into one Source.
func Merge[T comparable](srcs ...*TaggedReader[T]) *Merged[T] {
	return &Merged[T]{srcs: srcs}
}

// Len returns the number of readers still merged.
func (m *Merged[T]) Len() int {
	return len(m.srcs)
}

// PollNext implements Source. Every pending reader parks w on its own guard,
// so an edge on any socket wakes the merged task.
func (m *Merged[T]) PollNext(w api.Waker) (api.Poll, Tagged[T], error) {
	for tries := len(m.srcs); tries > 0 && len(m.srcs) > 0; tries-- {
		i := m.next % len(m.srcs)
		src := m.srcs[i]
		p, item, err := src.PollNext(w)
		if p == api.Pending {
			m.next = i + 1
			continue
		}
		if err != nil && errors.Is(err, api.ErrEndOfStream) {
			src.Release()
			m.srcs = append(m.srcs[:i], m.srcs[i+1:]...)
			m.next = i
			continue
		}
		m.next = i + 1
		return api.Ready, item, err
	}
	if len(m.srcs) == 0 {
		return api.Ready, Tagged[T]{}, api.ErrEndOfStream
	}
	return api.Pending, Tagged[T]{}, nil
}

// Release releases every reader still merged.
func (m *Merged[T]) Release() {
	for _, src := range m.srcs {
		src.Release()
	}
	m.srcs = nil
}
