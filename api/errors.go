// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-zmq.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	// ErrWouldBlock is returned by a non-blocking Socket operation that
	// cannot make progress right now. It is a suspend signal, never a failure.
	ErrWouldBlock = errors.New("operation would block")

	// ErrEndOfStream marks the transport as terminated (context shut down,
	// socket closed). Inbound sequences end when they observe it.
	ErrEndOfStream = errors.New("end of stream")

	// ErrPartialSend is returned when a multipart write blocks after at
	// least one of its frames has already been handed to the transport.
	ErrPartialSend = errors.New("multipart write blocked mid-message")

	// ErrIncompleteMessage is returned when a receive fails after the first
	// frame of a multipart message was read.
	ErrIncompleteMessage = errors.New("multipart read failed mid-message")

	ErrActorStopped  = errors.New("actor is stopped")
	ErrLoopStopped   = errors.New("event loop is stopped")
	ErrNotSupported  = errors.New("operation not supported")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeTransport
	ErrCodePartialSend
	ErrCodeIncompleteMessage
	ErrCodeNotSupported
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap attaches a cause to the error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsWouldBlock reports whether err is a suspend signal rather than a failure.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
