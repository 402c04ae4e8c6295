// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package socket adapts a non-blocking multipart message socket to
// cooperatively scheduled tasks.
//
// A Handle pairs an api.Socket with the edge-triggered readiness guard of
// its descriptor. Split turns a Handle into a Reader, which yields whole
// multipart messages, and a Sink with its SinkDriver, which buffer and drain
// outbound messages. StreamDriver couples any Source to a handler with a
// started/running/stopped lifecycle, and Merge fans several tagged readers
// into one Source.
//
// Everything in this package assumes a single goroutine: a Handle, its
// halves and their drivers are only touched from the loop that polls them.
package socket
