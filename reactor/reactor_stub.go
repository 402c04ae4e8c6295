//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-zmq/api"
)

// DefaultMaxEvents bounds the events drained per Wait.
const DefaultMaxEvents = 128

// New returns an error for unsupported platforms.
func New(maxEvents int) (api.Reactor, error) {
	return nil, fmt.Errorf("reactor: %w on this platform", api.ErrNotSupported)
}
