//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-zmq/api"
)

func pinPlatform(cpuID int) error {
	return fmt.Errorf("%w: cpu affinity", api.ErrNotSupported)
}
