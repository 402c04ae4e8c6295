//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-zmq/api"
	"golang.org/x/sys/unix"
)

// pinPlatform sets the calling thread's affinity mask to a single CPU.
func pinPlatform(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("%w: cpu %d", api.ErrInvalidConfig, cpuID)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	// pid 0 addresses the calling thread.
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}
