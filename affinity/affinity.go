// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files guarded by build tags.

package affinity

// Pin binds the calling OS thread to one logical CPU. The caller must hold
// the thread with runtime.LockOSThread for the pin to mean anything.
func Pin(cpuID int) error {
	return pinPlatform(cpuID)
}
