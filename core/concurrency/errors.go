// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrLoopRunning indicates Run was called on a loop that is already running
	ErrLoopRunning = errors.New("event loop is already running")

	// ErrNoReactor indicates descriptor registration on a loop built without a reactor
	ErrNoReactor = errors.New("event loop has no readiness reactor")
)
