// File: core/concurrency/notify.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel-backed reactor used when a loop has no descriptors to watch.

package concurrency

import (
	"time"

	"github.com/momentics/hioload-zmq/api"
)

type idleReactor struct {
	notify chan struct{}
}

func newIdleReactor() *idleReactor {
	return &idleReactor{notify: make(chan struct{}, 1)}
}

func (r *idleReactor) Register(int) (api.ReadinessGuard, error) {
	return nil, ErrNoReactor
}

func (r *idleReactor) Wait(timeoutMs int) error {
	if timeoutMs == 0 {
		select {
		case <-r.notify:
		default:
		}
		return nil
	}
	if timeoutMs < 0 {
		<-r.notify
		return nil
	}
	t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer t.Stop()
	select {
	case <-r.notify:
	case <-t.C:
	}
	return nil
}

func (r *idleReactor) Notify() error {
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

func (r *idleReactor) Close() error { return nil }
