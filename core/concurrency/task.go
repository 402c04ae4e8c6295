// File: core/concurrency/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "github.com/momentics/hioload-zmq/api"

// Task is a cooperatively scheduled unit of work. Poll must not block:
// a task that cannot progress parks its Waker somewhere and returns false.
type Task interface {
	// Poll advances the task and reports whether it has completed.
	Poll(w api.Waker) bool
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(w api.Waker) bool

// Poll calls f.
func (f TaskFunc) Poll(w api.Waker) bool { return f(w) }

// TaskHandle is a spawned task. It doubles as the task's Waker.
type TaskHandle struct {
	loop   *Loop
	task   Task
	queued bool
	done   bool
	onDone []func()
}

var _ api.Waker = (*TaskHandle)(nil)

// Wake queues the task for the next loop turn. Waking a queued or
// finished task is a no-op.
func (h *TaskHandle) Wake() {
	if h.done || h.queued {
		return
	}
	h.queued = true
	h.loop.runq.Add(h)
}

// Cancel finishes the task without polling it again.
func (h *TaskHandle) Cancel() {
	h.finish()
}

// Done reports whether the task has completed or was cancelled.
func (h *TaskHandle) Done() bool {
	return h.done
}

// OnDone registers fn to run once the task finishes. If it already has,
// fn runs immediately.
func (h *TaskHandle) OnDone(fn func()) {
	if h.done {
		fn()
		return
	}
	h.onDone = append(h.onDone, fn)
}

func (h *TaskHandle) finish() {
	if h.done {
		return
	}
	h.done = true
	h.loop.live--
	hooks := h.onDone
	h.onDone = nil
	for _, fn := range hooks {
		fn()
	}
}
