// File: core/concurrency/eventloop.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop is a single-threaded cooperative executor. Every task spawned on a
// loop is polled from the goroutine running the loop, so task state needs
// no locking. Other goroutines hand work to the loop with Post, which takes
// a mutex and interrupts the reactor wait.

package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"
	"github.com/momentics/hioload-zmq/api"
	"go.uber.org/zap"
)

// Option customizes a Loop.
type Option func(*Loop)

// WithReactor sets the readiness backend sockets are registered with.
func WithReactor(r api.Reactor) Option {
	return func(l *Loop) {
		l.reactor = r
	}
}

// WithClock overrides the clock used by RunLater.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log.Named("loop")
		}
	}
}

// WithPollTimeout bounds how long an idle loop blocks in the reactor.
// Zero or negative blocks until an edge or a Post arrives.
func WithPollTimeout(d time.Duration) Option {
	return func(l *Loop) {
		l.pollTimeout = d
	}
}

// Loop drives tasks, posted closures and reactor readiness on one goroutine.
type Loop struct {
	runq        *queue.Queue // *TaskHandle
	reactor     api.Reactor
	clock       clock.Clock
	log         *zap.Logger
	pollTimeout time.Duration
	live        int

	mu      sync.Mutex
	posted  []func()
	stopped bool
	running atomic.Bool
}

// NewLoop creates a loop. Without WithReactor the loop cannot register
// descriptors but still runs tasks, posts and timers.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		runq:  queue.New(),
		clock: clock.New(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.reactor == nil {
		l.reactor = newIdleReactor()
	}
	return l
}

// Clock returns the loop's clock.
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// Logger returns the loop's logger.
func (l *Loop) Logger() *zap.Logger {
	return l.log
}

// Spawn schedules t for its first poll on the next turn.
// It must be called from the loop goroutine or before Run starts.
func (l *Loop) Spawn(t Task) *TaskHandle {
	h := &TaskHandle{loop: l, task: t}
	l.live++
	h.Wake()
	return h
}

// Live returns the number of spawned tasks that have not finished.
func (l *Loop) Live() int {
	return l.live
}

// Register adds fd to the loop's reactor.
func (l *Loop) Register(fd int) (api.ReadinessGuard, error) {
	return l.reactor.Register(fd)
}

// Post queues fn to run on the loop goroutine. It is safe for concurrent use.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return api.ErrLoopStopped
	}
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	return l.reactor.Notify()
}

// RunLater runs fn on the loop after d.
func (l *Loop) RunLater(d time.Duration, fn func()) *clock.Timer {
	return l.clock.AfterFunc(d, func() {
		if err := l.Post(fn); err != nil {
			l.log.Debug("timer fired after loop stop", zap.Duration("delay", d))
		}
	})
}

// Tick runs one turn: posted closures first, then every task queued when
// the turn began. Tasks woken during the turn run on the next one.
// It returns how many closures and polls were executed.
func (l *Loop) Tick() int {
	ran := l.runPosted()
	n := l.runq.Length()
	for i := 0; i < n; i++ {
		h := l.runq.Remove().(*TaskHandle)
		h.queued = false
		if h.done {
			continue
		}
		l.poll(h)
		ran++
	}
	return ran
}

// RunUntilIdle ticks until a turn executes nothing. It never blocks on the
// reactor and is meant for deterministic driving in tests and tools.
func (l *Loop) RunUntilIdle() {
	for l.Tick() > 0 {
	}
}

// Run drives the loop until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-done:
		}
	}()

	l.log.Debug("loop started")
	for {
		l.Tick()
		if l.isStopped() {
			l.log.Debug("loop stopped", zap.Int("live_tasks", l.live))
			return ctx.Err()
		}
		if err := l.reactor.Wait(l.waitTimeout()); err != nil {
			l.log.Error("reactor wait failed", zap.Error(err))
			return err
		}
	}
}

// Stop makes Run return after the current turn. Further Posts are rejected.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()
	_ = l.reactor.Notify()
}

// Close stops the loop and releases its reactor.
func (l *Loop) Close() error {
	l.Stop()
	return l.reactor.Close()
}

func (l *Loop) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func (l *Loop) waitTimeout() int {
	l.mu.Lock()
	pending := len(l.posted)
	l.mu.Unlock()
	if pending > 0 || l.runq.Length() > 0 {
		return 0
	}
	if l.pollTimeout <= 0 {
		return -1
	}
	return int(l.pollTimeout / time.Millisecond)
}

func (l *Loop) runPosted() int {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		l.runPostedFn(fn)
	}
	return len(posted)
}

func (l *Loop) runPostedFn(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("posted closure panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// poll runs one task poll; a panicking task is finished so the loop survives.
func (l *Loop) poll(h *TaskHandle) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("task panicked", zap.Any("panic", r))
			h.finish()
		}
	}()
	if h.task.Poll(h) {
		h.finish()
	}
}
