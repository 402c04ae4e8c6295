// File: actor/parts.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package actor

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/socket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// State is the lifecycle of an actor context.
type State int

const (
	Starting State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Context is what every actor context offers its actor.
type Context interface {
	Address() *Address
	Logger() *zap.Logger
	Spawn(t concurrency.Task) *concurrency.TaskHandle
	RunLater(d time.Duration, fn func()) *clock.Timer
	Stop()
	State() State
}

// Address reaches an actor from any goroutine.
type Address struct {
	loop   *concurrency.Loop
	mu     sync.Mutex
	closed bool
}

// Do runs fn on the actor's loop. It fails with api.ErrActorStopped once the
// actor is stopping; a closure already queued then is dropped.
func (a *Address) Do(fn func()) error {
	if !a.Connected() {
		return api.ErrActorStopped
	}
	return a.loop.Post(func() {
		if a.Connected() {
			fn()
		}
	})
}

// Connected reports whether the actor still accepts closures.
func (a *Address) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed
}

func (a *Address) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

type stream struct {
	task   *concurrency.TaskHandle
	cancel func()
}

// Parts is the state shared by every context kind. Concrete contexts embed
// it and get Context for free.
type Parts struct {
	loop    *concurrency.Loop
	addr    *Address
	log     *zap.Logger
	actor   any
	self    Context
	state   State
	io      int
	streams []stream
	sinks   []*socket.Sink
	handles []*socket.Handle
	spawned []*concurrency.TaskHandle
	onStop  []func()
}

var _ Context = (*Parts)(nil)

func newParts(loop *concurrency.Loop, act any, kind string) *Parts {
	return &Parts{
		loop:  loop,
		addr:  &Address{loop: loop},
		log:   loop.Logger().Named("actor").With(zap.String("kind", kind)),
		actor: act,
	}
}

// Address returns the actor's address.
func (p *Parts) Address() *Address {
	return p.addr
}

// Logger returns the context logger.
func (p *Parts) Logger() *zap.Logger {
	return p.log
}

// State returns the lifecycle state.
func (p *Parts) State() State {
	return p.state
}

// Spawn runs t on the actor's loop. Tasks still alive when the context
// stops are cancelled.
func (p *Parts) Spawn(t concurrency.Task) *concurrency.TaskHandle {
	th := p.loop.Spawn(t)
	p.spawned = append(p.spawned, th)
	return th
}

// RunLater runs fn after d unless the context stopped in between.
func (p *Parts) RunLater(d time.Duration, fn func()) *clock.Timer {
	return p.loop.RunLater(d, func() {
		if p.state < Stopping {
			fn()
		}
	})
}

// Stop begins shutdown: the address closes, inbound streams are cancelled
// and outbound buffers drain. The Stopped hook fires once the last
// buffer has completed.
func (p *Parts) Stop() {
	if p.state >= Stopping {
		return
	}
	p.log.Debug("stopping", zap.Int("sinks", len(p.sinks)))
	p.state = Stopping
	p.addr.close()
	streams := p.streams
	p.streams = nil
	for _, s := range streams {
		s.cancel()
		s.task.Cancel()
	}
	for _, s := range p.sinks {
		s.Close()
	}
	p.settle()
}

// start moves the context to Running and fires the Starter hook.
func (p *Parts) start() {
	p.state = Running
	p.log.Debug("started")
	if h, ok := p.actor.(Starter); ok {
		h.Started(p.self)
	}
}

// track counts th as an I/O task the context must outlive.
func (p *Parts) track(th *concurrency.TaskHandle) {
	p.io++
	th.OnDone(func() {
		p.io--
		p.settle()
	})
}

func (p *Parts) settle() {
	if p.state != Stopping || p.io > 0 {
		return
	}
	p.state = Stopped
	for _, th := range p.spawned {
		th.Cancel()
	}
	p.spawned = nil
	for _, fn := range p.onStop {
		fn()
	}
	p.onStop = nil

	var err error
	for _, h := range p.handles {
		err = multierr.Append(err, h.Close())
	}
	if err != nil {
		p.log.Warn("closing sockets", zap.Error(err))
	}
	p.log.Debug("stopped")
	if h, ok := p.actor.(Stopper); ok {
		h.Stopped(p.self)
	}
}

// spawnStream drives src into handle with the actor's read hooks.
func spawnStream[T any](p *Parts, src socket.Source[T], handle func(T)) {
	d := socket.NewStreamDriver[T](src, &readHooks[T]{p: p, handle: handle})
	th := p.loop.Spawn(d)
	p.track(th)
	p.streams = append(p.streams, stream{task: th, cancel: d.Cancel})
}

// spawnSink drives an outbound buffer with the actor's write hooks. wrap, if
// set, decorates errors before the actor sees them.
func spawnSink(p *Parts, sink *socket.Sink, driver *socket.SinkDriver, wrap func(error) error) {
	driver.WithHandler(&writeHooks{p: p, wrap: wrap})
	p.sinks = append(p.sinks, sink)
	p.track(p.loop.Spawn(driver))
}

type readHooks[T any] struct {
	p      *Parts
	handle func(T)
}

func (h *readHooks[T]) Started() {
	if a, ok := h.p.actor.(StreamStarter); ok {
		a.StreamStarted(h.p.self)
	}
}

func (h *readHooks[T]) Handle(item T) {
	h.handle(item)
}

func (h *readHooks[T]) Error(err error) api.Verdict {
	if a, ok := h.p.actor.(ReadErrorHandler); ok {
		return a.ReadError(h.p.self, err)
	}
	h.p.log.Warn("read failed", zap.Error(err))
	return api.Stop
}

func (h *readHooks[T]) Finished() {
	if a, ok := h.p.actor.(StreamFinisher); ok {
		a.StreamFinished(h.p.self)
		return
	}
	h.p.Stop()
}

func (h *readHooks[T]) Stopped() {
	h.p.Stop()
}

type writeHooks struct {
	p    *Parts
	wrap func(error) error
}

func (h *writeHooks) Error(err error) api.Verdict {
	if h.wrap != nil {
		err = h.wrap(err)
	}
	if a, ok := h.p.actor.(WriteErrorHandler); ok {
		return a.WriteError(h.p.self, err)
	}
	h.p.log.Warn("write failed", zap.Error(err))
	return api.Stop
}

func (h *writeHooks) Finished() {
	if a, ok := h.p.actor.(WriteFinisher); ok {
		a.WriteFinished(h.p.self)
		return
	}
	h.p.Stop()
}

func (h *writeHooks) Stopped() {
	h.p.Stop()
}
