// File: facade/hioload.go
// Unified facade layer for hioload-zmq.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime wires configuration, logging, metrics, the readiness reactor, the
// cooperative loop and the ZMQ context together, and opens configured
// sockets as ready-to-use handles.

package facade

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"

	"github.com/momentics/hioload-zmq/affinity"
	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/control"
	"github.com/momentics/hioload-zmq/core/concurrency"
	"github.com/momentics/hioload-zmq/reactor"
	"github.com/momentics/hioload-zmq/socket"
	"github.com/momentics/hioload-zmq/transport/zmq"
	zmq4 "github.com/pebbe/zmq4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Option customizes a Runtime.
type Option func(*Runtime)

// WithLogger replaces the logger built from configuration.
func WithLogger(log *zap.Logger) Option {
	return func(rt *Runtime) {
		rt.log = log
	}
}

// WithRegistry registers metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = reg
	}
}

// Runtime is the main facade type.
type Runtime struct {
	config   *control.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *control.Metrics
	loop     *concurrency.Loop
	zctx     *zmq4.Context

	mu     sync.Mutex
	closed bool
}

// New builds a Runtime from cfg; nil means control.DefaultConfig.
func New(cfg *control.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt := &Runtime{config: cfg}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.log == nil {
		log, err := control.NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		rt.log = log
	}

	if cfg.Metrics.Enabled {
		if rt.registry == nil {
			rt.registry = prometheus.NewRegistry()
		}
		m, err := control.NewMetrics(rt.registry, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		rt.metrics = m
	}

	r, err := reactor.New(cfg.Loop.MaxEvents)
	if err != nil {
		return nil, err
	}
	rt.loop = concurrency.NewLoop(
		concurrency.WithReactor(r),
		concurrency.WithLogger(rt.log),
		concurrency.WithPollTimeout(cfg.Loop.PollTimeout),
	)

	rt.zctx, err = zmq4.NewContext()
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("zmq context: %w", err), rt.loop.Close())
	}
	rt.log.Debug("runtime ready",
		zap.Int("max_events", cfg.Loop.MaxEvents),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Int("sockets", len(cfg.Sockets)))
	return rt, nil
}

// Config returns the configuration the runtime was built with.
func (rt *Runtime) Config() *control.Config { return rt.config }

// Logger returns the root logger.
func (rt *Runtime) Logger() *zap.Logger { return rt.log }

// Loop returns the event loop every actor of this runtime runs on.
func (rt *Runtime) Loop() *concurrency.Loop { return rt.loop }

// ZMQ returns the ZMQ context sockets are created in.
func (rt *Runtime) ZMQ() *zmq4.Context { return rt.zctx }

// Metrics returns the collectors, or nil when metrics are disabled.
func (rt *Runtime) Metrics() *control.Metrics { return rt.metrics }

// MetricsHandler serves the registry in the Prometheus text format.
func (rt *Runtime) MetricsHandler() http.Handler {
	if rt.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{})
}

// Open creates the socket declared under name in the configuration.
func (rt *Runtime) Open(name string) (*socket.Handle, error) {
	sc, ok := rt.config.Socket(name)
	if !ok {
		return nil, fmt.Errorf("%w: no socket named %q", api.ErrInvalidConfig, name)
	}
	ep, err := zmq.EndpointFromConfig(sc)
	if err != nil {
		return nil, err
	}
	return rt.OpenEndpoint(name, ep)
}

// OpenEndpoint creates a socket that is not part of the configuration.
func (rt *Runtime) OpenEndpoint(name string, ep zmq.Endpoint) (*socket.Handle, error) {
	h, err := zmq.Open(rt.loop, rt.zctx, ep,
		socket.WithName(name),
		socket.WithLogger(rt.log),
		socket.WithMetrics(rt.metrics))
	if err != nil {
		return nil, err
	}
	rt.log.Info("socket open",
		zap.String("socket", name),
		zap.Stringer("type", ep.Type),
		zap.String("endpoint", ep.Addr),
		zap.Bool("bind", ep.Bind))
	return h, nil
}

// Run drives the loop until ctx is done or Stop is called. With loop.cpu
// set, the calling goroutine is locked to its thread and pinned first.
func (rt *Runtime) Run(ctx context.Context) error {
	if cpu := rt.config.Loop.CPU; cpu >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := affinity.Pin(cpu); err != nil {
			rt.log.Warn("loop thread not pinned", zap.Int("cpu", cpu), zap.Error(err))
		}
	}
	return rt.loop.Run(ctx)
}

// Stop makes Run return.
func (rt *Runtime) Stop() {
	rt.loop.Stop()
}

// Close releases the loop, the reactor and the ZMQ context. Sockets must be
// closed first, normally by stopping the actors owning them; terminating the
// ZMQ context waits for that.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true
	err := multierr.Combine(rt.loop.Close(), rt.zctx.Term())
	_ = rt.log.Sync()
	return err
}
