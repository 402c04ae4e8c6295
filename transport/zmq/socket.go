// File: transport/zmq/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package zmq

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/control"
	"github.com/momentics/hioload-zmq/socket"
	zmq4 "github.com/pebbe/zmq4"
)

// Socket is a libzmq socket driven in non-blocking mode.
type Socket struct {
	soc *zmq4.Socket
}

var _ api.Socket = (*Socket)(nil)

// NewSocket creates a socket of the given type in zctx.
func NewSocket(zctx *zmq4.Context, typ zmq4.Type) (*Socket, error) {
	soc, err := zctx.NewSocket(typ)
	if err != nil {
		return nil, fmt.Errorf("zmq: new %s socket: %w", typ, err)
	}
	return &Socket{soc: soc}, nil
}

// Raw returns the underlying zmq4 socket for options not covered here.
func (s *Socket) Raw() *zmq4.Socket {
	return s.soc
}

// Recv implements api.Socket.
func (s *Socket) Recv() ([]byte, bool, error) {
	frame, err := s.soc.RecvBytes(zmq4.DONTWAIT)
	if err != nil {
		return nil, false, mapError(err)
	}
	more, err := s.soc.GetRcvmore()
	if err != nil {
		return nil, false, mapError(err)
	}
	return frame, more, nil
}

// Send implements api.Socket.
func (s *Socket) Send(frame []byte, more bool) error {
	flags := zmq4.DONTWAIT
	if more {
		flags |= zmq4.SNDMORE
	}
	_, err := s.soc.SendBytes(frame, flags)
	return mapError(err)
}

// Events implements api.Socket. libzmq reports readiness of its own queues
// here; the descriptor only signals that this value may have changed.
func (s *Socket) Events() (api.Events, error) {
	st, err := s.soc.GetEvents()
	if err != nil {
		return 0, mapError(err)
	}
	var ev api.Events
	if st&zmq4.POLLIN != 0 {
		ev |= api.EventRead
	}
	if st&zmq4.POLLOUT != 0 {
		ev |= api.EventWrite
	}
	return ev, nil
}

// Fd implements api.Socket.
func (s *Socket) Fd() (int, error) {
	fd, err := s.soc.GetFd()
	return fd, mapError(err)
}

// Subscribe adds a topic prefix filter to a sub socket.
func (s *Socket) Subscribe(prefix string) error {
	return mapError(s.soc.SetSubscribe(prefix))
}

// Unsubscribe removes a topic prefix filter.
func (s *Socket) Unsubscribe(prefix string) error {
	return mapError(s.soc.SetUnsubscribe(prefix))
}

// Close implements api.Socket.
func (s *Socket) Close() error {
	return mapError(s.soc.Close())
}

// mapError translates libzmq errors into api sentinels. Would-block becomes
// api.ErrWouldBlock; a terminated context or closed socket ends the stream.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, zmq4.ErrorSocketClosed) || errors.Is(err, zmq4.ErrorContextClosed) {
		return fmt.Errorf("%w: %w", api.ErrEndOfStream, err)
	}
	switch zmq4.AsErrno(err) {
	case zmq4.Errno(syscall.EAGAIN):
		return api.ErrWouldBlock
	case zmq4.ETERM, zmq4.Errno(syscall.ENOTSOCK):
		return fmt.Errorf("%w: %w", api.ErrEndOfStream, err)
	}
	return err
}

// Setup configures a socket before it is connected or bound.
type Setup func(*zmq4.Socket) error

// Subscribe adds a topic prefix filter to a sub socket.
func Subscribe(prefix string) Setup {
	return func(s *zmq4.Socket) error {
		return s.SetSubscribe(prefix)
	}
}

// Identity sets the routing identity announced to router peers.
func Identity(id string) Setup {
	return func(s *zmq4.Socket) error {
		return s.SetIdentity(id)
	}
}

// Linger bounds how long Close keeps unsent messages.
func Linger(d time.Duration) Setup {
	return func(s *zmq4.Socket) error {
		return s.SetLinger(d)
	}
}

// Endpoint describes a socket to open.
type Endpoint struct {
	Type  zmq4.Type
	Addr  string
	Bind  bool
	Setup []Setup
}

// Open creates the socket described by ep, connects or binds it, registers
// its descriptor with r and returns the handle.
func Open(r socket.Registrar, zctx *zmq4.Context, ep Endpoint, opts ...socket.Option) (*socket.Handle, error) {
	s, err := NewSocket(zctx, ep.Type)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*socket.Handle, error) {
		_ = s.soc.Close()
		return nil, err
	}
	for _, setup := range ep.Setup {
		if err := setup(s.soc); err != nil {
			return fail(fmt.Errorf("zmq: configure %s: %w", ep.Addr, err))
		}
	}
	if ep.Bind {
		err = s.soc.Bind(ep.Addr)
	} else {
		err = s.soc.Connect(ep.Addr)
	}
	if err != nil {
		return fail(api.NewError(api.ErrCodeTransport, "zmq: "+verb(ep.Bind)).
			WithContext("addr", ep.Addr).
			WithContext("type", ep.Type.String()).
			Wrap(err))
	}
	h, err := socket.Open(r, s, opts...)
	if err != nil {
		return fail(fmt.Errorf("zmq: register %s: %w", ep.Addr, err))
	}
	return h, nil
}

// Connect opens a socket of type typ connected to addr.
func Connect(r socket.Registrar, zctx *zmq4.Context, typ zmq4.Type, addr string, opts ...socket.Option) (*socket.Handle, error) {
	return Open(r, zctx, Endpoint{Type: typ, Addr: addr}, opts...)
}

// Bind opens a socket of type typ bound to addr.
func Bind(r socket.Registrar, zctx *zmq4.Context, typ zmq4.Type, addr string, opts ...socket.Option) (*socket.Handle, error) {
	return Open(r, zctx, Endpoint{Type: typ, Addr: addr, Bind: true}, opts...)
}

func verb(bind bool) string {
	if bind {
		return "bind"
	}
	return "connect"
}

// ParseType maps a configuration name such as "router" to a socket type.
func ParseType(name string) (zmq4.Type, error) {
	return control.ParseSocketType(name)
}

// EndpointFromConfig converts a socket declaration into an Endpoint.
func EndpointFromConfig(sc control.SocketConfig) (Endpoint, error) {
	typ, err := ParseType(sc.Type)
	if err != nil {
		return Endpoint{}, err
	}
	ep := Endpoint{Type: typ, Addr: sc.Endpoint, Bind: sc.Bind}
	for _, topic := range sc.Subscribe {
		ep.Setup = append(ep.Setup, Subscribe(topic))
	}
	return ep, nil
}
