//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based edge-triggered reactor implementation and factory.

package reactor

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/hioload-zmq/api"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// DefaultMaxEvents bounds the events drained per Wait.
const DefaultMaxEvents = 128

// linuxReactor is an epoll-based readiness reactor.
type linuxReactor struct {
	epfd   int
	evfd   int
	events []unix.EpollEvent
	regs   map[int32]*Registration
}

// New constructs the epoll reactor. maxEvents <= 0 selects DefaultMaxEvents.
func New(maxEvents int) (api.Reactor, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	evfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd create: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(evfd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, evfd, &ev); err != nil {
		_ = unix.Close(evfd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add eventfd: %w", err)
	}
	return &linuxReactor{
		epfd:   epfd,
		evfd:   evfd,
		events: make([]unix.EpollEvent, maxEvents),
		regs:   make(map[int32]*Registration),
	}, nil
}

// Register adds fd to the epoll set in edge-triggered mode.
func (r *linuxReactor) Register(fd int) (api.ReadinessGuard, error) {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("epoll ctl add: %w", err)
	}
	reg := newRegistration(fd, r.unregister)
	r.regs[int32(fd)] = reg
	return reg, nil
}

func (r *linuxReactor) unregister(fd int) error {
	delete(r.regs, int32(fd))
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Wait blocks for epoll events and signals the matching registrations.
func (r *linuxReactor) Wait(timeoutMs int) error {
	if timeoutMs < 0 {
		timeoutMs = -1
	}
	n, err := unix.EpollWait(r.epfd, r.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil // interrupted by signal, normal
		}
		return fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		fd := r.events[i].Fd
		if fd == int32(r.evfd) {
			r.drainNotify()
			continue
		}
		if reg, ok := r.regs[fd]; ok {
			reg.signal()
		}
	}
	return nil
}

// Notify bumps the eventfd counter so a blocked Wait returns.
func (r *linuxReactor) Notify() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(r.evfd, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

func (r *linuxReactor) drainNotify() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.evfd, buf[:]); err != nil {
			return
		}
	}
}

// Close closes the eventfd and the epoll instance.
func (r *linuxReactor) Close() error {
	for fd, reg := range r.regs {
		reg.closed = true
		reg.wakers = nil
		delete(r.regs, fd)
	}
	return multierr.Combine(unix.Close(r.evfd), unix.Close(r.epfd))
}
