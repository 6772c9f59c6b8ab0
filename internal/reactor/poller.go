// Package reactor implements Component G: the nonblocking connection
// manager. It owns a raw epoll instance, accepts connections, and
// drives the per-tick loop of spec.md §4.7 — this is the one package
// in the repository that talks to the kernel directly rather than
// going through net.Listener/net.Conn, because Go's own runtime
// poller is not something a hand-rolled reactor can share: mixing the
// stdlib's internal epoll registration with a second, explicit one
// over the same file descriptors would race the two against each
// other. Grounded on the teacher's choice to drop to
// golang.org/x/sys/unix wherever the standard library doesn't expose
// what the job needs (internal/queue/runner.go's CPU affinity and raw
// mmap calls are the same instinct applied to a different kernel
// interface).
package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// Event is one readiness notification translated out of raw epoll
// form. Token is the caller-assigned identifier passed to Add, not
// necessarily the underlying file descriptor.
type Event struct {
	Token    uint64
	Readable bool
	Writable bool
	Err      bool
}

// Poller is the readiness-notification primitive the reactor polls
// every tick. Structurally grounded on the teacher's internal/uring
// Ring interface: one interface, one real constructor
// (NewEpollPoller), no second implementation needed in production —
// tests use the real epoll instance over a loopback socket pair
// rather than a fake, since epoll has no meaningful stub short of
// reimplementing it.
type Poller interface {
	Add(fd int, token uint64, writable bool) error
	Modify(fd int, token uint64, writable bool) error
	Remove(fd int) error
	Wait(timeout time.Duration) ([]Event, error)
	Close() error
}

type epollPoller struct {
	epfd int
}

// NewEpollPoller creates a new epoll instance.
func NewEpollPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func interestMask(writable bool) uint32 {
	ev := uint32(unix.EPOLLIN)
	if writable {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// Tokens are kept to 32 bits so they fit directly in EpollEvent's Fd
// field without relying on the Pad field's layout being part of any
// particular ABI's data union.
func (p *epollPoller) ctl(op int, fd int, token uint64, writable bool) error {
	ev := unix.EpollEvent{
		Events: interestMask(writable),
		Fd:     int32(uint32(token)),
	}
	return unix.EpollCtl(p.epfd, op, fd, &ev)
}

func (p *epollPoller) Add(fd int, token uint64, writable bool) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, token, writable)
}

func (p *epollPoller) Modify(fd int, token uint64, writable bool) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, token, writable)
}

func (p *epollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeout time.Duration) ([]Event, error) {
	raw := make([]unix.EpollEvent, 128)
	ms := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = Event{
			Token:    uint64(uint32(raw[i].Fd)),
			Readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			Writable: raw[i].Events&unix.EPOLLOUT != 0,
			Err:      raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		}
	}
	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
