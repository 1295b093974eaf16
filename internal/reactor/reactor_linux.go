//go:build linux

package reactor

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const maxEvents = 8

// Reactor is an epoll instance plus a wake-up eventfd.
type Reactor struct {
	mu     sync.Mutex
	epfd   int
	wakefd int
	fds    map[int]struct{}
	closed bool
}

// New creates a Reactor with no registered descriptors.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wake fd: %w", err)
	}

	return &Reactor{
		epfd:   epfd,
		wakefd: wakefd,
		fds:    make(map[int]struct{}),
	}, nil
}

// Register adds fd to the read-interest set.
func (r *Reactor) Register(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	r.fds[fd] = struct{}{}
	return nil
}

// Unregister removes fd from the interest set.
func (r *Reactor) Unregister(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.fds[fd]; !ok {
		return nil
	}
	delete(r.fds, fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Registered reports whether fd is in the interest set.
func (r *Reactor) Registered(fd int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.fds[fd]
	return ok
}

// Wait blocks until a registered descriptor is readable and returns it.
// Error and hang-up conditions count as readable so that the owner's next
// read reports them. If ctx is done first, Wait returns ctx.Err().
func (r *Reactor) Wait(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	stop := context.AfterFunc(ctx, r.wake)
	defer stop()

	var events [maxEvents]unix.EpollEvent
	for {
		r.mu.Lock()
		closed, epfd := r.closed, r.epfd
		r.mu.Unlock()
		if closed {
			return -1, ErrClosed
		}

		n, err := unix.EpollWait(epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return -1, fmt.Errorf("epoll wait: %w", err)
		}

		ready := -1
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == r.wakefd {
				r.drainWake()
				continue
			}
			if ready < 0 && r.Registered(fd) {
				ready = fd
			}
		}
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		if ready >= 0 {
			return ready, nil
		}
		// Stale wake-up from an earlier, already-finished Wait.
	}
}

// wake may still be running after Wait has returned, so it must not
// touch the eventfd once Close has released it.
func (r *Reactor) wake() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(r.wakefd, buf[:])
}

func (r *Reactor) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(r.wakefd, buf[:])
}

// Close releases the epoll and eventfd descriptors. Registered
// descriptors are not closed; they belong to their owners.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.fds = nil
	err := unix.Close(r.epfd)
	if cerr := unix.Close(r.wakefd); err == nil {
		err = cerr
	}
	return err
}
