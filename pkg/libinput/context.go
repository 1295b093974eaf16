package libinput

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"syscall"

	"inputd/pkg/libinput/sys"
)

// shared is the Go-side state common to every clone of one library
// context.
type shared struct {
	lib          sys.Library
	raw          sys.Ptr
	fd           int
	seatAssigned atomic.Bool
	log          *slog.Logger
}

// Context is a reference to a libinput context bound to udev. Each Context
// value owns one library reference and one share of the open/close
// callbacks; Clone makes another, Close gives it back. The library object
// and the callbacks live until the last clone is closed.
//
// A Context is not safe for concurrent Dispatch or GetEvent calls, even
// through different clones. Clones may be handed to other goroutines to
// keep the context alive.
type Context struct {
	s      *shared
	bridge *bridge
	closed atomic.Bool
}

// New creates a libinput context that enumerates devices through udev.
// The library calls open and close to acquire and release device
// descriptors, always from inside Dispatch, AssignSeat or Resume on the
// calling goroutine. No devices are opened until AssignSeat.
func New(open OpenFunc, close CloseFunc, opts ...Option) (*Context, error) {
	if open == nil || close == nil {
		return nil, fmt.Errorf("%w: open and close callbacks are required", ErrContext)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.diag == nil {
		o.diag = slog.Default()
	}
	if o.lib == nil {
		lib, err := sys.Native()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContext, err)
		}
		o.lib = lib
	}

	b := registerBridge(open, close, o.diag)
	raw, err := o.lib.UdevCreateContext(restrictedInterface, b.id)
	if err != nil {
		b.release()
		return nil, fmt.Errorf("%w: %w", ErrContext, err)
	}

	if o.logger != nil {
		installLogger(o.logger)
		o.lib.LogSetHandler(raw)
		if !o.priorityset {
			o.priority = sys.LogDebug
		}
	}
	if o.priorityset || o.logger != nil {
		o.lib.LogSetPriority(raw, o.priority)
	}

	s := &shared{
		lib: o.lib,
		raw: raw,
		fd:  o.lib.Fd(raw),
		log: o.diag,
	}
	s.log.Debug("libinput context created", "fd", s.fd, "bridge", b.id)
	return &Context{s: s, bridge: b}, nil
}

func (c *Context) ptr() sys.Ptr {
	if c.closed.Load() {
		panic("libinput: use of closed context")
	}
	return c.s.raw
}

// Raw returns the libinput context pointer.
func (c *Context) Raw() sys.Ptr { return c.ptr() }

// Fd returns the descriptor that becomes readable when Dispatch has work
// to do. It is the same for every clone and for the life of the context.
// Only poll it; do not read or write it.
func (c *Context) Fd() int {
	c.ptr()
	return c.s.fd
}

// Clone returns another reference to the same context.
func (c *Context) Clone() *Context {
	raw := c.ptr()
	c.bridge.acquire()
	c.s.lib.Ref(raw)
	return &Context{s: c.s, bridge: c.bridge}
}

// Close drops this clone's reference. When it is the last one the library
// closes every open device through the CloseFunc before the callbacks are
// released. Calling Close twice is a no-op.
func (c *Context) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	destroyed := c.s.lib.Unref(c.s.raw) == 0
	if c.bridge.release() {
		c.s.log.Debug("libinput context destroyed", "bridge", c.bridge.id, "library_destroyed", destroyed)
	}
	return nil
}

// Dispatch reads pending data from the descriptor and queues the
// resulting events. Call it promptly once Fd is readable.
func (c *Context) Dispatch() error {
	if rc := c.s.lib.Dispatch(c.ptr()); rc < 0 {
		return &DispatchError{Errno: syscall.Errno(-rc)}
	}
	return nil
}

// GetEvent pops the next queued event. It never blocks and never reads
// the descriptor. The caller must Close the returned event.
func (c *Context) GetEvent() (Event, bool) {
	raw := c.ptr()
	for {
		ev := c.s.lib.GetEvent(raw)
		if ev == 0 {
			return nil, false
		}
		e := decodeEvent(c.s.lib, ev)
		c.s.lib.EventDestroy(ev)
		if e != nil {
			return e, true
		}
	}
}

// Suspend closes all devices and stops monitoring for new ones.
func (c *Context) Suspend() {
	c.s.lib.Suspend(c.ptr())
}

// Resume reopens devices after Suspend.
func (c *Context) Resume() error {
	if rc := c.s.lib.Resume(c.ptr()); rc != 0 {
		return fmt.Errorf("%w: code %d", ErrResume, rc)
	}
	return nil
}

// AssignSeat starts monitoring the named seat. Devices already present are
// opened now and announced as DeviceAddedEvent on the next GetEvent;
// devices that fail to open are skipped. A context can be assigned only
// once: later calls, from any clone, return ErrSeat.
func (c *Context) AssignSeat(id string) error {
	raw := c.ptr()
	if id == "" {
		return fmt.Errorf("%w: empty seat id", ErrSeat)
	}
	if !c.s.seatAssigned.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: seat already assigned", ErrSeat)
	}
	if rc := c.s.lib.UdevAssignSeat(raw, id); rc != 0 {
		return fmt.Errorf("%w: %q: code %d", ErrSeat, id, rc)
	}
	c.s.log.Debug("seat assigned", "seat", id)
	return nil
}
