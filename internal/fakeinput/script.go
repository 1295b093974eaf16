package fakeinput

import (
	"encoding/binary"
	"path"
	"syscall"

	"golang.org/x/sys/unix"

	"inputd/pkg/libinput/sys"
)

// raise makes the context's descriptor readable.
func raise(c *libctx) {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(c.efd, buf[:])
}

// kernel queues op as undispatched data for every context that the filter
// accepts.
func (l *Library) kernel(accept func(*libctx) bool, op func(*libctx)) {
	for _, c := range l.contexts {
		if !accept(c) {
			continue
		}
		c.pending.Add(func() { op(c) })
		raise(c)
	}
}

// AddDevice plugs a device node. Contexts assigned to the node's seat see
// it on their next Dispatch; contexts assigned later pick it up during
// seat assignment.
func (l *Library) AddDevice(spec DeviceSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if spec.Seat == "" {
		spec.Seat = "seat0"
	}
	if spec.Sysname == "" {
		spec.Sysname = path.Base(spec.Devnode)
	}

	known := false
	for _, n := range l.nodes {
		if n.spec.Devnode == spec.Devnode {
			n.spec = spec
			n.present = true
			known = true
		}
	}
	if !known {
		l.nodes = append(l.nodes, &node{spec: spec, present: true})
	}

	l.kernel(func(c *libctx) bool {
		return c.assigned && !c.suspended && c.seatID == spec.Seat
	}, func(c *libctx) {
		if !c.suspended {
			l.addDevice(c, spec)
		}
	})
}

// RemoveDevice unplugs a device node.
func (l *Library) RemoveDevice(devnode string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, n := range l.nodes {
		if n.spec.Devnode == devnode {
			n.present = false
		}
	}

	l.kernel(func(c *libctx) bool {
		_, ok := c.open[devnode]
		return ok
	}, func(c *libctx) {
		if d, ok := c.open[devnode]; ok {
			l.removeDevice(c, d)
		}
	})
}

// Emit injects one event of the given type from a device node. Contexts
// that do not hold the node open ignore it.
func (l *Library) Emit(devnode string, typ sys.EventType, p Payload) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.tick()
	p.Keyboard.Time = now
	p.Pointer.Time = now
	p.Touch.Time = now
	p.Gesture.Time = now
	p.Switch.Time = now

	l.kernel(func(c *libctx) bool {
		_, ok := c.open[devnode]
		return ok
	}, func(c *libctx) {
		if d, ok := c.open[devnode]; ok {
			l.queueEvent(c, typ, d, p)
		}
	})
}

// Key injects a key press or release.
func (l *Library) Key(devnode string, key uint32, pressed bool) {
	state := sys.StateReleased
	if pressed {
		state = sys.StatePressed
	}
	l.Emit(devnode, sys.EventKeyboardKey, Payload{
		Keyboard: sys.KeyboardData{Key: key, State: state},
	})
}

// Motion injects a relative pointer motion.
func (l *Library) Motion(devnode string, dx, dy float64) {
	l.Emit(devnode, sys.EventPointerMotion, Payload{
		Pointer: sys.PointerData{DX: dx, DY: dy, DXUnaccelerated: dx, DYUnaccelerated: dy},
	})
}

// FailNextDispatch makes the next Dispatch of every live context return
// -errno. The descriptors are made readable so a waiting reader wakes up.
func (l *Library) FailNextDispatch(errno syscall.Errno) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.contexts {
		c.dispatchErr = errno
		raise(c)
	}
}

// Wake makes every context's descriptor readable without queuing data.
func (l *Library) Wake() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.contexts {
		raise(c)
	}
}

// FailUdev makes context creation fail in the udev step.
func (l *Library) FailUdev(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failUdev = fail
}

// FailCreate makes context creation fail in the libinput step.
func (l *Library) FailCreate(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failCreate = fail
}

// FailResume makes Resume return an error.
func (l *Library) FailResume(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failResume = fail
}

// FailAssign makes seat assignment fail.
func (l *Library) FailAssign(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAssign = fail
}
