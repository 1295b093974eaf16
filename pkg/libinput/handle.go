package libinput

import (
	"fmt"
	"sync/atomic"

	"inputd/pkg/libinput/sys"
)

type handleKind int

const (
	kindDevice handleKind = iota
	kindSeat
	kindGroup
)

func (k handleKind) String() string {
	switch k {
	case kindDevice:
		return "device"
	case kindSeat:
		return "seat"
	case kindGroup:
		return "device group"
	default:
		return "handle"
	}
}

// handle owns exactly one library reference on the object at raw. The
// reference is taken when the handle is created and given back by
// release, at most once.
type handle struct {
	lib  sys.Library
	kind handleKind
	raw  atomic.Uintptr
}

// newHandle takes a new reference on a borrowed pointer. Pointers coming
// from event payloads and from accessors such as libinput_device_get_seat
// are both borrowed, so every construction path goes through here.
func newHandle(lib sys.Library, kind handleKind, p sys.Ptr) *handle {
	h := &handle{lib: lib, kind: kind}
	h.raw.Store(uintptr(h.ref(p)))
	return h
}

func (h *handle) ref(p sys.Ptr) sys.Ptr {
	switch h.kind {
	case kindDevice:
		return h.lib.DeviceRef(p)
	case kindSeat:
		return h.lib.SeatRef(p)
	default:
		return h.lib.DeviceGroupRef(p)
	}
}

func (h *handle) unref(p sys.Ptr) {
	switch h.kind {
	case kindDevice:
		h.lib.DeviceUnref(p)
	case kindSeat:
		h.lib.SeatUnref(p)
	default:
		h.lib.DeviceGroupUnref(p)
	}
}

// ptr returns the live pointer. Using a released handle is a caller bug;
// it panics here rather than handing a null pointer to C.
func (h *handle) ptr() sys.Ptr {
	p := h.raw.Load()
	if p == 0 {
		panic(fmt.Sprintf("libinput: use of released %s handle", h.kind))
	}
	return sys.Ptr(p)
}

func (h *handle) clone() *handle {
	return newHandle(h.lib, h.kind, h.ptr())
}

// release drops the reference. Further calls are no-ops.
func (h *handle) release() {
	if p := h.raw.Swap(0); p != 0 {
		h.unref(sys.Ptr(p))
	}
}

func (h *handle) released() bool {
	return h.raw.Load() == 0
}
