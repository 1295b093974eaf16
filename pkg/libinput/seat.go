package libinput

import "inputd/pkg/libinput/sys"

// Seat is a reference to a libinput seat. There is at most one seat per
// physical/logical name pair at any time; a seat with no devices and no
// external references may be destroyed and recreated later.
type Seat struct {
	h *handle
}

// SeatFromRaw wraps a seat pointer obtained from lib, taking a new
// reference on it.
func SeatFromRaw(lib sys.Library, p sys.Ptr) *Seat {
	return &Seat{h: newHandle(lib, kindSeat, p)}
}

func (s *Seat) Raw() sys.Ptr { return s.h.ptr() }
func (s *Seat) Clone() *Seat { return &Seat{h: s.h.clone()} }

// Close releases the reference held by s. Calling Close again is a no-op.
func (s *Seat) Close() error {
	s.h.release()
	return nil
}

// PhysicalName is the seat name as known to the system, e.g. "seat0".
func (s *Seat) PhysicalName() string { return s.h.lib.SeatPhysicalName(s.h.ptr()) }

// LogicalName is the libinput-internal name of the seat.
func (s *Seat) LogicalName() string { return s.h.lib.SeatLogicalName(s.h.ptr()) }

// Equal reports whether s and o refer to the same seat.
func (s *Seat) Equal(o *Seat) bool {
	return o != nil && s.h.ptr() == o.h.ptr()
}

// DeviceGroup is a reference to a libinput device group: the set of
// libinput devices that belong to one physical device.
type DeviceGroup struct {
	h *handle
}

// DeviceGroupFromRaw wraps a group pointer obtained from lib, taking a new
// reference on it.
func DeviceGroupFromRaw(lib sys.Library, p sys.Ptr) *DeviceGroup {
	return &DeviceGroup{h: newHandle(lib, kindGroup, p)}
}

func (g *DeviceGroup) Raw() sys.Ptr        { return g.h.ptr() }
func (g *DeviceGroup) Clone() *DeviceGroup { return &DeviceGroup{h: g.h.clone()} }

// Close releases the reference held by g. Calling Close again is a no-op.
func (g *DeviceGroup) Close() error {
	g.h.release()
	return nil
}

// Equal reports whether g and o refer to the same group.
func (g *DeviceGroup) Equal(o *DeviceGroup) bool {
	return o != nil && g.h.ptr() == o.h.ptr()
}
