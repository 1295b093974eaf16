package libinput

import (
	"fmt"

	"inputd/pkg/libinput/sys"
)

// Capability is a device capability. A device may have several and they
// do not change for the lifetime of the device.
type Capability = sys.Capability

const (
	CapabilityKeyboard   = sys.CapKeyboard
	CapabilityPointer    = sys.CapPointer
	CapabilityTouch      = sys.CapTouch
	CapabilityTabletTool = sys.CapTabletTool
	CapabilityTabletPad  = sys.CapTabletPad
	CapabilityGesture    = sys.CapGesture
	CapabilitySwitch     = sys.CapSwitch
)

var allCapabilities = []Capability{
	CapabilityKeyboard,
	CapabilityPointer,
	CapabilityTouch,
	CapabilityTabletTool,
	CapabilityTabletPad,
	CapabilityGesture,
	CapabilitySwitch,
}

// UdevDevice identifies the platform device backing a Device. It is a
// copy taken at lookup time.
type UdevDevice = sys.UdevInfo

// Device is a reference to a libinput device. Each Device value owns one
// library reference; release it with Close. Accessors only read through
// the pointer and never change reference counts, except Seat and
// DeviceGroup which return new, separately owned references.
type Device struct {
	h *handle
}

// DeviceFromRaw wraps a device pointer obtained from lib, taking a new
// reference on it. The caller keeps whatever reference it already had.
func DeviceFromRaw(lib sys.Library, p sys.Ptr) *Device {
	return &Device{h: newHandle(lib, kindDevice, p)}
}

// Raw returns the underlying pointer. It stays valid while d is open.
func (d *Device) Raw() sys.Ptr { return d.h.ptr() }

// Clone returns a new Device sharing the same library object.
func (d *Device) Clone() *Device { return &Device{h: d.h.clone()} }

// Close releases the reference held by d. Calling Close again is a no-op.
func (d *Device) Close() error {
	d.h.release()
	return nil
}

// Name is the descriptive device name as advertised by the kernel or the
// hardware.
func (d *Device) Name() string { return d.h.lib.DeviceName(d.h.ptr()) }

// Sysname is the kernel name of the device, e.g. "event3".
func (d *Device) Sysname() string { return d.h.lib.DeviceSysname(d.h.ptr()) }

// OutputName is the output the device is mapped to, if any.
func (d *Device) OutputName() (string, bool) { return d.h.lib.DeviceOutputName(d.h.ptr()) }

func (d *Device) VendorID() uint32  { return d.h.lib.DeviceVendorID(d.h.ptr()) }
func (d *Device) ProductID() uint32 { return d.h.lib.DeviceProductID(d.h.ptr()) }
func (d *Device) BusType() uint32   { return d.h.lib.DeviceBustype(d.h.ptr()) }

// HasCapability reports whether d has capability c.
func (d *Device) HasCapability(c Capability) bool {
	return d.h.lib.DeviceHasCapability(d.h.ptr(), c)
}

// Capabilities lists every capability the device has.
func (d *Device) Capabilities() []Capability {
	var caps []Capability
	for _, c := range allCapabilities {
		if d.HasCapability(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// Seat looks up the seat the device belongs to. The result is a new
// reference and must be closed by the caller.
func (d *Device) Seat() *Seat {
	return &Seat{h: newHandle(d.h.lib, kindSeat, d.h.lib.DeviceSeat(d.h.ptr()))}
}

// DeviceGroup looks up the group the device is assigned to. Groups are
// not reused once their last device is removed, so unplugging and
// replugging a device yields a different group; do not cache the result
// across a removal. The result must be closed by the caller.
func (d *Device) DeviceGroup() *DeviceGroup {
	return &DeviceGroup{h: newHandle(d.h.lib, kindGroup, d.h.lib.DeviceGroup(d.h.ptr()))}
}

// Udev returns the identity of the backing udev device, if it has one.
func (d *Device) Udev() (UdevDevice, bool) { return d.h.lib.DeviceUdev(d.h.ptr()) }

// Equal reports whether d and o refer to the same library device.
func (d *Device) Equal(o *Device) bool {
	return o != nil && d.h.ptr() == o.h.ptr()
}

func (d *Device) String() string {
	if d.h.released() {
		return "Device(<released>)"
	}
	return fmt.Sprintf("Device(%s)", d.Sysname())
}
