//go:build linux && cgo && !nolibinput

package sys

/*
#cgo pkg-config: libinput libudev
#include <stdint.h>
#include <stdlib.h>
#include <libinput.h>
#include <libudev.h>

struct libinput *inputd_udev_create_context(struct udev *udev, uintptr_t user_data);
uintptr_t inputd_get_user_data(struct libinput *li);
void inputd_log_set_handler(struct libinput *li);
*/
import "C"

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

// nativeInterface is the callback pair the C trampolines forward to. The
// C side installs one static libinput_interface for every context, so the
// Go side keeps one as well.
var nativeInterface atomic.Pointer[Interface]

type nativeLibrary struct{}

// Native returns the cgo-backed libinput implementation.
func Native() (Library, error) {
	return nativeLibrary{}, nil
}

func toPtr[T any](p *T) Ptr { return Ptr(uintptr(unsafe.Pointer(p))) }

func li(p Ptr) *C.struct_libinput {
	return (*C.struct_libinput)(unsafe.Pointer(uintptr(p)))
}

func ev(p Ptr) *C.struct_libinput_event {
	return (*C.struct_libinput_event)(unsafe.Pointer(uintptr(p)))
}

func dev(p Ptr) *C.struct_libinput_device {
	return (*C.struct_libinput_device)(unsafe.Pointer(uintptr(p)))
}

func seat(p Ptr) *C.struct_libinput_seat {
	return (*C.struct_libinput_seat)(unsafe.Pointer(uintptr(p)))
}

func group(p Ptr) *C.struct_libinput_device_group {
	return (*C.struct_libinput_device_group)(unsafe.Pointer(uintptr(p)))
}

func (nativeLibrary) UdevCreateContext(iface *Interface, userData uintptr) (Ptr, error) {
	nativeInterface.Store(iface)

	udev := C.udev_new()
	if udev == nil {
		return 0, errors.New("udev: failed to create context")
	}
	// libinput takes its own reference on udev.
	defer C.udev_unref(udev)

	raw := C.inputd_udev_create_context(udev, C.uintptr_t(userData))
	if raw == nil {
		return 0, errors.New("libinput: failed to create udev context")
	}
	return toPtr(raw), nil
}

func (nativeLibrary) Ref(p Ptr) Ptr   { return toPtr(C.libinput_ref(li(p))) }
func (nativeLibrary) Unref(p Ptr) Ptr { return toPtr(C.libinput_unref(li(p))) }

func (nativeLibrary) UserData(p Ptr) uintptr {
	return uintptr(C.inputd_get_user_data(li(p)))
}

func (nativeLibrary) Fd(p Ptr) int       { return int(C.libinput_get_fd(li(p))) }
func (nativeLibrary) Dispatch(p Ptr) int { return int(C.libinput_dispatch(li(p))) }
func (nativeLibrary) GetEvent(p Ptr) Ptr { return toPtr(C.libinput_get_event(li(p))) }
func (nativeLibrary) Suspend(p Ptr)      { C.libinput_suspend(li(p)) }
func (nativeLibrary) Resume(p Ptr) int   { return int(C.libinput_resume(li(p))) }

func (nativeLibrary) UdevAssignSeat(p Ptr, seatID string) int {
	cs := C.CString(seatID)
	defer C.free(unsafe.Pointer(cs))
	return int(C.libinput_udev_assign_seat(li(p), cs))
}

func (nativeLibrary) LogSetPriority(p Ptr, priority LogPriority) {
	C.libinput_log_set_priority(li(p), C.enum_libinput_log_priority(priority))
}

func (nativeLibrary) LogSetHandler(p Ptr) { C.inputd_log_set_handler(li(p)) }

func (nativeLibrary) EventGetType(p Ptr) EventType {
	return EventType(C.libinput_event_get_type(ev(p)))
}

func (nativeLibrary) EventGetDevice(p Ptr) Ptr {
	return toPtr(C.libinput_event_get_device(ev(p)))
}

func (nativeLibrary) EventDestroy(p Ptr) { C.libinput_event_destroy(ev(p)) }

func (nativeLibrary) KeyboardEvent(p Ptr) KeyboardData {
	k := C.libinput_event_get_keyboard_event(ev(p))
	if k == nil {
		return KeyboardData{}
	}
	return KeyboardData{
		Time:         uint64(C.libinput_event_keyboard_get_time_usec(k)),
		Key:          uint32(C.libinput_event_keyboard_get_key(k)),
		State:        uint32(C.libinput_event_keyboard_get_key_state(k)),
		SeatKeyCount: uint32(C.libinput_event_keyboard_get_seat_key_count(k)),
	}
}

func (nativeLibrary) PointerEvent(p Ptr) PointerData {
	e := ev(p)
	pe := C.libinput_event_get_pointer_event(e)
	if pe == nil {
		return PointerData{}
	}
	d := PointerData{Time: uint64(C.libinput_event_pointer_get_time_usec(pe))}

	const (
		vertical   = C.LIBINPUT_POINTER_AXIS_SCROLL_VERTICAL
		horizontal = C.LIBINPUT_POINTER_AXIS_SCROLL_HORIZONTAL
	)

	switch t := EventType(C.libinput_event_get_type(e)); t {
	case EventPointerMotion:
		d.DX = float64(C.libinput_event_pointer_get_dx(pe))
		d.DY = float64(C.libinput_event_pointer_get_dy(pe))
		d.DXUnaccelerated = float64(C.libinput_event_pointer_get_dx_unaccelerated(pe))
		d.DYUnaccelerated = float64(C.libinput_event_pointer_get_dy_unaccelerated(pe))
	case EventPointerMotionAbsolute:
		d.AbsoluteX = float64(C.libinput_event_pointer_get_absolute_x(pe))
		d.AbsoluteY = float64(C.libinput_event_pointer_get_absolute_y(pe))
	case EventPointerButton:
		d.Button = uint32(C.libinput_event_pointer_get_button(pe))
		d.ButtonState = uint32(C.libinput_event_pointer_get_button_state(pe))
		d.SeatButtonCount = uint32(C.libinput_event_pointer_get_seat_button_count(pe))
	case EventPointerAxis:
		d.Source = uint32(C.libinput_event_pointer_get_axis_source(pe))
		if C.libinput_event_pointer_has_axis(pe, vertical) != 0 {
			d.HasVertical = true
			d.Vertical = float64(C.libinput_event_pointer_get_axis_value(pe, vertical))
		}
		if C.libinput_event_pointer_has_axis(pe, horizontal) != 0 {
			d.HasHorizontal = true
			d.Horizontal = float64(C.libinput_event_pointer_get_axis_value(pe, horizontal))
		}
	case EventPointerScrollWheel, EventPointerScrollFinger, EventPointerScrollContinuous:
		switch t {
		case EventPointerScrollWheel:
			d.Source = AxisSourceWheel
		case EventPointerScrollFinger:
			d.Source = AxisSourceFinger
		default:
			d.Source = AxisSourceContinuous
		}
		if C.libinput_event_pointer_has_axis(pe, vertical) != 0 {
			d.HasVertical = true
			d.Vertical = float64(C.libinput_event_pointer_get_scroll_value(pe, vertical))
		}
		if C.libinput_event_pointer_has_axis(pe, horizontal) != 0 {
			d.HasHorizontal = true
			d.Horizontal = float64(C.libinput_event_pointer_get_scroll_value(pe, horizontal))
		}
	}
	return d
}

func (nativeLibrary) TouchEvent(p Ptr) TouchData {
	e := ev(p)
	te := C.libinput_event_get_touch_event(e)
	if te == nil {
		return TouchData{}
	}
	d := TouchData{Time: uint64(C.libinput_event_touch_get_time_usec(te))}

	switch EventType(C.libinput_event_get_type(e)) {
	case EventTouchDown, EventTouchMotion:
		d.X = float64(C.libinput_event_touch_get_x(te))
		d.Y = float64(C.libinput_event_touch_get_y(te))
		fallthrough
	case EventTouchUp, EventTouchCancel:
		d.Slot = int32(C.libinput_event_touch_get_slot(te))
		d.SeatSlot = int32(C.libinput_event_touch_get_seat_slot(te))
	}
	return d
}

func (nativeLibrary) GestureEvent(p Ptr) GestureData {
	e := ev(p)
	ge := C.libinput_event_get_gesture_event(e)
	if ge == nil {
		return GestureData{}
	}
	d := GestureData{
		Time:    uint64(C.libinput_event_gesture_get_time_usec(ge)),
		Fingers: int32(C.libinput_event_gesture_get_finger_count(ge)),
	}

	t := EventType(C.libinput_event_get_type(e))
	switch t {
	case EventGesturePinchBegin, EventGesturePinchUpdate, EventGesturePinchEnd:
		d.Scale = float64(C.libinput_event_gesture_get_scale(ge))
		d.Angle = float64(C.libinput_event_gesture_get_angle_delta(ge))
		fallthrough
	case EventGestureSwipeBegin, EventGestureSwipeUpdate, EventGestureSwipeEnd:
		d.DX = float64(C.libinput_event_gesture_get_dx(ge))
		d.DY = float64(C.libinput_event_gesture_get_dy(ge))
	}
	switch t {
	case EventGestureSwipeEnd, EventGesturePinchEnd, EventGestureHoldEnd:
		d.Cancelled = C.libinput_event_gesture_get_cancelled(ge) != 0
	}
	return d
}

func (nativeLibrary) SwitchEvent(p Ptr) SwitchData {
	se := C.libinput_event_get_switch_event(ev(p))
	if se == nil {
		return SwitchData{}
	}
	return SwitchData{
		Time:   uint64(C.libinput_event_switch_get_time_usec(se)),
		Switch: uint32(C.libinput_event_switch_get_switch(se)),
		State:  uint32(C.libinput_event_switch_get_switch_state(se)),
	}
}

func (nativeLibrary) DeviceRef(p Ptr) Ptr   { return toPtr(C.libinput_device_ref(dev(p))) }
func (nativeLibrary) DeviceUnref(p Ptr) Ptr { return toPtr(C.libinput_device_unref(dev(p))) }

func (nativeLibrary) DeviceName(p Ptr) string {
	return C.GoString(C.libinput_device_get_name(dev(p)))
}

func (nativeLibrary) DeviceSysname(p Ptr) string {
	return C.GoString(C.libinput_device_get_sysname(dev(p)))
}

func (nativeLibrary) DeviceOutputName(p Ptr) (string, bool) {
	name := C.libinput_device_get_output_name(dev(p))
	if name == nil {
		return "", false
	}
	return C.GoString(name), true
}

func (nativeLibrary) DeviceSeat(p Ptr) Ptr {
	return toPtr(C.libinput_device_get_seat(dev(p)))
}

func (nativeLibrary) DeviceGroup(p Ptr) Ptr {
	return toPtr(C.libinput_device_get_device_group(dev(p)))
}

func (nativeLibrary) DeviceVendorID(p Ptr) uint32 {
	return uint32(C.libinput_device_get_id_vendor(dev(p)))
}

func (nativeLibrary) DeviceProductID(p Ptr) uint32 {
	return uint32(C.libinput_device_get_id_product(dev(p)))
}

func (nativeLibrary) DeviceBustype(p Ptr) uint32 {
	return uint32(C.libinput_device_get_id_bustype(dev(p)))
}

func (nativeLibrary) DeviceHasCapability(p Ptr, c Capability) bool {
	return C.libinput_device_has_capability(dev(p), C.enum_libinput_device_capability(c)) != 0
}

func (nativeLibrary) DeviceUdev(p Ptr) (UdevInfo, bool) {
	ud := C.libinput_device_get_udev_device(dev(p))
	if ud == nil {
		return UdevInfo{}, false
	}
	defer C.udev_device_unref(ud)

	info := UdevInfo{
		Syspath: C.GoString(C.udev_device_get_syspath(ud)),
		Sysname: C.GoString(C.udev_device_get_sysname(ud)),
	}
	if node := C.udev_device_get_devnode(ud); node != nil {
		info.Devnode = C.GoString(node)
	}
	return info, true
}

func (nativeLibrary) SeatRef(p Ptr) Ptr   { return toPtr(C.libinput_seat_ref(seat(p))) }
func (nativeLibrary) SeatUnref(p Ptr) Ptr { return toPtr(C.libinput_seat_unref(seat(p))) }

func (nativeLibrary) SeatPhysicalName(p Ptr) string {
	return C.GoString(C.libinput_seat_get_physical_name(seat(p)))
}

func (nativeLibrary) SeatLogicalName(p Ptr) string {
	return C.GoString(C.libinput_seat_get_logical_name(seat(p)))
}

func (nativeLibrary) DeviceGroupRef(p Ptr) Ptr {
	return toPtr(C.libinput_device_group_ref(group(p)))
}

func (nativeLibrary) DeviceGroupUnref(p Ptr) Ptr {
	return toPtr(C.libinput_device_group_unref(group(p)))
}
