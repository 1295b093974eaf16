// Package sys is the raw surface of libinput as seen from Go.
//
// Objects owned by the library are addressed by Ptr values. A Ptr is an
// address in C memory (or an opaque id in a simulated library); Go code never
// dereferences it. The reference counting rules are the library's own:
// every *Ref call must be balanced by exactly one *Unref call, and pointers
// returned by accessors such as DeviceSeat are borrowed.
//
// The native implementation is compiled on linux with cgo unless the
// nolibinput build tag is set. Other builds get a Library-less stub and
// Native reports ErrUnavailable.
package sys

import "errors"

// ErrUnavailable is returned by Native when the binary was built without
// the libinput bindings.
var ErrUnavailable = errors.New("libinput bindings not available in this build")

// Ptr is an opaque, library-managed object address.
type Ptr uintptr

// EventType is the libinput event discriminant.
type EventType int32

// Event types, values as in libinput.h.
const (
	EventNone          EventType = 0
	EventDeviceAdded   EventType = 1
	EventDeviceRemoved EventType = 2

	EventKeyboardKey EventType = 300

	EventPointerMotion           EventType = 400
	EventPointerMotionAbsolute   EventType = 401
	EventPointerButton           EventType = 402
	EventPointerAxis             EventType = 403
	EventPointerScrollWheel      EventType = 404
	EventPointerScrollFinger     EventType = 405
	EventPointerScrollContinuous EventType = 406

	EventTouchDown   EventType = 500
	EventTouchUp     EventType = 501
	EventTouchMotion EventType = 502
	EventTouchCancel EventType = 503
	EventTouchFrame  EventType = 504

	EventTabletToolAxis      EventType = 600
	EventTabletToolProximity EventType = 601
	EventTabletToolTip       EventType = 602
	EventTabletToolButton    EventType = 603

	EventTabletPadButton EventType = 700
	EventTabletPadRing   EventType = 701
	EventTabletPadStrip  EventType = 702
	EventTabletPadKey    EventType = 703
	EventTabletPadDial   EventType = 704

	EventGestureSwipeBegin  EventType = 800
	EventGestureSwipeUpdate EventType = 801
	EventGestureSwipeEnd    EventType = 802
	EventGesturePinchBegin  EventType = 803
	EventGesturePinchUpdate EventType = 804
	EventGesturePinchEnd    EventType = 805
	EventGestureHoldBegin   EventType = 806
	EventGestureHoldEnd     EventType = 807

	EventSwitchToggle EventType = 900
)

// Capability is a device capability bit.
type Capability uint32

// Device capabilities, values as in libinput.h.
const (
	CapKeyboard   Capability = 0
	CapPointer    Capability = 1
	CapTouch      Capability = 2
	CapTabletTool Capability = 3
	CapTabletPad  Capability = 4
	CapGesture    Capability = 5
	CapSwitch     Capability = 6
)

// LogPriority is the priority attached to library log messages.
type LogPriority int32

// Log priorities, values as in libinput.h.
const (
	LogDebug LogPriority = 10
	LogInfo  LogPriority = 20
	LogError LogPriority = 30
)

// Key and button states share the same encoding.
const (
	StateReleased uint32 = 0
	StatePressed  uint32 = 1
)

// Pointer axes.
const (
	AxisVertical   uint32 = 0
	AxisHorizontal uint32 = 1
)

// Axis sources.
const (
	AxisSourceWheel      uint32 = 1
	AxisSourceFinger     uint32 = 2
	AxisSourceContinuous uint32 = 3
	AxisSourceWheelTilt  uint32 = 4
)

// Switches.
const (
	SwitchLid        uint32 = 1
	SwitchTabletMode uint32 = 2
)

// Interface is the open/close pair the library calls to acquire and
// release device descriptors. userData is the value given to
// UdevCreateContext. OpenRestricted returns a descriptor or a negative
// errno.
type Interface struct {
	OpenRestricted  func(path string, flags int32, userData uintptr) int32
	CloseRestricted func(fd int32, userData uintptr)
}

// KeyboardData is the payload of a keyboard key event.
type KeyboardData struct {
	Time         uint64
	Key          uint32
	State        uint32
	SeatKeyCount uint32
}

// PointerData is the payload of a pointer event. Only the fields relevant
// to the event type are filled.
type PointerData struct {
	Time            uint64
	DX, DY          float64
	DXUnaccelerated float64
	DYUnaccelerated float64
	AbsoluteX       float64
	AbsoluteY       float64
	Button          uint32
	ButtonState     uint32
	SeatButtonCount uint32
	Source          uint32
	HasVertical     bool
	HasHorizontal   bool
	Vertical        float64
	Horizontal      float64
}

// TouchData is the payload of a touch event.
type TouchData struct {
	Time     uint64
	Slot     int32
	SeatSlot int32
	X, Y     float64
}

// GestureData is the payload of a gesture event.
type GestureData struct {
	Time      uint64
	Fingers   int32
	DX, DY    float64
	Scale     float64
	Angle     float64
	Cancelled bool
}

// SwitchData is the payload of a switch toggle event.
type SwitchData struct {
	Time   uint64
	Switch uint32
	State  uint32
}

// UdevInfo is a copy of the identifying fields of a device's udev node.
type UdevInfo struct {
	Syspath string
	Sysname string
	Devnode string
}

// Library is the set of libinput entry points used by this module.
type Library interface {
	// UdevCreateContext creates a udev instance and a libinput context
	// bound to it. The returned context has a reference count of one.
	UdevCreateContext(iface *Interface, userData uintptr) (Ptr, error)
	Ref(li Ptr) Ptr
	// Unref returns 0 once the context has been destroyed.
	Unref(li Ptr) Ptr
	UserData(li Ptr) uintptr
	Fd(li Ptr) int
	Dispatch(li Ptr) int
	GetEvent(li Ptr) Ptr
	Suspend(li Ptr)
	Resume(li Ptr) int
	UdevAssignSeat(li Ptr, seatID string) int
	LogSetPriority(li Ptr, priority LogPriority)
	// LogSetHandler routes the context's messages to the process-wide
	// sink registered with SetLogSink.
	LogSetHandler(li Ptr)

	EventGetType(ev Ptr) EventType
	// EventGetDevice returns a borrowed device pointer.
	EventGetDevice(ev Ptr) Ptr
	EventDestroy(ev Ptr)
	KeyboardEvent(ev Ptr) KeyboardData
	PointerEvent(ev Ptr) PointerData
	TouchEvent(ev Ptr) TouchData
	GestureEvent(ev Ptr) GestureData
	SwitchEvent(ev Ptr) SwitchData

	DeviceRef(dev Ptr) Ptr
	DeviceUnref(dev Ptr) Ptr
	DeviceName(dev Ptr) string
	DeviceSysname(dev Ptr) string
	DeviceOutputName(dev Ptr) (string, bool)
	DeviceSeat(dev Ptr) Ptr
	DeviceGroup(dev Ptr) Ptr
	DeviceVendorID(dev Ptr) uint32
	DeviceProductID(dev Ptr) uint32
	DeviceBustype(dev Ptr) uint32
	DeviceHasCapability(dev Ptr, c Capability) bool
	DeviceUdev(dev Ptr) (UdevInfo, bool)

	SeatRef(seat Ptr) Ptr
	SeatUnref(seat Ptr) Ptr
	SeatPhysicalName(seat Ptr) string
	SeatLogicalName(seat Ptr) string

	DeviceGroupRef(group Ptr) Ptr
	DeviceGroupUnref(group Ptr) Ptr
}
