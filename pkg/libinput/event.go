package libinput

import (
	"fmt"

	"inputd/pkg/libinput/sys"
)

// EventType is the libinput event discriminant.
type EventType = sys.EventType

const (
	EventDeviceAdded             = sys.EventDeviceAdded
	EventDeviceRemoved           = sys.EventDeviceRemoved
	EventKeyboardKey             = sys.EventKeyboardKey
	EventPointerMotion           = sys.EventPointerMotion
	EventPointerMotionAbsolute   = sys.EventPointerMotionAbsolute
	EventPointerButton           = sys.EventPointerButton
	EventPointerAxis             = sys.EventPointerAxis
	EventPointerScrollWheel      = sys.EventPointerScrollWheel
	EventPointerScrollFinger     = sys.EventPointerScrollFinger
	EventPointerScrollContinuous = sys.EventPointerScrollContinuous
	EventTouchDown               = sys.EventTouchDown
	EventTouchUp                 = sys.EventTouchUp
	EventTouchMotion             = sys.EventTouchMotion
	EventTouchCancel             = sys.EventTouchCancel
	EventTouchFrame              = sys.EventTouchFrame
	EventGestureSwipeBegin       = sys.EventGestureSwipeBegin
	EventGestureSwipeUpdate      = sys.EventGestureSwipeUpdate
	EventGestureSwipeEnd         = sys.EventGestureSwipeEnd
	EventGesturePinchBegin       = sys.EventGesturePinchBegin
	EventGesturePinchUpdate      = sys.EventGesturePinchUpdate
	EventGesturePinchEnd         = sys.EventGesturePinchEnd
	EventGestureHoldBegin        = sys.EventGestureHoldBegin
	EventGestureHoldEnd          = sys.EventGestureHoldEnd
	EventSwitchToggle            = sys.EventSwitchToggle
)

// Event is one decoded libinput event. Its data is a copy; the library
// event it came from is already destroyed. Device returns a reference
// owned by the event, valid until Close. Callers must Close every event
// they receive.
type Event interface {
	Type() EventType
	Device() *Device
	Close() error
}

type baseEvent struct {
	typ    EventType
	device *Device
}

func (e *baseEvent) Type() EventType { return e.typ }
func (e *baseEvent) Device() *Device { return e.device }
func (e *baseEvent) Close() error    { return e.device.Close() }

// KeyState is the logical state of a key.
type KeyState uint32

const (
	KeyReleased KeyState = KeyState(sys.StateReleased)
	KeyPressed  KeyState = KeyState(sys.StatePressed)
)

func (s KeyState) String() string {
	switch s {
	case KeyReleased:
		return "released"
	case KeyPressed:
		return "pressed"
	default:
		return fmt.Sprintf("KeyState(%d)", uint32(s))
	}
}

// ButtonState is the logical state of a pointer button.
type ButtonState uint32

const (
	ButtonReleased ButtonState = ButtonState(sys.StateReleased)
	ButtonPressed  ButtonState = ButtonState(sys.StatePressed)
)

func (s ButtonState) String() string {
	return KeyState(s).String()
}

// ScrollSource is the hardware that produced a scroll event.
type ScrollSource uint32

const (
	ScrollWheel      ScrollSource = ScrollSource(sys.AxisSourceWheel)
	ScrollFinger     ScrollSource = ScrollSource(sys.AxisSourceFinger)
	ScrollContinuous ScrollSource = ScrollSource(sys.AxisSourceContinuous)
	ScrollWheelTilt  ScrollSource = ScrollSource(sys.AxisSourceWheelTilt)
)

// SwitchKind identifies a hardware switch.
type SwitchKind uint32

const (
	SwitchLid        SwitchKind = SwitchKind(sys.SwitchLid)
	SwitchTabletMode SwitchKind = SwitchKind(sys.SwitchTabletMode)
)

// SwitchState is the position of a switch.
type SwitchState uint32

const (
	SwitchOff SwitchState = 0
	SwitchOn  SwitchState = 1
)

// DeviceAddedEvent announces a new device. It is the first event for the
// device.
type DeviceAddedEvent struct{ baseEvent }

// DeviceRemovedEvent announces a device is gone. The library has already
// closed its descriptor; the event's Device remains valid for queries.
type DeviceRemovedEvent struct{ baseEvent }

// KeyboardKeyEvent is a key press or release. Key is a Linux input event
// code (KEY_*).
type KeyboardKeyEvent struct {
	baseEvent
	Time         uint64
	Key          uint32
	State        KeyState
	SeatKeyCount uint32
}

// PointerMotionEvent is relative pointer motion.
type PointerMotionEvent struct {
	baseEvent
	Time            uint64
	DX, DY          float64
	DXUnaccelerated float64
	DYUnaccelerated float64
}

// PointerMotionAbsoluteEvent is absolute pointer motion, in mm from the
// top left corner of the device.
type PointerMotionAbsoluteEvent struct {
	baseEvent
	Time uint64
	X, Y float64
}

// PointerButtonEvent is a pointer button press or release.
type PointerButtonEvent struct {
	baseEvent
	Time            uint64
	Button          uint32
	State           ButtonState
	SeatButtonCount uint32
}

// PointerScrollEvent is a scroll on one or both axes. An axis that did not
// change reports ok=false from Vertical or Horizontal.
type PointerScrollEvent struct {
	baseEvent
	Time          uint64
	Source        ScrollSource
	vertical      float64
	horizontal    float64
	hasVertical   bool
	hasHorizontal bool
}

func (e *PointerScrollEvent) Vertical() (float64, bool) {
	return e.vertical, e.hasVertical
}

func (e *PointerScrollEvent) Horizontal() (float64, bool) {
	return e.horizontal, e.hasHorizontal
}

// TouchEvent covers touch down, up, motion, cancel and frame; Type tells
// them apart. X and Y are in mm and only set for down and motion. Frame
// events carry no slot.
type TouchEvent struct {
	baseEvent
	Time     uint64
	Slot     int32
	SeatSlot int32
	X, Y     float64
}

// GestureEvent covers swipe, pinch and hold gestures; Type tells them
// apart. Scale and Angle are only set for pinch gestures and Cancelled
// only on end events.
type GestureEvent struct {
	baseEvent
	Time      uint64
	Fingers   int
	DX, DY    float64
	Scale     float64
	Angle     float64
	Cancelled bool
}

// SwitchToggleEvent reports a switch changing position.
type SwitchToggleEvent struct {
	baseEvent
	Time   uint64
	Switch SwitchKind
	State  SwitchState
}

// OtherEvent is any event whose payload is not decoded, such as tablet
// tool and tablet pad events.
type OtherEvent struct{ baseEvent }

// decodeEvent copies ev into a Go value holding its own device reference.
// It returns nil for EventNone. The caller still owns ev.
func decodeEvent(lib sys.Library, ev sys.Ptr) Event {
	typ := lib.EventGetType(ev)
	if typ == sys.EventNone {
		return nil
	}
	base := baseEvent{typ: typ, device: DeviceFromRaw(lib, lib.EventGetDevice(ev))}

	switch typ {
	case sys.EventDeviceAdded:
		return &DeviceAddedEvent{base}
	case sys.EventDeviceRemoved:
		return &DeviceRemovedEvent{base}

	case sys.EventKeyboardKey:
		k := lib.KeyboardEvent(ev)
		return &KeyboardKeyEvent{
			baseEvent:    base,
			Time:         k.Time,
			Key:          k.Key,
			State:        KeyState(k.State),
			SeatKeyCount: k.SeatKeyCount,
		}

	case sys.EventPointerMotion:
		p := lib.PointerEvent(ev)
		return &PointerMotionEvent{
			baseEvent:       base,
			Time:            p.Time,
			DX:              p.DX,
			DY:              p.DY,
			DXUnaccelerated: p.DXUnaccelerated,
			DYUnaccelerated: p.DYUnaccelerated,
		}
	case sys.EventPointerMotionAbsolute:
		p := lib.PointerEvent(ev)
		return &PointerMotionAbsoluteEvent{baseEvent: base, Time: p.Time, X: p.AbsoluteX, Y: p.AbsoluteY}
	case sys.EventPointerButton:
		p := lib.PointerEvent(ev)
		return &PointerButtonEvent{
			baseEvent:       base,
			Time:            p.Time,
			Button:          p.Button,
			State:           ButtonState(p.ButtonState),
			SeatButtonCount: p.SeatButtonCount,
		}
	case sys.EventPointerAxis, sys.EventPointerScrollWheel,
		sys.EventPointerScrollFinger, sys.EventPointerScrollContinuous:
		p := lib.PointerEvent(ev)
		return &PointerScrollEvent{
			baseEvent:     base,
			Time:          p.Time,
			Source:        ScrollSource(p.Source),
			vertical:      p.Vertical,
			horizontal:    p.Horizontal,
			hasVertical:   p.HasVertical,
			hasHorizontal: p.HasHorizontal,
		}

	case sys.EventTouchDown, sys.EventTouchUp, sys.EventTouchMotion,
		sys.EventTouchCancel, sys.EventTouchFrame:
		t := lib.TouchEvent(ev)
		return &TouchEvent{
			baseEvent: base,
			Time:      t.Time,
			Slot:      t.Slot,
			SeatSlot:  t.SeatSlot,
			X:         t.X,
			Y:         t.Y,
		}

	case sys.EventGestureSwipeBegin, sys.EventGestureSwipeUpdate, sys.EventGestureSwipeEnd,
		sys.EventGesturePinchBegin, sys.EventGesturePinchUpdate, sys.EventGesturePinchEnd,
		sys.EventGestureHoldBegin, sys.EventGestureHoldEnd:
		g := lib.GestureEvent(ev)
		return &GestureEvent{
			baseEvent: base,
			Time:      g.Time,
			Fingers:   int(g.Fingers),
			DX:        g.DX,
			DY:        g.DY,
			Scale:     g.Scale,
			Angle:     g.Angle,
			Cancelled: g.Cancelled,
		}

	case sys.EventSwitchToggle:
		s := lib.SwitchEvent(ev)
		return &SwitchToggleEvent{
			baseEvent: base,
			Time:      s.Time,
			Switch:    SwitchKind(s.Switch),
			State:     SwitchState(s.State),
		}

	default:
		return &OtherEvent{base}
	}
}
