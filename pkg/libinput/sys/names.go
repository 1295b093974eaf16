package sys

import "fmt"

var eventTypeNames = map[EventType]string{
	EventNone:                    "none",
	EventDeviceAdded:             "device-added",
	EventDeviceRemoved:           "device-removed",
	EventKeyboardKey:             "keyboard-key",
	EventPointerMotion:           "pointer-motion",
	EventPointerMotionAbsolute:   "pointer-motion-absolute",
	EventPointerButton:           "pointer-button",
	EventPointerAxis:             "pointer-axis",
	EventPointerScrollWheel:      "pointer-scroll-wheel",
	EventPointerScrollFinger:     "pointer-scroll-finger",
	EventPointerScrollContinuous: "pointer-scroll-continuous",
	EventTouchDown:               "touch-down",
	EventTouchUp:                 "touch-up",
	EventTouchMotion:             "touch-motion",
	EventTouchCancel:             "touch-cancel",
	EventTouchFrame:              "touch-frame",
	EventTabletToolAxis:          "tablet-tool-axis",
	EventTabletToolProximity:     "tablet-tool-proximity",
	EventTabletToolTip:           "tablet-tool-tip",
	EventTabletToolButton:        "tablet-tool-button",
	EventTabletPadButton:         "tablet-pad-button",
	EventTabletPadRing:           "tablet-pad-ring",
	EventTabletPadStrip:          "tablet-pad-strip",
	EventTabletPadKey:            "tablet-pad-key",
	EventTabletPadDial:           "tablet-pad-dial",
	EventGestureSwipeBegin:       "gesture-swipe-begin",
	EventGestureSwipeUpdate:      "gesture-swipe-update",
	EventGestureSwipeEnd:         "gesture-swipe-end",
	EventGesturePinchBegin:       "gesture-pinch-begin",
	EventGesturePinchUpdate:      "gesture-pinch-update",
	EventGesturePinchEnd:         "gesture-pinch-end",
	EventGestureHoldBegin:        "gesture-hold-begin",
	EventGestureHoldEnd:          "gesture-hold-end",
	EventSwitchToggle:            "switch-toggle",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int32(t))
}

func (c Capability) String() string {
	switch c {
	case CapKeyboard:
		return "keyboard"
	case CapPointer:
		return "pointer"
	case CapTouch:
		return "touch"
	case CapTabletTool:
		return "tablet-tool"
	case CapTabletPad:
		return "tablet-pad"
	case CapGesture:
		return "gesture"
	case CapSwitch:
		return "switch"
	default:
		return fmt.Sprintf("capability(%d)", uint32(c))
	}
}

func (p LogPriority) String() string {
	switch p {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogError:
		return "error"
	default:
		return fmt.Sprintf("priority(%d)", int32(p))
	}
}
