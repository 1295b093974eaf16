package libinput

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputd/internal/fakeinput"
	"inputd/pkg/libinput/sys"
)

func TestDecodeEvents(t *testing.T) {
	const node = "/dev/input/event1"

	tests := []struct {
		name    string
		typ     sys.EventType
		payload fakeinput.Payload
		check   func(t *testing.T, ev Event)
	}{
		{
			name:    "keyboard key",
			typ:     sys.EventKeyboardKey,
			payload: fakeinput.Payload{Keyboard: sys.KeyboardData{Key: 30, State: sys.StatePressed, SeatKeyCount: 1}},
			check: func(t *testing.T, ev Event) {
				k := ev.(*KeyboardKeyEvent)
				assert.Equal(t, uint32(30), k.Key)
				assert.Equal(t, KeyPressed, k.State)
				assert.Equal(t, uint32(1), k.SeatKeyCount)
				assert.NotZero(t, k.Time)
			},
		},
		{
			name: "pointer motion",
			typ:  sys.EventPointerMotion,
			payload: fakeinput.Payload{Pointer: sys.PointerData{
				DX: 1.5, DY: -2, DXUnaccelerated: 1, DYUnaccelerated: -1,
			}},
			check: func(t *testing.T, ev Event) {
				m := ev.(*PointerMotionEvent)
				assert.Equal(t, 1.5, m.DX)
				assert.Equal(t, -2.0, m.DY)
				assert.Equal(t, 1.0, m.DXUnaccelerated)
				assert.Equal(t, -1.0, m.DYUnaccelerated)
			},
		},
		{
			name:    "pointer motion absolute",
			typ:     sys.EventPointerMotionAbsolute,
			payload: fakeinput.Payload{Pointer: sys.PointerData{AbsoluteX: 10, AbsoluteY: 20}},
			check: func(t *testing.T, ev Event) {
				m := ev.(*PointerMotionAbsoluteEvent)
				assert.Equal(t, 10.0, m.X)
				assert.Equal(t, 20.0, m.Y)
			},
		},
		{
			name: "pointer button",
			typ:  sys.EventPointerButton,
			payload: fakeinput.Payload{Pointer: sys.PointerData{
				Button: 0x110, ButtonState: sys.StateReleased, SeatButtonCount: 0,
			}},
			check: func(t *testing.T, ev Event) {
				b := ev.(*PointerButtonEvent)
				assert.Equal(t, uint32(0x110), b.Button)
				assert.Equal(t, ButtonReleased, b.State)
				assert.Equal(t, "released", b.State.String())
			},
		},
		{
			name: "scroll wheel",
			typ:  sys.EventPointerScrollWheel,
			payload: fakeinput.Payload{Pointer: sys.PointerData{
				Source: sys.AxisSourceWheel, HasVertical: true, Vertical: 15,
			}},
			check: func(t *testing.T, ev Event) {
				s := ev.(*PointerScrollEvent)
				assert.Equal(t, ScrollWheel, s.Source)
				v, ok := s.Vertical()
				assert.True(t, ok)
				assert.Equal(t, 15.0, v)
				_, ok = s.Horizontal()
				assert.False(t, ok)
			},
		},
		{
			name: "legacy axis",
			typ:  sys.EventPointerAxis,
			payload: fakeinput.Payload{Pointer: sys.PointerData{
				Source: sys.AxisSourceFinger, HasHorizontal: true, Horizontal: -3,
			}},
			check: func(t *testing.T, ev Event) {
				s := ev.(*PointerScrollEvent)
				assert.Equal(t, ScrollFinger, s.Source)
				h, ok := s.Horizontal()
				assert.True(t, ok)
				assert.Equal(t, -3.0, h)
			},
		},
		{
			name:    "touch down",
			typ:     sys.EventTouchDown,
			payload: fakeinput.Payload{Touch: sys.TouchData{Slot: 1, SeatSlot: 4, X: 3, Y: 4}},
			check: func(t *testing.T, ev Event) {
				tc := ev.(*TouchEvent)
				assert.Equal(t, EventTouchDown, tc.Type())
				assert.Equal(t, int32(1), tc.Slot)
				assert.Equal(t, int32(4), tc.SeatSlot)
				assert.Equal(t, 3.0, tc.X)
			},
		},
		{
			name: "touch frame",
			typ:  sys.EventTouchFrame,
			check: func(t *testing.T, ev Event) {
				assert.IsType(t, &TouchEvent{}, ev)
				assert.Equal(t, EventTouchFrame, ev.Type())
			},
		},
		{
			name:    "pinch end",
			typ:     sys.EventGesturePinchEnd,
			payload: fakeinput.Payload{Gesture: sys.GestureData{Fingers: 2, Scale: 1.25, Angle: 5, Cancelled: true}},
			check: func(t *testing.T, ev Event) {
				g := ev.(*GestureEvent)
				assert.Equal(t, 2, g.Fingers)
				assert.Equal(t, 1.25, g.Scale)
				assert.Equal(t, 5.0, g.Angle)
				assert.True(t, g.Cancelled)
			},
		},
		{
			name:    "swipe update",
			typ:     sys.EventGestureSwipeUpdate,
			payload: fakeinput.Payload{Gesture: sys.GestureData{Fingers: 3, DX: 4, DY: 5}},
			check: func(t *testing.T, ev Event) {
				g := ev.(*GestureEvent)
				assert.Equal(t, 3, g.Fingers)
				assert.Equal(t, 4.0, g.DX)
				assert.False(t, g.Cancelled)
			},
		},
		{
			name:    "lid switch",
			typ:     sys.EventSwitchToggle,
			payload: fakeinput.Payload{Switch: sys.SwitchData{Switch: sys.SwitchLid, State: 1}},
			check: func(t *testing.T, ev Event) {
				s := ev.(*SwitchToggleEvent)
				assert.Equal(t, SwitchLid, s.Switch)
				assert.Equal(t, SwitchOn, s.State)
			},
		},
		{
			name: "tablet pad",
			typ:  sys.EventTabletPadButton,
			check: func(t *testing.T, ev Event) {
				assert.IsType(t, &OtherEvent{}, ev)
				assert.Equal(t, "tablet-pad-button", ev.Type().String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.lib.AddDevice(keyboard(node))
			require.NoError(t, env.ctx.AssignSeat("seat0"))
			closeAll(drain(t, env.ctx))

			env.lib.Emit(node, tt.typ, tt.payload)
			events := drain(t, env.ctx)
			defer closeAll(events)

			require.Len(t, events, 1)
			ev := events[0]
			assert.Equal(t, tt.typ, ev.Type())
			assert.Equal(t, "event1", ev.Device().Sysname())
			tt.check(t, ev)
		})
	}
}

func TestEventOwnsDeviceReference(t *testing.T) {
	env := newTestEnv(t)
	env.lib.AddDevice(keyboard("/dev/input/event1"))
	require.NoError(t, env.ctx.AssignSeat("seat0"))
	closeAll(drain(t, env.ctx))

	env.lib.Key("/dev/input/event1", 30, true)
	env.lib.RemoveDevice("/dev/input/event1")
	events := drain(t, env.ctx)
	require.Equal(t, []EventType{EventKeyboardKey, EventDeviceRemoved}, types(events))

	// Both library events are already destroyed; the device lives on in
	// the Go events.
	_, queued := env.lib.Pending(env.ctx.Raw())
	assert.Zero(t, queued)
	assert.Equal(t, 1, env.lib.Live().Devices)
	assert.Equal(t, "event1", events[0].Device().Sysname())

	require.NoError(t, events[0].Close())
	assert.Equal(t, "event1", events[1].Device().Sysname())
	require.NoError(t, events[1].Close())
	require.NoError(t, events[1].Close())

	assert.Zero(t, env.lib.Live().Devices)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "device-added", EventDeviceAdded.String())
	assert.Equal(t, "keyboard-key", EventKeyboardKey.String())
	assert.Equal(t, "gesture-hold-end", EventGestureHoldEnd.String())
	assert.Equal(t, "event(12345)", EventType(12345).String())
	assert.Equal(t, "pressed", KeyPressed.String())
	assert.Equal(t, "KeyState(7)", KeyState(7).String())
}
