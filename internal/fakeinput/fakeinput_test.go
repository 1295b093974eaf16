package fakeinput

import (
	"encoding/binary"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"inputd/pkg/libinput/sys"
)

type recorder struct {
	next   int32
	fail   bool
	opens  []string
	closes []int32
}

func (r *recorder) iface() *sys.Interface {
	return &sys.Interface{
		OpenRestricted: func(path string, flags int32, _ uintptr) int32 {
			if r.fail {
				return -int32(syscall.EACCES)
			}
			r.next++
			r.opens = append(r.opens, path)
			return r.next
		},
		CloseRestricted: func(fd int32, _ uintptr) {
			r.closes = append(r.closes, fd)
		},
	}
}

func readable(t *testing.T, fd int) bool {
	t.Helper()
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	require.NoError(t, err)
	return n > 0
}

func TestReadinessFollowsUndispatchedData(t *testing.T) {
	l := New()
	rec := &recorder{}
	li, err := l.UdevCreateContext(rec.iface(), 9)
	require.NoError(t, err)
	defer l.Unref(li)

	fd := l.Fd(li)
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))
	assert.False(t, readable(t, fd))

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1"})
	assert.True(t, readable(t, fd))
	undispatched, queued := l.Pending(li)
	assert.Equal(t, 1, undispatched)
	assert.Zero(t, queued)

	require.Zero(t, l.Dispatch(li))
	assert.False(t, readable(t, fd))
	_, queued = l.Pending(li)
	assert.Equal(t, 1, queued)

	ev := l.GetEvent(li)
	require.NotZero(t, ev)
	assert.Equal(t, sys.EventDeviceAdded, l.EventGetType(ev))
	l.EventDestroy(ev)
	assert.Zero(t, l.GetEvent(li))
}

func TestReadinessCountIsHostOrder(t *testing.T) {
	l := New()
	li, err := l.UdevCreateContext((&recorder{}).iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1"})
	var buf [8]byte
	n, err := unix.Read(l.Fd(li), buf[:])
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, uint64(1), binary.NativeEndian.Uint64(buf[:]))
}

func TestDeviceDefaults(t *testing.T) {
	l := New()
	rec := &recorder{}
	li, err := l.UdevCreateContext(rec.iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event4"})
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))
	ev := l.GetEvent(li)
	require.NotZero(t, ev)
	defer l.EventDestroy(ev)

	d := l.EventGetDevice(ev)
	assert.Equal(t, "event4", l.DeviceSysname(d))
	info, ok := l.DeviceUdev(d)
	require.True(t, ok)
	assert.Equal(t, "/sys/devices/virtual/input/event4", info.Syspath)
	assert.Equal(t, "seat0", l.SeatPhysicalName(l.DeviceSeat(d)))
	assert.Equal(t, []string{"/dev/input/event4"}, l.OpenDevnodes(li))
}

func TestAssignSeatOnce(t *testing.T) {
	l := New()
	li, err := l.UdevCreateContext((&recorder{}).iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)

	assert.Zero(t, l.UdevAssignSeat(li, "seat0"))
	assert.Equal(t, -1, l.UdevAssignSeat(li, "seat0"))
}

func TestFailedOpenSkipsDevice(t *testing.T) {
	l := New()
	rec := &recorder{fail: true}
	li, err := l.UdevCreateContext(rec.iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1"})
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))
	assert.Zero(t, l.GetEvent(li))
	assert.Equal(t, 1, l.Stats().OpenFailures)
	assert.Empty(t, l.OpenDevnodes(li))
}

func TestTeardownClosesDevicesAndEvents(t *testing.T) {
	l := New()
	rec := &recorder{}
	li, err := l.UdevCreateContext(rec.iface(), 1)
	require.NoError(t, err)

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1"})
	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event2", Group: "g"})
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))
	l.Key("/dev/input/event1", 30, true)
	require.Zero(t, l.Dispatch(li))

	assert.Equal(t, li, l.Ref(li))
	assert.Equal(t, li, l.Unref(li))
	assert.Zero(t, l.Unref(li))

	assert.Equal(t, []int32{1, 2}, rec.closes)
	assert.Equal(t, Live{}, l.Live())
	st := l.Stats()
	assert.Equal(t, 3, st.EventsDestroyed)
	assert.Equal(t, 1, st.ContextsDestroyed)
}

func TestUseAfterFreePanics(t *testing.T) {
	l := New()
	li, err := l.UdevCreateContext((&recorder{}).iface(), 1)
	require.NoError(t, err)
	require.Zero(t, l.Unref(li))

	assert.Panics(t, func() { l.Unref(li) })
	assert.Panics(t, func() { l.DeviceRef(0x42) })
}

func TestInjectedFailures(t *testing.T) {
	l := New()
	l.FailUdev(true)
	_, err := l.UdevCreateContext((&recorder{}).iface(), 1)
	assert.Error(t, err)
	l.FailUdev(false)

	l.FailCreate(true)
	_, err = l.UdevCreateContext((&recorder{}).iface(), 1)
	assert.Error(t, err)
	l.FailCreate(false)

	li, err := l.UdevCreateContext((&recorder{}).iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)

	l.FailNextDispatch(syscall.EINVAL)
	assert.True(t, readable(t, l.Fd(li)))
	assert.Equal(t, -int(syscall.EINVAL), l.Dispatch(li))
	assert.Zero(t, l.Dispatch(li))

	l.Suspend(li)
	l.FailResume(true)
	assert.Equal(t, -1, l.Resume(li))
	l.FailResume(false)
	assert.Zero(t, l.Resume(li))
}

func TestLogMessagesNeedHandler(t *testing.T) {
	var got []string
	sys.SetLogSink(func(_ sys.LogPriority, msg string) { got = append(got, msg) })
	t.Cleanup(func() { sys.SetLogSink(nil) })

	l := New()
	rec := &recorder{fail: true}
	li, err := l.UdevCreateContext(rec.iface(), 1)
	require.NoError(t, err)
	defer l.Unref(li)

	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1", Sysname: "event1"})
	require.Zero(t, l.UdevAssignSeat(li, "seat0"))
	assert.Empty(t, got)

	l.LogSetHandler(li)
	l.RemoveDevice("/dev/input/event1")
	l.AddDevice(DeviceSpec{Devnode: "/dev/input/event1", Sysname: "event1"})
	require.Zero(t, l.Dispatch(li))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "event1: failed to open /dev/input/event1")
}
