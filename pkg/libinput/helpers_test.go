package libinput

import (
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"inputd/internal/fakeinput"
	"inputd/pkg/libinput/sys"
)

// fakeFiles hands out descriptor numbers without touching the file system
// and records every open and close.
type fakeFiles struct {
	mu     sync.Mutex
	next   int
	fail   map[string]error
	byFd   map[int]string
	opened map[int]int
	closed map[int]int
	flags  []int
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		next:   100,
		fail:   make(map[string]error),
		byFd:   make(map[int]string),
		opened: make(map[int]int),
		closed: make(map[int]int),
	}
}

func (f *fakeFiles) Open(path string, flags int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.flags = append(f.flags, flags)
	if err, ok := f.fail[path]; ok {
		return -1, err
	}
	f.next++
	f.byFd[f.next] = path
	f.opened[f.next]++
	return f.next, nil
}

func (f *fakeFiles) Close(fd int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[fd]++
}

func (f *fakeFiles) failOpen(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = err
}

// stillOpen lists descriptors opened more often than closed.
func (f *fakeFiles) stillOpen() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var fds []int
	for fd, n := range f.opened {
		if f.closed[fd] < n {
			fds = append(fds, fd)
		}
	}
	return fds
}

func (f *fakeFiles) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.opened {
		opens += n
	}
	for _, n := range f.closed {
		closes += n
	}
	return opens, closes
}

func keyboard(devnode string) fakeinput.DeviceSpec {
	return fakeinput.DeviceSpec{
		Devnode:      devnode,
		Sysname:      devnode[len("/dev/input/"):],
		Name:         "Test Keyboard " + devnode,
		VendorID:     0x046d,
		ProductID:    0xc31c,
		Bustype:      0x03,
		Capabilities: []sys.Capability{sys.CapKeyboard},
	}
}

func mouse(devnode string) fakeinput.DeviceSpec {
	return fakeinput.DeviceSpec{
		Devnode:      devnode,
		Sysname:      devnode[len("/dev/input/"):],
		Name:         "Test Mouse",
		Capabilities: []sys.Capability{sys.CapPointer},
	}
}

type testEnv struct {
	lib   *fakeinput.Library
	files *fakeFiles
	ctx   *Context
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{lib: fakeinput.New(), files: newFakeFiles()}
	opts = append([]Option{WithLibrary(env.lib)}, opts...)
	ctx, err := New(env.files.Open, env.files.Close, opts...)
	require.NoError(t, err)
	env.ctx = ctx
	t.Cleanup(func() { _ = ctx.Close() })
	return env
}

// drain dispatches once and returns every queued event.
func drain(t *testing.T, c *Context) []Event {
	t.Helper()
	require.NoError(t, c.Dispatch())
	var events []Event
	for {
		ev, ok := c.GetEvent()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func closeAll(events []Event) {
	for _, ev := range events {
		_ = ev.Close()
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type()
	}
	return out
}

var errPermission = syscall.EACCES
