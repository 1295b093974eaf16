package libinput

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"

	"inputd/pkg/libinput/sys"
)

// OpenFunc opens the device node at path with the given open(2) flags and
// returns the descriptor. Returning a syscall.Errno passes that errno on
// to the library; any other error is reported as EIO.
type OpenFunc func(path string, flags int) (int, error)

// CloseFunc closes a descriptor previously returned by the OpenFunc.
type CloseFunc func(fd int)

// bridge holds the callback pair for one library context. The library
// only ever sees the bridge id, stored as its user data; Go pointers are
// not placed in C memory.
//
// refs counts the live Context clones sharing the library object. The
// bridge stays registered until the last clone is closed and the library
// object has been destroyed, because the library closes remaining device
// descriptors during its own teardown.
type bridge struct {
	id    uintptr
	open  OpenFunc
	close CloseFunc
	refs  atomic.Int64
	log   *slog.Logger
}

var (
	bridgesMu sync.RWMutex
	bridges   = make(map[uintptr]*bridge)
	bridgeID  uintptr
)

// restrictedInterface is handed to every context; user data selects the
// bridge.
var restrictedInterface = &sys.Interface{
	OpenRestricted:  openRestricted,
	CloseRestricted: closeRestricted,
}

func registerBridge(open OpenFunc, close CloseFunc, log *slog.Logger) *bridge {
	bridgesMu.Lock()
	defer bridgesMu.Unlock()

	bridgeID++
	b := &bridge{id: bridgeID, open: open, close: close, log: log}
	b.refs.Store(1)
	bridges[b.id] = b
	return b
}

func lookupBridge(id uintptr) *bridge {
	bridgesMu.RLock()
	defer bridgesMu.RUnlock()
	return bridges[id]
}

func (b *bridge) acquire() {
	b.refs.Add(1)
}

// release drops one clone's share. The last release unregisters the
// bridge and reports true.
func (b *bridge) release() bool {
	n := b.refs.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		panic("libinput: bridge released more times than acquired")
	}
	bridgesMu.Lock()
	delete(bridges, b.id)
	bridgesMu.Unlock()
	return true
}

// liveBridges reports how many bridges are registered.
func liveBridges() int {
	bridgesMu.RLock()
	defer bridgesMu.RUnlock()
	return len(bridges)
}

func openRestricted(path string, flags int32, userData uintptr) int32 {
	b := lookupBridge(userData)
	if b == nil {
		slog.Default().Error("open_restricted with unknown user data", "user_data", userData, "path", path)
		return -int32(syscall.ENODEV)
	}

	fd, err := b.open(path, int(flags))
	if err != nil {
		var errno syscall.Errno
		if !errors.As(err, &errno) || errno == 0 {
			errno = syscall.EIO
		}
		b.log.Debug("open device failed", "path", path, "error", err)
		return -int32(errno)
	}
	if fd < 0 {
		b.log.Debug("open device returned invalid descriptor", "path", path, "fd", fd)
		return -int32(syscall.EIO)
	}
	return int32(fd)
}

func closeRestricted(fd int32, userData uintptr) {
	b := lookupBridge(userData)
	if b == nil {
		slog.Default().Error("close_restricted with unknown user data", "user_data", userData, "fd", fd)
		return
	}
	b.close(int(fd))
}
