package access

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Direct opens device nodes itself.
type Direct struct {
	log *slog.Logger
}

// NewDirect returns a Direct back end.
func NewDirect(log *slog.Logger) *Direct {
	return &Direct{log: log}
}

// Open opens path with flags. Errors wrap the syscall.Errno so that the
// library sees the real reason.
func (d *Direct) Open(path string, flags int) (int, error) {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		d.log.Warn("open device", "path", path, "error", err)
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	d.log.Debug("opened device", "path", path, "fd", fd)
	return fd, nil
}

// Close closes fd.
func (d *Direct) Close(fd int) {
	if err := unix.Close(fd); err != nil {
		d.log.Warn("close device", "fd", fd, "error", err)
	}
}

// Shutdown is a no-op; Direct holds nothing besides the descriptors the
// library closes itself.
func (d *Direct) Shutdown() error { return nil }
