package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"
)

// logind D-Bus names
const (
	LogindService          = "org.freedesktop.login1"
	LogindPath             = "/org/freedesktop/login1"
	LogindManagerInterface = "org.freedesktop.login1.Manager"
	LogindSessionInterface = "org.freedesktop.login1.Session"
	propertiesInterface    = "org.freedesktop.DBus.Properties"
)

// ErrDeviceUnknown is returned when logind pauses or resumes a device this
// back end never took.
var ErrDeviceUnknown = errors.New("device not taken through logind")

// caller is the part of dbus.BusObject used here.
type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

type devnum struct {
	major, minor uint32
}

// Logind takes device descriptors from systemd-logind. Logind must hold
// control of the session for TakeDevice to work; DialLogind acquires it
// and Shutdown gives it back.
type Logind struct {
	conn    *dbus.Conn
	session caller
	path    dbus.ObjectPath
	log     *slog.Logger

	mu      sync.Mutex
	devices map[int]devnum
	active  func(bool)
	signals chan *dbus.Signal
	done    chan struct{}
}

// DialLogind connects to the system bus, finds the caller's session and
// takes control of it.
func DialLogind(ctx context.Context, log *slog.Logger) (*Logind, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	manager := conn.Object(LogindService, LogindPath)
	path, err := findSession(manager)
	if err != nil {
		conn.Close()
		return nil, err
	}

	l := newLogind(conn.Object(LogindService, path), path, log)
	l.conn = conn
	if err := l.takeControl(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := l.subscribe(); err != nil {
		l.releaseControl()
		conn.Close()
		return nil, err
	}
	return l, nil
}

func newLogind(session caller, path dbus.ObjectPath, log *slog.Logger) *Logind {
	if log == nil {
		log = slog.Default()
	}
	return &Logind{
		session: session,
		path:    path,
		log:     log.With("session", string(path)),
		devices: make(map[int]devnum),
	}
}

// findSession resolves the session from XDG_SESSION_ID, falling back to
// the session of this process.
func findSession(manager caller) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	var err error
	if id := os.Getenv("XDG_SESSION_ID"); id != "" {
		err = manager.Call(LogindManagerInterface+".GetSession", 0, id).Store(&path)
	} else {
		err = manager.Call(LogindManagerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to find logind session: %w", err)
	}
	return path, nil
}

func (l *Logind) takeControl() error {
	if err := l.session.Call(LogindSessionInterface+".TakeControl", 0, false).Err; err != nil {
		return fmt.Errorf("failed to take session control: %w", err)
	}
	l.log.Debug("took session control")
	return nil
}

func (l *Logind) releaseControl() {
	if err := l.session.Call(LogindSessionInterface+".ReleaseControl", 0).Err; err != nil {
		l.log.Warn("release session control", "error", err)
	}
}

func (l *Logind) subscribe() error {
	opts := [][]dbus.MatchOption{
		{dbus.WithMatchObjectPath(l.path), dbus.WithMatchInterface(LogindSessionInterface)},
		{dbus.WithMatchObjectPath(l.path), dbus.WithMatchInterface(propertiesInterface),
			dbus.WithMatchMember("PropertiesChanged")},
	}
	for _, o := range opts {
		if err := l.conn.AddMatchSignal(o...); err != nil {
			return fmt.Errorf("failed to subscribe to session signals: %w", err)
		}
	}

	l.signals = make(chan *dbus.Signal, 16)
	l.done = make(chan struct{})
	l.conn.Signal(l.signals)
	go l.signalLoop()
	return nil
}

func (l *Logind) signalLoop() {
	defer close(l.done)
	for sig := range l.signals {
		if sig.Path != l.path {
			continue
		}
		if err := l.handleSignal(sig); err != nil {
			l.log.Warn("session signal", "signal", sig.Name, "error", err)
		}
	}
}

// OnActiveChanged registers fn to be called when the session becomes
// active or inactive. fn runs on the signal goroutine.
func (l *Logind) OnActiveChanged(fn func(active bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = fn
}

// Active reports whether the session is currently in the foreground.
func (l *Logind) Active() (bool, error) {
	var v dbus.Variant
	err := l.session.Call(propertiesInterface+".Get", 0, LogindSessionInterface, "Active").Store(&v)
	if err != nil {
		return false, fmt.Errorf("failed to read session Active: %w", err)
	}
	active, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("session Active has type %s", v.Signature())
	}
	return active, nil
}

// Open takes the device at path from logind. flags are ignored: logind
// always opens read-write, non-blocking and close-on-exec.
func (l *Logind) Open(path string, flags int) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return -1, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return -1, fmt.Errorf("%s: %w", path, unix.ENODEV)
	}
	dev := devnum{major: unix.Major(uint64(st.Rdev)), minor: unix.Minor(uint64(st.Rdev))}

	var fd dbus.UnixFD
	var inactive bool
	err := l.session.Call(LogindSessionInterface+".TakeDevice", 0, dev.major, dev.minor).Store(&fd, &inactive)
	if err != nil {
		l.log.Warn("take device", "path", path, "major", dev.major, "minor", dev.minor, "error", err)
		return -1, fmt.Errorf("take device %s: %v: %w", path, err, unix.EACCES)
	}

	l.mu.Lock()
	l.devices[int(fd)] = dev
	l.mu.Unlock()

	l.log.Debug("took device", "path", path, "fd", int(fd), "inactive", inactive)
	return int(fd), nil
}

// Close closes fd and hands the device back to logind.
func (l *Logind) Close(fd int) {
	l.mu.Lock()
	dev, ok := l.devices[fd]
	delete(l.devices, fd)
	l.mu.Unlock()

	if err := unix.Close(fd); err != nil {
		l.log.Warn("close device", "fd", fd, "error", err)
	}
	if !ok {
		l.log.Warn("close of descriptor not taken through logind", "fd", fd)
		return
	}
	if err := l.session.Call(LogindSessionInterface+".ReleaseDevice", 0, dev.major, dev.minor).Err; err != nil {
		l.log.Warn("release device", "major", dev.major, "minor", dev.minor, "error", err)
	}
}

func (l *Logind) taken(dev devnum) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.devices {
		if d == dev {
			return true
		}
	}
	return false
}

// handleSignal reacts to session signals. A "pause" PauseDevice must be
// acknowledged or logind waits for a timeout before switching sessions;
// "force" and "gone" need no reply. Descriptors are revoked by logind,
// and libinput notices that on its own.
func (l *Logind) handleSignal(sig *dbus.Signal) error {
	switch sig.Name {
	case LogindSessionInterface + ".PauseDevice":
		var dev devnum
		var kind string
		if err := dbus.Store(sig.Body, &dev.major, &dev.minor, &kind); err != nil {
			return err
		}
		if !l.taken(dev) {
			return fmt.Errorf("%w: %d:%d", ErrDeviceUnknown, dev.major, dev.minor)
		}
		l.log.Debug("device paused", "major", dev.major, "minor", dev.minor, "type", kind)
		if kind == "pause" {
			return l.session.Call(LogindSessionInterface+".PauseDeviceComplete", 0, dev.major, dev.minor).Err
		}
		return nil

	case LogindSessionInterface + ".ResumeDevice":
		var dev devnum
		var fd dbus.UnixFD
		if err := dbus.Store(sig.Body, &dev.major, &dev.minor, &fd); err != nil {
			return err
		}
		// libinput reopens devices on Resume; the descriptor sent here is
		// not needed.
		_ = unix.Close(int(fd))
		l.log.Debug("device resumed", "major", dev.major, "minor", dev.minor)
		return nil

	case propertiesInterface + ".PropertiesChanged":
		var iface string
		var changed map[string]dbus.Variant
		var invalidated []string
		if err := dbus.Store(sig.Body, &iface, &changed, &invalidated); err != nil {
			return err
		}
		if iface != LogindSessionInterface {
			return nil
		}
		v, ok := changed["Active"]
		if !ok {
			return nil
		}
		active, ok := v.Value().(bool)
		if !ok {
			return fmt.Errorf("session Active has type %s", v.Signature())
		}
		l.mu.Lock()
		fn := l.active
		l.mu.Unlock()
		l.log.Info("session activity changed", "active", active)
		if fn != nil {
			fn(active)
		}
		return nil
	}
	return nil
}

// Shutdown releases session control and closes the bus connection.
// Devices still taken are released by logind along with control.
func (l *Logind) Shutdown() error {
	l.releaseControl()
	if l.conn == nil {
		return nil
	}
	l.conn.RemoveSignal(l.signals)
	err := l.conn.Close()
	if l.signals != nil {
		close(l.signals)
		<-l.done
	}
	return err
}
