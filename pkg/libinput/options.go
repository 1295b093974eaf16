package libinput

import (
	"log/slog"

	"inputd/pkg/libinput/sys"
)

type options struct {
	lib         sys.Library
	logger      LogFunc
	priority    sys.LogPriority
	priorityset bool
	diag        *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithLibrary selects the library implementation. The default is
// sys.Native.
func WithLibrary(lib sys.Library) Option {
	return func(o *options) { o.lib = lib }
}

// WithLogger routes the library's own log messages to fn. The sink is
// process wide: the most recent registration from any context receives
// messages from every context that installed a handler.
func WithLogger(fn LogFunc) Option {
	return func(o *options) { o.logger = fn }
}

// WithLogPriority sets the minimum priority the library logs at. Without
// it, installing a logger lowers the priority to debug.
func WithLogPriority(p sys.LogPriority) Option {
	return func(o *options) {
		o.priority = p
		o.priorityset = true
	}
}

// WithDiagnostics sets the logger used for the wrapper's own messages.
func WithDiagnostics(l *slog.Logger) Option {
	return func(o *options) { o.diag = l }
}
