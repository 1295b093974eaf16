package libinput

import (
	"context"
	"log/slog"
	"strings"

	"inputd/pkg/libinput/sys"
)

// LogPriority is the priority attached to library log messages.
type LogPriority = sys.LogPriority

const (
	LogDebug = sys.LogDebug
	LogInfo  = sys.LogInfo
	LogError = sys.LogError
)

// LogFunc receives one formatted library log message.
type LogFunc func(priority LogPriority, message string)

// SlogLogger adapts l to a LogFunc. Library priorities map to the slog
// levels of the same name.
func SlogLogger(l *slog.Logger) LogFunc {
	return func(priority LogPriority, message string) {
		l.Log(context.Background(), slogLevel(priority), strings.TrimRight(message, "\n"),
			"source", "libinput")
	}
}

func slogLevel(p LogPriority) slog.Level {
	switch {
	case p >= sys.LogError:
		return slog.LevelError
	case p >= sys.LogInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func installLogger(fn LogFunc) {
	sys.SetLogSink(sys.LogSink(fn))
}
