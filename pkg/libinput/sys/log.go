package sys

import "sync/atomic"

// LogSink receives formatted library log messages.
type LogSink func(priority LogPriority, message string)

// The sink is process-wide: libinput's handler is a plain C function, so
// every context that has a handler installed reports here. The last
// registration wins and there is no teardown.
var logSink atomic.Pointer[LogSink]

// SetLogSink registers the process-wide log sink. A nil sink silences
// library logging.
func SetLogSink(sink LogSink) {
	if sink == nil {
		logSink.Store(nil)
		return
	}
	logSink.Store(&sink)
}

// EmitLog forwards one message to the registered sink, if any.
func EmitLog(priority LogPriority, message string) {
	if sink := logSink.Load(); sink != nil {
		(*sink)(priority, message)
	}
}
