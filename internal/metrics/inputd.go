package metrics

import (
	"sync"
	"time"
)

// InputMetrics holds the inputd-specific metrics.
type InputMetrics struct {
	registry *Registry

	// Counters
	DeviceOpensTotal        *Counter
	DeviceOpenFailuresTotal *Counter
	DeviceClosesTotal       *Counter
	DispatchErrorsTotal     *Counter
	SuspendsTotal           *Counter
	ResumesTotal            *Counter

	// Gauges
	DevicesOpen   *Gauge
	SessionActive *Gauge
	UptimeSeconds *Gauge

	// Histograms
	DeviceOpenDuration *Histogram

	start time.Time
}

// NewInputMetrics creates and registers the inputd metrics on registry,
// or on the default registry when registry is nil.
func NewInputMetrics(registry *Registry) *InputMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &InputMetrics{
		registry: registry,
		start:    time.Now(),

		DeviceOpensTotal: registry.RegisterCounter(
			"device_opens_total",
			"Device nodes opened on behalf of libinput",
			nil,
		),
		DeviceOpenFailuresTotal: registry.RegisterCounter(
			"device_open_failures_total",
			"Device node opens that failed",
			nil,
		),
		DeviceClosesTotal: registry.RegisterCounter(
			"device_closes_total",
			"Device nodes closed on behalf of libinput",
			nil,
		),
		DispatchErrorsTotal: registry.RegisterCounter(
			"dispatch_errors_total",
			"Dispatch failures that ended an event stream",
			nil,
		),
		SuspendsTotal: registry.RegisterCounter(
			"suspends_total",
			"Context suspensions",
			nil,
		),
		ResumesTotal: registry.RegisterCounter(
			"resumes_total",
			"Context resumptions",
			nil,
		),
		DevicesOpen: registry.RegisterGauge(
			"devices_open",
			"Device nodes currently open",
			nil,
		),
		SessionActive: registry.RegisterGauge(
			"session_active",
			"1 while the session is in the foreground",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Seconds since start",
			nil,
		),
		DeviceOpenDuration: registry.RegisterHistogram(
			"device_open_duration_seconds",
			"Time taken to open a device node",
			nil,
			DurationBuckets,
		),
	}
	m.SessionActive.Set(1)
	return m
}

// RecordEvent counts one event of the given type name.
func (m *InputMetrics) RecordEvent(typ string) {
	m.registry.RegisterCounter("events_total", "Events delivered by type", Labels{"type": typ}).Inc()
}

// EventCount returns the number of events recorded for typ.
func (m *InputMetrics) EventCount(typ string) uint64 {
	c := m.registry.GetCounter("events_total", Labels{"type": typ})
	if c == nil {
		return 0
	}
	return c.Value()
}

// RecordDispatchError counts a dispatch failure.
func (m *InputMetrics) RecordDispatchError() {
	m.DispatchErrorsTotal.Inc()
}

// SetSessionActive records session activity and counts the transition.
func (m *InputMetrics) SetSessionActive(active bool) {
	if active {
		m.SessionActive.Set(1)
		m.ResumesTotal.Inc()
		return
	}
	m.SessionActive.Set(0)
	m.SuspendsTotal.Inc()
}

// UpdateUptime refreshes the uptime gauge.
func (m *InputMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(m.start).Seconds()))
}

// InstrumentOpen wraps a device open function, timing it and counting
// successes and failures.
func (m *InputMetrics) InstrumentOpen(open func(path string, flags int) (int, error)) func(string, int) (int, error) {
	return func(path string, flags int) (int, error) {
		t := m.DeviceOpenDuration.Timer()
		fd, err := open(path, flags)
		t.Stop()
		if err != nil {
			m.DeviceOpenFailuresTotal.Inc()
			return fd, err
		}
		m.DeviceOpensTotal.Inc()
		m.DevicesOpen.Inc()
		return fd, nil
	}
}

// InstrumentClose wraps a device close function.
func (m *InputMetrics) InstrumentClose(close func(fd int)) func(int) {
	return func(fd int) {
		close(fd)
		m.DeviceClosesTotal.Inc()
		m.DevicesOpen.Dec()
	}
}

var (
	globalMetrics *InputMetrics
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide InputMetrics on the default registry.
func GetMetrics() *InputMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewInputMetrics(Default())
	})
	return globalMetrics
}
