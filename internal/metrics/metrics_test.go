package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsString(t *testing.T) {
	assert.Equal(t, "", Labels(nil).String())
	assert.Equal(t, `{a="1",b="x\"y"}`, Labels{"b": `x"y`, "a": "1"}.String())
}

func TestRegisterReturnsExistingSeries(t *testing.T) {
	r := NewRegistry("inputd", "")
	g := r.RegisterGauge("devices_open", "help", nil)
	assert.Same(t, g, r.RegisterGauge("devices_open", "other help", nil))
	assert.NotSame(t, g, r.RegisterGauge("devices_open", "help", Labels{"seat": "seat1"}))

	h := r.RegisterHistogram("open_seconds", "help", nil, DurationBuckets)
	assert.Same(t, h, r.RegisterHistogram("open_seconds", "help", nil, nil))

	g.Set(2)
	var buf bytes.Buffer
	require.NoError(t, r.WritePrometheus(&buf))
	assert.Equal(t, 1, strings.Count(buf.String(), "# TYPE inputd_devices_open gauge"))
	assert.Contains(t, buf.String(), "inputd_devices_open 2\n")
}

func TestRegistrySameNameDifferentLabels(t *testing.T) {
	r := NewRegistry("inputd", "")
	a := r.RegisterCounter("events_total", "help", Labels{"type": "keyboard-key"})
	b := r.RegisterCounter("events_total", "help", Labels{"type": "device-added"})
	require.NotSame(t, a, b)
	assert.Same(t, a, r.RegisterCounter("events_total", "help", Labels{"type": "keyboard-key"}))

	a.Add(3)
	b.Inc()
	assert.Equal(t, uint64(3), r.GetCounter("events_total", Labels{"type": "keyboard-key"}).Value())
	assert.Nil(t, r.GetCounter("events_total", nil))
	assert.Equal(t, "inputd_events_total", a.Name())
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogram("h", "", nil, []float64{1, 0.5, 2})
	for _, v := range []float64{0.1, 0.5, 1, 1.5, 3} {
		h.Observe(v)
	}
	assert.Equal(t, uint64(5), h.Count())
	assert.InDelta(t, 6.1, h.Sum(), 1e-9)
	// le=0.5, le=1, le=2, +Inf
	assert.Equal(t, []uint64{2, 3, 4, 5}, h.cumulative())
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("inputd", "")
	r.RegisterCounter("events_total", "Events", Labels{"type": "b"}).Inc()
	r.RegisterCounter("events_total", "Events", Labels{"type": "a"}).Add(2)
	r.RegisterGauge("devices_open", "Open", nil).Set(4)
	r.RegisterHistogram("open_seconds", "Open time", nil, []float64{0.1}).Observe(0.05)

	var buf bytes.Buffer
	require.NoError(t, r.WritePrometheus(&buf))
	want := strings.Join([]string{
		"# HELP inputd_devices_open Open",
		"# TYPE inputd_devices_open gauge",
		"inputd_devices_open 4",
		"# HELP inputd_events_total Events",
		"# TYPE inputd_events_total counter",
		`inputd_events_total{type="a"} 2`,
		`inputd_events_total{type="b"} 1`,
		"# HELP inputd_open_seconds Open time",
		"# TYPE inputd_open_seconds histogram",
		`inputd_open_seconds_bucket{le="0.1"} 1`,
		`inputd_open_seconds_bucket{le="+Inf"} 1`,
		"inputd_open_seconds_sum 0.05",
		"inputd_open_seconds_count 1",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestHTTPHandler(t *testing.T) {
	r := NewRegistry("inputd", "")
	r.RegisterCounter("device_opens_total", "Opens", nil).Inc()

	rec := httptest.NewRecorder()
	r.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "text/plain; version=0.0.4", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "inputd_device_opens_total 1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	r.HTTPHandler().ServeHTTP(rec, req)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.EqualValues(t, 1, snap["inputd_device_opens_total"])
}

func TestReset(t *testing.T) {
	r := NewRegistry("", "")
	c := r.RegisterCounter("c", "", nil)
	h := r.RegisterHistogram("h", "", nil, nil)
	c.Inc()
	h.Observe(1)
	r.Reset()
	assert.Zero(t, c.Value())
	assert.Zero(t, h.Count())
	assert.Equal(t, "c", c.Name())
}

func TestInstrumentOpenClose(t *testing.T) {
	m := NewInputMetrics(NewRegistry("inputd", ""))
	fail := errors.New("denied")

	open := m.InstrumentOpen(func(path string, _ int) (int, error) {
		if path == "/dev/input/bad" {
			return -1, fail
		}
		return 7, nil
	})
	var closed []int
	closeFn := m.InstrumentClose(func(fd int) { closed = append(closed, fd) })

	fd, err := open("/dev/input/event0", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, fd)
	_, err = open("/dev/input/bad", 0)
	assert.ErrorIs(t, err, fail)

	assert.Equal(t, uint64(1), m.DeviceOpensTotal.Value())
	assert.Equal(t, uint64(1), m.DeviceOpenFailuresTotal.Value())
	assert.Equal(t, int64(1), m.DevicesOpen.Value())
	assert.Equal(t, uint64(2), m.DeviceOpenDuration.Count())

	closeFn(fd)
	assert.Equal(t, []int{7}, closed)
	assert.Equal(t, uint64(1), m.DeviceClosesTotal.Value())
	assert.Zero(t, m.DevicesOpen.Value())
}

func TestRecordEventConcurrent(t *testing.T) {
	m := NewInputMetrics(NewRegistry("inputd", ""))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordEvent("keyboard-key")
			}
		}()
	}
	wg.Wait()
	m.RecordEvent("device-added")

	assert.Equal(t, uint64(800), m.EventCount("keyboard-key"))
	assert.Equal(t, uint64(1), m.EventCount("device-added"))
	assert.Zero(t, m.EventCount("touch-down"))
}

func TestSessionActive(t *testing.T) {
	m := NewInputMetrics(NewRegistry("inputd", ""))
	assert.Equal(t, int64(1), m.SessionActive.Value())

	m.SetSessionActive(false)
	assert.Zero(t, m.SessionActive.Value())
	m.SetSessionActive(true)
	assert.Equal(t, int64(1), m.SessionActive.Value())
	assert.Equal(t, uint64(1), m.SuspendsTotal.Value())
	assert.Equal(t, uint64(1), m.ResumesTotal.Value())

	m.RecordDispatchError()
	assert.Equal(t, uint64(1), m.DispatchErrorsTotal.Value())
	m.UpdateUptime()
	assert.GreaterOrEqual(t, m.UptimeSeconds.Value(), int64(0))
}

func TestGetMetricsUsesDefault(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
	assert.Equal(t, "inputd_devices_open", GetMetrics().DevicesOpen.Name())
}
