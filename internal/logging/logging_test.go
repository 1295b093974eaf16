package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
			assert.Equal(t, strings.TrimSuffix(strings.ToLower(tt.input), "ing"), LevelString(level))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/tmp/state")
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, "/var/tmp/state/inputd/inputd.log", cfg.FilePath)
}

func newBuffered(t *testing.T, format Format) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = format
	cfg.Console = &buf
	l, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, &buf
}

func TestJSONFormat(t *testing.T) {
	l, buf := newBuffered(t, FormatJSON)
	l.Info("device added", "sysname", "event3")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "device added", rec["msg"])
	assert.Equal(t, "event3", rec["sysname"])
	assert.Equal(t, "inputd", rec["component"])
}

func TestSetLevelAffectsDerivedLoggers(t *testing.T) {
	l, buf := newBuffered(t, FormatText)
	child := l.WithComponent("stream")

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.Level())
	child.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "component=stream")
}

func TestSetDefault(t *testing.T) {
	l, buf := newBuffered(t, FormatText)
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(l)
	assert.Same(t, l, Default())
	Default().Warn("via default")
	assert.Contains(t, buf.String(), "via default")
}

func TestFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "both"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "inputd.log")
	var console bytes.Buffer
	cfg.Console = &console

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Sync())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, console.String(), "msg=hello")
}

func TestFileRotatorRotation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "inputd.log")
	cfg.MaxSize = 1
	cfg.MaxBackups = 2

	r, err := NewFileRotator(cfg)
	require.NoError(t, err)
	defer r.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for range 5 {
		n, err := r.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	files, err := r.LogFiles()
	require.NoError(t, err)
	assert.Len(t, files, 3, "current file plus two backups")

	info, err := os.Stat(cfg.FilePath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), info.Size())
}

func TestFileRotatorNeedsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilePath = ""
	_, err := NewFileRotator(cfg)
	assert.Error(t, err)
}
