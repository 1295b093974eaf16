package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, "seat0", cfg.Seat)
	assert.Equal(t, "direct", cfg.Access)
	assert.True(t, cfg.Stream.SuspendOnInactive)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("INPUTD_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/inputd/config.toml", ConfigPath())

	t.Setenv("INPUTD_CONFIG_DIR", "/etc/inputd")
	assert.Equal(t, "/etc/inputd/config.toml", ConfigPath())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"config.toml", "seat = \"seat1\"\naccess = \"logind\"\n[logging]\nlevel = \"debug\"\n"},
		{"config.json", `{"seat": "seat1", "access": "logind", "logging": {"level": "debug"}}`},
		{"config.yaml", "seat: seat1\naccess: logind\nlogging:\n  level: debug\n"},
		{"config.yml", "seat: seat1\naccess: logind\nlogging:\n  level: debug\n"},
		{"inputd.conf", "seat = \"seat1\"\naccess = \"logind\"\n[logging]\nlevel = \"debug\"\n"},
		{"inputd.cfg", `{"seat": "seat1", "access": "logind", "logging": {"level": "debug"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "seat1", cfg.Seat)
			assert.Equal(t, "logind", cfg.Access)
			assert.Equal(t, "debug", cfg.Logging.Level)
			// untouched keys keep their defaults
			assert.Equal(t, "text", cfg.Logging.Format)
			assert.Equal(t, Version, cfg.Version)
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("seat = [unterminated"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "decode TOML")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INPUTD_SEAT", "seat9")
	t.Setenv("INPUTD_ACCESS", "logind")
	t.Setenv("INPUTD_LOG_LEVEL", "warn")
	t.Setenv("INPUTD_LOG_FORMAT", "json")
	t.Setenv("INPUTD_METRICS_ADDR", ":9100")
	t.Setenv("INPUTD_METRICS_ENABLED", "true")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "seat9", cfg.Seat)
	assert.Equal(t, "logind", cfg.Access)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 7 }, "version"},
		{"empty seat", func(c *Config) { c.Seat = " " }, "seat"},
		{"access", func(c *Config) { c.Access = "seatd" }, "access"},
		{"level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, "logging.file_path"},
		{"max size", func(c *Config) { c.Logging.MaxSizeMB = -1 }, "logging.max_size_mb"},
		{"backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"libinput level", func(c *Config) { c.Logging.LibinputLevel = "warn" }, "logging.libinput_level"},
		{"metrics addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "nope" }, "metrics.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seat = ""
	cfg.Access = "x"
	cfg.Logging.Level = "x"

	err := cfg.Validate()
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
	assert.Contains(t, err.Error(), "; ")
}

func TestValidateAcceptsMixedCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Access = "Logind"
	cfg.Logging.Level = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestDisabledMetricsIgnoreAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Addr = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			cfg := DefaultConfig()
			cfg.Seat = "seat3"
			cfg.Metrics.Enabled = true
			require.NoError(t, SaveConfig(cfg, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()
	c.Logging.Level = "debug"
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("INPUTD_CONFIG_DIR", dir)
	assert.Empty(t, FindConfigFile())

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seat: seat0\n"), 0o600))
	assert.Equal(t, path, FindConfigFile())
}

func TestLoaderLoadValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`access = "seatd"`), 0o600))

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	assert.ErrorContains(t, err, "validation failed")
	assert.Nil(t, l.Config())
}

func TestLoaderWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`seat = "seat0"`), 0o600))

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	l.OnChange(func(c *Config) { changed <- c })
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(path, []byte(`seat = "seat1"`), 0o600))
	select {
	case c := <-changed:
		assert.Equal(t, "seat1", c.Seat)
		assert.Equal(t, "seat1", l.Config().Seat)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	// an invalid file is reported and the old config stays
	require.NoError(t, os.WriteFile(path, []byte(`access = "seatd"`), 0o600))
	select {
	case err := <-l.Errors():
		assert.ErrorContains(t, err, "reload config")
	case <-time.After(5 * time.Second):
		t.Fatal("no error for invalid file")
	}
	assert.Equal(t, "seat1", l.Config().Seat)
}

func TestLoaderIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	l := NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)

	var calls int
	l.OnChange(func(*Config) { calls++ })
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte(`seat = "x"`), 0o600))
	time.Sleep(3 * reloadDelay)
	require.NoError(t, l.Close())
	assert.Zero(t, calls)
}
