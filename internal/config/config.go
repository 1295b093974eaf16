// Package config handles configuration loading and validation for inputd.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config is the top-level inputd configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Seat is the udev seat whose devices are opened.
	Seat string `toml:"seat" json:"seat" yaml:"seat"`

	// Access selects how device nodes are opened: "direct" or "logind".
	Access string `toml:"access" json:"access" yaml:"access"`

	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
	Stream  StreamConfig  `toml:"stream" json:"stream" yaml:"stream"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stderr", "stdout", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is used when Output is "file" or "both".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int64 `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// LibinputLevel is the priority of messages forwarded from libinput:
	// debug, info or error. Empty disables forwarding.
	LibinputLevel string `toml:"libinput_level" json:"libinput_level" yaml:"libinput_level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" json:"addr" yaml:"addr"`
}

// StreamConfig controls the event loop.
type StreamConfig struct {
	// SuspendOnInactive suspends the context while the logind session is
	// in the background and resumes it when the session comes back.
	SuspendOnInactive bool `toml:"suspend_on_inactive" json:"suspend_on_inactive" yaml:"suspend_on_inactive"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Seat:    "seat0",
		Access:  "direct",
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			Output:        "stderr",
			FilePath:      filepath.Join(PlatformStateDir(), "inputd.log"),
			MaxSizeMB:     10,
			MaxBackups:    3,
			LibinputLevel: "error",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9478",
		},
		Stream: StreamConfig{
			SuspendOnInactive: true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path. A missing file yields the defaults.
// The format is chosen by extension; unknown extensions are auto-detected.
// Environment overrides are applied but the result is not validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies INPUTD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INPUTD_SEAT"); v != "" {
		c.Seat = v
	}
	if v := os.Getenv("INPUTD_ACCESS"); v != "" {
		c.Access = v
	}
	if v := os.Getenv("INPUTD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INPUTD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("INPUTD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("INPUTD_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("INPUTD_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = b
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// SaveConfig writes cfg to path in the format implied by its extension,
// TOML when there is none.
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error
	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
