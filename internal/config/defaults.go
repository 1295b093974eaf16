package config

import (
	"os"
	"path/filepath"
)

// PlatformConfigDir returns the directory searched for config files:
// $INPUTD_CONFIG_DIR, then $XDG_CONFIG_HOME/inputd, then ~/.config/inputd.
func PlatformConfigDir() string {
	if dir := os.Getenv("INPUTD_CONFIG_DIR"); dir != "" {
		return dir
	}
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// PlatformStateDir returns the directory for log files, following
// $XDG_STATE_HOME.
func PlatformStateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "inputd")
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, "inputd")
}

// SupportedConfigFormats returns the recognised config file extensions.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile returns the first config.<ext> found in the current
// directory, the platform config directory or /etc/inputd, or "" if there
// is none.
func FindConfigFile() string {
	for _, dir := range []string{".", PlatformConfigDir(), "/etc/inputd"} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
