package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	accessModes    = []string{"direct", "logind"}
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"text", "json"}
	logOutputs     = []string{"stderr", "stdout", "file", "both"}
	libinputLevels = []string{"", "debug", "info", "error"}
)

// ValidateConfig reports every problem found in c.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}
	if strings.TrimSpace(c.Seat) == "" {
		errs = append(errs, ValidationError{Field: "seat", Message: "must not be empty"})
	}
	if !oneOf(c.Access, accessModes) {
		errs = append(errs, ValidationError{
			Field:   "access",
			Message: fmt.Sprintf("must be one of %v, got %q", accessModes, c.Access),
		})
	}

	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if !oneOf(l.Level, logLevels) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", logLevels, l.Level),
		})
	}
	if !oneOf(l.Format, logFormats) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be one of %v, got %q", logFormats, l.Format),
		})
	}
	if !oneOf(l.Output, logOutputs) {
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("must be one of %v, got %q", logOutputs, l.Output),
		})
	}
	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when output is file or both",
		})
	}
	if l.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_size_mb", Message: "must not be negative"})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_backups", Message: "must not be negative"})
	}
	if !oneOf(l.LibinputLevel, libinputLevels) {
		errs = append(errs, ValidationError{
			Field:   "logging.libinput_level",
			Message: fmt.Sprintf("must be empty or one of %v, got %q", libinputLevels[1:], l.LibinputLevel),
		})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if !m.Enabled {
		return nil
	}
	if _, port, err := net.SplitHostPort(m.Addr); err != nil || port == "" {
		return ValidationErrors{{
			Field:   "metrics.addr",
			Message: fmt.Sprintf("invalid listen address %q", m.Addr),
		}}
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(v))
}
