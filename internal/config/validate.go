package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

const (
	minHelperTimeoutSeconds = 5
	maxHelperTimeoutSeconds = 3600
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Out-of-range values are clamped to safe defaults; every problem is logged
// as a warning and none of them prevents a scan.
func (c *Config) Validate() []error {
	var errs []error

	if c.HelperTimeoutSeconds < minHelperTimeoutSeconds {
		errs = append(errs, fmt.Errorf("helper_timeout_seconds %d is below minimum %d, clamping", c.HelperTimeoutSeconds, minHelperTimeoutSeconds))
		c.HelperTimeoutSeconds = minHelperTimeoutSeconds
	} else if c.HelperTimeoutSeconds > maxHelperTimeoutSeconds {
		errs = append(errs, fmt.Errorf("helper_timeout_seconds %d exceeds maximum %d, clamping", c.HelperTimeoutSeconds, maxHelperTimeoutSeconds))
		c.HelperTimeoutSeconds = maxHelperTimeoutSeconds
	}

	if c.HelperDir != "" && !filepath.IsAbs(c.HelperDir) {
		errs = append(errs, fmt.Errorf("helper_dir %q is not an absolute path", c.HelperDir))
	}

	if strings.TrimSpace(c.OculusDisplayName) == "" {
		errs = append(errs, fmt.Errorf("oculus_display_name is empty, using default"))
		c.OculusDisplayName = Default().OculusDisplayName
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
