package config

import (
	"errors"
	"fmt"
)

var knownCaseStyles = map[string]struct{}{
	"snake":       {},
	"lower_snake": {},
	"upper_snake": {},
	"kebab":       {},
	"camel":       {},
	"pascal":      {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.ConfigDir == "" {
		return errors.New("paths.config_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, ok := knownCaseStyles[c.Organize.DefaultCaseStyle]; !ok {
		return fmt.Errorf("organize.default_case_style: unknown style %q", c.Organize.DefaultCaseStyle)
	}
	if c.Watch.QuiescenceMS < 0 {
		return errors.New("watch.quiescence_ms must not be negative")
	}
	if c.Watch.EventBuffer < 1 {
		return errors.New("watch.event_buffer must be at least 1")
	}
	if c.Classifier.TimeoutSeconds < 0 {
		return errors.New("classifier.timeout_seconds must not be negative")
	}
	if c.Classifier.MaxContentBytes < 1 {
		return errors.New("classifier.max_content_bytes must be at least 1")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
