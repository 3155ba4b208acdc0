package config

import (
	"fmt"
	"strings"
)

var validStrategies = map[string]struct{}{
	"delayed":   {},
	"immediate": {},
	"wipe":      {},
	"manual":    {},
}

// Validate rejects configurations the build cannot run with.
func (c *Config) Validate() error {
	if _, ok := validStrategies[c.Cache.Strategy]; !ok {
		return fmt.Errorf("cache.strategy: unsupported value %q (expected delayed, immediate, wipe, or manual)", c.Cache.Strategy)
	}
	if c.Cache.GraceHours < 0 {
		return fmt.Errorf("cache.grace_hours: must not be negative, got %d", c.Cache.GraceHours)
	}
	if c.Archive.CompressionLevel < 0 || c.Archive.CompressionLevel > 9 {
		return fmt.Errorf("archive.compression_level: must be between 0 and 9, got %d", c.Archive.CompressionLevel)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if base := strings.TrimSpace(c.Site.BaseURL); base != "" && !strings.Contains(base, "://") {
		return fmt.Errorf("site.base_url: expected an absolute URL, got %q", base)
	}
	return nil
}
