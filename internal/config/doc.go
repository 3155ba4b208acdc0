// Package config loads, normalizes, and validates faircamp configuration.
//
// Configuration lives in a faircamp.toml at the catalog root (or a path given
// with --config). It supplies repository defaults, expands user paths, and
// validates cache strategy and producer settings so downstream code receives
// sanitized values in one pass.
package config
