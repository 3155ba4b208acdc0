package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Site describes the published site.
type Site struct {
	Title   string `toml:"title"`
	BaseURL string `toml:"base_url"`
	Author  string `toml:"author"`
}

// Paths contains directory configuration. Relative paths resolve against the
// catalog directory.
type Paths struct {
	CatalogDir string `toml:"catalog_dir"`
	BuildDir   string `toml:"build_dir"`
	CacheDir   string `toml:"cache_dir"`
}

// Cache contains configuration for the asset cache optimizer.
type Cache struct {
	// Strategy selects stale-entry handling: delayed, immediate, wipe, or manual.
	Strategy string `toml:"strategy"`
	// GraceHours is the wall-clock window stale entries survive under the
	// delayed strategy. Zero purges on the next sweep.
	GraceHours int `toml:"grace_hours"`
}

// Transcode contains configuration for streaming transcode production.
type Transcode struct {
	// Formats lists streaming tiers, e.g. "opus-128" or "mp3-v0".
	Formats        []string `toml:"formats"`
	FFmpegBinary   string   `toml:"ffmpeg_binary"`
	TimeoutMinutes int      `toml:"timeout_minutes"`
	EmbedCovers    bool     `toml:"embed_covers"`
	// RewriteTags replaces source file tags with manifest metadata.
	RewriteTags bool `toml:"rewrite_tags"`
}

// Images contains configuration for cover image resizing.
type Images struct {
	CoverSizes  []int `toml:"cover_sizes"`
	JPEGQuality int   `toml:"jpeg_quality"`
}

// Archive contains configuration for downloadable release archives.
type Archive struct {
	Enabled          bool `toml:"enabled"`
	CompressionLevel int  `toml:"compression_level"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for faircamp.
type Config struct {
	Site      Site      `toml:"site"`
	Paths     Paths     `toml:"paths"`
	Cache     Cache     `toml:"cache"`
	Transcode Transcode `toml:"transcode"`
	Images    Images    `toml:"images"`
	Archive   Archive   `toml:"archive"`
	Logging   Logging   `toml:"logging"`
}

// ConfigFileName is the per-catalog configuration file looked up by default.
const ConfigFileName = "faircamp.toml"

// Load locates, parses, normalizes, and validates a configuration file. When
// path is empty, faircamp.toml in the working directory is used if present;
// otherwise repository defaults apply. The returned source path is empty when
// defaults were used.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		if _, err := os.Stat(ConfigFileName); err == nil {
			resolved = ConfigFileName
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("probe %s: %w", ConfigFileName, err)
		}
	}

	if resolved != "" {
		expanded, err := expandPath(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("config path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", expanded, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", expanded, err)
		}
		resolved = expanded
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Sample returns the embedded sample configuration text.
func Sample() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if dir := filepath.Dir(expanded); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure config directory: %w", err)
		}
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the build and cache directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BuildDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
