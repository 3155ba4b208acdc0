package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"faircamp/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Site.Title = "Test Label"
	cfg.Site.BaseURL = "https://music.example.org"
	cfg.Paths.CatalogDir = filepath.Join(base, "catalog")
	cfg.Paths.BuildDir = filepath.Join(base, "build")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Cache.Strategy = "delayed"
	cfg.Cache.GraceHours = 0
	cfg.Transcode.Formats = []string{"opus-128"}
	cfg.Transcode.EmbedCovers = false
	cfg.Images.CoverSizes = []int{64}
	cfg.Archive.Enabled = true

	if err := os.MkdirAll(cfg.Paths.CatalogDir, 0o755); err != nil {
		t.Fatalf("create catalog dir: %v", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithStrategy overrides the cache strategy on the test config.
func WithStrategy(strategy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Strategy = strategy
	}
}

// WithFormats overrides the streaming formats on the test config.
func WithFormats(formats ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.Formats = formats
	}
}

// WithEmbedCovers toggles cover embedding on the test config.
func WithEmbedCovers(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.EmbedCovers = enabled
	}
}
