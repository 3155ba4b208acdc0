package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCache()
	c.normalizeTranscode()
	c.normalizeImages()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.CatalogDir == "" {
		c.Paths.CatalogDir = defaultCatalogDir
	}
	if c.Paths.BuildDir, err = expandPath(c.Paths.BuildDir); err != nil {
		return fmt.Errorf("paths.build_dir: %w", err)
	}
	if c.Paths.BuildDir == "" {
		c.Paths.BuildDir = defaultBuildDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.CacheDir == "" {
		c.Paths.CacheDir = defaultCacheDir
	}

	// Relative build/cache dirs live under the catalog root.
	if !filepath.IsAbs(c.Paths.BuildDir) {
		c.Paths.BuildDir = filepath.Join(c.Paths.CatalogDir, c.Paths.BuildDir)
	}
	if !filepath.IsAbs(c.Paths.CacheDir) {
		c.Paths.CacheDir = filepath.Join(c.Paths.CatalogDir, c.Paths.CacheDir)
	}
	return nil
}

func (c *Config) normalizeCache() {
	c.Cache.Strategy = strings.ToLower(strings.TrimSpace(c.Cache.Strategy))
	if c.Cache.Strategy == "" {
		c.Cache.Strategy = defaultCacheStrategy
	}
}

func (c *Config) normalizeTranscode() {
	formats := make([]string, 0, len(c.Transcode.Formats))
	for _, format := range c.Transcode.Formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format != "" {
			formats = append(formats, format)
		}
	}
	if len(formats) == 0 {
		formats = defaultTranscodeFormats()
	}
	c.Transcode.Formats = formats

	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Transcode.TimeoutMinutes <= 0 {
		c.Transcode.TimeoutMinutes = defaultTimeoutMinutes
	}
}

func (c *Config) normalizeImages() {
	sizes := make([]int, 0, len(c.Images.CoverSizes))
	for _, size := range c.Images.CoverSizes {
		if size > 0 {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		sizes = defaultCoverSizes()
	}
	c.Images.CoverSizes = sizes

	if c.Images.JPEGQuality <= 0 || c.Images.JPEGQuality > 100 {
		c.Images.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
