package config

const (
	defaultCatalogDir       = "."
	defaultBuildDir         = ".faircamp_build"
	defaultCacheDir         = ".faircamp_cache"
	defaultCacheStrategy    = "delayed"
	defaultCacheGraceHours  = 24
	defaultFFmpegBinary     = "ffmpeg"
	defaultTimeoutMinutes   = 10
	defaultJPEGQuality      = 85
	defaultCompressionLevel = 6
	defaultLogFormat        = ""
	defaultLogLevel         = "info"
)

func defaultTranscodeFormats() []string {
	return []string{"opus-128", "mp3-v0"}
}

func defaultCoverSizes() []int {
	return []int{120, 480, 1280}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Site: Site{
			Title: "Untitled Catalog",
		},
		Paths: Paths{
			CatalogDir: defaultCatalogDir,
			BuildDir:   defaultBuildDir,
			CacheDir:   defaultCacheDir,
		},
		Cache: Cache{
			Strategy:   defaultCacheStrategy,
			GraceHours: defaultCacheGraceHours,
		},
		Transcode: Transcode{
			Formats:        defaultTranscodeFormats(),
			FFmpegBinary:   defaultFFmpegBinary,
			TimeoutMinutes: defaultTimeoutMinutes,
			EmbedCovers:    true,
			RewriteTags:    true,
		},
		Images: Images{
			CoverSizes:  defaultCoverSizes(),
			JPEGQuality: defaultJPEGQuality,
		},
		Archive: Archive{
			Enabled:          true,
			CompressionLevel: defaultCompressionLevel,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
