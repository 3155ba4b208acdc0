package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"faircamp/internal/archive"
	"faircamp/internal/cache"
	"faircamp/internal/cachekey"
	"faircamp/internal/catalog"
	"faircamp/internal/config"
	"faircamp/internal/images"
	"faircamp/internal/logging"
	"faircamp/internal/render"
	"faircamp/internal/services/ffmpeg"
	"faircamp/internal/transcode"
	"faircamp/internal/waveform"
)

// Builder runs complete site builds for one configuration.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   ffmpeg.Client
	renderer *render.Renderer

	strategy cache.Strategy
	tiers    []transcode.Tier
	sizes    []int
}

// Option adjusts builder construction.
type Option func(*Builder)

// WithFFmpegClient substitutes the external encoder client, used by tests.
func WithFFmpegClient(client ffmpeg.Client) Option {
	return func(b *Builder) { b.client = client }
}

// New validates derived settings and prepares a builder.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Builder, error) {
	strategy, err := cache.ParseStrategy(cfg.Cache.Strategy)
	if err != nil {
		return nil, err
	}
	tiers, err := transcode.ParseTiers(cfg.Transcode.Formats)
	if err != nil {
		return nil, err
	}
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	sizes := append([]int(nil), cfg.Images.CoverSizes...)
	sort.Ints(sizes)

	b := &Builder{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "build"),
		client:   ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.Transcode.FFmpegBinary)),
		renderer: renderer,
		strategy: strategy,
		tiers:    tiers,
		sizes:    sizes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Result summarizes one build.
type Result struct {
	Releases  int
	Artifacts int
	// FailedReleases lists slugs excluded from the site because an artifact
	// could not be produced.
	FailedReleases []string
	Sweep          cache.SweepResult
	Duration       time.Duration
}

// Run executes one build end to end.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	cfg := b.cfg

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	index, err := cache.Open(cfg.Paths.CacheDir, b.logger)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	grace := time.Duration(cfg.Cache.GraceHours) * time.Hour
	optimizer := cache.NewOptimizer(index, b.strategy, grace, b.logger)
	if err := optimizer.PrepareBuild(); err != nil {
		return nil, err
	}

	salt, err := catalog.LoadOrCreateSalt(cfg.Paths.CacheDir)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Scan(cfg.Paths.CatalogDir, cfg.Site.Title, b.logger)
	if err != nil {
		return nil, err
	}
	b.logger.Info("catalog scanned",
		logging.Int("releases", len(cat.Releases)),
		logging.Int("artists", len(cat.Artists)))

	plan, err := b.plan(cat, cachekey.NewHasher(salt), index)
	if err != nil {
		return nil, err
	}

	if err := resetBuildDir(cfg.Paths.BuildDir); err != nil {
		return nil, err
	}

	failed, err := b.runJobs(ctx, index, plan.jobs)
	if err != nil {
		return nil, err
	}

	site := plan.site(cat, failed)
	site.BaseURL = cfg.Site.BaseURL
	site.GeneratedAt = time.Now()
	site.DescriptionHTML, err = b.renderer.MarkdownHTML(cat.Description)
	if err != nil {
		return nil, err
	}
	if err := b.renderer.WriteSite(cfg.Paths.BuildDir, site); err != nil {
		return nil, err
	}

	sweep := optimizer.Sweep(time.Now())
	if err := index.Persist(); err != nil {
		return nil, err
	}

	if b.strategy == cache.StrategyDelayed || b.strategy == cache.StrategyManual {
		report := index.BuildReport()
		b.logger.Info("cache occupancy",
			logging.Int("artifacts", report.TotalCount),
			logging.String("size", humanize.Bytes(uint64(report.TotalBytes))),
			logging.Int("stale", report.StaleCount),
			logging.String("reclaimable", humanize.Bytes(uint64(report.StaleBytes))))
	}

	result := &Result{
		Releases:       len(site.Releases),
		Artifacts:      len(plan.jobs),
		FailedReleases: sortedKeys(failed),
		Sweep:          sweep,
		Duration:       time.Since(started),
	}
	b.logger.Info("build finished",
		logging.Int("releases", result.Releases),
		logging.Int("artifacts", result.Artifacts),
		logging.Int("failed_releases", len(result.FailedReleases)),
		logging.Int("stale_marked", sweep.MarkedStale),
		logging.Int("purged", sweep.Purged),
		logging.Duration("duration", result.Duration))
	return result, nil
}

// resetBuildDir clears previous output so removed releases leave no
// orphaned pages behind.
func resetBuildDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear build directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}
	return nil
}

func sortedKeys(failed map[string]error) []string {
	slugs := make([]string, 0, len(failed))
	for slug := range failed {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func (b *Builder) producers() producerSet {
	timeout := time.Duration(b.cfg.Transcode.TimeoutMinutes) * time.Minute
	return producerSet{
		transcode: transcode.NewProducer(b.client, timeout, b.cfg.Transcode.EmbedCovers, b.cfg.Transcode.RewriteTags),
		images:    images.NewProducer(b.cfg.Images.JPEGQuality),
		archive:   archive.NewProducer(b.cfg.Archive.CompressionLevel),
		waveform:  waveform.NewProducer(b.client, timeout),
	}
}

type producerSet struct {
	transcode *transcode.Producer
	images    *images.Producer
	archive   *archive.Producer
	waveform  *waveform.Producer
}
