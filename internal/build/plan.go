package build

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"faircamp/internal/archive"
	"faircamp/internal/cache"
	"faircamp/internal/cachekey"
	"faircamp/internal/catalog"
	"faircamp/internal/render"
	"faircamp/internal/services/ffmpeg"
	"faircamp/internal/transcode"
)

// assignFunc publishes one resolved artifact into its view slot. url is
// site-root-relative with forward slashes.
type assignFunc func(url string, bytes int64)

// artifactJob is one deduplicated cache request. Several releases may share
// a job when their inputs hash to the same key; each gets its own slot.
type artifactJob struct {
	req     cache.Request
	produce cache.ProducerFunc
	owners  []string
	assigns []assignFunc
}

type buildPlan struct {
	jobs  []*artifactJob
	byKey map[cachekey.Key]*artifactJob

	hasher *cachekey.Hasher
	views  []*render.ReleaseView
}

// plan walks the catalog and lays out every artifact request plus the view
// slots their results land in. Keys are computed here, before any producer
// runs, so identical inputs collapse into one job. index is needed because
// archive jobs resolve per-track embedded-cover copies as nested cache
// requests.
func (b *Builder) plan(cat *catalog.Catalog, hasher *cachekey.Hasher, index *cache.Index) (*buildPlan, error) {
	producers := b.producers()
	plan := &buildPlan{
		byKey:  make(map[cachekey.Key]*artifactJob),
		hasher: hasher,
	}

	for _, release := range cat.Releases {
		view, err := b.planRelease(plan, producers, release, index)
		if err != nil {
			return nil, err
		}
		plan.views = append(plan.views, view)
	}
	return plan, nil
}

func (b *Builder) planRelease(plan *buildPlan, producers producerSet, release *catalog.Release, index *cache.Index) (*render.ReleaseView, error) {
	descriptionHTML, err := b.renderer.MarkdownHTML(release.Description)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", release.Slug, err)
	}

	view := &render.ReleaseView{
		Slug:            release.Slug,
		Title:           release.Title,
		Artist:          release.Artist,
		Date:            release.Date,
		HasDate:         release.HasDate,
		DescriptionHTML: descriptionHTML,
		Streaming:       release.StreamingEnabled,
	}

	if release.CoverPath != "" {
		view.Covers = make([]render.CoverImage, len(b.sizes))
		for i, size := range b.sizes {
			i, size := i, size
			coverPath := release.CoverPath
			err := plan.add(release.Slug, cachekey.ResizedImage, ".jpg",
				producers.images.Params(size), []string{coverPath},
				func(ctx context.Context, dest string) error {
					return producers.images.Produce(ctx, dest, coverPath, size)
				},
				func(url string, bytes int64) {
					view.Covers[i] = render.CoverImage{URL: url, MaxEdge: size}
				})
			if err != nil {
				return nil, err
			}
		}
	}

	view.Tracks = make([]render.TrackView, len(release.Tracks))
	for i, track := range release.Tracks {
		trackView := &view.Tracks[i]
		trackView.Number = track.Number
		trackView.Title = track.Title

		if !release.StreamingEnabled {
			continue
		}

		trackView.Streams = make([]render.Asset, len(b.tiers))
		for j, tier := range b.tiers {
			if err := b.planStream(plan, producers, release, track, tier, &trackView.Streams[j]); err != nil {
				return nil, err
			}
		}

		srcPath := track.Path
		err := plan.add(release.Slug, cachekey.WaveformPeaks, ".json",
			producers.waveform.Params(), []string{srcPath},
			func(ctx context.Context, dest string) error {
				return producers.waveform.Produce(ctx, dest, srcPath)
			},
			func(url string, bytes int64) {
				trackView.WaveformURL = url
			})
		if err != nil {
			return nil, err
		}
	}

	if release.DownloadsEnabled && b.cfg.Archive.Enabled {
		if err := b.planArchive(plan, producers, release, view, index); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (b *Builder) planStream(plan *buildPlan, producers producerSet, release *catalog.Release, track catalog.Track, tier transcode.Tier, slot *render.Asset) error {
	tags := release.Tags(track)
	inputs := []string{track.Path}
	coverPath := ""
	if producers.transcode.EmbedsCovers() && release.CoverPath != "" {
		coverPath = release.CoverPath
		inputs = append(inputs, coverPath)
	}

	srcPath := track.Path
	mime, label := tier.MIME, tier.Name
	return plan.add(release.Slug, cachekey.TranscodedAudio, tier.Ext,
		producers.transcode.Params(tier, tags), inputs,
		func(ctx context.Context, dest string) error {
			return producers.transcode.Produce(ctx, dest, srcPath, tier, tags, coverPath)
		},
		func(url string, bytes int64) {
			*slot = render.Asset{URL: url, MIME: mime, Label: label, Bytes: bytes}
		})
}

func (b *Builder) planArchive(plan *buildPlan, producers producerSet, release *catalog.Release, view *render.ReleaseView, index *cache.Index) error {
	embedCovers := b.cfg.Transcode.EmbedCovers && release.CoverPath != ""

	members := make([]archive.Member, 0, len(release.Tracks)+1)
	inputs := make([]string, 0, len(release.Tracks)+1)
	for _, track := range release.Tracks {
		members = append(members, archive.Member{Name: track.FileName, SourcePath: track.Path})
		inputs = append(inputs, track.Path)
	}
	if release.CoverPath != "" {
		members = append(members, archive.Member{Name: filepath.Base(release.CoverPath), SourcePath: release.CoverPath})
		inputs = append(inputs, release.CoverPath)
	}

	params := producers.archive.Params()
	params["embed_covers"] = strconv.FormatBool(embedCovers)

	coverPath := release.CoverPath
	produce := func(ctx context.Context, dest string) error {
		resolved := members
		if embedCovers {
			resolved = make([]archive.Member, len(members))
			copy(resolved, members)
			for i, member := range resolved {
				if member.SourcePath == coverPath {
					continue
				}
				embedded, err := b.embeddedCopy(ctx, plan.hasher, index, member.SourcePath, coverPath)
				if err != nil {
					return err
				}
				resolved[i].SourcePath = embedded
			}
		}
		return producers.archive.Produce(ctx, dest, resolved)
	}

	return plan.add(release.Slug, cachekey.Archive, ".zip", params, inputs, produce,
		func(url string, bytes int64) {
			view.DownloadURL = url
			view.DownloadBytes = bytes
		})
}

// embeddedCopy resolves a cover-embedded copy of one source file through the
// cache. These are intermediate artifacts: they feed archives but never get
// copied into the build directory themselves.
func (b *Builder) embeddedCopy(ctx context.Context, hasher *cachekey.Hasher, index *cache.Index, srcPath, coverPath string) (string, error) {
	params := cachekey.Params{"codec": "copy"}
	key, err := hasher.KeyFromFiles(cachekey.EmbeddedCoverWrite, params, srcPath, coverPath)
	if err != nil {
		return "", fmt.Errorf("hash embedded-cover inputs: %w", err)
	}

	req := cache.Request{Kind: cachekey.EmbeddedCoverWrite, Key: key, Ext: filepath.Ext(srcPath)}
	timeout := time.Duration(b.cfg.Transcode.TimeoutMinutes) * time.Minute
	return index.GetOrCompute(ctx, req, func(ctx context.Context, dest string) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return b.client.Transcode(ctx, ffmpeg.TranscodeSpec{
			InputPath:  srcPath,
			OutputPath: dest,
			Codec:      "copy",
			CoverPath:  coverPath,
		})
	})
}

func (p *buildPlan) add(owner string, kind cachekey.Kind, ext string, params cachekey.Params, inputs []string, produce cache.ProducerFunc, assign assignFunc) error {
	key, err := p.hasher.KeyFromFiles(kind, params, inputs...)
	if err != nil {
		return fmt.Errorf("hash inputs for %s: %w", owner, err)
	}

	job, ok := p.byKey[key]
	if !ok {
		job = &artifactJob{
			req:     cache.Request{Kind: kind, Key: key, Ext: ext},
			produce: produce,
		}
		p.byKey[key] = job
		p.jobs = append(p.jobs, job)
	}
	job.owners = append(job.owners, owner)
	job.assigns = append(job.assigns, assign)
	return nil
}

// site assembles the final view model, dropping releases whose artifacts
// failed and regrouping artists over the survivors.
func (p *buildPlan) site(cat *catalog.Catalog, failed map[string]error) *render.Site {
	site := &render.Site{
		Title: cat.Title,
	}

	bySlug := make(map[string]*render.ReleaseView)
	for _, view := range p.views {
		if _, bad := failed[view.Slug]; bad {
			continue
		}
		site.Releases = append(site.Releases, view)
		bySlug[view.Slug] = view
	}

	for _, artist := range cat.Artists {
		artistView := render.ArtistView{Name: artist.Name, Slug: artist.Slug}
		for _, release := range artist.Releases {
			if view, ok := bySlug[release.Slug]; ok {
				artistView.Releases = append(artistView.Releases, view)
			}
		}
		if len(artistView.Releases) > 0 {
			site.Artists = append(site.Artists, artistView)
		}
	}
	return site
}

// relativeURL maps a cache artifact to its copy under the build directory.
func relativeURL(req cache.Request) string {
	return path.Join("assets", req.Kind.Dir(), string(req.Key)+req.Ext)
}
