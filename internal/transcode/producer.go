package transcode

import (
	"context"
	"sort"
	"strconv"
	"time"

	"faircamp/internal/cachekey"
	"faircamp/internal/services/ffmpeg"
)

// Producer encodes tracks into streaming tiers.
type Producer struct {
	client      ffmpeg.Client
	timeout     time.Duration
	embedCovers bool
	rewriteTags bool
}

// NewProducer wires a transcode producer. timeout bounds each encoder
// invocation; embedCovers attaches the release cover to outputs that carry
// one; rewriteTags drops source tags in favor of manifest metadata.
func NewProducer(client ffmpeg.Client, timeout time.Duration, embedCovers, rewriteTags bool) *Producer {
	return &Producer{
		client:      client,
		timeout:     timeout,
		embedCovers: embedCovers,
		rewriteTags: rewriteTags,
	}
}

// EmbedsCovers reports whether produced files will carry cover art, which
// makes the cover bytes a key input.
func (p *Producer) EmbedsCovers() bool {
	return p.embedCovers
}

// Params returns every output-affecting parameter for one (tier, tags)
// request, for inclusion in the cache key.
func (p *Producer) Params(tier Tier, tags map[string]string) cachekey.Params {
	params := cachekey.Params{
		"codec":        tier.Codec,
		"bitrate_kbps": strconv.Itoa(tier.BitrateKbps),
		"vbr_quality":  strconv.Itoa(tier.VBRQuality),
		"embed_cover":  strconv.FormatBool(p.embedCovers),
		"rewrite_tags": strconv.FormatBool(p.rewriteTags),
	}
	if p.rewriteTags {
		keys := make([]string, 0, len(tags))
		for key := range tags {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			params["tag."+key] = tags[key]
		}
	}
	return params
}

// Produce encodes srcPath into dest. coverPath may be empty; it is ignored
// unless cover embedding is on.
func (p *Producer) Produce(ctx context.Context, dest, srcPath string, tier Tier, tags map[string]string, coverPath string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	spec := ffmpeg.TranscodeSpec{
		InputPath:   srcPath,
		OutputPath:  dest,
		Codec:       tier.Codec,
		BitrateKbps: tier.BitrateKbps,
		VBRQuality:  tier.VBRQuality,
	}
	if p.rewriteTags {
		spec.StripTags = true
		spec.Tags = tags
	}
	if p.embedCovers {
		spec.CoverPath = coverPath
	}
	return p.client.Transcode(ctx, spec)
}
