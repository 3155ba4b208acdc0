package transcode

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier describes one streaming rendition target.
type Tier struct {
	// Name is the configured identifier, e.g. "opus-128".
	Name  string
	Codec string
	Ext   string
	MIME  string
	// BitrateKbps selects CBR encoding when positive.
	BitrateKbps int
	// VBRQuality is the encoder quality index used when BitrateKbps is zero.
	VBRQuality int
}

// ParseTier resolves a configured format string. Supported shapes:
//
//	opus-<kbps>   e.g. opus-128
//	mp3-<kbps>    e.g. mp3-320
//	mp3-v<q>      e.g. mp3-v0 (LAME VBR quality 0..9)
func ParseTier(name string) (Tier, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	codec, rest, found := strings.Cut(trimmed, "-")
	if !found || rest == "" {
		return Tier{}, fmt.Errorf("transcode format %q: expected <codec>-<quality>", name)
	}

	switch codec {
	case "opus":
		kbps, err := strconv.Atoi(rest)
		if err != nil || kbps <= 0 {
			return Tier{}, fmt.Errorf("transcode format %q: bad opus bitrate", name)
		}
		return Tier{
			Name:        trimmed,
			Codec:       "libopus",
			Ext:         ".opus",
			MIME:        "audio/ogg",
			BitrateKbps: kbps,
		}, nil
	case "mp3":
		if quality, ok := strings.CutPrefix(rest, "v"); ok {
			q, err := strconv.Atoi(quality)
			if err != nil || q < 0 || q > 9 {
				return Tier{}, fmt.Errorf("transcode format %q: VBR quality must be 0..9", name)
			}
			return Tier{
				Name:       trimmed,
				Codec:      "libmp3lame",
				Ext:        ".mp3",
				MIME:       "audio/mpeg",
				VBRQuality: q,
			}, nil
		}
		kbps, err := strconv.Atoi(rest)
		if err != nil || kbps <= 0 {
			return Tier{}, fmt.Errorf("transcode format %q: bad mp3 bitrate", name)
		}
		return Tier{
			Name:        trimmed,
			Codec:       "libmp3lame",
			Ext:         ".mp3",
			MIME:        "audio/mpeg",
			BitrateKbps: kbps,
		}, nil
	default:
		return Tier{}, fmt.Errorf("transcode format %q: unsupported codec %q", name, codec)
	}
}

// ParseTiers resolves all configured formats, rejecting duplicates.
func ParseTiers(names []string) ([]Tier, error) {
	tiers := make([]Tier, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		tier, err := ParseTier(name)
		if err != nil {
			return nil, err
		}
		if seen[tier.Name] {
			return nil, fmt.Errorf("transcode format %q configured twice", tier.Name)
		}
		seen[tier.Name] = true
		tiers = append(tiers, tier)
	}
	return tiers, nil
}
