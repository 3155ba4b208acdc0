package render

import (
	"html/template"
	"time"
)

// Asset is one generated file reachable from a page.
type Asset struct {
	// URL is relative to the site root, e.g. "assets/transcodes/ab12cd.opus".
	URL   string
	MIME  string
	Label string
	Bytes int64
}

// CoverImage is one resized rendition of a release cover.
type CoverImage struct {
	URL     string
	MaxEdge int
}

// TrackView is one track with its streamable renditions.
type TrackView struct {
	Number int
	Title  string
	// Streams holds one asset per streaming format, in configured order.
	Streams     []Asset
	WaveformURL string
}

// ReleaseView is everything the release page and feed need.
type ReleaseView struct {
	Slug    string
	Title   string
	Artist  string
	Date    time.Time
	HasDate bool

	DescriptionHTML template.HTML
	// Covers are ordered small to large; empty when the release has none.
	Covers []CoverImage

	// DownloadURL points at the release archive, empty when downloads are off.
	DownloadURL   string
	DownloadBytes int64

	Streaming bool
	Tracks    []TrackView
}

// ArtistView groups release views for one artist page.
type ArtistView struct {
	Name     string
	Slug     string
	Releases []*ReleaseView
}

// Site is the root view model for one rendered build.
type Site struct {
	Title           string
	BaseURL         string
	DescriptionHTML template.HTML
	GeneratedAt     time.Time

	Releases []*ReleaseView
	Artists  []ArtistView
}

// Cover returns the largest rendition, or a zero value when none exist.
func (r *ReleaseView) Cover() CoverImage {
	if len(r.Covers) == 0 {
		return CoverImage{}
	}
	return r.Covers[len(r.Covers)-1]
}

// Thumbnail returns the smallest rendition, or a zero value when none exist.
func (r *ReleaseView) Thumbnail() CoverImage {
	if len(r.Covers) == 0 {
		return CoverImage{}
	}
	return r.Covers[0]
}
