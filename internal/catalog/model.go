package catalog

import (
	"sort"
	"time"
)

// Track is one audio file inside a release.
type Track struct {
	// FileName is the source file's base name.
	FileName string
	// Path is the absolute source location.
	Path string
	// Number is the 1-based position within the release.
	Number int
	Title  string
}

// Release maps one directory of audio files to one output page.
type Release struct {
	// Slug is the path-safe output directory name, unique per catalog.
	Slug string
	// Dir is the absolute source directory.
	Dir    string
	Title  string
	Artist string

	Date    time.Time
	HasDate bool

	// Description is raw markdown from the manifest chain.
	Description string
	// CoverPath is absolute, empty when the release has no cover image.
	CoverPath string

	DownloadsEnabled bool
	StreamingEnabled bool

	Tracks []Track
}

// Artist groups the releases attributed to one name.
type Artist struct {
	Name     string
	Slug     string
	Releases []*Release
}

// Catalog is the fully resolved input model for one build.
type Catalog struct {
	Title       string
	Description string
	// Releases are ordered newest first; undated releases sort last by title.
	Releases []*Release
	// Artists are ordered by name.
	Artists []Artist
}

// Tags returns the metadata written into transcodes when tag rewriting is on.
func (r *Release) Tags(track Track) map[string]string {
	tags := map[string]string{
		"title":  track.Title,
		"album":  r.Title,
		"artist": r.Artist,
	}
	if r.HasDate {
		tags["date"] = r.Date.Format("2006-01-02")
	}
	return tags
}

func sortReleases(releases []*Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		a, b := releases[i], releases[j]
		switch {
		case a.HasDate && b.HasDate:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.Title < b.Title
		case a.HasDate:
			return true
		case b.HasDate:
			return false
		default:
			return a.Title < b.Title
		}
	})
}
