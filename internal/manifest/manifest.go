package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileNames lists the manifest files recognized in a catalog directory, in
// the order they apply when several exist side by side.
var FileNames = []string{"catalog.toml", "artist.toml", "release.toml"}

// Manifest carries the declarative metadata one file contributes. Fields are
// pointers so merging can distinguish "unset" from explicit zero values.
type Manifest struct {
	Title       *string `toml:"title"`
	Artist      *string `toml:"artist"`
	Date        *string `toml:"date"`
	Description *string `toml:"description"`
	Cover       *string `toml:"cover"`

	DownloadsEnabled *bool `toml:"downloads_enabled"`
	StreamingEnabled *bool `toml:"streaming_enabled"`

	// TrackTitles maps audio file names to display titles.
	TrackTitles map[string]string `toml:"track_titles"`
}

// Load parses one manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate(path string) error {
	if m.Date != nil {
		if _, err := time.Parse("2006-01-02", *m.Date); err != nil {
			return fmt.Errorf("manifest %s: date %q: expected YYYY-MM-DD", path, *m.Date)
		}
	}
	return nil
}

// ReleaseDate returns the parsed date when set.
func (m *Manifest) ReleaseDate() (time.Time, bool) {
	if m == nil || m.Date == nil {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", *m.Date)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Merge layers override on top of base. Every set field in override wins;
// track titles merge per file name. Neither input is mutated.
func Merge(base, override *Manifest) *Manifest {
	if base == nil && override == nil {
		return &Manifest{}
	}
	merged := Manifest{}
	if base != nil {
		merged = *base
		merged.TrackTitles = nil
	}
	if override != nil {
		if override.Title != nil {
			merged.Title = override.Title
		}
		if override.Artist != nil {
			merged.Artist = override.Artist
		}
		if override.Date != nil {
			merged.Date = override.Date
		}
		if override.Description != nil {
			merged.Description = override.Description
		}
		if override.Cover != nil {
			merged.Cover = override.Cover
		}
		if override.DownloadsEnabled != nil {
			merged.DownloadsEnabled = override.DownloadsEnabled
		}
		if override.StreamingEnabled != nil {
			merged.StreamingEnabled = override.StreamingEnabled
		}
	}

	var titles map[string]string
	appendTitles := func(src map[string]string) {
		for name, title := range src {
			if titles == nil {
				titles = make(map[string]string)
			}
			titles[name] = title
		}
	}
	if base != nil {
		appendTitles(base.TrackTitles)
	}
	if override != nil {
		appendTitles(override.TrackTitles)
	}
	merged.TrackTitles = titles

	return &merged
}
