package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"faircamp/internal/logging"
	"faircamp/internal/manifest"
)

var audioExtensions = map[string]bool{
	".flac": true,
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".aiff": true,
	".aif":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var coverBaseNames = []string{"cover", "front", "folder"}

// Scan resolves the catalog rooted at root. siteTitle is the configured
// fallback when no catalog manifest names one.
func Scan(root, siteTitle string, logger *slog.Logger) (*Catalog, error) {
	logger = logging.NewComponentLogger(logger, "catalog")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog root: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("catalog root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("catalog root %s is not a directory", absRoot)
	}

	scanner := &scanner{logger: logger, slugs: make(map[string]int)}

	rootManifest, err := loadDirManifests(absRoot)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{Title: siteTitle}
	if rootManifest.Title != nil {
		cat.Title = *rootManifest.Title
	}
	if rootManifest.Description != nil {
		cat.Description = *rootManifest.Description
	}

	if err := scanner.walk(absRoot, absRoot, rootManifest, ""); err != nil {
		return nil, err
	}

	sortReleases(scanner.releases)
	cat.Releases = scanner.releases
	cat.Artists = groupArtists(scanner.releases)
	return cat, nil
}

type scanner struct {
	logger   *slog.Logger
	releases []*Release
	slugs    map[string]int
}

func (s *scanner) walk(root, dir string, inherited *manifest.Manifest, parentArtist string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read catalog directory: %w", err)
	}

	merged := inherited
	if dir != root {
		local, err := loadDirManifests(dir)
		if err != nil {
			return err
		}
		merged = manifest.Merge(inherited, local)
	}

	var audioFiles []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			audioFiles = append(audioFiles, entry.Name())
		}
	}

	if len(audioFiles) > 0 {
		release, err := s.buildRelease(dir, audioFiles, merged, parentArtist)
		if err != nil {
			return err
		}
		s.releases = append(s.releases, release)
	}

	fallbackArtist := parentArtist
	if dir != root {
		fallbackArtist = DeriveTitle(filepath.Base(dir))
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := s.walk(root, filepath.Join(dir, entry.Name()), inheritable(merged), fallbackArtist); err != nil {
			return err
		}
	}
	return nil
}

// inheritable keeps the fields that apply to descendant directories. Title,
// description, cover and track titles describe the directory they were
// declared in; cover paths in particular are relative to that directory.
func inheritable(m *manifest.Manifest) *manifest.Manifest {
	return &manifest.Manifest{
		Artist:           m.Artist,
		Date:             m.Date,
		DownloadsEnabled: m.DownloadsEnabled,
		StreamingEnabled: m.StreamingEnabled,
	}
}

func (s *scanner) buildRelease(dir string, audioFiles []string, m *manifest.Manifest, parentArtist string) (*Release, error) {
	release := &Release{
		Dir:              dir,
		Title:            DeriveTitle(filepath.Base(dir)),
		Artist:           parentArtist,
		DownloadsEnabled: true,
		StreamingEnabled: true,
	}
	if m.Title != nil {
		release.Title = *m.Title
	}
	if m.Artist != nil {
		release.Artist = *m.Artist
	}
	if release.Artist == "" {
		release.Artist = "Unknown Artist"
	}
	if m.Description != nil {
		release.Description = *m.Description
	}
	if date, ok := m.ReleaseDate(); ok {
		release.Date = date
		release.HasDate = true
	}
	if m.DownloadsEnabled != nil {
		release.DownloadsEnabled = *m.DownloadsEnabled
	}
	if m.StreamingEnabled != nil {
		release.StreamingEnabled = *m.StreamingEnabled
	}

	release.Slug = s.uniqueSlug(Slugify(release.Title))
	release.CoverPath = s.resolveCover(dir, m)
	release.Tracks = buildTracks(dir, audioFiles, m)
	return release, nil
}

func (s *scanner) uniqueSlug(slug string) string {
	count := s.slugs[slug]
	s.slugs[slug] = count + 1
	if count == 0 {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, count+1)
}

func (s *scanner) resolveCover(dir string, m *manifest.Manifest) string {
	if m.Cover != nil {
		path := filepath.Join(dir, *m.Cover)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		s.logger.Warn("manifest cover not found, falling back to detection",
			logging.String(logging.FieldEventType, "cover_missing"),
			logging.String("cover", *m.Cover),
			logging.String("dir", dir),
			logging.String(logging.FieldImpact, "release may build without a cover"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		images = append(images, name)
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		for _, base := range coverBaseNames {
			if stem == base {
				return filepath.Join(dir, name)
			}
		}
	}
	if len(images) == 1 {
		return filepath.Join(dir, images[0])
	}
	return ""
}

func buildTracks(dir string, audioFiles []string, m *manifest.Manifest) []Track {
	type ordered struct {
		name   string
		number int
	}
	items := make([]ordered, 0, len(audioFiles))
	for _, name := range audioFiles {
		number, _ := splitNumberPrefix(strings.TrimSuffix(name, filepath.Ext(name)))
		items = append(items, ordered{name: name, number: number})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.number > 0 && b.number > 0:
			if a.number != b.number {
				return a.number < b.number
			}
			return a.name < b.name
		case a.number > 0:
			return true
		case b.number > 0:
			return false
		default:
			return a.name < b.name
		}
	})

	tracks := make([]Track, 0, len(items))
	for i, item := range items {
		title := DeriveTitle(item.name)
		if custom, ok := m.TrackTitles[item.name]; ok {
			title = custom
		}
		tracks = append(tracks, Track{
			FileName: item.name,
			Path:     filepath.Join(dir, item.name),
			Number:   i + 1,
			Title:    title,
		})
	}
	return tracks
}

func loadDirManifests(dir string) (*manifest.Manifest, error) {
	merged := &manifest.Manifest{}
	for _, name := range manifest.FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		merged = manifest.Merge(merged, loaded)
	}
	return merged, nil
}

func groupArtists(releases []*Release) []Artist {
	byName := make(map[string]*Artist)
	for _, release := range releases {
		artist, ok := byName[release.Artist]
		if !ok {
			artist = &Artist{Name: release.Artist, Slug: Slugify(release.Artist)}
			byName[release.Artist] = artist
		}
		artist.Releases = append(artist.Releases, release)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	artists := make([]Artist, 0, len(names))
	for _, name := range names {
		artists = append(artists, *byName[name])
	}
	return artists
}
