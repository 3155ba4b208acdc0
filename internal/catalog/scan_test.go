package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"faircamp/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testCatalogTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "catalog.toml"), "title = \"Test Label\"\n")

	artistDir := filepath.Join(root, "artist-a")
	writeFile(t, filepath.Join(artistDir, "artist.toml"), "artist = \"Artist A\"\n")

	first := filepath.Join(artistDir, "first-release")
	writeFile(t, filepath.Join(first, "release.toml"),
		"title = \"Neon Rain\"\ndate = \"2024-03-01\"\n\n[track_titles]\n\"02 second.flac\" = \"Custom Second\"\n")
	writeFile(t, filepath.Join(first, "01 first.flac"), "audio")
	writeFile(t, filepath.Join(first, "02 second.flac"), "audio")
	writeFile(t, filepath.Join(first, "cover.png"), "image")

	second := filepath.Join(artistDir, "second-release")
	writeFile(t, filepath.Join(second, "01 only.flac"), "audio")
	writeFile(t, filepath.Join(second, "b-side.flac"), "audio")

	loose := filepath.Join(root, "loose-release")
	writeFile(t, filepath.Join(loose, "track.flac"), "audio")

	// Hidden directories and files stay out of the catalog.
	writeFile(t, filepath.Join(root, ".hidden", "skip.flac"), "audio")
	writeFile(t, filepath.Join(loose, ".ignored.flac"), "audio")

	return root
}

func TestScanResolvesCatalog(t *testing.T) {
	root := testCatalogTree(t)

	cat, err := Scan(root, "Fallback Title", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if cat.Title != "Test Label" {
		t.Errorf("catalog title = %q, want %q", cat.Title, "Test Label")
	}
	if len(cat.Releases) != 3 {
		t.Fatalf("expected 3 releases, got %d", len(cat.Releases))
	}

	// Dated releases sort first, undated follow by title.
	if got := cat.Releases[0].Title; got != "Neon Rain" {
		t.Errorf("first release = %q, want %q", got, "Neon Rain")
	}
	if got := cat.Releases[1].Title; got != "Loose Release" {
		t.Errorf("second release = %q, want %q", got, "Loose Release")
	}
	if got := cat.Releases[2].Title; got != "Second Release" {
		t.Errorf("third release = %q, want %q", got, "Second Release")
	}
}

func TestScanReleaseDetails(t *testing.T) {
	root := testCatalogTree(t)

	cat, err := Scan(root, "", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	first := cat.Releases[0]
	if first.Slug != "neon-rain" {
		t.Errorf("slug = %q, want %q", first.Slug, "neon-rain")
	}
	if first.Artist != "Artist A" {
		t.Errorf("artist = %q, want %q", first.Artist, "Artist A")
	}
	if !first.HasDate || first.Date.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("date not resolved: %+v", first)
	}
	if filepath.Base(first.CoverPath) != "cover.png" {
		t.Errorf("cover = %q, want cover.png", first.CoverPath)
	}
	if !first.DownloadsEnabled || !first.StreamingEnabled {
		t.Error("downloads and streaming should default to enabled")
	}

	if len(first.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(first.Tracks))
	}
	if first.Tracks[0].Title != "First" || first.Tracks[0].Number != 1 {
		t.Errorf("track 1 = %+v", first.Tracks[0])
	}
	if first.Tracks[1].Title != "Custom Second" {
		t.Errorf("track 2 title = %q, want manifest override", first.Tracks[1].Title)
	}
}

func TestScanTrackOrderingAndInheritance(t *testing.T) {
	root := testCatalogTree(t)

	cat, err := Scan(root, "", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var second *Release
	for _, release := range cat.Releases {
		if release.Title == "Second Release" {
			second = release
		}
	}
	if second == nil {
		t.Fatal("second release missing")
	}

	// Artist inherits from artist.toml one level up.
	if second.Artist != "Artist A" {
		t.Errorf("inherited artist = %q, want %q", second.Artist, "Artist A")
	}
	// Site title from catalog.toml does not leak into release titles.
	if second.Title != "Second Release" {
		t.Errorf("title = %q, want derived %q", second.Title, "Second Release")
	}

	// Numbered tracks come before unnumbered ones.
	if len(second.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(second.Tracks))
	}
	if second.Tracks[0].FileName != "01 only.flac" {
		t.Errorf("track 1 = %q, want numbered file first", second.Tracks[0].FileName)
	}
	if second.Tracks[1].Title != "B Side" {
		t.Errorf("track 2 title = %q, want %q", second.Tracks[1].Title, "B Side")
	}
}

func TestScanGroupsArtists(t *testing.T) {
	root := testCatalogTree(t)

	cat, err := Scan(root, "", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(cat.Artists) != 2 {
		t.Fatalf("expected 2 artists, got %d", len(cat.Artists))
	}
	if cat.Artists[0].Name != "Artist A" || len(cat.Artists[0].Releases) != 2 {
		t.Errorf("artist 1 = %q with %d releases", cat.Artists[0].Name, len(cat.Artists[0].Releases))
	}
	if cat.Artists[1].Name != "Unknown Artist" || len(cat.Artists[1].Releases) != 1 {
		t.Errorf("artist 2 = %q with %d releases", cat.Artists[1].Name, len(cat.Artists[1].Releases))
	}
}

func TestScanDuplicateTitlesGetUniqueSlugs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "demo", "track.flac"), "audio")
	writeFile(t, filepath.Join(root, "b", "demo", "track.flac"), "audio")

	cat, err := Scan(root, "Site", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(cat.Releases) != 2 {
		t.Fatalf("expected 2 releases, got %d", len(cat.Releases))
	}
	slugs := map[string]bool{}
	for _, release := range cat.Releases {
		if slugs[release.Slug] {
			t.Fatalf("duplicate slug %q", release.Slug)
		}
		slugs[release.Slug] = true
	}
}

func TestScanSoleImageBecomesCover(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "release")
	writeFile(t, filepath.Join(dir, "track.flac"), "audio")
	writeFile(t, filepath.Join(dir, "artwork.jpg"), "image")

	cat, err := Scan(root, "Site", logging.NewNop())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := filepath.Base(cat.Releases[0].CoverPath); got != "artwork.jpg" {
		t.Errorf("cover = %q, want sole image", got)
	}
}
