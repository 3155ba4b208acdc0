package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.toml")
	content := `
title = "Night Drive"
artist = "The Examples"
date = "2024-03-01"
downloads_enabled = false

[track_titles]
"01_intro.flac" = "Intro (Night Mix)"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Title == nil || *m.Title != "Night Drive" {
		t.Errorf("title: got %v", m.Title)
	}
	if m.DownloadsEnabled == nil || *m.DownloadsEnabled {
		t.Error("downloads_enabled should be explicit false")
	}
	if m.TrackTitles["01_intro.flac"] != "Intro (Night Mix)" {
		t.Errorf("track titles: got %v", m.TrackTitles)
	}
	if _, ok := m.ReleaseDate(); !ok {
		t.Error("date should parse")
	}
}

func TestLoadRejectsBadDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.toml")
	if err := os.WriteFile(path, []byte(`date = "March 1st"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed date must be rejected")
	}
}

func TestMergeNearerWins(t *testing.T) {
	base := &Manifest{
		Artist:           stringPtr("Label Roster"),
		Title:            stringPtr("Catalog Title"),
		DownloadsEnabled: boolPtr(true),
		TrackTitles:      map[string]string{"a.flac": "From Base"},
	}
	override := &Manifest{
		Title:       stringPtr("Release Title"),
		TrackTitles: map[string]string{"b.flac": "From Override"},
	}

	merged := Merge(base, override)
	if *merged.Title != "Release Title" {
		t.Errorf("override title must win, got %q", *merged.Title)
	}
	if *merged.Artist != "Label Roster" {
		t.Errorf("unset override field must fall back, got %q", *merged.Artist)
	}
	if merged.DownloadsEnabled == nil || !*merged.DownloadsEnabled {
		t.Error("base downloads_enabled should carry through")
	}
	if merged.TrackTitles["a.flac"] != "From Base" || merged.TrackTitles["b.flac"] != "From Override" {
		t.Errorf("track titles should union: %v", merged.TrackTitles)
	}

	// Inputs must stay untouched.
	if base.Title == nil || *base.Title != "Catalog Title" {
		t.Error("Merge mutated its base input")
	}
}

func TestMergeExplicitFalseOverridesTrue(t *testing.T) {
	base := &Manifest{StreamingEnabled: boolPtr(true)}
	override := &Manifest{StreamingEnabled: boolPtr(false)}
	merged := Merge(base, override)
	if merged.StreamingEnabled == nil || *merged.StreamingEnabled {
		t.Error("explicit false must override true")
	}
}

func TestMergeNilInputs(t *testing.T) {
	if m := Merge(nil, nil); m == nil {
		t.Fatal("Merge(nil, nil) should return an empty manifest")
	}
	base := &Manifest{Title: stringPtr("Only Base")}
	if m := Merge(base, nil); m.Title == nil || *m.Title != "Only Base" {
		t.Error("nil override should keep base values")
	}
}
