package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"faircamp/internal/cachekey"
	"faircamp/internal/services"
)

// resetBuild simulates a new build invocation within one process: the
// used-this-build set starts empty while loaded entries persist.
func (ix *Index) resetBuild() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.used = make(map[cachekey.Key]bool)
}

func testKey(seed string) cachekey.Key {
	hasher := cachekey.NewHasher("")
	key, err := hasher.Key(cachekey.TranscodedAudio, cachekey.Params{"seed": seed}, strings.NewReader(seed))
	if err != nil {
		panic(err)
	}
	return key
}

func openTestIndex(t *testing.T, dir string) *Index {
	t.Helper()
	ix, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func writeArtifact(t *testing.T, ix *Index, key cachekey.Key, kind cachekey.Kind, name string) string {
	t.Helper()
	rel := kind.Dir() + "/" + name
	abs := filepath.Join(ix.Dir(), filepath.FromSlash(rel))
	if err := os.WriteFile(abs, []byte("artifact"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ix.Insert(key, kind, rel); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return rel
}

func TestInsertAndLookup(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	key := testKey("one")

	if _, ok := ix.Lookup(key); ok {
		t.Fatal("empty index should miss")
	}

	writeArtifact(t, ix, key, cachekey.TranscodedAudio, "one.opus")

	entry, ok := ix.Lookup(key)
	if !ok {
		t.Fatal("inserted entry should be visible to Lookup")
	}
	if entry.State != StateFresh {
		t.Errorf("new entry state: got %s, want fresh", entry.State)
	}
	if entry.Kind != cachekey.TranscodedAudio {
		t.Errorf("kind: got %s", entry.Kind)
	}
}

func TestInsertConflictingPathIsFatal(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	key := testKey("conflict")

	writeArtifact(t, ix, key, cachekey.TranscodedAudio, "a.opus")

	err := ix.Insert(key, cachekey.TranscodedAudio, "transcodes/b.opus")
	if !errors.Is(err, services.ErrInternal) {
		t.Fatalf("conflicting path must be an internal consistency error, got: %v", err)
	}

	// Re-inserting the same path is an idempotent refresh, not an error.
	if err := ix.Insert(key, cachekey.TranscodedAudio, "transcodes/a.opus"); err != nil {
		t.Errorf("same-path insert should succeed: %v", err)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ix := openTestIndex(t, dir)
	key := testKey("persist")
	writeArtifact(t, ix, key, cachekey.ResizedImage, "persist.jpg")

	if err := ix.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded := openTestIndex(t, dir)
	entry, ok := reloaded.Lookup(key)
	if !ok {
		t.Fatal("persisted entry should survive reload")
	}
	if entry.Path != "images/persist.jpg" {
		t.Errorf("path: got %q", entry.Path)
	}
}

func TestCrashBeforePersistLeavesOldIndex(t *testing.T) {
	dir := t.TempDir()
	ix := openTestIndex(t, dir)
	keyA := testKey("committed")
	writeArtifact(t, ix, keyA, cachekey.TranscodedAudio, "committed.opus")
	if err := ix.Persist(); err != nil {
		t.Fatal(err)
	}
	_ = ix.Close()

	// Second build inserts an entry but "crashes" before Persist.
	crashed := openTestIndex(t, dir)
	keyB := testKey("lost")
	writeArtifact(t, crashed, keyB, cachekey.TranscodedAudio, "lost.opus")
	_ = crashed.Close()

	// The next build sees exactly the previously persisted state: no false
	// hit for the uncommitted key, no corruption for the committed one.
	next := openTestIndex(t, dir)
	if _, ok := next.Lookup(keyB); ok {
		t.Error("entry inserted before a crash must not be visible")
	}
	if _, ok := next.Lookup(keyA); !ok {
		t.Error("previously persisted entry must survive")
	}
}

func TestCorruptIndexDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, indexFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := openTestIndex(t, dir)
	if ix.Len() != 0 {
		t.Errorf("corrupt index should load empty, got %d entries", ix.Len())
	}
}

func TestVersionMismatchDropsOnlyAffectedKind(t *testing.T) {
	dir := t.TempDir()
	ix := openTestIndex(t, dir)
	audioKey := testKey("audio")
	imageKey := testKey("image")
	writeArtifact(t, ix, audioKey, cachekey.TranscodedAudio, "audio.opus")
	writeArtifact(t, ix, imageKey, cachekey.ResizedImage, "image.jpg")
	if err := ix.Persist(); err != nil {
		t.Fatal(err)
	}
	_ = ix.Close()

	// Simulate a tool upgrade that bumped the resized-image format: rewrite
	// the stored version for that kind only.
	indexPath := filepath.Join(dir, indexFileName)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		t.Fatal(err)
	}
	var stored indexFile
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatal(err)
	}
	stored.Versions[cachekey.ResizedImage] = cachekey.ResizedImage.FormatVersion() + 1
	rewritten, err := json.Marshal(stored)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(indexPath, rewritten, 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := openTestIndex(t, dir)
	if _, ok := reloaded.Lookup(imageKey); ok {
		t.Error("version-mismatched kind should be dropped on load")
	}
	if _, ok := reloaded.Lookup(audioKey); !ok {
		t.Error("other kinds must be unaffected by one kind's version skew")
	}
}

func TestOpenRejectsSecondProcess(t *testing.T) {
	dir := t.TempDir()
	first := openTestIndex(t, dir)
	_ = first // holds the lock

	_, err := Open(dir, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("second open should fail with configuration error, got: %v", err)
	}
}

func TestEntriesOfKind(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	writeArtifact(t, ix, testKey("k1"), cachekey.TranscodedAudio, "k1.opus")
	writeArtifact(t, ix, testKey("k2"), cachekey.TranscodedAudio, "k2.opus")
	writeArtifact(t, ix, testKey("k3"), cachekey.Archive, "k3.zip")

	if got := len(ix.EntriesOfKind(cachekey.TranscodedAudio)); got != 2 {
		t.Errorf("transcoded-audio entries: got %d, want 2", got)
	}
	if got := len(ix.EntriesOfKind(cachekey.Archive)); got != 1 {
		t.Errorf("archive entries: got %d, want 1", got)
	}
	if got := len(ix.EntriesOfKind(cachekey.WaveformPeaks)); got != 0 {
		t.Errorf("waveform entries: got %d, want 0", got)
	}
}
