package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"faircamp/internal/cachekey"
)

func TestParseStrategy(t *testing.T) {
	for _, value := range []string{"delayed", "Immediate", " wipe ", "MANUAL"} {
		if _, err := ParseStrategy(value); err != nil {
			t.Errorf("ParseStrategy(%q) failed: %v", value, err)
		}
	}
	if _, err := ParseStrategy("aggressive"); err == nil {
		t.Error("unknown strategy must be rejected")
	}
}

// The full staleness cycle under delayed with a zero grace window:
// fresh after the build that created it, stale after the first build that
// ignores it, physically absent after the second.
func TestStalenessCycleDelayedZeroGrace(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyDelayed, 0, nil)
	key := testKey("cycle")
	writeArtifact(t, ix, key, cachekey.TranscodedAudio, "cycle.opus")
	artifact := ix.ArtifactPath(ix.Entries()[0])

	// Build 1 created and used the entry.
	result := opt.Sweep(time.Now())
	if result.MarkedStale != 0 || result.Purged != 0 {
		t.Fatalf("used entry must stay fresh: %+v", result)
	}

	// Build 2 never looks it up.
	ix.resetBuild()
	result = opt.Sweep(time.Now())
	if result.MarkedStale != 1 {
		t.Fatalf("unused entry should go stale: %+v", result)
	}
	if result.Purged != 0 {
		t.Fatalf("entry must survive the build that staled it: %+v", result)
	}

	// Build 3: stale and past the (zero) grace window.
	ix.resetBuild()
	result = opt.Sweep(time.Now())
	if result.Purged != 1 {
		t.Fatalf("stale entry past grace should purge: %+v", result)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Error("purged artifact must be physically absent")
	}
	if ix.Len() != 0 {
		t.Error("purged entry must leave no index record")
	}
}

func TestDelayedGraceWindowHoldsEntries(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyDelayed, 24*time.Hour, nil)
	key := testKey("grace")
	writeArtifact(t, ix, key, cachekey.TranscodedAudio, "grace.opus")

	ix.resetBuild()
	now := time.Now()
	opt.Sweep(now)

	// Within the window nothing purges, even across repeated builds.
	ix.resetBuild()
	result := opt.Sweep(now.Add(time.Hour))
	if result.Purged != 0 {
		t.Fatalf("entry inside grace window must survive: %+v", result)
	}

	// Once the window elapses the next build reclaims it.
	ix.resetBuild()
	result = opt.Sweep(now.Add(25 * time.Hour))
	if result.Purged != 1 {
		t.Fatalf("entry past grace window should purge: %+v", result)
	}
}

func TestImmediatePurgesAtEndOfStalingBuild(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyImmediate, 0, nil)
	writeArtifact(t, ix, testKey("imm"), cachekey.TranscodedAudio, "imm.opus")

	ix.resetBuild()
	result := opt.Sweep(time.Now())
	if result.MarkedStale != 1 || result.Purged != 1 {
		t.Fatalf("immediate strategy should purge in the staling build: %+v", result)
	}
	if ix.Len() != 0 {
		t.Error("index should be empty after immediate purge")
	}
}

func TestManualNeverPurgesAutomatically(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyManual, 0, nil)
	writeArtifact(t, ix, testKey("man"), cachekey.TranscodedAudio, "man.opus")

	for i := 0; i < 3; i++ {
		ix.resetBuild()
		if result := opt.Sweep(time.Now()); result.Purged != 0 {
			t.Fatalf("manual strategy must not purge in sweep %d", i)
		}
	}
	entries := ix.Entries()
	if len(entries) != 1 || entries[0].State != StateStale {
		t.Fatalf("entry should remain stale indefinitely: %+v", entries)
	}

	// Until the explicit command runs.
	purged, failed := opt.PurgeStale()
	if purged != 1 || failed != 0 {
		t.Fatalf("PurgeStale: purged=%d failed=%d", purged, failed)
	}
	if ix.Len() != 0 {
		t.Error("explicit purge should empty the index")
	}
}

func TestWipePurgesEverythingBeforeBuild(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyWipe, 0, nil)
	writeArtifact(t, ix, testKey("w1"), cachekey.TranscodedAudio, "w1.opus")
	writeArtifact(t, ix, testKey("w2"), cachekey.Archive, "w2.zip")

	if err := opt.PrepareBuild(); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 0 {
		t.Errorf("wipe strategy must start the build with an empty cache, %d entries left", ix.Len())
	}
}

func TestLookupReactivatesStaleEntry(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyDelayed, 0, nil)
	key := testKey("revive")
	writeArtifact(t, ix, key, cachekey.TranscodedAudio, "revive.opus")

	ix.resetBuild()
	opt.Sweep(time.Now())
	if entries := ix.Entries(); entries[0].State != StateStale {
		t.Fatalf("precondition: entry should be stale, got %s", entries[0].State)
	}

	ix.resetBuild()
	entry, ok := ix.Lookup(key)
	if !ok {
		t.Fatal("stale entries are still valid lookups")
	}
	if entry.State != StateFresh {
		t.Errorf("lookup should reactivate: got %s", entry.State)
	}
	if entry.StaleSince != nil {
		t.Error("reactivation must clear the staleness timestamp")
	}
	if result := opt.Sweep(time.Now()); result.Purged != 0 {
		t.Error("reactivated entry must survive the sweep")
	}
}

func TestPurgeFailureLeavesEntryForRetry(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyImmediate, 0, nil)
	key := testKey("stuck")

	// Point the entry at a non-empty directory: os.Remove fails on it the
	// same way it fails on a permission-denied file.
	rel := cachekey.TranscodedAudio.Dir() + "/stuck.opus"
	abs := filepath.Join(ix.Dir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Join(abs, "pin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ix.Insert(key, cachekey.TranscodedAudio, rel); err != nil {
		t.Fatal(err)
	}

	ix.resetBuild()
	result := opt.Sweep(time.Now())
	if result.Failed != 1 || result.Purged != 0 {
		t.Fatalf("expected one failed purge: %+v", result)
	}
	if ix.Len() != 1 {
		t.Error("failed purge must keep the index record for the next build")
	}
}

func TestPerKindIsolationInSweep(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyImmediate, 0, nil)
	audioKey := testKey("iso-audio")
	imageKey := testKey("iso-image")
	writeArtifact(t, ix, audioKey, cachekey.TranscodedAudio, "iso.opus")
	writeArtifact(t, ix, imageKey, cachekey.ResizedImage, "iso.jpg")

	// Only the image is requested in the next build.
	ix.resetBuild()
	if _, ok := ix.Lookup(imageKey); !ok {
		t.Fatal("image lookup failed")
	}
	opt.Sweep(time.Now())

	if len(ix.EntriesOfKind(cachekey.TranscodedAudio)) != 0 {
		t.Error("unused audio entry should be purged")
	}
	if len(ix.EntriesOfKind(cachekey.ResizedImage)) != 1 {
		t.Error("used image entry must survive")
	}
}

func TestBuildReport(t *testing.T) {
	ix := openTestIndex(t, t.TempDir())
	opt := NewOptimizer(ix, StrategyManual, 0, nil)
	writeArtifact(t, ix, testKey("r1"), cachekey.TranscodedAudio, "r1.opus")
	writeArtifact(t, ix, testKey("r2"), cachekey.Archive, "r2.zip")

	ix.resetBuild()
	opt.Sweep(time.Now())

	report := ix.BuildReport()
	if report.TotalCount != 2 {
		t.Errorf("total count: got %d, want 2", report.TotalCount)
	}
	if report.StaleCount != 2 {
		t.Errorf("stale count: got %d, want 2", report.StaleCount)
	}
	if report.StaleBytes == 0 {
		t.Error("stale bytes should include artifact sizes")
	}
	if len(report.Rows) != 2 {
		t.Errorf("rows: got %d, want 2", len(report.Rows))
	}
}
