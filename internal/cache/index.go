package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"faircamp/internal/cachekey"
	"faircamp/internal/fileutil"
	"faircamp/internal/logging"
	"faircamp/internal/services"
)

const (
	indexFileName = "index.json"
	lockFileName  = "lock"
)

// indexFile is the persisted schema. Versions records the per-kind format
// version the entries were written with; a mismatch on load drops only that
// kind's entries.
type indexFile struct {
	Versions map[cachekey.Kind]int `json:"versions"`
	Entries  []Entry               `json:"entries"`
}

// Index is the process-wide cache state for one build invocation. It owns
// every Entry exclusively between Open and Close; all methods are safe to
// call from parallel producer goroutines because mutation is funneled
// through one mutex.
type Index struct {
	dir    string
	logger *slog.Logger
	lock   *flock.Flock

	mu      sync.Mutex
	entries map[cachekey.Key]*Entry
	used    map[cachekey.Key]bool
}

// Open loads the persisted index from dir, creating the directory layout on
// first use. It acquires the cache lock; a second concurrent build fails
// fast instead of corrupting shared state. A corrupt or unreadable index
// degrades to an empty one with a notice, never an error.
func Open(dir string, logger *slog.Logger) (*Index, error) {
	logger = logging.NewComponentLogger(logger, "cache")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	for _, kind := range cachekey.Kinds() {
		if err := os.MkdirAll(filepath.Join(dir, kind.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("create cache subdirectory: %w", err)
		}
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "open",
			"another faircamp process owns this cache directory", nil)
	}

	ix := &Index{
		dir:     dir,
		logger:  logger,
		lock:    lock,
		entries: make(map[cachekey.Key]*Entry),
		used:    make(map[cachekey.Key]bool),
	}
	ix.load()
	return ix, nil
}

func (ix *Index) load() {
	data, err := os.ReadFile(filepath.Join(ix.dir, indexFileName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			ix.logger.Warn("cache index unreadable, starting empty",
				logging.String(logging.FieldEventType, "cache_index_unreadable"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "all artifacts will be recomputed"))
		}
		return
	}

	var stored indexFile
	if err := json.Unmarshal(data, &stored); err != nil {
		ix.logger.Warn("cache index corrupt, starting empty",
			logging.String(logging.FieldEventType, "cache_index_corrupt"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "all artifacts will be recomputed"))
		return
	}

	dropped := make(map[cachekey.Kind]int)
	for i := range stored.Entries {
		entry := stored.Entries[i]
		if !entry.valid() {
			continue
		}
		if stored.Versions[entry.Kind] != entry.Kind.FormatVersion() {
			dropped[entry.Kind]++
			continue
		}
		copied := entry
		ix.entries[entry.Key] = &copied
	}

	for kind, count := range dropped {
		ix.logger.Info("cache format changed for kind, dropping entries",
			logging.String(logging.FieldEventType, "cache_kind_version_mismatch"),
			logging.String(logging.FieldKind, string(kind)),
			logging.Int("dropped", count),
			logging.Int("stored_version", stored.Versions[kind]),
			logging.Int("expected_version", kind.FormatVersion()),
			logging.String(logging.FieldImpact, "artifacts of this kind will be recomputed"))
	}
}

// Lookup returns the entry for key when present. A hit marks the entry used
// this build and reactivates it if it was stale.
func (ix *Index) Lookup(key cachekey.Key) (Entry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entry, ok := ix.entries[key]
	if !ok {
		return Entry{}, false
	}
	entry.reactivate(time.Now())
	ix.used[key] = true
	return *entry, true
}

// Insert records a newly computed artifact. Inserting a key that already
// exists with a different path is an internal consistency violation: either
// the hasher collided or a producer stopped being deterministic. That class
// of bug must stop the build rather than silently serve wrong bytes.
func (ix *Index) Insert(key cachekey.Key, kind cachekey.Kind, relPath string) error {
	if !key.Valid() {
		return services.Wrap(services.ErrValidation, "cache", "insert", fmt.Sprintf("malformed key %q", key), nil)
	}
	if !kind.Valid() {
		return services.Wrap(services.ErrValidation, "cache", "insert", fmt.Sprintf("unknown kind %q", kind), nil)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.entries[key]; ok {
		if existing.Path != relPath {
			return services.Wrap(services.ErrInternal, "cache", "insert",
				fmt.Sprintf("key %s maps to both %q and %q", key.Short(), existing.Path, relPath), nil)
		}
		existing.reactivate(time.Now())
		ix.used[key] = true
		return nil
	}

	now := time.Now()
	ix.entries[key] = &Entry{
		Key:       key,
		Kind:      kind,
		Path:      relPath,
		CreatedAt: now,
		LastUsed:  now,
		State:     StateFresh,
	}
	ix.used[key] = true
	return nil
}

// EntriesOfKind returns a snapshot of all entries of one kind, ordered by key.
func (ix *Index) EntriesOfKind(kind cachekey.Kind) []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var out []Entry
	for _, entry := range ix.entries {
		if entry.Kind == kind {
			out = append(out, *entry)
		}
	}
	sortEntries(out)
	return out
}

// Entries returns a snapshot of every entry, ordered by key.
func (ix *Index) Entries() []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	out := make([]Entry, 0, len(ix.entries))
	for _, entry := range ix.entries {
		out = append(out, *entry)
	}
	sortEntries(out)
	return out
}

// Len returns the number of live entries.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// Dir returns the cache directory.
func (ix *Index) Dir() string {
	return ix.dir
}

// ArtifactPath resolves an entry's on-disk location.
func (ix *Index) ArtifactPath(entry Entry) string {
	return filepath.Join(ix.dir, filepath.FromSlash(entry.Path))
}

// Persist writes the full index atomically: either the previous index or the
// fully updated one is observable by the next build, never a partial write.
// Call once, at build end, after all artifact computation has concluded.
func (ix *Index) Persist() error {
	ix.mu.Lock()
	stored := indexFile{
		Versions: make(map[cachekey.Kind]int, len(cachekey.Kinds())),
		Entries:  make([]Entry, 0, len(ix.entries)),
	}
	for _, kind := range cachekey.Kinds() {
		stored.Versions[kind] = kind.FormatVersion()
	}
	for _, entry := range ix.entries {
		stored.Entries = append(stored.Entries, *entry)
	}
	ix.mu.Unlock()

	sortEntries(stored.Entries)

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache index: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(ix.dir, indexFileName), data, 0o644); err != nil {
		return fmt.Errorf("persist cache index: %w", err)
	}
	return nil
}

// Close releases the cache lock. It does not persist; a build that fails
// before Persist leaves the on-disk index exactly as it found it.
func (ix *Index) Close() error {
	if ix.lock == nil {
		return nil
	}
	return ix.lock.Unlock()
}

// removeRecord drops an index record. Callers must have deleted the artifact
// file first so a crash leaves at worst an orphaned file, never a dangling
// index reference.
func (ix *Index) removeRecord(key cachekey.Key) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, key)
	delete(ix.used, key)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
}
