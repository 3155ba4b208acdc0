package testsupport

import (
	"testing"

	"faircamp/internal/cache"
	"faircamp/internal/logging"
)

// MustOpenIndex opens a cache.Index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, dir string) *cache.Index {
	t.Helper()

	index, err := cache.Open(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		index.Close()
	})
	return index
}
