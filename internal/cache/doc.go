// Package cache implements the build-time asset cache: a persisted index
// mapping cache keys to materialized artifacts, a get-or-compute wrapper
// around the artifact producers, and the optimization engine that decides
// when unused artifacts are reclaimed.
//
// One build process owns the index exclusively from Open to Close; a file
// lock enforces this. The index is loaded once at build start and persisted
// once at build end with a write-temp-then-rename, so an interrupted build
// leaves the previous index intact. The cache is never a correctness
// dependency: a corrupt or version-skewed index degrades to recomputation,
// not to a failed build.
package cache
