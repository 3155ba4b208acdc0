// Package archive produces downloadable release zips. Output bytes are
// deterministic for identical inputs: members are sorted, timestamps fixed,
// and the deflate level pinned, so archive cache keys stay stable across
// builds and machines.
package archive
