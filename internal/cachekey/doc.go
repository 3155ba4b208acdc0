// Package cachekey derives deterministic, filesystem-safe cache keys for
// build artifacts.
//
// A key commits to the artifact kind, the content of every input file, every
// parameter that affects the output bytes, and (for downloadable kinds) the
// per-deployment salt. Two requests that would produce byte-identical output
// always share a key; a single differing parameter byte always changes it.
package cachekey
