// Package build drives one site build: scan the catalog, resolve every
// artifact through the cache, copy artifacts into the build directory,
// render pages, then sweep and persist the cache index.
//
// Producers run in parallel under a bounded worker pool. A failing artifact
// takes down only the releases that reference it; the rest of the site still
// builds. Only internal cache inconsistencies abort the whole build.
package build
