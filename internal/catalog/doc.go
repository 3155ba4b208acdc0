// Package catalog resolves an input directory tree into the release, track,
// and artist model the build renders. A release is any directory directly
// containing audio files; manifests along the ancestor chain contribute
// metadata, nearest file winning. The package also owns the per-deployment
// salt that rotates download and streaming asset names.
package catalog
