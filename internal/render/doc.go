// Package render writes the static site: one page per release, per-artist
// pages, an index, an RSS feed and per-release playlists. Pages are built
// from embedded templates; manifest descriptions pass through goldmark.
package render
