// Package waveform extracts peak data for the client-side seek bar. Tracks
// are decoded to mono PCM through ffmpeg and reduced to a fixed number of
// peak buckets normalized to 0..100, stored as a JSON array.
package waveform
