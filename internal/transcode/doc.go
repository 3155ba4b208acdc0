// Package transcode produces streaming audio renditions of catalog tracks.
//
// A tier names one target format and quality, e.g. "opus-128" (Opus at 128
// kbps) or "mp3-v0" (LAME VBR quality 0). The producer runs ffmpeg under a
// per-invocation timeout; every parameter that changes the output bytes is
// surfaced through Params so the cache key commits to it.
package transcode
