// Package ffmpeg wraps the external ffmpeg binary used for audio transcoding
// and PCM extraction. Invocations run through exec.CommandContext so callers
// control timeouts and cancellation; a hung or crashed encoder surfaces as a
// tagged external-tool error and is never retried here.
package ffmpeg
