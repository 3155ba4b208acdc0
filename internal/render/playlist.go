package render

import (
	"fmt"
	"os"
	"strings"
)

// writePlaylist emits an extended M3U playlist listing each track's first
// streamable rendition.
func writePlaylist(path string, site *Site, release *ReleaseView) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, track := range release.Tracks {
		if len(track.Streams) == 0 {
			continue
		}
		fmt.Fprintf(&b, "#EXTINF:-1,%s - %s\n", release.Artist, track.Title)
		b.WriteString(site.Abs(track.Streams[0].URL))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}
