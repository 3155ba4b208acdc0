package render

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	Link      string        `xml:"link"`
	GUID      string        `xml:"guid"`
	PubDate   string        `xml:"pubDate,omitempty"`
	Enclosure *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// writeFeed emits an RSS 2.0 feed with one item per release. The enclosure
// points at the first streamable rendition of the release's first track.
func writeFeed(path string, site *Site) error {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         site.Title,
			Link:          site.Abs(""),
			LastBuildDate: site.GeneratedAt.Format(time.RFC1123Z),
		},
	}

	for _, release := range site.Releases {
		link := site.Abs(release.Slug + "/")
		item := rssItem{
			Title: fmt.Sprintf("%s: %s", release.Artist, release.Title),
			Link:  link,
			GUID:  link,
		}
		if release.HasDate {
			item.PubDate = release.Date.Format(time.RFC1123Z)
		}
		if asset, ok := firstStream(release); ok {
			item.Enclosure = &rssEnclosure{
				URL:    site.Abs(asset.URL),
				Length: asset.Bytes,
				Type:   asset.MIME,
			}
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	data, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

func firstStream(release *ReleaseView) (Asset, bool) {
	if !release.Streaming {
		return Asset{}, false
	}
	for _, track := range release.Tracks {
		if len(track.Streams) > 0 {
			return track.Streams[0], true
		}
	}
	return Asset{}, false
}
