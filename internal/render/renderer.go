package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer holds the parsed templates and the markdown converter.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
		"fileSize":   func(n int64) string { return humanize.Bytes(uint64(n)) },
	}
	templates, err := template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		templates: templates,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// MarkdownHTML converts manifest markdown into embeddable HTML.
func (r *Renderer) MarkdownHTML(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// WriteSite renders every page, the feed and the playlists into buildDir.
func (r *Renderer) WriteSite(buildDir string, site *Site) error {
	if err := r.writePage(filepath.Join(buildDir, "index.html"), "index.html.tmpl", site); err != nil {
		return err
	}

	for _, release := range site.Releases {
		dir := filepath.Join(buildDir, release.Slug)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create release directory: %w", err)
		}
		page := releasePage{Site: site, Release: release}
		if err := r.writePage(filepath.Join(dir, "index.html"), "release.html.tmpl", page); err != nil {
			return err
		}
		if release.Streaming {
			if err := writePlaylist(filepath.Join(dir, "playlist.m3u"), site, release); err != nil {
				return err
			}
		}
	}

	for i := range site.Artists {
		artist := &site.Artists[i]
		dir := filepath.Join(buildDir, "artists", artist.Slug)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artist directory: %w", err)
		}
		page := artistPage{Site: site, Artist: artist}
		if err := r.writePage(filepath.Join(dir, "index.html"), "artist.html.tmpl", page); err != nil {
			return err
		}
	}

	return writeFeed(filepath.Join(buildDir, "feed.rss"), site)
}

type releasePage struct {
	Site    *Site
	Release *ReleaseView
}

type artistPage struct {
	Site   *Site
	Artist *ArtistView
}

func (r *Renderer) writePage(path, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// Abs joins a site-root-relative URL onto the configured base URL.
func (s *Site) Abs(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
