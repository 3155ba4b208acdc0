package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"faircamp/internal/cachekey"
)

// Member is one file inside a release archive.
type Member struct {
	// Name is the path inside the archive, slash-separated.
	Name string
	// SourcePath is the file on disk to include.
	SourcePath string
}

// Zip stores MS-DOS timestamps; a fixed instant keeps output bytes identical
// across builds regardless of when members were produced.
var fixedModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Producer writes release archives.
type Producer struct {
	level int
}

// NewProducer pins the deflate compression level (0..9).
func NewProducer(level int) *Producer {
	if level < 0 || level > 9 {
		level = 6
	}
	return &Producer{level: level}
}

// Params returns the output-affecting archive parameters.
func (p *Producer) Params() cachekey.Params {
	return cachekey.Params{
		"container":         "zip",
		"compression_level": strconv.Itoa(p.level),
	}
}

// Produce writes all members into a zip at dest. Members are sorted by
// archive name so caller ordering never changes the bytes.
func (p *Producer) Produce(ctx context.Context, dest string, members []Member) error {
	if len(members) == 0 {
		return fmt.Errorf("archive: no members")
	}

	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, p.level)
	})

	for _, member := range sorted {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := p.writeMember(zw, member); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func (p *Producer) writeMember(zw *zip.Writer, member Member) error {
	in, err := os.Open(member.SourcePath)
	if err != nil {
		return fmt.Errorf("archive member %s: %w", member.Name, err)
	}
	defer in.Close()

	header := &zip.FileHeader{
		Name:     member.Name,
		Method:   zip.Deflate,
		Modified: fixedModTime,
	}
	header.SetMode(0o644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("archive member %s: %w", member.Name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("archive member %s: %w", member.Name, err)
	}
	return nil
}
