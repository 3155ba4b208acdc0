package images

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"strconv"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"faircamp/internal/cachekey"
)

// Producer renders resized JPEG covers.
type Producer struct {
	quality int
}

// NewProducer configures the JPEG quality used for every rendition.
func NewProducer(quality int) *Producer {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Producer{quality: quality}
}

// Params returns the output-affecting parameters for one rendition size.
func (p *Producer) Params(size int) cachekey.Params {
	return cachekey.Params{
		"max_edge":     strconv.Itoa(size),
		"jpeg_quality": strconv.Itoa(p.quality),
		"scaler":       "catmull-rom",
	}
}

// Produce decodes srcPath, scales it to fit within size x size preserving
// aspect ratio, and writes a JPEG to dest. Images already small enough are
// re-encoded without upscaling.
func (p *Producer) Produce(ctx context.Context, dest, srcPath string, size int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	src, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode image %s: %w", srcPath, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	targetW, targetH := fitWithin(width, height, size)

	var result image.Image = src
	if targetW != width || targetH != height {
		scaled := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Src, nil)
		result = scaled
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create image output: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, result, &jpeg.Options{Quality: p.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Close()
}

// fitWithin shrinks (w, h) so the longer edge equals max, never upscaling.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		scaled := h * max / w
		if scaled < 1 {
			scaled = 1
		}
		return max, scaled
	}
	scaled := w * max / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, max
}
