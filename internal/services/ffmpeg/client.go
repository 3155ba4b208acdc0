package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"faircamp/internal/services"
)

var commandContext = exec.CommandContext

// TranscodeSpec describes one encode invocation.
type TranscodeSpec struct {
	InputPath  string
	OutputPath string

	// Codec is the ffmpeg encoder name, e.g. "libopus" or "libmp3lame".
	Codec string
	// BitrateKbps selects constant-bitrate encoding when positive.
	BitrateKbps int
	// VBRQuality selects quality-based encoding (-q:a) when BitrateKbps is zero.
	VBRQuality int

	// StripTags drops all source metadata before applying Tags.
	StripTags bool
	// Tags are written into the output container, sorted by key for
	// deterministic argument order.
	Tags map[string]string
	// CoverPath embeds the image as attached picture when non-empty.
	CoverPath string
}

// Client defines the encoder behaviour the producers depend on.
type Client interface {
	Transcode(ctx context.Context, spec TranscodeSpec) error
	ExtractPCM(ctx context.Context, inputPath string) ([]byte, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI invokes the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcode runs one encode to completion.
func (c *CLI) Transcode(ctx context.Context, spec TranscodeSpec) error {
	if strings.TrimSpace(spec.InputPath) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "transcode", "input path required", nil)
	}
	if strings.TrimSpace(spec.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "transcode", "output path required", nil)
	}
	if strings.TrimSpace(spec.Codec) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "transcode", "codec required", nil)
	}

	args := []string{"-hide_banner", "-nostdin", "-y", "-i", spec.InputPath}
	if spec.CoverPath != "" {
		args = append(args, "-i", spec.CoverPath)
	}
	args = append(args, "-map", "0:a")
	if spec.CoverPath != "" {
		args = append(args, "-map", "1:v", "-c:v", "copy", "-disposition:v:0", "attached_pic")
	}
	args = append(args, "-c:a", spec.Codec)
	if spec.BitrateKbps > 0 {
		args = append(args, "-b:a", strconv.Itoa(spec.BitrateKbps)+"k")
	} else {
		args = append(args, "-q:a", strconv.Itoa(spec.VBRQuality))
	}
	if spec.StripTags {
		args = append(args, "-map_metadata", "-1")
	}
	for _, key := range sortedTagKeys(spec.Tags) {
		args = append(args, "-metadata", key+"="+spec.Tags[key])
	}
	args = append(args, spec.OutputPath)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return c.classify(ctx, "transcode", err, stderr.Bytes())
}

// ExtractPCM decodes the input into 8 kHz mono signed 16-bit little-endian
// samples, returned raw for waveform bucketing.
func (c *CLI) ExtractPCM(ctx context.Context, inputPath string) ([]byte, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "extract_pcm", "input path required", nil)
	}

	args := []string{
		"-hide_banner", "-nostdin",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "8000",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err := c.classify(ctx, "extract_pcm", err, stderr.Bytes()); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func (c *CLI) classify(ctx context.Context, operation string, err error, stderr []byte) error {
	if err == nil {
		return nil
	}
	detail := stderrTail(stderr)
	if ctx.Err() != nil {
		marker := services.ErrTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return services.Wrap(marker, "ffmpeg", operation, "encoder exceeded deadline", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrConfiguration, "ffmpeg", operation,
			fmt.Sprintf("%s binary not found on PATH", c.binary), err)
	}
	if detail != "" {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, detail, err)
	}
	return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, "", err)
}

// stderrTail keeps the last few stderr lines, where ffmpeg puts the actual
// failure reason.
func stderrTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " | ")
}

func sortedTagKeys(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
