package waveform

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"faircamp/internal/cachekey"
	"faircamp/internal/services/ffmpeg"
)

// Buckets is the fixed resolution of every waveform.
const Buckets = 500

// Peaks holds one normalized peak (0..100) per bucket.
type Peaks []int

// Compute reduces s16le mono PCM to peak buckets. Short or silent input
// yields zeroed buckets rather than an error.
func Compute(pcm []byte) Peaks {
	samples := len(pcm) / 2
	peaks := make(Peaks, Buckets)
	if samples == 0 {
		return peaks
	}

	var maxPeak int
	raw := make([]int, Buckets)
	for bucket := 0; bucket < Buckets; bucket++ {
		start := bucket * samples / Buckets
		end := (bucket + 1) * samples / Buckets
		peak := 0
		for i := start; i < end; i++ {
			sample := int(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
			if sample < 0 {
				sample = -sample
			}
			if sample > peak {
				peak = sample
			}
		}
		raw[bucket] = peak
		if peak > maxPeak {
			maxPeak = peak
		}
	}

	if maxPeak == 0 {
		return peaks
	}
	for i, peak := range raw {
		peaks[i] = peak * 100 / maxPeak
	}
	return peaks
}

// Producer extracts waveform JSON artifacts.
type Producer struct {
	client  ffmpeg.Client
	timeout time.Duration
}

// NewProducer wires a waveform producer; timeout bounds each decode.
func NewProducer(client ffmpeg.Client, timeout time.Duration) *Producer {
	return &Producer{client: client, timeout: timeout}
}

// Params returns the output-affecting waveform parameters.
func (p *Producer) Params() cachekey.Params {
	return cachekey.Params{
		"buckets":     strconv.Itoa(Buckets),
		"scale":       "abs-peak-0-100",
		"sample_rate": "8000",
	}
}

// Produce decodes srcPath and writes the peak JSON to dest.
func (p *Producer) Produce(ctx context.Context, dest, srcPath string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	pcm, err := p.client.ExtractPCM(ctx, srcPath)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Compute(pcm))
	if err != nil {
		return fmt.Errorf("encode waveform: %w", err)
	}
	return os.WriteFile(dest, data, 0o644)
}
